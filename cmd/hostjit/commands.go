package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/common"
	"github.com/colorfulnotion/hostjit/config"
	"github.com/colorfulnotion/hostjit/jit"
	"github.com/colorfulnotion/hostjit/storage"
	"github.com/spf13/cobra"
)

// loadConfig reads the --config file and applies the logging flags.
func loadConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Modules = f.debug
	}
	return cfg, setupLogging(cfg)
}

func translateFile(path string, strict bool) (*bytecode.Program, *jit.Translator, *jit.Code, error) {
	p, err := bytecode.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	t := jit.NewTranslator(p, jit.Options{Strict: strict})
	code, err := t.Run()
	if err != nil {
		return nil, nil, nil, err
	}
	return p, t, code, nil
}

func newAsmCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "asm <source>",
		Short: "Assemble a text program into a bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			p, err := bytecode.Assemble(src)
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".bin"
			}
			if err := os.WriteFile(output, p.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words\n", output, p.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <source>.bin)")
	return cmd
}

func newDisasmCmd(f *rootFlags) *cobra.Command {
	var native, strict bool
	cmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "List a bytecode file, or its translation with --native",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, f); err != nil {
				return err
			}
			if !native {
				p, err := bytecode.Load(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), bytecode.Disassemble(p))
				return nil
			}
			p, _, code, err := translateFile(args[0], strict)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), jit.Listing(p, code))
			return nil
		},
	}
	cmd.Flags().BoolVar(&native, "native", false, "Show the x86-64 translation")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject unknown opcodes")
	return cmd
}

func newLabelsCmd(f *rootFlags) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "labels <file>",
		Short: "Show the jump and call sites of a translated program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, f); err != nil {
				return err
			}
			_, t, _, err := translateFile(args[0], strict)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), t.Labels().Tree())
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject unknown opcodes")
	return cmd
}

func newStatsCmd(f *rootFlags) *cobra.Command {
	var html string
	var strict bool
	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Print a JSON translation report, or an HTML chart with --html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, f); err != nil {
				return err
			}
			p, t, code, err := translateFile(args[0], strict)
			if err != nil {
				return err
			}
			report := jit.NewReport(p, code, t.Labels())
			if html != "" {
				out, err := os.Create(html)
				if err != nil {
					return err
				}
				defer out.Close()
				return report.RenderChart(out)
			}
			data, err := report.JSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&html, "html", "", "Write an HTML chart to this file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject unknown opcodes")
	return cmd
}

func newCacheCmd(f *rootFlags) *cobra.Command {
	var dir string
	var purge bool
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or purge the translation cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dir") {
				cfg.Cache.Dir = dir
			}
			if cfg.Cache.Dir == "" {
				return fmt.Errorf("no cache directory: set --dir or [cache] dir")
			}
			cache, err := storage.OpenCodeCache(cfg.Cache.Dir)
			if err != nil {
				return err
			}
			defer cache.Close()
			if purge {
				n, err := cache.Purge()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
				return nil
			}
			n, err := cache.Len()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries\n", cfg.Cache.Dir, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Cache directory")
	cmd.Flags().BoolVar(&purge, "purge", false, "Delete every cached translation")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hostjit %s (commit %s, built %s)\n", common.Version, common.CommitHash(), common.BuildTime)
		},
	}
}
