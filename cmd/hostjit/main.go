// hostjit translates stack machine bytecode to x86-64 and runs it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/colorfulnotion/hostjit/common"
	"github.com/colorfulnotion/hostjit/config"
	"github.com/colorfulnotion/hostjit/emulator"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	errNoFile    = errors.New("expected file name")
	errManyFiles = errors.New("more than one input file")
)

type rootFlags struct {
	nonNative    bool
	time         bool
	emulator     string
	disasm       bool
	cacheDir     string
	strict       bool
	sandbox      bool
	configPath   string
	logLevel     string
	debug        string
	otlpEndpoint string
	maxSteps     uint64
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var f rootFlags
	var rootCmd = &cobra.Command{
		Use:           "hostjit [--non-native] [--time] <file>",
		Short:         "Translate host bytecode to native x86-64 and run it",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return errNoFile
			case len(args) > 1:
				return errManyFiles
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.configPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			applyFlags(cmd, &f, cfg)
			return runFile(cmd.Context(), cfg, runOptions{
				file:      args[0],
				nonNative: f.nonNative,
				disasm:    f.disasm,
			}, stdin, stdout, stderr)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.Flags()
	flags.BoolVar(&f.nonNative, "non-native", false, "Run the program with the emulator instead of translating it")
	flags.BoolVar(&f.time, "time", false, "Print translation and execution times")
	flags.StringVar(&f.emulator, "emulator", emulator.DefaultExternal, `Emulator binary for --non-native, or "builtin"`)
	flags.BoolVar(&f.disasm, "disasm", false, "Print the native listing before running")
	flags.StringVar(&f.cacheDir, "cache", "", "Translation cache directory")
	flags.BoolVar(&f.strict, "strict", false, "Reject unknown opcodes")
	flags.BoolVar(&f.sandbox, "sandbox", false, "Run translated code under unicorn (unicorn builds only)")
	flags.Uint64Var(&f.maxSteps, "max-steps", 0, "Step limit for the builtin emulator and the sandbox")
	flags.StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "Export timing spans over OTLP/HTTP to host:port")
	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", config.DefaultFile, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, crit)")
	rootCmd.PersistentFlags().StringVar(&f.debug, "debug", "", `Modules with debug logging ("jit,exec" or "all")`)

	rootCmd.AddCommand(
		newAsmCmd(),
		newDisasmCmd(&f),
		newLabelsCmd(&f),
		newStatsCmd(&f),
		newCacheCmd(&f),
		newVersionCmd(),
	)
	return rootCmd
}

// applyFlags overrides file settings with the flags given on the command line.
func applyFlags(cmd *cobra.Command, f *rootFlags, cfg *config.Config) {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("emulator") {
		cfg.Run.Emulator = f.emulator
	}
	if changed("strict") {
		cfg.Run.Strict = f.strict
	}
	if changed("time") {
		cfg.Run.Time = f.time
	}
	if changed("sandbox") {
		cfg.Run.Sandbox = f.sandbox
	}
	if changed("max-steps") {
		cfg.Run.MaxSteps = f.maxSteps
	}
	if changed("cache") {
		cfg.Cache.Dir = f.cacheDir
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("debug") {
		cfg.Log.Modules = f.debug
	}
	if changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = f.otlpEndpoint
	}
}

// dropUnknownFlags removes options the target command does not define,
// warning about each one. Unknown options never consume a value.
func dropUnknownFlags(root *cobra.Command, args []string, stderr io.Writer, color bool) []string {
	target := root
	if c, _, err := root.Find(args); err == nil && c != nil {
		target = c
	}
	known := func(arg string) bool {
		name := strings.SplitN(strings.TrimLeft(arg, "-"), "=", 2)[0]
		if name == "help" || name == "h" {
			return true
		}
		sets := []*pflag.FlagSet{target.Flags(), target.PersistentFlags(), target.InheritedFlags()}
		for _, fs := range sets {
			if strings.HasPrefix(arg, "--") {
				if fs.Lookup(name) != nil {
					return true
				}
			} else if len(name) == 1 && fs.ShorthandLookup(name) != nil {
				return true
			}
		}
		return false
	}
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if len(arg) > 1 && arg[0] == '-' && !known(arg) {
			fmt.Fprintf(stderr, "%s Unrecognizable option %s was ignored.  Type --help to show all options\n",
				common.Colorize(color, common.ColorBlue, "Warning:"), arg)
			continue
		}
		out = append(out, arg)
	}
	return out
}

// diagnostic is the text printed after "Fatal error: ".
func diagnostic(err error) string {
	if errors.Is(err, errManyFiles) {
		return "You cannot translate more than one file"
	}
	return err.Error()
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer, color bool) int {
	rootCmd := newRootCmd(stdin, stdout, stderr)
	rootCmd.SetArgs(dropUnknownFlags(rootCmd, args, stderr, color))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s%s\n", common.Colorize(color, common.ColorRed, "Fatal error: "), diagnostic(err))
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, isTerminal(os.Stderr)))
}
