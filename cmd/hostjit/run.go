package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colorfulnotion/hostjit/bytecode"
	"github.com/colorfulnotion/hostjit/config"
	"github.com/colorfulnotion/hostjit/console"
	"github.com/colorfulnotion/hostjit/emulator"
	"github.com/colorfulnotion/hostjit/jit"
	"github.com/colorfulnotion/hostjit/log"
	"github.com/colorfulnotion/hostjit/storage"
	"github.com/colorfulnotion/hostjit/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type runOptions struct {
	file      string
	nonNative bool
	disasm    bool
}

func setupLogging(cfg *config.Config) error {
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log.InitLogger(cfg.Log.Level)
	if cfg.Log.Modules != "" {
		log.EnableModules(cfg.Log.Modules)
	}
	log.Debug(log.CLIModule, "logger ready", "level", log.LevelString(lvl), "modules", cfg.Log.Modules)
	return nil
}

func setupTelemetry(ctx context.Context, cfg *config.Config, stdout io.Writer) (*telemetry.Provider, error) {
	if !cfg.Run.Time && cfg.Telemetry.OTLPEndpoint == "" {
		return telemetry.Noop(), nil
	}
	topts := telemetry.Options{OTLPEndpoint: cfg.Telemetry.OTLPEndpoint}
	if cfg.Run.Time {
		topts.Timing = stdout
	}
	return telemetry.Setup(ctx, topts)
}

func interactive(stdin io.Reader) bool {
	f, ok := stdin.(*os.File)
	return ok && isTerminal(f)
}

func runFile(ctx context.Context, cfg *config.Config, ro runOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := setupLogging(cfg); err != nil {
		return err
	}
	tp, err := setupTelemetry(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn(log.CLIModule, "telemetry shutdown", "err", err)
		}
	}()

	if ro.nonNative {
		return runEmulated(ctx, cfg, ro.file, tp, stdin, stdout, stderr)
	}

	p, err := bytecode.Load(ro.file)
	if err != nil {
		return err
	}
	log.Info(log.CLIModule, "loaded", "file", ro.file, "words", p.Len(), "hash", p.Hash().String_short())

	opts := jit.Options{Strict: cfg.Run.Strict}
	tctx, span := tp.Start(ctx, telemetry.SpanTranslate, attribute.Int("words", p.Len()))
	code, err := translateCached(tctx, cfg, p, opts)
	span.End()
	if err != nil {
		return err
	}
	if ro.disasm {
		fmt.Fprint(stdout, jit.Listing(p, code))
	}

	hio, closeIO, err := console.New(stdin, stdout, interactive(stdin))
	if err != nil {
		return err
	}
	defer closeIO()

	_, span = tp.Start(ctx, telemetry.SpanExecute, attribute.Int("bytes", len(code.Bytes)))
	defer span.End()
	if cfg.Run.Sandbox {
		return runSandbox(code, hio, cfg.Run.MaxSteps)
	}
	exe, err := code.Finalize()
	if err != nil {
		return err
	}
	defer exe.Close()
	return exe.Run(hio)
}

// translateCached consults the cache directory when one is configured.
func translateCached(ctx context.Context, cfg *config.Config, p *bytecode.Program, opts jit.Options) (*jit.Code, error) {
	if cfg.Cache.Dir == "" {
		return jit.Translate(p, opts)
	}
	cache, err := storage.OpenCodeCache(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	defer cache.Close()
	code, ok, err := cache.Get(p, opts)
	if err != nil {
		log.Warn(log.CacheModule, "cache read failed", "err", err)
	}
	if ok {
		return code, nil
	}
	code, err = jit.Translate(p, opts)
	if err != nil {
		return nil, err
	}
	if err := cache.Put(p, opts, code); err != nil {
		log.Warn(log.CacheModule, "cache write failed", "err", err)
	}
	return code, nil
}

func runEmulated(ctx context.Context, cfg *config.Config, file string, tp *telemetry.Provider, stdin io.Reader, stdout, stderr io.Writer) error {
	ectx, span := tp.Start(ctx, telemetry.SpanExecute, attribute.String("emulator", cfg.Run.Emulator))
	defer span.End()
	if cfg.Run.Emulator != emulator.Builtin {
		return emulator.RunExternal(ectx, cfg.Run.Emulator, file, stdin, stdout, stderr)
	}
	p, err := bytecode.Load(file)
	if err != nil {
		return err
	}
	hio, closeIO, err := console.New(stdin, stdout, interactive(stdin))
	if err != nil {
		return err
	}
	defer closeIO()
	m := emulator.NewMachine(p, hio, emulator.Options{MaxSteps: cfg.Run.MaxSteps, Strict: cfg.Run.Strict})
	if err := m.Run(ectx); err != nil {
		return err
	}
	log.Debug(log.EmuModule, "halted", "steps", m.Steps(), "pc", m.PC())
	return nil
}
