// customactions is a trigger console for the custom action dispatch engine.
// Usage: customactions [--version] [--plain] [--strict] [--script <file>] [--trace] [content_directory]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Esca-MMC/FarmTypeManager-sub001/cli"
	"github.com/Esca-MMC/FarmTypeManager-sub001/config"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/actions"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/rules"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/save"
	"github.com/Esca-MMC/FarmTypeManager-sub001/engine/state"
	"github.com/Esca-MMC/FarmTypeManager-sub001/loader"
	"github.com/Esca-MMC/FarmTypeManager-sub001/logger"
	"github.com/Esca-MMC/FarmTypeManager-sub001/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: customactions [--version] [--plain] [--strict] [--script <file>] [--trace] [content_directory]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	plain := false
	trace := false
	strict := false
	var contentDir, scriptFile string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("customactions %s (commit %s, built %s)\n", version, commit, date)
			return nil
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--strict":
			strict = true
		case "--script":
			if i+1 >= len(args) {
				return fmt.Errorf("--script requires a file path")
			}
			i++
			scriptFile = args[i]
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if contentDir == "" {
		contentDir = cfg.ContentDir
	}
	if contentDir == "" {
		return fmt.Errorf("no content directory given\n%s", usage)
	}

	interactive := scriptFile == "" && !plain && isTerminal()
	log := logger.Setup(cfg, logOutput(interactive))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(contentDir, cfg, strict, log)
	if err != nil {
		return err
	}
	defer eng.Close()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Script mode: open file, force plain, echo lines.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := cli.New(eng, store)
		c.In = f
		c.EchoInput = true
		c.Session.Trace = trace
		c.Run(ctx)
		return nil
	}

	if !interactive {
		c := cli.New(eng, store)
		c.Session.Trace = trace
		c.Run(ctx)
		return nil
	}

	session := cli.NewSession(eng, store)
	session.Trace = trace
	return tui.Run(ctx, session)
}

// buildEngine loads content, compiles the rules and creates the engine. A
// registry of the built-in actions lets the loader warn about unknown ones.
func buildEngine(dir string, cfg *config.Config, strict bool, log *slog.Logger) (*engine.Engine, error) {
	known := actions.NewRegistry(log)
	if err := actions.RegisterBuiltins(known, actions.Env{}); err != nil {
		return nil, err
	}

	content, err := loader.Load(dir, loader.Options{
		Actions: known,
		Strict:  strict,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	set, errs := rules.Compile(content.Rules)
	for _, e := range errs {
		log.Error("rule skipped", "error", e)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	eng, err := engine.New(set, state.NewWorld(content.Defs), engine.Options{Seed: seed, Logger: log})
	if err != nil {
		return nil, err
	}
	log.Info("engine ready", "rules", set.Len(), "seed", seed)
	return eng, nil
}

// openStore picks Redis when CA_REDIS_URL is set, otherwise the save directory.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (save.Store, func(), error) {
	if cfg.RedisURL != "" {
		rs, err := save.NewRedisStore(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	}
	return save.NewFileStore(cfg.SaveDir, log), func() {}, nil
}

// logOutput keeps logs off the alternate screen: the TUI logs to
// customactions.log in the working directory, the line console to stderr.
func logOutput(interactive bool) io.Writer {
	if !interactive {
		return os.Stderr
	}
	f, err := os.OpenFile("customactions.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
