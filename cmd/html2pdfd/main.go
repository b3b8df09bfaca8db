package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/config"
	"github.com/alnah/go-html2pdf/internal/hints"
	"github.com/alnah/go-html2pdf/internal/logging"
	"github.com/alnah/go-html2pdf/internal/server"
	"github.com/alnah/go-html2pdf/internal/yamlutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

var errLogFile = errors.New("log file unusable")

func main() {
	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run starts the service and blocks until ctx is canceled.
// Returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	flags, fs, err := parseFlags(args, env.Stderr)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	if flags.version {
		fmt.Fprintf(env.Stdout, "html2pdfd %s\n", Version)
		return ExitSuccess
	}

	cfg, err := loadConfig(flags, fs, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}
	if flags.printConfig {
		out, err := yamlutil.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(env.Stderr, err)
			return ExitGeneral
		}
		_, _ = env.Stdout.Write(out)
		return ExitSuccess
	}

	level, _ := logging.ParseLevel(cfg.Log.Level) // validated by cfg.Validate
	logger, closeLog, err := logging.Setup(env.Stderr, cfg.Log.File, level)
	if err != nil {
		err = fmt.Errorf("%w: %v", errLogFile, err)
		fmt.Fprintln(env.Stderr, err)
		fmt.Fprintln(env.Stderr, hints.ForLogFile(cfg.Log.File))
		return exitCodeFor(err)
	}
	defer func() { _ = closeLog() }()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))

	for _, name := range config.UnknownEnvVars(env.Environ()) {
		logger.Warn("unknown environment variable", "name", name)
	}

	if err := serve(ctx, cfg, logger, env); err != nil {
		logger.Error("server stopped with error", "error", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// loadConfig applies defaults, the config file, environment, then flags.
func loadConfig(flags *serveFlags, fs *flag.FlagSet, env *Environment) (*config.Config, error) {
	cfg := config.DefaultConfig()

	name := flags.config
	if name == "" {
		name = env.Getenv("HTML2PDF_CONFIG")
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg, env.Getenv); err != nil {
		return nil, err
	}
	if err := flags.apply(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serve builds the converter and HTTP server and runs until ctx ends.
// Pending workspaces are destroyed after the server has drained.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, env *Environment) error {
	slots := html2pdf.ResolveRenderSlots(cfg.Render.Workers)
	conv, err := html2pdf.NewConverter(cfg.Storage.TempRoot,
		html2pdf.WithLogger(logger),
		html2pdf.WithMaxFileSize(int64(cfg.Limits.MaxFileSize)),
		html2pdf.WithCleanupDelay(cfg.Storage.CleanupDelay.D()),
		html2pdf.WithRenderSlots(slots),
		html2pdf.WithRenderOptions(html2pdf.RenderOptions{
			Timeout:    cfg.Render.Timeout.D(),
			Page:       cfg.PageSettings(),
			BrowserBin: cfg.Render.BrowserBin,
			NoSandbox:  cfg.Render.NoSandbox,
		}),
	)
	if err != nil {
		return err
	}
	defer func() {
		pending := conv.PendingCleanups()
		_ = conv.Close()
		logger.Info("workspaces reclaimed on shutdown", "count", pending)
	}()

	ws := conv.Workspaces()
	if err := ws.EnsureRoot(); err != nil {
		logger.Error("workspace root unusable", "root", ws.Root(), "hint", hints.ForWorkspaceRoot(ws.Root()))
		return err
	}
	if cfg.Storage.SweepOnStart {
		n, err := ws.Sweep(cfg.Storage.CleanupDelay.D())
		if err != nil {
			logger.Warn("startup sweep failed", "root", ws.Root(), "error", err)
		} else if n > 0 {
			logger.Info("removed stale workspaces", "count", n)
		}
	}

	if cfg.Render.BrowserBin == "" {
		if path, ok := env.BrowserPath(); ok {
			logger.Info("using system browser", "path", path)
		} else {
			logger.Info("no system browser found, rod will download Chromium on first render")
		}
	}

	logger.Info("starting html2pdfd",
		"version", Version,
		"root", ws.Root(),
		"max_file_size", cfg.Limits.MaxFileSize.String(),
		"cleanup_delay", cfg.Storage.CleanupDelay.String(),
		"render_slots", slots,
	)

	ln, err := env.Listen(ctx, cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
	}

	srv := server.New(conv, logger, server.Options{
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.D(),
		IdleTimeout:       cfg.Server.IdleTimeout.D(),
		ShutdownTimeout:   cfg.Server.ShutdownTimeout.D(),
		RateLimit:         cfg.Server.RateLimit,
		RateBurst:         cfg.Server.RateBurst,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, ln) })
	g.Go(func() error {
		return ws.RunSweeper(gctx, cfg.Storage.SweepInterval.D(), cfg.Storage.SweepMaxAge.D(), logger)
	})
	return g.Wait()
}

// parseDuration parses a flag duration such as "90s".
func parseDuration(s string) (config.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return config.Duration(d), nil
}

// lookBrowser finds a locally installed Chrome/Chromium.
func lookBrowser() (string, bool) {
	return launcher.LookPath()
}
