package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2pdf/internal/config"
)

// serveFlags holds every command-line flag. Only flags the operator set
// explicitly override the config file and environment.
type serveFlags struct {
	config      string
	host        string
	port        int
	tempRoot    string
	maxFileSize string
	cleanup     string
	timeout     string
	workers     int
	sweepEvery  string
	rateLimit   float64
	pageSize    string
	orientation string
	margin      float64
	browserBin  string
	noSandbox   bool
	corsOrigins []string
	logLevel    string
	logFile     string
	verbose     bool
	printConfig bool
	version     bool
}

// parseFlags parses args (without the program name).
func parseFlags(args []string, stderr io.Writer) (*serveFlags, *flag.FlagSet, error) {
	f := &serveFlags{}
	fs := flag.NewFlagSet("html2pdfd", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.host, "host", "", "listen host")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port")
	fs.StringVar(&f.tempRoot, "temp-root", "", "workspace root directory")
	fs.StringVar(&f.maxFileSize, "max-file-size", "", "upload ceiling, e.g. 200MiB")
	fs.StringVar(&f.cleanup, "cleanup-delay", "", "how long served workspaces are kept, e.g. 2m")
	fs.StringVar(&f.timeout, "render-timeout", "", "per-render timeout, e.g. 60s")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent browsers (0 = auto)")
	fs.StringVar(&f.sweepEvery, "sweep-interval", "", "periodic stale-workspace sweep, e.g. 10m (0 = off)")
	fs.Float64Var(&f.rateLimit, "rate-limit", 0, "max POST /convert requests per second (0 = unlimited)")
	fs.StringVar(&f.pageSize, "page-size", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0-3.0)")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium binary (default: rod managed)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox (containers)")
	fs.StringSliceVar(&f.corsOrigins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "also write JSON logs to this file")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "shorthand for --log-level=debug")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective config as YAML and exit")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	return f, fs, nil
}

// apply overlays explicitly set flags onto cfg.
func (f *serveFlags) apply(cfg *config.Config, fs *flag.FlagSet) error {
	set := func(name string) bool { return fs.Changed(name) }

	if set("host") {
		cfg.Server.Host = f.host
	}
	if set("port") {
		cfg.Server.Port = f.port
	}
	if set("temp-root") {
		cfg.Storage.TempRoot = f.tempRoot
	}
	if set("max-file-size") {
		n, err := config.ParseByteSize(f.maxFileSize)
		if err != nil {
			return fmt.Errorf("%w: --max-file-size: %v", errUsage, err)
		}
		cfg.Limits.MaxFileSize = n
	}
	if set("cleanup-delay") {
		d, err := parseDuration(f.cleanup)
		if err != nil {
			return fmt.Errorf("%w: --cleanup-delay: %v", errUsage, err)
		}
		cfg.Storage.CleanupDelay = d
	}
	if set("render-timeout") {
		d, err := parseDuration(f.timeout)
		if err != nil {
			return fmt.Errorf("%w: --render-timeout: %v", errUsage, err)
		}
		cfg.Render.Timeout = d
	}
	if set("workers") {
		cfg.Render.Workers = f.workers
	}
	if set("sweep-interval") {
		d, err := parseDuration(f.sweepEvery)
		if err != nil {
			return fmt.Errorf("%w: --sweep-interval: %v", errUsage, err)
		}
		cfg.Storage.SweepInterval = d
	}
	if set("rate-limit") {
		cfg.Server.RateLimit = f.rateLimit
	}
	if set("page-size") {
		cfg.Render.Page.Size = f.pageSize
	}
	if set("orientation") {
		cfg.Render.Page.Orientation = f.orientation
	}
	if set("margin") {
		cfg.Render.Page.Margin = f.margin
	}
	if set("browser-bin") {
		cfg.Render.BrowserBin = f.browserBin
	}
	if set("no-sandbox") {
		cfg.Render.NoSandbox = f.noSandbox
	}
	if set("cors-origin") {
		cfg.CORS.AllowedOrigins = f.corsOrigins
	}
	if set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	if set("log-file") {
		cfg.Log.File = f.logFile
	}
	return nil
}
