package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// envPrefix marks service-specific environment variables.
const envPrefix = "HTML2PDF_"

// knownEnvVars lists valid HTML2PDF_* environment variables.
// Used to detect typos and warn operators about unknown variables.
var knownEnvVars = map[string]bool{
	"HTML2PDF_CONFIG":         true,
	"HTML2PDF_HOST":           true,
	"HTML2PDF_PORT":           true,
	"HTML2PDF_MAX_FILE_SIZE":  true,
	"HTML2PDF_CLEANUP_DELAY":  true,
	"HTML2PDF_RENDER_TIMEOUT": true,
	"HTML2PDF_WORKERS":        true,
	"HTML2PDF_PAGE_SIZE":      true,
	"HTML2PDF_CORS_ORIGINS":   true,
	"HTML2PDF_LOG_LEVEL":      true,
	"HTML2PDF_LOG_FILE":       true,
	"HTML2PDF_SWEEP_INTERVAL": true,
	"HTML2PDF_RATE_LIMIT":     true,
}

// ApplyEnv overlays environment variables onto cfg. getenv is os.Getenv in
// production. TEMP_ROOT is the base directory; the workspace root is
// TEMP_ROOT/html-to-pdf. ROD_BROWSER_BIN and ROD_NO_SANDBOX follow go-rod's
// conventions, and CI=true or a custom browser binary implies no sandbox.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("TEMP_ROOT"); v != "" {
		cfg.Storage.TempRoot = filepath.Join(v, AppName)
	}
	if v := getenv("HTML2PDF_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := getenv("HTML2PDF_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_PORT: %q is not a number", ErrInvalidConfig, v)
		}
		cfg.Server.Port = port
	}
	if v := getenv("HTML2PDF_MAX_FILE_SIZE"); v != "" {
		n, err := ParseByteSize(v)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_MAX_FILE_SIZE: %v", ErrInvalidConfig, err)
		}
		cfg.Limits.MaxFileSize = n
	}
	if v := getenv("HTML2PDF_CLEANUP_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_CLEANUP_DELAY: %v", ErrInvalidConfig, err)
		}
		cfg.Storage.CleanupDelay = Duration(d)
	}
	if v := getenv("HTML2PDF_RENDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_RENDER_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		cfg.Render.Timeout = Duration(d)
	}
	if v := getenv("HTML2PDF_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_SWEEP_INTERVAL: %v", ErrInvalidConfig, err)
		}
		cfg.Storage.SweepInterval = Duration(d)
	}
	if v := getenv("HTML2PDF_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_RATE_LIMIT: %q is not a number", ErrInvalidConfig, v)
		}
		cfg.Server.RateLimit = r
	}
	if v := getenv("HTML2PDF_WORKERS"); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HTML2PDF_WORKERS: %q is not a number", ErrInvalidConfig, v)
		}
		cfg.Render.Workers = w
	}
	if v := getenv("HTML2PDF_PAGE_SIZE"); v != "" {
		cfg.Render.Page.Size = v
	}
	if v := getenv("HTML2PDF_CORS_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	if v := getenv("HTML2PDF_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("HTML2PDF_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := getenv("ROD_BROWSER_BIN"); v != "" {
		cfg.Render.BrowserBin = v
		cfg.Render.NoSandbox = true
	}
	if isTruthy(getenv("ROD_NO_SANDBOX")) || getenv("CI") == "true" {
		cfg.Render.NoSandbox = true
	}
	return nil
}

// UnknownEnvVars returns HTML2PDF_* names in environ that are not recognized,
// sorted. environ is os.Environ() in production.
func UnknownEnvVars(environ []string) []string {
	var unknown []string
	for _, kv := range environ {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, envPrefix) && !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
