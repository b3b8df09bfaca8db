package config

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func mapEnv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyEnv(cfg, mapEnv(map[string]string{
		"TEMP_ROOT":               "/scratch",
		"HTML2PDF_HOST":           "127.0.0.1",
		"HTML2PDF_PORT":           "9090",
		"HTML2PDF_MAX_FILE_SIZE":  "10m",
		"HTML2PDF_CLEANUP_DELAY":  "30s",
		"HTML2PDF_RENDER_TIMEOUT": "2m",
		"HTML2PDF_WORKERS":        "5",
		"HTML2PDF_PAGE_SIZE":      "legal",
		"HTML2PDF_CORS_ORIGINS":   "https://a.example, https://b.example,",
		"HTML2PDF_LOG_LEVEL":      "warn",
		"HTML2PDF_LOG_FILE":       "/var/log/html2pdf.json",
		"HTML2PDF_SWEEP_INTERVAL": "0s",
		"HTML2PDF_RATE_LIMIT":     "2.5",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.Storage.TempRoot != filepath.Join("/scratch", "html-to-pdf") {
		t.Errorf("TempRoot = %q", cfg.Storage.TempRoot)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.Limits.MaxFileSize != 10<<20 {
		t.Errorf("MaxFileSize = %d", cfg.Limits.MaxFileSize)
	}
	if cfg.Storage.CleanupDelay.D() != 30*time.Second {
		t.Errorf("CleanupDelay = %s", cfg.Storage.CleanupDelay)
	}
	if cfg.Render.Timeout.D() != 2*time.Minute {
		t.Errorf("Timeout = %s", cfg.Render.Timeout)
	}
	if cfg.Render.Workers != 5 {
		t.Errorf("Workers = %d", cfg.Render.Workers)
	}
	if cfg.Render.Page.Size != "legal" {
		t.Errorf("Page.Size = %q", cfg.Render.Page.Size)
	}
	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
	if cfg.Log.Level != "warn" || cfg.Log.File != "/var/log/html2pdf.json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Storage.SweepInterval != 0 {
		t.Errorf("SweepInterval = %s, want disabled", cfg.Storage.SweepInterval)
	}
	if cfg.Server.RateLimit != 2.5 {
		t.Errorf("RateLimit = %v, want 2.5", cfg.Server.RateLimit)
	}
	if cfg.Render.NoSandbox {
		t.Error("NoSandbox should stay false without CI hints")
	}
}

func TestApplyEnv_Empty(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, mapEnv(nil)); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Addr() != DefaultConfig().Addr() || cfg.Storage.TempRoot != DefaultConfig().Storage.TempRoot {
		t.Error("empty environment changed the config")
	}
}

func TestApplyEnv_Sandbox(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		want    bool
		wantBin string
	}{
		{"nothing set", nil, false, ""},
		{"ROD_NO_SANDBOX=1", map[string]string{"ROD_NO_SANDBOX": "1"}, true, ""},
		{"ROD_NO_SANDBOX=false", map[string]string{"ROD_NO_SANDBOX": "false"}, false, ""},
		{"CI=true", map[string]string{"CI": "true"}, true, ""},
		{"custom browser", map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chromium"}, true, "/usr/bin/chromium"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ApplyEnv(cfg, mapEnv(tt.vars)); err != nil {
				t.Fatal(err)
			}
			if cfg.Render.NoSandbox != tt.want {
				t.Errorf("NoSandbox = %v, want %v", cfg.Render.NoSandbox, tt.want)
			}
			if cfg.Render.BrowserBin != tt.wantBin {
				t.Errorf("BrowserBin = %q, want %q", cfg.Render.BrowserBin, tt.wantBin)
			}
		})
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	for _, name := range []string{
		"HTML2PDF_PORT",
		"HTML2PDF_MAX_FILE_SIZE",
		"HTML2PDF_CLEANUP_DELAY",
		"HTML2PDF_RENDER_TIMEOUT",
		"HTML2PDF_WORKERS",
		"HTML2PDF_SWEEP_INTERVAL",
		"HTML2PDF_RATE_LIMIT",
	} {
		t.Run(name, func(t *testing.T) {
			err := ApplyEnv(DefaultConfig(), mapEnv(map[string]string{name: "not-a-value"}))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ApplyEnv() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestUnknownEnvVars(t *testing.T) {
	environ := []string{
		"PATH=/usr/bin",
		"HTML2PDF_PORT=8000",
		"HTML2PDF_TIMEOUT=1m",
		"HTML2PDF_CONFIG=prod",
		"HTML2PDF_MAXFILESIZE=1",
		"TEMP_ROOT=/tmp",
	}
	got := UnknownEnvVars(environ)
	want := []string{"HTML2PDF_MAXFILESIZE", "HTML2PDF_TIMEOUT"}
	if !slices.Equal(got, want) {
		t.Errorf("UnknownEnvVars() = %v, want %v", got, want)
	}
}
