// Package config loads service settings: defaults, then a YAML file, then
// environment variables. Command-line flags are applied last by cmd/html2pdfd.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-html2pdf"
	"github.com/alnah/go-html2pdf/internal/fileutil"
	"github.com/alnah/go-html2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidConfig   = errors.New("invalid config")
)

// AppName names the scratch directory under the temp base and the user
// config directory.
const AppName = "html-to-pdf"

// Config holds all configuration for the conversion service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Limits  LimitsConfig  `yaml:"limits"`
	Render  RenderConfig  `yaml:"render"`
	CORS    CORSConfig    `yaml:"cors"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	ReadHeaderTimeout Duration `yaml:"readHeaderTimeout"`
	IdleTimeout       Duration `yaml:"idleTimeout"`
	ShutdownTimeout   Duration `yaml:"shutdownTimeout"`
	RateLimit         float64  `yaml:"rateLimit"` // POST /convert requests per second, 0 = unlimited
	RateBurst         int      `yaml:"rateBurst"` // 0 = ceil(rateLimit)
}

// StorageConfig defines where job workspaces live and how long they stay.
type StorageConfig struct {
	TempRoot     string   `yaml:"tempRoot"`     // workspace root (default: $TMPDIR/html-to-pdf)
	CleanupDelay Duration `yaml:"cleanupDelay"` // grace period after a response
	SweepOnStart bool     `yaml:"sweepOnStart"` // remove stale job dirs at startup

	// Periodic sweep for workspaces whose timer was lost. 0 disables it.
	SweepInterval Duration `yaml:"sweepInterval"`
	SweepMaxAge   Duration `yaml:"sweepMaxAge"`
}

// LimitsConfig defines upload limits.
type LimitsConfig struct {
	MaxFileSize ByteSize `yaml:"maxFileSize"` // "200MiB" or bytes
}

// RenderConfig defines the Chromium renderer.
type RenderConfig struct {
	Timeout    Duration   `yaml:"timeout"`
	Workers    int        `yaml:"workers"` // 0 = derive from GOMAXPROCS
	BrowserBin string     `yaml:"browserBin"`
	NoSandbox  bool       `yaml:"noSandbox"`
	Page       PageConfig `yaml:"page"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal"
	Orientation string  `yaml:"orientation"` // "portrait", "landscape"
	Margin      float64 `yaml:"margin"`      // inches
}

// CORSConfig defines browser cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // optional JSON log file
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	page := html2pdf.DefaultPageSettings()
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			ReadHeaderTimeout: Duration(10 * time.Second),
			IdleTimeout:       Duration(120 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			TempRoot:      filepath.Join(os.TempDir(), AppName),
			CleanupDelay:  Duration(html2pdf.DefaultCleanupDelay),
			SweepOnStart:  true,
			SweepInterval: Duration(10 * time.Minute),
			SweepMaxAge:   Duration(time.Hour),
		},
		Limits: LimitsConfig{MaxFileSize: ByteSize(html2pdf.DefaultMaxFileSize)},
		Render: RenderConfig{
			Timeout: Duration(html2pdf.DefaultRenderTimeout),
			Page: PageConfig{
				Size:        page.Size,
				Orientation: page.Orientation,
				Margin:      page.Margin,
			},
		},
		CORS: CORSConfig{AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}},
		Log: LogConfig{Level: "info"},
	}
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// PageSettings converts the page section for the renderer.
func (c *Config) PageSettings() *html2pdf.PageSettings {
	return &html2pdf.PageSettings{
		Size:        c.Render.Page.Size,
		Orientation: c.Render.Page.Orientation,
		Margin:      c.Render.Page.Margin,
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port: must be between 0 and 65535, got %d", ErrInvalidConfig, c.Server.Port)
	}
	if strings.TrimSpace(c.Storage.TempRoot) == "" {
		return fmt.Errorf("%w: storage.tempRoot: required", ErrInvalidConfig)
	}
	if c.Storage.CleanupDelay <= 0 {
		return fmt.Errorf("%w: storage.cleanupDelay: must be positive, got %s", ErrInvalidConfig, c.Storage.CleanupDelay)
	}
	if c.Storage.SweepInterval < 0 {
		return fmt.Errorf("%w: storage.sweepInterval: must not be negative, got %s", ErrInvalidConfig, c.Storage.SweepInterval)
	}
	if c.Storage.SweepInterval > 0 && c.Storage.SweepMaxAge <= c.Storage.CleanupDelay+c.Render.Timeout {
		return fmt.Errorf("%w: storage.sweepMaxAge: must exceed cleanupDelay + render.timeout (%s), got %s",
			ErrInvalidConfig, c.Storage.CleanupDelay+c.Render.Timeout, c.Storage.SweepMaxAge)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: server.rateLimit/rateBurst: must not be negative", ErrInvalidConfig)
	}
	if c.Limits.MaxFileSize <= 0 {
		return fmt.Errorf("%w: limits.maxFileSize: must be positive, got %d", ErrInvalidConfig, c.Limits.MaxFileSize)
	}
	if c.Render.Timeout <= 0 {
		return fmt.Errorf("%w: render.timeout: must be positive, got %s", ErrInvalidConfig, c.Render.Timeout)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: render.workers: must not be negative, got %d", ErrInvalidConfig, c.Render.Workers)
	}
	if err := c.PageSettings().Validate(); err != nil {
		return fmt.Errorf("%w: render.page: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level: unknown level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// LoadConfig loads defaults overlaid with the file at nameOrPath.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/html-to-pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, AppName, name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
