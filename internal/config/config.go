package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds defaults shared by the installer binaries. Every field can be
// overridden from the command line; the file only changes the starting point.
type Config struct {
	// BaseURL is the release host root from which artifact URLs are composed.
	BaseURL string `yaml:"base_url"`
	// TelemetryEndpoint is the ingestion URL for failure reports.
	TelemetryEndpoint string `yaml:"telemetry_endpoint"`
	// ScriptURL overrides the bootstrap script location on Unix-like systems.
	ScriptURL string `yaml:"script_url"`
	// Timeout bounds the artifact download.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "lumen-install-settings.yaml"

	// DefaultBaseURL is the release host used when no override is given.
	DefaultBaseURL = "https://release.lumen.dev/lumen"

	// DefaultTelemetryEndpoint receives failure reports after consent.
	DefaultTelemetryEndpoint = "https://telemetry.lumen.dev/api/events"

	// DefaultTimeout bounds the artifact download.
	DefaultTimeout = 120 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBaseURLRequired is returned when the base URL is missing.
	errBaseURLRequired = errors.New("base URL must be provided")
)

// Default returns settings populated with the built-in defaults.
func Default() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		TelemetryEndpoint: DefaultTelemetryEndpoint,
		Timeout:           DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: built-in defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BaseURL == "" {
		return errBaseURLRequired
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.TelemetryEndpoint != "" {
		if _, err := url.ParseRequestURI(cfg.TelemetryEndpoint); err != nil {
			return fmt.Errorf("invalid telemetry endpoint URI: %w", err)
		}
	}

	if cfg.ScriptURL != "" {
		if _, err := url.ParseRequestURI(cfg.ScriptURL); err != nil {
			return fmt.Errorf("invalid script URI: %w", err)
		}
	}

	return nil
}
