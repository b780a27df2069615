package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing base URL.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Malformed base URL.
	cfg = &Config{
		BaseURL: "not a url",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay; timeout defaulted.
	cfg = &Config{
		BaseURL:           "https://release.example.com/lumen",
		TelemetryEndpoint: "https://telemetry.example.com/api/events",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	// Malformed telemetry endpoint.
	cfg = &Config{
		BaseURL:           "https://release.example.com/lumen",
		TelemetryEndpoint: "::broken",
	}

	err = Validate(cfg)
	require.Error(t, err)
}

// TestLoadMissingFile ensures built-in defaults are returned when no settings file exists.
func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultTelemetryEndpoint, cfg.TelemetryEndpoint)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		BaseURL:           "https://release.example.com/lumen",
		TelemetryEndpoint: "https://telemetry.example.com/api/events",
		Timeout:           30 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.BaseURL, loaded.BaseURL)
	require.Equal(t, cfg.TelemetryEndpoint, loaded.TelemetryEndpoint)
	require.Equal(t, cfg.Timeout, loaded.Timeout)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
