// Package config defines installer defaults and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the release host base URL, the telemetry ingestion
// endpoint and the download timeout. Command-line flags always win over the
// file; a missing file silently falls back to built-in defaults.
package config
