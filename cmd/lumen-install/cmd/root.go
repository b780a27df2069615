package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen-installer/internal/config"
	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/service/installer"
	"github.com/lumen-dev/lumen-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel selects logging verbosity.
	logLevel string
	// options collects the remaining flag values.
	options installer.Options

	// rootCmd represents the base command for downloading and installing the CLI.
	rootCmd = &cobra.Command{
		Use:   "lumen-install",
		Short: "Download, verify and install the lumen CLI",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath

			return installer.Run(ctx, &options)
		},
	}
)

// Execute runs the lumen-install CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&options.BaseURL, "base-url", "", "release host root override")
	rootCmd.Flags().StringVar(&options.Version, "version", installer.DefaultVersion,
		"release to install: a semantic version, or latest, daily, stable")
	rootCmd.Flags().StringVar(&options.Platform, "platform", "", "target platform (windows, linux, mac); defaults to this host")
	rootCmd.Flags().StringVar(&options.InstallFolder, "install-folder", "",
		"installation directory; on Unix-like systems enables standalone bundle install")
	rootCmd.Flags().StringVar(&options.SymlinkFolder, "symlink-folder", "", "symlink directory (Unix-like only)")
	rootCmd.Flags().StringVar(&options.ScriptURL, "script-url", "", "bootstrap script URL override (Unix-like only)")
	rootCmd.Flags().DurationVar(&options.Timeout, "timeout", 0,
		"download timeout; falls back to the settings file, then 120s")
	rootCmd.Flags().BoolVar(&options.DryRun, "dry-run", false, "print the resolved download URL and exit")
	rootCmd.Flags().BoolVar(&options.SkipVerify, "skip-verify", false, "skip publisher signature verification")
	rootCmd.Flags().BoolVar(&options.DisableTelemetry, "no-telemetry", false, "never send failure reports")
}
