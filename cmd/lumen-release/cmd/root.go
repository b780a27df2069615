package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/service/release"
	"github.com/lumen-dev/lumen-installer/internal/version"
)

var (
	// configPath optionally persists installer settings next to the release.
	configPath string
	// signingKeyPath points at the hex-encoded ed25519 private key.
	signingKeyPath string
	// releaseVersion stamps the manifest.
	releaseVersion string
	// logLevel selects logging verbosity.
	logLevel string

	// rootCmd represents the base command for preparing release metadata.
	rootCmd = &cobra.Command{
		Use:   "lumen-release [artifact-dir] [base-url]",
		Short: "Checksum, sign and describe release artifacts for distribution",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &release.Options{
				ConfigPath:     configPath,
				ArtifactDir:    args[0],
				BaseURL:        args[1],
				SigningKeyPath: signingKeyPath,
				Version:        releaseVersion,
			}

			return release.Run(ctx, options)
		},
	}

	// keygenCmd generates a fresh signing key pair.
	keygenCmd = &cobra.Command{
		Use:   "keygen [key-file]",
		Short: "Generate a new artifact signing key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			publicHex, err := release.GenerateKeyPair(args[0])
			if err != nil {
				return err
			}

			// The public key is what gets embedded into the installer.
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), publicHex)

			return nil
		},
	}
)

// Execute runs the lumen-release CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(keygenCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "optional path to write installer settings for distribution")
	rootCmd.Flags().StringVarP(&signingKeyPath, "signing-key", "k", "", "path to the hex-encoded ed25519 signing key")
	rootCmd.Flags().StringVar(&releaseVersion, "release-version", "", "version stamped into the manifest (defaults to the build version)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")

	_ = rootCmd.MarkFlagRequired("signing-key")
}
