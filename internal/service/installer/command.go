package installer

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/lumen-dev/lumen-installer/internal/config"
	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/platform"
	"github.com/lumen-dev/lumen-installer/internal/telemetry"
)

// Options are inputs accepted by the installer entry point. They mirror the
// command-line flags; zero values fall back to the settings file and then to
// built-in defaults.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// BaseURL overrides the release host root.
	BaseURL string
	// Version selects the release: a semantic version or one of the host
	// sentinels "latest", "daily", "stable". Defaults to "stable".
	Version string
	// Platform overrides the target platform (windows, linux, mac).
	// Defaults to the current host.
	Platform string
	// InstallFolder overrides the installation directory. On Unix-like
	// systems a non-empty value switches to standalone bundle install.
	InstallFolder string
	// SymlinkFolder is where the product symlink is placed (Unix-like only).
	SymlinkFolder string
	// ScriptURL overrides the bootstrap script location (Unix-like only).
	ScriptURL string
	// TelemetryEndpoint overrides the failure report ingestion URL.
	TelemetryEndpoint string
	// PublisherKeyHex overrides the embedded artifact signing key.
	PublisherKeyHex string
	// Timeout bounds the download step only.
	Timeout time.Duration
	// DryRun prints the resolved URL and exits without side effects.
	DryRun bool
	// SkipVerify disables publisher signature verification.
	SkipVerify bool
	// DisableTelemetry suppresses failure reports regardless of consent.
	DisableTelemetry bool
	// Stdout receives user-facing output (resolved URL, guidance).
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// runner holds the merged settings and helpers for a single install
// execution. It is intentionally unexported; call Run(ctx, Options).
type runner struct {
	opts         *Options
	family       string            // Target platform family.
	baseURL      string            // Release host root after merging.
	version      string            // Requested release selector.
	scriptURL    string            // Bootstrap script override, when set.
	publisherKey ed25519.PublicKey // Artifact signing key.
	httpClient   *http.Client      // Client with the download timeout applied.
	reporter     *telemetry.Reporter
	runCommand   commandRunner
	lookPath     func(string) (string, error)
	stdout       io.Writer
	tempDir      string // Temp workspace, removed on every exit path.
}

// Run executes the install pipeline and is the public entry point for the CLI.
// Failures other than a missing host dependency are offered to telemetry
// before being returned; the report never changes the outcome.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "lumen-install")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	if err = r.execute(ctx); err != nil {
		logger.ErrorKV(ctx, "Installation failed", "error", err)
		r.reportFailure(ctx, err)

		return err
	}

	return nil
}

// newRunner merges options over the settings file and prepares helpers.
func newRunner(opts *Options) (*runner, error) {
	if opts == nil {
		opts = &Options{}
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	family, err := platform.ParseFamily(opts.Platform)
	if err != nil {
		return nil, err
	}

	keyHex := opts.PublisherKeyHex
	if keyHex == "" {
		keyHex = PublisherKeyHex
	}

	publisherKey, err := ParsePublisherKey(keyHex)
	if err != nil {
		return nil, err
	}

	r := &runner{
		opts:         opts,
		family:       family,
		baseURL:      firstNonEmpty(opts.BaseURL, cfg.BaseURL),
		version:      firstNonEmpty(opts.Version, DefaultVersion),
		scriptURL:    firstNonEmpty(opts.ScriptURL, cfg.ScriptURL),
		publisherKey: publisherKey,
		reporter:     telemetry.NewReporter(firstNonEmpty(opts.TelemetryEndpoint, cfg.TelemetryEndpoint), opts.DisableTelemetry),
		runCommand:   runHostCommand,
		lookPath:     exec.LookPath,
		stdout:       opts.Stdout,
	}

	if r.stdout == nil {
		r.stdout = os.Stdout
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = cfg.Timeout
	}

	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}

	r.httpClient = &http.Client{Timeout: timeout}

	return r, nil
}

// execute walks the pipeline: resolve, download, verify, install.
// Dry-run returns right after resolution, before any network or filesystem
// action, on any platform.
func (r *runner) execute(ctx context.Context) error {
	artifactURL, err := r.resolveArtifactURL()
	if err != nil {
		return err
	}

	if r.opts.DryRun {
		_, _ = fmt.Fprintln(r.stdout, artifactURL)
		return nil
	}

	logger.InfoKV(ctx, "Resolved artifact URL", "url", artifactURL)

	if err = r.preflight(ctx); err != nil {
		return err
	}

	r.tempDir, err = os.MkdirTemp("", "lumen-install-")
	if err != nil {
		return fmt.Errorf("create temp workspace: %w", err)
	}

	defer r.cleanup(ctx)

	artifactPath, err := r.downloadFile(ctx, artifactURL)
	if err != nil {
		return fmt.Errorf("%w: %w", errDownloadFailed, err)
	}

	if r.opts.SkipVerify {
		logger.Warn(ctx, "Signature verification skipped by request")
	} else if err = r.verifySignature(ctx, artifactURL, artifactPath); err != nil {
		return err
	}

	if err = r.install(ctx, artifactPath); err != nil {
		return err
	}

	r.printSuccessGuidance()

	return nil
}

// resolveArtifactURL composes the download URL for the merged settings.
// A bootstrap script override wins on Unix-like platforms.
func (r *runner) resolveArtifactURL() (string, error) {
	if r.family != platform.FamilyWindows && !r.standalone() && r.scriptURL != "" {
		return r.scriptURL, nil
	}

	filename, err := ArtifactFilename(r.family, r.standalone())
	if err != nil {
		return "", err
	}

	return ResolveURL(r.baseURL, r.version, filename)
}

// standalone reports whether the Unix-like direct bundle install is active.
func (r *runner) standalone() bool {
	return r.family != platform.FamilyWindows && r.opts.InstallFolder != ""
}

// reportFailure sends a consent-gated telemetry event for reportable
// failure categories. A missing host dependency is never reported.
func (r *runner) reportFailure(ctx context.Context, err error) {
	reason, reportable := failureReason(err)
	if !reportable {
		return
	}

	r.reporter.Report(ctx, eventInstallFailed, reason, map[string]string{
		"requestedVersion": r.version,
		"targetPlatform":   r.family,
	})
}

// printSuccessGuidance tells the user how to pick up the new binary.
func (r *runner) printSuccessGuidance() {
	switch r.family {
	case platform.FamilyWindows:
		_, _ = fmt.Fprintf(r.stdout,
			"%s was installed. Restart your terminal so the updated PATH takes effect.\n", ProductName)
	default:
		_, _ = fmt.Fprintf(r.stdout,
			"%s was installed. Restart your shell or run 'hash -r' to pick it up.\n", ProductName)
	}
}

// cleanup removes the temp workspace unconditionally.
func (r *runner) cleanup(ctx context.Context) {
	if r.tempDir == "" {
		return
	}

	if err := os.RemoveAll(r.tempDir); err != nil {
		logger.WarnKV(ctx, "Unable to remove temp workspace", "path", r.tempDir, "error", err)
		return
	}

	r.tempDir = ""
}
