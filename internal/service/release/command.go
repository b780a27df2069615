package release

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lumen-dev/lumen-installer/internal/config"
	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/platform"
	"github.com/lumen-dev/lumen-installer/internal/service/installer"
	"github.com/lumen-dev/lumen-installer/internal/version"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to persist installer settings
	// distributed alongside the release.
	ConfigPath string
	// ArtifactDir holds the artifacts to checksum and sign.
	ArtifactDir string
	// BaseURL is the release host folder the artifacts will be uploaded to.
	BaseURL string
	// SigningKeyPath points at the hex-encoded ed25519 private key.
	SigningKeyPath string
	// Version stamps the manifest; defaults to the build version.
	Version string
}

// packager prepares release metadata (manifest and signatures) for upload.
// It is unexported; callers should use Run, which encapsulates setup and
// validation.
type packager struct {
	// opts holds the validated inputs.
	opts *Options
	// signer is the loaded publisher signing key.
	signer *Signer
	// manifest accumulates checksums and platform artifact names.
	manifest *installer.Manifest
}

var (
	// errNoArtifacts indicates an empty artifact directory.
	errNoArtifacts = errors.New("no artifacts found")
	// errArtifactDirRequired indicates a missing artifact directory argument.
	errArtifactDirRequired = errors.New("artifact directory must be provided")
)

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "lumen-release")

	pkg, err := newPackager(opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager validates inputs, persists installer settings and loads the
// signing key.
func newPackager(opts *Options) (*packager, error) {
	if opts == nil || opts.ArtifactDir == "" {
		return nil, errArtifactDirRequired
	}

	cfg := config.Default()
	cfg.BaseURL = opts.BaseURL

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	if opts.ConfigPath != "" {
		if err := config.Save(opts.ConfigPath, cfg); err != nil {
			return nil, fmt.Errorf("save settings: %w", err)
		}
	}

	signer, err := LoadSigner(opts.SigningKeyPath)
	if err != nil {
		return nil, err
	}

	manifestVersion := opts.Version
	if manifestVersion == "" {
		manifestVersion = version.Short()
	}

	return &packager{
		opts:     opts,
		signer:   signer,
		manifest: installer.NewManifest(manifestVersion),
	}, nil
}

// Run populates the manifest, signs every artifact and writes the manifest
// next to them.
func (p *packager) Run(ctx context.Context) error {
	logger.Info(ctx, "Collecting artifacts")

	artifacts, err := p.collectArtifacts()
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Checksumming and signing artifacts", "count", len(artifacts))

	if err = p.fillManifest(artifacts); err != nil {
		return err
	}

	if err = p.signArtifacts(ctx, artifacts); err != nil {
		return err
	}

	manifestPath := filepath.Join(p.opts.ArtifactDir, installer.ManifestFilename)

	logger.InfoKV(ctx, "Saving release manifest", "path", manifestPath)

	if err = p.saveManifest(manifestPath); err != nil {
		return err
	}

	p.printNextSteps(ctx, artifacts)

	return nil
}

// collectArtifacts lists regular files in the artifact directory, skipping
// signatures and a previously generated manifest.
func (p *packager) collectArtifacts() ([]string, error) {
	entries, err := os.ReadDir(p.opts.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("read artifact directory: %w", err)
	}

	artifacts := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if name == installer.ManifestFilename || strings.HasSuffix(name, installer.SignatureSuffix) {
			continue
		}

		artifacts = append(artifacts, name)
	}

	if len(artifacts) == 0 {
		return nil, fmt.Errorf("%s: %w", p.opts.ArtifactDir, errNoArtifacts)
	}

	sort.Strings(artifacts)

	return artifacts, nil
}

// fillManifest records checksums and platform artifact mappings. Bundles
// additionally get the checksum of the product binary inside, which the
// installer verifies against before applying.
func (p *packager) fillManifest(artifacts []string) error {
	for _, name := range artifacts {
		artifactPath := filepath.Join(p.opts.ArtifactDir, name)

		checksum, err := installer.FileChecksum(artifactPath)
		if err != nil {
			return err
		}

		p.manifest.Files[name] = base64.StdEncoding.EncodeToString(checksum)

		if family := classifyArtifact(name); family != "" {
			p.manifest.Platforms[family] = name
		}

		if strings.HasSuffix(name, ".tar.xz") {
			binaryChecksum, err := installer.BundleBinaryChecksum(artifactPath)
			if err != nil {
				return fmt.Errorf("inspect bundle %s: %w", name, err)
			}

			p.manifest.Binaries[name] = base64.StdEncoding.EncodeToString(binaryChecksum)
		}
	}

	return nil
}

// classifyArtifact maps artifact filenames to platform families.
// Unrecognized files (settings, release notes) simply get no mapping.
func classifyArtifact(name string) string {
	switch {
	case name == installer.WindowsArtifactFilename:
		return platform.FamilyWindows
	case name == installer.BootstrapScriptFilename:
		return ""
	case strings.Contains(name, "-linux-"):
		return platform.FamilyLinux
	case strings.Contains(name, "-darwin-"):
		return platform.FamilyMac
	default:
		return ""
	}
}

// signArtifacts writes a detached signature next to every artifact.
func (p *packager) signArtifacts(ctx context.Context, artifacts []string) error {
	for _, name := range artifacts {
		artifactPath := filepath.Join(p.opts.ArtifactDir, name)

		signaturePath, err := p.signer.SignFile(artifactPath)
		if err != nil {
			return err
		}

		logger.InfoKV(ctx, "Signed artifact", "artifact", name, "signature", signaturePath)
	}

	return nil
}

// saveManifest writes the manifest YAML.
func (p *packager) saveManifest(path string) error {
	contents, err := yaml.Marshal(p.manifest)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Clean(path), contents, config.DefaultFilePermissions)
}

// printNextSteps logs human-readable guidance for publishing the release.
func (p *packager) printNextSteps(ctx context.Context, artifacts []string) {
	files := make([]string, 0, len(artifacts)*2+1)
	for _, name := range artifacts {
		files = append(files, name, name+installer.SignatureSuffix)
	}

	files = append(files, installer.ManifestFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("You should upload the following files to ")
	builder.WriteString(p.opts.BaseURL)
	builder.WriteString(":\n")
	builder.WriteString(strings.Join(files, ",\n"))

	logger.Info(ctx, builder.String())
}
