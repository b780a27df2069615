package installer

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/lumen-dev/lumen-installer/internal/platform"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// ProductName is the binary name of the CLI being installed.
	ProductName = "lumen"

	// WindowsArtifactFilename is the MSI package name on the release host.
	WindowsArtifactFilename = "lumen-windows-amd64.msi"

	// BootstrapScriptFilename is the shell installer for Unix-like systems.
	BootstrapScriptFilename = "install-lumen.sh"

	// SignatureSuffix is appended to the artifact URL to fetch the detached
	// publisher signature.
	SignatureSuffix = ".sig"

	// DefaultVersion is requested when the caller does not pick one.
	DefaultVersion = "stable"

	// DefaultFileMode is used for installed binaries and downloaded scripts.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction guards the atomic binary apply.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// msiAnotherVersionInstalled is the well-known msiexec exit code raised
	// when a conflicting product version is present.
	msiAnotherVersionInstalled = 1603

	// defaultDownloadTimeout bounds the artifact download when neither the
	// flag nor the settings file provides one.
	defaultDownloadTimeout = 120 * time.Second
)

// PublisherKeyHex is the ed25519 public key artifacts are signed with.
// Overridable for tests and alternate release hosts.
const PublisherKeyHex = "8d3a7f0c41be92d65a07e14f3b2c88d19f46a5be70913c2dd84e6f014a9bb3c5"

// Failure categories. Everything except errMissingDependency is reported via
// telemetry before the process exits non-zero.
var (
	errMissingDependency   = errors.New("required host command is missing")
	errDownloadFailed      = errors.New("artifact download failed")
	errSignatureInvalid    = errors.New("artifact signature verification failed")
	errInstallerFailed     = errors.New("platform installer failed")
	errProductRunning      = errors.New("product is currently running")
	errUnsupportedPlatform = errors.New("platform not supported")
	errBadHTTPStatus       = errors.New("unexpected http status")
	errNoBinaryInBundle    = errors.New("bundle does not contain the product binary")
)

// Telemetry event and reason names. They appear verbatim in ingested
// payloads, so changing them is a wire-format change.
const (
	eventInstallFailed = "InstallFailed"

	reasonDownload  = "download"
	reasonSignature = "signature-verification"
	reasonInstaller = "installer"
	reasonUnhandled = "unhandled"
)

// ArtifactFilename resolves the release artifact name for a platform.
// Standalone mode targets the binary bundle instead of the bootstrap script.
func ArtifactFilename(family string, standalone bool) (string, error) {
	switch family {
	case platform.FamilyWindows:
		return WindowsArtifactFilename, nil
	case platform.FamilyLinux, platform.FamilyMac:
		if standalone {
			return fmt.Sprintf("%s-%s-%s.tar.xz", ProductName, osToken(family), runtime.GOARCH), nil
		}

		return BootstrapScriptFilename, nil
	default:
		return "", fmt.Errorf("%s: %w", family, errUnsupportedPlatform)
	}
}

// osToken maps a platform family to the token used in artifact names.
func osToken(family string) string {
	if family == platform.FamilyMac {
		return "darwin"
	}

	return family
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}

// executableName appends ".exe" on Windows.
func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}

	return base
}
