package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/mitchellh/go-ps"

	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/platform"
)

// msiConflictGuidance is shown when msiexec exits with 1603.
const msiConflictGuidance = "a newer or older version of " + ProductName +
	" may already be installed; uninstall it first, then re-run the installer"

// commandRunner executes a host command and returns its exit code.
// Swappable in tests to avoid invoking real platform installers.
type commandRunner func(ctx context.Context, name string, args ...string) (int, error)

// runHostCommand is the production commandRunner.
func runHostCommand(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), fmt.Errorf("%s: %s", name, bytes.TrimSpace(output))
		}

		return -1, fmt.Errorf("run %s: %w", name, err)
	}

	return 0, nil
}

// requiredHostCommand names the command the install step depends on.
// Standalone mode applies the binary itself and needs no host installer.
func requiredHostCommand(family string, standalone bool) string {
	switch family {
	case platform.FamilyWindows:
		return "msiexec.exe"
	case platform.FamilyLinux, platform.FamilyMac:
		if standalone {
			return ""
		}

		return "sh"
	default:
		return ""
	}
}

// preflight fails fast before any network traffic: the host command must
// exist and the product must not be running while its binary is replaced.
func (r *runner) preflight(ctx context.Context) error {
	if required := requiredHostCommand(r.family, r.standalone()); required != "" {
		if _, err := r.lookPath(required); err != nil {
			return fmt.Errorf("%s: %w", required, errMissingDependency)
		}
	}

	running, err := isProductRunning()
	if err != nil {
		// Process inspection is advisory; proceed when it is unavailable.
		logger.WarnKV(ctx, "Unable to inspect running processes", "error", err)
		return nil
	}

	if running {
		return fmt.Errorf("close all %s processes and re-run the installer: %w",
			ProductName, errProductRunning)
	}

	return nil
}

// isProductRunning scans the process table for the product binary.
func isProductRunning() (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	productExecutable := executableName(ProductName)
	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == productExecutable {
			return true, nil
		}
	}

	return false, nil
}

// install dispatches to the platform-specific silent install mechanism.
func (r *runner) install(ctx context.Context, artifactPath string) error {
	if r.family != platform.Family() {
		return fmt.Errorf("cannot install a %s artifact on this host: %w",
			r.family, errUnsupportedPlatform)
	}

	switch r.family {
	case platform.FamilyWindows:
		return r.installWindows(ctx, artifactPath)
	case platform.FamilyLinux, platform.FamilyMac:
		if r.standalone() {
			return r.installStandalone(ctx, artifactPath)
		}

		return r.runBootstrap(ctx, artifactPath)
	default:
		return fmt.Errorf("%s: %w", r.family, errUnsupportedPlatform)
	}
}

// installWindows runs the MSI package through msiexec in quiet mode.
func (r *runner) installWindows(ctx context.Context, artifactPath string) error {
	args := []string{"/i", artifactPath, "/qn"}
	if r.opts.InstallFolder != "" {
		args = append(args, "INSTALLDIR="+r.opts.InstallFolder)
	}

	logger.InfoKV(ctx, "Running platform installer", "command", "msiexec.exe", "args", args)

	code, err := r.runCommand(ctx, "msiexec.exe", args...)
	if code == msiAnotherVersionInstalled {
		return fmt.Errorf("%w: msiexec exit code %d: %s",
			errInstallerFailed, code, msiConflictGuidance)
	}

	if err != nil || code != 0 {
		return installerFailure(code, err)
	}

	return nil
}

// runBootstrap executes the downloaded shell installer.
func (r *runner) runBootstrap(ctx context.Context, scriptPath string) error {
	if err := os.Chmod(scriptPath, DefaultFileMode); err != nil {
		return fmt.Errorf("mark bootstrap script executable: %w", err)
	}

	args := []string{scriptPath}
	if r.opts.InstallFolder != "" {
		args = append(args, "--install-folder", r.opts.InstallFolder)
	}

	if r.opts.SymlinkFolder != "" {
		args = append(args, "--symlink-folder", r.opts.SymlinkFolder)
	}

	logger.InfoKV(ctx, "Running bootstrap installer", "command", "sh", "args", args)

	code, err := r.runCommand(ctx, "sh", args...)
	if err != nil || code != 0 {
		return installerFailure(code, err)
	}

	return nil
}

// installStandalone extracts the bundle and applies the binary atomically,
// verified against the checksum the release manifest published for it, then
// refreshes the symlink.
func (r *runner) installStandalone(ctx context.Context, artifactPath string) error {
	checksum, err := r.fetchBinaryChecksum(ctx, filepath.Base(artifactPath))
	if err != nil {
		return err
	}

	binaryPath, err := extractBundle(artifactPath, r.tempDir)
	if err != nil {
		return fmt.Errorf("%w: %w", errInstallerFailed, err)
	}

	data, err := os.ReadFile(filepath.Clean(binaryPath))
	if err != nil {
		return fmt.Errorf("read extracted binary: %w", err)
	}

	if err = os.MkdirAll(r.opts.InstallFolder, DefaultFileMode); err != nil {
		return fmt.Errorf("create install folder: %w", err)
	}

	// go-update renames the previous binary aside, so the target must exist.
	targetPath := filepath.Join(r.opts.InstallFolder, executableName(ProductName))
	if _, err = os.Stat(targetPath); err != nil && errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.Create(filepath.Clean(targetPath))
		if createErr != nil {
			return fmt.Errorf("create install target: %w", createErr)
		}

		_ = placeholder.Close()
	}

	logger.InfoKV(ctx, "Applying binary", "target", targetPath)

	options := goupdate.Options{
		TargetPath: targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("%w: apply binary: %w", errInstallerFailed, err)
	}

	oldPath := targetPath + ".old"
	if _, err = os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	if r.opts.SymlinkFolder != "" {
		if err = refreshSymlink(targetPath, r.opts.SymlinkFolder); err != nil {
			return fmt.Errorf("%w: %w", errInstallerFailed, err)
		}
	}

	return nil
}

// fetchBinaryChecksum downloads the release manifest and returns the
// checksum it recorded for the product binary inside the named bundle. The
// manifest is an independent source of truth: a bundle whose binary does not
// match it must never be applied.
func (r *runner) fetchBinaryChecksum(ctx context.Context, bundleName string) ([]byte, error) {
	manifestURL, err := ResolveURL(r.baseURL, r.version, ManifestFilename)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Fetching release manifest", "url", manifestURL)

	body, err := r.fetch(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errDownloadFailed, err)
	}

	defer func() {
		_ = body.Close()
	}()

	contents, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read release manifest: %w", errDownloadFailed, err)
	}

	m, err := ParseManifest(contents)
	if err != nil {
		return nil, err
	}

	checksum, err := m.BinaryChecksum(bundleName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInstallerFailed, err)
	}

	return checksum, nil
}

// refreshSymlink points <symlinkFolder>/<product> at the installed binary.
func refreshSymlink(targetPath, symlinkFolder string) error {
	if err := os.MkdirAll(symlinkFolder, DefaultFileMode); err != nil {
		return fmt.Errorf("create symlink folder: %w", err)
	}

	linkPath := filepath.Join(symlinkFolder, ProductName)
	if _, err := os.Lstat(linkPath); err == nil {
		if err = os.Remove(linkPath); err != nil {
			return fmt.Errorf("remove stale symlink: %w", err)
		}
	}

	if err := os.Symlink(targetPath, linkPath); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}

	return nil
}

// installerFailure wraps a non-zero installer exit into the common category.
func installerFailure(code int, err error) error {
	if err != nil {
		return fmt.Errorf("%w: exit code %d: %w", errInstallerFailed, code, err)
	}

	return fmt.Errorf("%w: exit code %d", errInstallerFailed, code)
}
