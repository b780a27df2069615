package release

import (
	"archive/tar"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v3"

	"github.com/lumen-dev/lumen-installer/internal/platform"
	"github.com/lumen-dev/lumen-installer/internal/service/installer"
)

// writeBundle produces a .tar.xz release bundle carrying the product binary.
func writeBundle(t *testing.T, path string, contents []byte) {
	t.Helper()

	bundle, err := os.Create(path)
	require.NoError(t, err)

	xzWriter, err := xz.NewWriter(bundle)
	require.NoError(t, err)

	tarWriter := tar.NewWriter(xzWriter)
	require.NoError(t, tarWriter.WriteHeader(&tar.Header{
		Name:     installer.ProductName,
		Typeflag: tar.TypeReg,
		Mode:     0o755,
		Size:     int64(len(contents)),
	}))

	_, err = tarWriter.Write(contents)
	require.NoError(t, err)
	require.NoError(t, tarWriter.Close())
	require.NoError(t, xzWriter.Close())
	require.NoError(t, bundle.Close())
}

// checksumBase64 encodes the manifest form of a checksum over contents.
func checksumBase64(contents []byte) string {
	hasher := installer.DefaultChecksumFunction.New()
	_, _ = hasher.Write(contents)

	return base64.StdEncoding.EncodeToString(hasher.Sum(nil))
}

// TestRunProducesManifestAndSignatures exercises the full packaging workflow.
func TestRunProducesManifestAndSignatures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keyPath := filepath.Join(t.TempDir(), "signing.key")

	_, err := GenerateKeyPair(keyPath)
	require.NoError(t, err)

	plainArtifacts := map[string][]byte{
		installer.WindowsArtifactFilename: []byte("msi bytes"),
		installer.BootstrapScriptFilename: []byte("#!/bin/sh\n"),
	}
	for name, contents := range plainArtifacts {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), contents, 0o600))
	}

	bundleBinaries := map[string][]byte{
		"lumen-linux-amd64.tar.xz":  []byte("#!/bin/sh\necho linux\n"),
		"lumen-darwin-arm64.tar.xz": []byte("#!/bin/sh\necho mac\n"),
	}
	for name, contents := range bundleBinaries {
		writeBundle(t, filepath.Join(dir, name), contents)
	}

	// Settings live outside the artifact dir so they are not scanned and signed.
	configPath := filepath.Join(t.TempDir(), "lumen-install-settings.yaml")

	err = Run(context.Background(), &Options{
		ConfigPath:     configPath,
		ArtifactDir:    dir,
		BaseURL:        "https://release.example.com/lumen/stable",
		SigningKeyPath: keyPath,
		Version:        "3.0.0",
	})
	require.NoError(t, err)

	// Manifest exists and carries every artifact checksum plus a detached
	// signature next to each artifact.
	manifestBytes, err := os.ReadFile(filepath.Join(dir, installer.ManifestFilename))
	require.NoError(t, err)

	var manifest installer.Manifest
	require.NoError(t, yaml.Unmarshal(manifestBytes, &manifest))
	require.Equal(t, "3.0.0", manifest.VersionNumber)

	for name := range plainArtifacts {
		require.Equal(t, checksumBase64(plainArtifacts[name]), manifest.Files[name])
	}

	for name := range bundleBinaries {
		onDisk, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.Equal(t, checksumBase64(onDisk), manifest.Files[name])

		// Bundles also record the checksum of the binary inside, which the
		// installer verifies before applying.
		require.Equal(t, checksumBase64(bundleBinaries[name]), manifest.Binaries[name])
	}

	for name := range manifest.Files {
		_, err = os.Stat(filepath.Join(dir, name+installer.SignatureSuffix))
		require.NoError(t, err)
	}

	// Platform mappings were detected from the artifact names.
	require.Equal(t, installer.WindowsArtifactFilename, manifest.Platforms[platform.FamilyWindows])
	require.Equal(t, "lumen-linux-amd64.tar.xz", manifest.Platforms[platform.FamilyLinux])
	require.Equal(t, "lumen-darwin-arm64.tar.xz", manifest.Platforms[platform.FamilyMac])

	// Settings were persisted for distribution.
	_, err = os.Stat(configPath)
	require.NoError(t, err)
}

// TestRunRejectsBrokenBundle refuses to describe a bundle whose binary
// cannot be read.
func TestRunRejectsBrokenBundle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keyPath := filepath.Join(t.TempDir(), "signing.key")

	_, err := GenerateKeyPair(keyPath)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "lumen-linux-amd64.tar.xz"), []byte("not an archive"), 0o600))

	err = Run(context.Background(), &Options{
		ArtifactDir:    dir,
		BaseURL:        "https://release.example.com/lumen",
		SigningKeyPath: keyPath,
	})
	require.Error(t, err)
}

// TestRunEmptyDirectory rejects a directory without artifacts.
func TestRunEmptyDirectory(t *testing.T) {
	t.Parallel()

	keyPath := filepath.Join(t.TempDir(), "signing.key")

	_, err := GenerateKeyPair(keyPath)
	require.NoError(t, err)

	err = Run(context.Background(), &Options{
		ArtifactDir:    t.TempDir(),
		BaseURL:        "https://release.example.com/lumen",
		SigningKeyPath: keyPath,
	})
	require.Error(t, err)
}

// TestRunMissingKey rejects an unreadable signing key.
func TestRunMissingKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBundle(t, filepath.Join(dir, "lumen-linux-amd64.tar.xz"), []byte("x"))

	err := Run(context.Background(), &Options{
		ArtifactDir:    dir,
		BaseURL:        "https://release.example.com/lumen",
		SigningKeyPath: filepath.Join(dir, "absent.key"),
	})
	require.Error(t, err)
}
