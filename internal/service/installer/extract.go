package installer

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// extractBundle unpacks a .tar.xz release bundle into the temp workspace and
// returns the path of the product binary found inside. The bundle may carry
// extra files (license, completions); only the binary matters here.
func extractBundle(archivePath, destDir string) (string, error) {
	archive, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return "", fmt.Errorf("open bundle: %w", err)
	}

	defer func() {
		_ = archive.Close()
	}()

	xzReader, err := xz.NewReader(archive)
	if err != nil {
		return "", fmt.Errorf("open xz stream: %w", err)
	}

	binaryPath := ""
	tarReader := tar.NewReader(xzReader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("read bundle entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Base(header.Name)

		// Reject entries trying to escape the extraction directory.
		outputPath := filepath.Join(destDir, name)
		if !filepath.IsLocal(name) {
			return "", fmt.Errorf("bundle entry %q escapes extraction directory", header.Name)
		}

		outputFile, err := os.OpenFile(filepath.Clean(outputPath),
			os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFileMode)
		if err != nil {
			return "", fmt.Errorf("create %s: %w", outputPath, err)
		}

		if _, err = io.Copy(outputFile, tarReader); err != nil { //nolint:gosec // Bundle comes from a verified artifact.
			_ = outputFile.Close()

			return "", fmt.Errorf("extract %s: %w", header.Name, err)
		}

		if err = outputFile.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", outputPath, err)
		}

		if name == ProductName || name == ProductName+".exe" {
			binaryPath = outputPath
		}
	}

	if binaryPath == "" {
		return "", fmt.Errorf("%s: %w", archivePath, errNoBinaryInBundle)
	}

	return binaryPath, nil
}

// BundleBinaryChecksum streams a .tar.xz bundle and returns the checksum of
// the product binary inside, computed with DefaultChecksumFunction. The
// release packager records this value in the manifest; the installer verifies
// the extracted binary against it before applying.
func BundleBinaryChecksum(archivePath string) ([]byte, error) {
	archive, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}

	defer func() {
		_ = archive.Close()
	}()

	xzReader, err := xz.NewReader(archive)
	if err != nil {
		return nil, fmt.Errorf("open xz stream: %w", err)
	}

	tarReader := tar.NewReader(xzReader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read bundle entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Base(header.Name)
		if name != ProductName && name != ProductName+".exe" {
			continue
		}

		hasher := DefaultChecksumFunction.New()
		if _, err = io.Copy(hasher, tarReader); err != nil {
			return nil, fmt.Errorf("checksum %s: %w", header.Name, err)
		}

		return hasher.Sum(nil), nil
	}

	return nil, fmt.Errorf("%s: %w", archivePath, errNoBinaryInBundle)
}
