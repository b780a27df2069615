package installer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFilename is the release description published next to the artifacts.
const ManifestFilename = "lumen-release.yaml"

// defaultMapCapacity is the default initial capacity for manifest maps.
const defaultMapCapacity = 8

var (
	// errHashUnavailable indicates the checksum function is not compiled in.
	errHashUnavailable = errors.New("hash function unavailable")
	// errNoChecksum indicates the manifest lacks an entry for a file.
	errNoChecksum = errors.New("manifest has no checksum for file")
)

// Manifest contains metadata about a published release. The release packager
// produces it; the installer consumes it as the independent source of truth
// for binary checksums.
type Manifest struct {
	// VersionNumber is the semantic version of this release.
	VersionNumber string `yaml:"version"`
	// Files maps artifact filenames to their base64-encoded SHA-512 checksums.
	Files map[string]string `yaml:"files"`
	// Binaries maps bundle filenames to the base64-encoded SHA-512 checksum
	// of the product binary carried inside.
	Binaries map[string]string `yaml:"binaries"`
	// Platforms maps platform families to their artifact filenames.
	Platforms map[string]string `yaml:"platforms"`
}

// NewManifest produces a Manifest initialized with defaults.
func NewManifest(versionNumber string) *Manifest {
	return &Manifest{
		VersionNumber: versionNumber,
		Files:         make(map[string]string, defaultMapCapacity),
		Binaries:      make(map[string]string, defaultMapCapacity),
		Platforms:     make(map[string]string, defaultMapCapacity),
	}
}

// ParseManifest decodes release manifest YAML.
func ParseManifest(contents []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal release manifest: %w", err)
	}

	return &m, nil
}

// BinaryChecksum returns the recorded checksum of the product binary inside
// the named bundle.
func (m *Manifest) BinaryChecksum(bundleName string) ([]byte, error) {
	encoded, ok := m.Binaries[bundleName]
	if !ok {
		return nil, fmt.Errorf("%s: %w", bundleName, errNoChecksum)
	}

	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode checksum for %s: %w", bundleName, err)
	}

	return checksum, nil
}

// FileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}
