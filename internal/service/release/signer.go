package release

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumen-dev/lumen-installer/internal/config"
	"github.com/lumen-dev/lumen-installer/internal/service/installer"
)

// Signer produces detached ed25519 signatures for release artifacts.
type Signer struct {
	key ed25519.PrivateKey
}

// LoadSigner reads a hex-encoded ed25519 private key (or 32-byte seed) from
// the provided file.
func LoadSigner(path string) (*Signer, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(contents)))
	if err != nil {
		return nil, fmt.Errorf("decode signing key: %w", err)
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		return &Signer{key: ed25519.PrivateKey(raw)}, nil
	case ed25519.SeedSize:
		return &Signer{key: ed25519.NewKeyFromSeed(raw)}, nil
	default:
		return nil, fmt.Errorf("signing key is %d bytes, want %d or %d",
			len(raw), ed25519.PrivateKeySize, ed25519.SeedSize)
	}
}

// PublicKeyHex returns the verification key in the form the installer embeds.
func (s *Signer) PublicKeyHex() string {
	public, _ := s.key.Public().(ed25519.PublicKey)
	return hex.EncodeToString(public)
}

// SignFile writes a detached signature next to the artifact and returns the
// signature path.
func (s *Signer) SignFile(artifactPath string) (string, error) {
	contents, err := os.ReadFile(filepath.Clean(artifactPath))
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	signature := ed25519.Sign(s.key, contents)
	signaturePath := artifactPath + installer.SignatureSuffix

	if err = os.WriteFile(signaturePath, signature, config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write signature: %w", err)
	}

	return signaturePath, nil
}

// GenerateKeyPair creates a fresh signing key, writes the hex-encoded private
// key to path and returns the matching public key hex.
func GenerateKeyPair(path string) (string, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate signing key: %w", err)
	}

	encoded := hex.EncodeToString(private)
	if err = os.WriteFile(filepath.Clean(path), []byte(encoded+"\n"), config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write signing key: %w", err)
	}

	return hex.EncodeToString(public), nil
}
