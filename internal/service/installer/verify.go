package installer

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lumen-dev/lumen-installer/internal/logger"
)

// verifySignature fetches the detached publisher signature for the artifact
// and checks it against the embedded ed25519 key. An absent or invalid
// signature is fatal: the artifact must never reach the install step.
func (r *runner) verifySignature(ctx context.Context, artifactURL, artifactPath string) error {
	signatureURL := artifactURL + SignatureSuffix

	logger.InfoKV(ctx, "Fetching publisher signature", "url", signatureURL)

	body, err := r.fetch(ctx, signatureURL)
	if err != nil {
		return fmt.Errorf("%w: %w", errSignatureInvalid, err)
	}

	defer func() {
		_ = body.Close()
	}()

	signature, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("%w: read signature: %w", errSignatureInvalid, err)
	}

	if len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature is %d bytes, want %d",
			errSignatureInvalid, len(signature), ed25519.SignatureSize)
	}

	contents, err := os.ReadFile(filepath.Clean(artifactPath))
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}

	if !ed25519.Verify(r.publisherKey, contents, signature) {
		return fmt.Errorf("%s: %w", artifactPath, errSignatureInvalid)
	}

	logger.Info(ctx, "Publisher signature verified")

	return nil
}

// ParsePublisherKey decodes a hex-encoded ed25519 public key.
func ParsePublisherKey(keyHex string) (ed25519.PublicKey, error) {
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode publisher key: %w", err)
	}

	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("publisher key is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}

	return ed25519.PublicKey(raw), nil
}
