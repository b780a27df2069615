package installer

import (
	"context"
	"crypto/ed25519"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-dev/lumen-installer/internal/platform"
)

// serveArtifact exposes an artifact and its detached signature over HTTP.
func serveArtifact(t *testing.T, contents, signature []byte) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/"+WindowsArtifactFilename, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(contents)
	})
	mux.HandleFunc("/"+WindowsArtifactFilename+SignatureSuffix, func(w http.ResponseWriter, _ *http.Request) {
		if signature != nil {
			_, _ = w.Write(signature)
		} else {
			http.NotFound(w, nil)
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

// TestVerifySignature checks the happy path against a matching key pair.
func TestVerifySignature(t *testing.T) {
	t.Parallel()

	publicHex, private := newSigningKey(t)
	contents := []byte("signed artifact")
	signature := ed25519.Sign(private, contents)

	ts := serveArtifact(t, contents, signature)

	artifactPath := filepath.Join(t.TempDir(), WindowsArtifactFilename)
	require.NoError(t, os.WriteFile(artifactPath, contents, 0o600))

	r := newTestRunner(t, platform.FamilyWindows, &Options{PublisherKeyHex: publicHex})

	err := r.verifySignature(context.Background(), ts.URL+"/"+WindowsArtifactFilename, artifactPath)
	require.NoError(t, err)
}

// TestVerifySignatureInvalid checks that a signature over different bytes fails.
func TestVerifySignatureInvalid(t *testing.T) {
	t.Parallel()

	publicHex, private := newSigningKey(t)
	contents := []byte("signed artifact")
	signature := ed25519.Sign(private, []byte("tampered artifact"))

	ts := serveArtifact(t, contents, signature)

	artifactPath := filepath.Join(t.TempDir(), WindowsArtifactFilename)
	require.NoError(t, os.WriteFile(artifactPath, contents, 0o600))

	r := newTestRunner(t, platform.FamilyWindows, &Options{PublisherKeyHex: publicHex})

	err := r.verifySignature(context.Background(), ts.URL+"/"+WindowsArtifactFilename, artifactPath)
	require.ErrorIs(t, err, errSignatureInvalid)
}

// TestVerifySignatureMissing checks that an absent signature is fatal.
func TestVerifySignatureMissing(t *testing.T) {
	t.Parallel()

	publicHex, _ := newSigningKey(t)
	contents := []byte("signed artifact")

	ts := serveArtifact(t, contents, nil)

	artifactPath := filepath.Join(t.TempDir(), WindowsArtifactFilename)
	require.NoError(t, os.WriteFile(artifactPath, contents, 0o600))

	r := newTestRunner(t, platform.FamilyWindows, &Options{PublisherKeyHex: publicHex})

	err := r.verifySignature(context.Background(), ts.URL+"/"+WindowsArtifactFilename, artifactPath)
	require.ErrorIs(t, err, errSignatureInvalid)
}

// TestParsePublisherKey validates key decoding rules.
func TestParsePublisherKey(t *testing.T) {
	t.Parallel()

	key, err := ParsePublisherKey(PublisherKeyHex)
	require.NoError(t, err)
	require.Len(t, []byte(key), ed25519.PublicKeySize)

	_, err = ParsePublisherKey("not-hex")
	require.Error(t, err)

	_, err = ParsePublisherKey("abcd")
	require.Error(t, err)
}
