package installer

import (
	"archive/tar"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/lumen-dev/lumen-installer/internal/telemetry"
)

// newTestRunner builds a runner wired for tests: telemetry disabled, output
// discarded, real command runner unless the test overrides it.
func newTestRunner(t *testing.T, family string, opts *Options) *runner {
	t.Helper()

	if opts == nil {
		opts = &Options{}
	}

	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	keyHex := opts.PublisherKeyHex
	if keyHex == "" {
		keyHex = PublisherKeyHex
	}

	key, err := ParsePublisherKey(keyHex)
	require.NoError(t, err)

	return &runner{
		opts:         opts,
		family:       family,
		baseURL:      opts.BaseURL,
		version:      firstNonEmpty(opts.Version, DefaultVersion),
		scriptURL:    opts.ScriptURL,
		publisherKey: key,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		reporter:     telemetry.NewReporter("", true),
		runCommand:   runHostCommand,
		lookPath:     exec.LookPath,
		stdout:       opts.Stdout,
	}
}

// newSigningKey generates a throwaway publisher key pair for tests.
func newSigningKey(t *testing.T) (string, ed25519.PrivateKey) {
	t.Helper()

	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return hex.EncodeToString(public), private
}

// writeBundle produces a .tar.xz release bundle carrying the given binary
// contents plus an unrelated file.
func writeBundle(t *testing.T, path string, binaryName string, contents []byte) {
	t.Helper()

	bundle, err := os.Create(filepath.Clean(path))
	require.NoError(t, err)

	xzWriter, err := xz.NewWriter(bundle)
	require.NoError(t, err)

	tarWriter := tar.NewWriter(xzWriter)

	writeEntry := func(name string, data []byte) {
		require.NoError(t, tarWriter.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o755,
			Size:     int64(len(data)),
		}))

		_, err = tarWriter.Write(data)
		require.NoError(t, err)
	}

	writeEntry("NOTICE.txt", []byte("release bundle"))
	writeEntry(binaryName, contents)

	require.NoError(t, tarWriter.Close())
	require.NoError(t, xzWriter.Close())
	require.NoError(t, bundle.Close())
}
