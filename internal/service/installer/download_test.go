package installer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lumen-dev/lumen-installer/internal/platform"
)

// TestDownloadFile verifies a successful fetch lands in the temp workspace.
func TestDownloadFile(t *testing.T) {
	t.Parallel()

	body := []byte("artifact-bytes")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	r := newTestRunner(t, platform.FamilyLinux, nil)
	r.tempDir = t.TempDir()

	path, err := r.downloadFile(context.Background(), ts.URL+"/"+BootstrapScriptFilename)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, body, contents)
}

// TestDownloadFileBadStatus verifies a non-2xx response is fatal.
func TestDownloadFileBadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	r := newTestRunner(t, platform.FamilyLinux, nil)
	r.tempDir = t.TempDir()

	_, err := r.downloadFile(context.Background(), ts.URL+"/"+BootstrapScriptFilename)
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestDownloadFileTimeout verifies the caller-specified timeout aborts the download.
func TestDownloadFileTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	r := newTestRunner(t, platform.FamilyLinux, nil)
	r.tempDir = t.TempDir()
	r.httpClient = &http.Client{Timeout: 50 * time.Millisecond}

	_, err := r.downloadFile(context.Background(), ts.URL+"/"+BootstrapScriptFilename)
	require.Error(t, err)
}
