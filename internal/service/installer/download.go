package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/version"
)

// downloadFile fetches a URL into the temp workspace and returns the local
// path. Any network error, timeout or non-2xx status is fatal and never
// retried; re-invoking the installer is the caller's job.
func (r *runner) downloadFile(ctx context.Context, fileURL string) (string, error) {
	body, err := r.fetch(ctx, fileURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = body.Close()
	}()

	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse artifact URL: %w", err)
	}

	outputPath := filepath.Clean(filepath.Join(r.tempDir, path.Base(parsed.Path)))

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("create download target: %w", err)
	}

	written, err := io.Copy(outputFile, body)
	if err != nil {
		_ = outputFile.Close()

		return "", fmt.Errorf("write download target: %w", err)
	}

	if err = outputFile.Close(); err != nil {
		return "", fmt.Errorf("close download target: %w", err)
	}

	logger.InfoKV(ctx, "Downloaded file", "url", fileURL, "path", outputPath, "bytes", written)

	return outputPath, nil
}

// fetch performs a single GET with the caller-specified timeout applied by
// the runner's HTTP client.
func (r *runner) fetch(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fileURL, err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		_ = response.Body.Close()

		return nil, fmt.Errorf("%s, %s: %w", fileURL, response.Status, errBadHTTPStatus)
	}

	return response.Body, nil
}
