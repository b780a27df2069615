package installer

import (
	"fmt"
	"net/url"
	"path"
)

// ResolveURL composes the artifact download URL from the release host base
// URL, an optional version segment and the artifact filename. Version may be
// a semantic version or one of the host sentinels ("latest", "daily",
// "stable"); sentinels are passed through as literal path segments, the host
// resolves them server-side.
func ResolveURL(baseURL, version, filename string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	segments := make([]string, 0, 3)
	segments = append(segments, parsed.Path)

	if version != "" {
		segments = append(segments, version)
	}

	segments = append(segments, filename)

	// path.Join also normalizes duplicate slashes when composing the URL path.
	parsed.Path = path.Join(segments...)

	return parsed.String(), nil
}
