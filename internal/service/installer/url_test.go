package installer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-dev/lumen-installer/internal/platform"
)

// TestResolveURL checks URL composition from base, version and filename.
func TestResolveURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		baseURL  string
		version  string
		filename string
		want     string
	}{
		{
			name:     "sentinel version",
			baseURL:  "https://release.example.com/lumen",
			version:  "stable",
			filename: BootstrapScriptFilename,
			want:     "https://release.example.com/lumen/stable/" + BootstrapScriptFilename,
		},
		{
			name:     "semantic version",
			baseURL:  "https://release.example.com/lumen",
			version:  "1.4.2",
			filename: WindowsArtifactFilename,
			want:     "https://release.example.com/lumen/1.4.2/" + WindowsArtifactFilename,
		},
		{
			name:     "trailing slash normalized",
			baseURL:  "https://release.example.com/lumen/",
			version:  "latest",
			filename: WindowsArtifactFilename,
			want:     "https://release.example.com/lumen/latest/" + WindowsArtifactFilename,
		},
		{
			name:     "empty version segment omitted",
			baseURL:  "https://release.example.com/lumen",
			version:  "",
			filename: BootstrapScriptFilename,
			want:     "https://release.example.com/lumen/" + BootstrapScriptFilename,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveURL(tc.baseURL, tc.version, tc.filename)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

// TestArtifactFilename checks per-platform artifact naming.
func TestArtifactFilename(t *testing.T) {
	t.Parallel()

	got, err := ArtifactFilename(platform.FamilyWindows, false)
	require.NoError(t, err)
	require.Equal(t, WindowsArtifactFilename, got)

	got, err = ArtifactFilename(platform.FamilyLinux, false)
	require.NoError(t, err)
	require.Equal(t, BootstrapScriptFilename, got)

	got, err = ArtifactFilename(platform.FamilyLinux, true)
	require.NoError(t, err)
	require.Contains(t, got, ProductName+"-linux-")
	require.Contains(t, got, ".tar.xz")

	got, err = ArtifactFilename(platform.FamilyMac, true)
	require.NoError(t, err)
	require.Contains(t, got, ProductName+"-darwin-")

	_, err = ArtifactFilename("beos", false)
	require.Error(t, err)
}
