// Package release prepares release metadata consumed by the installer.
//
// It computes SHA-512 checksums for the artifacts in a directory, produces a
// detached ed25519 signature for each, and persists the manifest YAML that
// describes the release. The resulting files are uploaded to the release
// host folder served to installers.
package release
