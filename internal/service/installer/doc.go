// Package installer downloads, verifies and installs the product CLI.
//
// The pipeline is a linear sequence with early-exit failure branches:
// resolve the artifact URL, acquire a temp workspace, download with a
// caller-specified timeout, verify the detached ed25519 publisher signature,
// invoke the platform's silent install mechanism, and clean up. Nothing is
// retried automatically anywhere; re-invoking is the caller's job. Dry-run
// mode prints the resolved URL and performs no network or filesystem action.
package installer
