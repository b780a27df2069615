// Package platform answers questions about the host: OS family and version,
// WSL detection, terminal identity and execution environment (CI vs desktop).
//
// Every query is a pure lookup with a graceful fallback to the "error"
// sentinel; none of them can fail past the caller. The answers feed telemetry
// payloads and artifact URL resolution only.
package platform
