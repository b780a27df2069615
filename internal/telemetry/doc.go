// Package telemetry reports installation failures to the ingestion endpoint.
//
// Reports are strictly opt-in: the user is prompted in interactive sessions
// only, with decline as the default answer, and non-interactive sessions
// never transmit. The flag and the LUMEN_COLLECT_TELEMETRY environment
// variable disable the reporter entirely. Transmission is a single
// best-effort POST whose failure is logged and swallowed.
package telemetry
