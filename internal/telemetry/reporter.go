package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/lumen-dev/lumen-installer/internal/logger"
	"github.com/lumen-dev/lumen-installer/internal/platform"
	"github.com/lumen-dev/lumen-installer/internal/version"
)

const (
	// CollectEnvVar opts the user out of telemetry when set to "no",
	// "false" or "0".
	CollectEnvVar = "LUMEN_COLLECT_TELEMETRY"

	// sendTimeout bounds the single best-effort POST.
	sendTimeout = 10 * time.Second
)

// Event is a diagnostic record describing an installation failure.
// Events are never persisted locally and are sent at most once per failure.
type Event struct {
	// Name identifies the failure class.
	Name string `json:"name"`
	// Reason carries the human-readable cause, when known.
	Reason string `json:"reason,omitempty"`
	// Properties holds host facts plus caller-supplied extras.
	Properties map[string]string `json:"properties"`
}

// Reporter sends failure events to the ingestion endpoint after explicit
// consent. A disabled reporter is a no-op; a Reporter never causes the
// surrounding procedure to fail.
type Reporter struct {
	endpoint    string
	disabled    bool
	client      *http.Client
	promptIn    io.Reader
	promptOut   io.Writer
	interactive func() bool
}

// Option customizes a Reporter.
type Option func(*Reporter)

// WithHTTPClient replaces the HTTP client used for transmission.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Reporter) {
		r.client = client
	}
}

// WithPromptIO replaces the consent prompt streams.
func WithPromptIO(in io.Reader, out io.Writer) Option {
	return func(r *Reporter) {
		r.promptIn = in
		r.promptOut = out
	}
}

// WithInteractive overrides session interactivity detection.
func WithInteractive(probe func() bool) Option {
	return func(r *Reporter) {
		r.interactive = probe
	}
}

// NewReporter builds a Reporter for the given ingestion endpoint.
// The reporter is disabled when the caller opted out, the environment opted
// out, or no endpoint is configured.
func NewReporter(endpoint string, optedOut bool, opts ...Option) *Reporter {
	r := &Reporter{
		endpoint:    endpoint,
		disabled:    optedOut || OptedOutByEnv() || endpoint == "",
		client:      &http.Client{Timeout: sendTimeout},
		promptIn:    os.Stdin,
		promptOut:   os.Stderr,
		interactive: stdinIsTerminal,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// OptedOutByEnv reports whether the environment disables telemetry.
func OptedOutByEnv() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(CollectEnvVar)))
	return value == "no" || value == "false" || value == "0"
}

// Enabled reports whether this reporter may ever transmit.
func (r *Reporter) Enabled() bool {
	return !r.disabled
}

// Report asks for consent and transmits a single failure event, best effort.
// It never returns an error: by the time telemetry runs, the procedure has
// already failed and nothing here may change its outcome.
func (r *Reporter) Report(ctx context.Context, name, reason string, extra map[string]string) {
	if r.disabled {
		logger.Debug(ctx, "Telemetry is disabled, skipping report")
		return
	}

	if !r.interactive() {
		logger.Debug(ctx, "Non-interactive session, telemetry consent assumed declined")
		return
	}

	if !r.askConsent() {
		logger.Debug(ctx, "Telemetry consent declined")
		return
	}

	event := r.buildEvent(name, reason, extra)
	r.send(ctx, event)
}

// buildEvent assembles host facts and merges caller extras over them.
func (r *Reporter) buildEvent(name, reason string, extra map[string]string) *Event {
	properties := map[string]string{
		"os":          platform.Family(),
		"osVersion":   platform.OSVersion(),
		"isWsl":       strconv.FormatBool(platform.IsWSL()),
		"terminal":    platform.TerminalName(),
		"environment": platform.Environment(),
		"version":     version.Short(),
	}

	for key, value := range extra {
		properties[key] = value
	}

	return &Event{
		Name:       name,
		Reason:     reason,
		Properties: properties,
	}
}

// askConsent prompts the user; anything but an explicit yes declines.
func (r *Reporter) askConsent() bool {
	_, _ = fmt.Fprint(r.promptOut, "Send a diagnostic report to help improve the installer? [y/N] ")

	scanner := bufio.NewScanner(r.promptIn)
	if !scanner.Scan() {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))

	return answer == "y" || answer == "yes"
}

// send performs the single POST. Failures are logged and swallowed.
func (r *Reporter) send(ctx context.Context, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.WarnKV(ctx, "Unable to encode telemetry event", "error", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		logger.WarnKV(ctx, "Unable to build telemetry request", "error", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	response, err := r.client.Do(req)
	if err != nil {
		logger.WarnKV(ctx, "Unable to send telemetry event", "error", err)
		return
	}

	defer func() {
		_ = response.Body.Close()
	}()

	logger.DebugKV(ctx, "Telemetry event sent", "status", response.Status)
}

// stdinIsTerminal reports whether stdin is attached to a terminal.
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
