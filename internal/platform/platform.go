package platform

import (
	"errors"
	"os"
	"runtime"
	"strings"
)

// Family names understood across the installer. They also appear verbatim in
// telemetry payloads, so changing them is a wire-format change.
const (
	FamilyWindows = "windows"
	FamilyLinux   = "linux"
	FamilyMac     = "mac"
)

// ErrorValue is returned by queries when the underlying OS facility is
// unavailable. Queries never fail past the caller.
const ErrorValue = "error"

// Execution environment classifications reported via telemetry. They never
// influence control flow.
const (
	EnvironmentAzurePipelines = "Azure DevOps"
	EnvironmentGitHubActions  = "GitHub Actions"
	EnvironmentDesktop        = "Desktop"
)

// errUnknownFamily is returned when a platform name cannot be parsed.
var errUnknownFamily = errors.New("unknown platform")

// wslKernelProbe is the file whose contents reveal a WSL kernel.
const wslKernelProbe = "/proc/sys/kernel/osrelease"

// Family reports the platform family of the current host.
func Family() string {
	switch runtime.GOOS {
	case "windows":
		return FamilyWindows
	case "linux":
		return FamilyLinux
	case "darwin":
		return FamilyMac
	default:
		return ErrorValue
	}
}

// ParseFamily normalizes a user-supplied platform name.
// An empty input resolves to the current host platform.
func ParseFamily(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		family := Family()
		if family == ErrorValue {
			return "", errUnknownFamily
		}

		return family, nil
	case FamilyWindows:
		return FamilyWindows, nil
	case FamilyLinux:
		return FamilyLinux, nil
	case FamilyMac, "darwin", "macos", "osx":
		return FamilyMac, nil
	default:
		return "", errUnknownFamily
	}
}

// IsWSL reports whether the current process runs inside a Linux
// compatibility layer on a non-Linux host kernel.
func IsWSL() bool {
	if runtime.GOOS != "linux" {
		return false
	}

	contents, err := os.ReadFile(wslKernelProbe)
	if err != nil {
		return false
	}

	return isWSLKernel(string(contents))
}

// isWSLKernel inspects a kernel release string for WSL markers.
func isWSLKernel(release string) bool {
	return strings.Contains(strings.ToLower(release), "microsoft")
}

// TerminalName reports the host terminal, best effort.
func TerminalName() string {
	if name := os.Getenv("TERM_PROGRAM"); name != "" {
		return name
	}

	if os.Getenv("WT_SESSION") != "" {
		return "Windows Terminal"
	}

	if name := os.Getenv("TERM"); name != "" {
		return name
	}

	return ErrorValue
}

// Environment classifies where the installer runs. CI indicators are read
// only for telemetry labeling.
func Environment() string {
	if isEnvFlagSet("TF_BUILD") {
		return EnvironmentAzurePipelines
	}

	if isEnvFlagSet("GITHUB_ACTIONS") {
		return EnvironmentGitHubActions
	}

	return EnvironmentDesktop
}

// isEnvFlagSet treats any value other than empty, "false" and "0" as set.
func isEnvFlagSet(name string) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	return value != "" && value != "false" && value != "0"
}
