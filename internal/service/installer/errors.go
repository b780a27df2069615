package installer

import "errors"

// failureReason maps a pipeline error to its telemetry reason. The second
// return value is false for categories that are never reported, currently
// only a missing host dependency.
func failureReason(err error) (string, bool) {
	switch {
	case errors.Is(err, errMissingDependency):
		return "", false
	case errors.Is(err, errDownloadFailed):
		return reasonDownload, true
	case errors.Is(err, errSignatureInvalid):
		return reasonSignature, true
	case errors.Is(err, errInstallerFailed),
		errors.Is(err, errProductRunning),
		errors.Is(err, errUnsupportedPlatform):
		return reasonInstaller, true
	default:
		return reasonUnhandled, true
	}
}
