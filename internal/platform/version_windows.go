//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// OSVersion reports the Windows version as "major.minor.build".
func OSVersion() string {
	info := windows.RtlGetVersion()
	if info == nil {
		return ErrorValue
	}

	return fmt.Sprintf("%d.%d.%d", info.MajorVersion, info.MinorVersion, info.BuildNumber)
}
