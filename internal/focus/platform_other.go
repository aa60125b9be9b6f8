//go:build !windows

package focus

import (
	"errors"
	"os"
)

// Focus restoration is wired for Windows only; elsewhere the tracker never
// saves a target, so RestorePrevious is a no-op end to end.
func defaultPlatform() Platform {
	return Platform{
		FrontmostPID: func() (int, bool) { return 0, false },
		ActivatePID: func(int) error {
			return errors.New("focus restoration is not supported on this platform")
		},
		OwnPID: os.Getpid,
	}
}
