package main

import (
	"os/exec"
	"runtime"

	"notedrop/internal/procutil"
)

// openPathFn is a test seam over openPath.
var openPathFn = openPath

// openPath hands a file, directory, or URL to the platform default opener.
// Start, not Run: the opener owns its own lifetime, and a slow editor
// launch must not block a Wails-bound call.
func openPath(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		// The first quoted argument to start is the window title slot.
		cmd = exec.Command("cmd", "/c", "start", "", path)
		procutil.HideWindow(cmd)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
