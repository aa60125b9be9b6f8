//go:build windows

package focus

import (
	"os"
	"syscall"
	"unsafe"
)

var (
	focusUser32DLL = syscall.NewLazyDLL("user32.dll")

	procGetForegroundWindow      = focusUser32DLL.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessID = focusUser32DLL.NewProc("GetWindowThreadProcessId")
	procSetForegroundWindow      = focusUser32DLL.NewProc("SetForegroundWindow")
	procEnumWindows              = focusUser32DLL.NewProc("EnumWindows")
	procIsWindowVisible          = focusUser32DLL.NewProc("IsWindowVisible")
)

func defaultPlatform() Platform {
	return Platform{
		FrontmostPID: frontmostPID,
		ActivatePID:  activatePID,
		OwnPID:       os.Getpid,
	}
}

func frontmostPID() (int, bool) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, false
	}
	var pid uint32
	procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return 0, false
	}
	return int(pid), true
}

// enumContext carries state across the EnumWindows callback.
type enumContext struct {
	targetPID uint32
	found     uintptr
}

// enumWindowsCallback must match the Win32 WNDENUMPROC signature. Returning
// 0 stops enumeration.
var enumWindowsCallback = syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
	ctx := (*enumContext)(unsafe.Pointer(lparam))

	var pid uint32
	procGetWindowThreadProcessID.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid != ctx.targetPID {
		return 1
	}
	if visible, _, _ := procIsWindowVisible.Call(hwnd); visible == 0 {
		return 1
	}
	ctx.found = hwnd
	return 0
})

func activatePID(pid int) error {
	ctx := enumContext{targetPID: uint32(pid)}
	procEnumWindows.Call(enumWindowsCallback, uintptr(unsafe.Pointer(&ctx)))
	if ctx.found == 0 {
		return ErrNotRunning
	}
	if res, _, err := procSetForegroundWindow.Call(ctx.found); res == 0 {
		if err == syscall.Errno(0) {
			return syscall.EINVAL
		}
		return err
	}
	return nil
}
