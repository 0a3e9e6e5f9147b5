//go:build windows

package winlocator

import (
	"strings"
	"syscall"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible           = user32.NewProc("IsWindowVisible")
	procGetWindowTextW            = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW      = user32.NewProc("GetWindowTextLengthW")
	procGetForegroundWindow       = user32.NewProc("GetForegroundWindow")
	procGetClientRect             = user32.NewProc("GetClientRect")
	procClientToScreen            = user32.NewProc("ClientToScreen")
	procGetWindowThreadProcessId  = user32.NewProc("GetWindowThreadProcessId")
	procEnumWindows               = user32.NewProc("EnumWindows")

	procOpenProcess                    = kernel32.NewProc("OpenProcess")
	procCloseHandle                    = kernel32.NewProc("CloseHandle")
	procQueryFullProcessImageNameW     = kernel32.NewProc("QueryFullProcessImageNameW")
)

const processQueryLimitedInformation = 0x1000

type rectW struct {
	Left, Top, Right, Bottom int32
}

type pointW struct {
	X, Y int32
}

// Resolve implements spec §4.2: explicit handle first, then title
// match, then process match. An explicit handle must be a live
// top-level window; the title and process searches consider visible
// top-level windows only. The locator never activates or raises any
// window.
func Resolve(target WindowTarget) (WindowInfo, error) {
	if target.Handle != 0 {
		if isLiveTopLevelWindow(target.Handle) {
			return describeWindow(target.Handle)
		}
		return WindowInfo{}, ErrStale
	}

	if target.Title != "" {
		if hwnd, ok := findByTitle(target.Title, target.TitlePartial); ok {
			return describeWindow(hwnd)
		}
	}

	if target.ProcessName != "" {
		if hwnd, ok := findByProcess(target.ProcessName); ok {
			return describeWindow(hwnd)
		}
	}

	return WindowInfo{}, ErrNotFound
}

// ForegroundHandle returns the current foreground window, or 0 if none.
func ForegroundHandle() uintptr {
	h, _, _ := procGetForegroundWindow.Call()
	return h
}

// ClientRect returns the client area of hwnd in physical screen pixels.
func ClientRect(hwnd uintptr) (Rect, error) {
	var rc rectW
	ret, _, _ := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&rc)))
	if ret == 0 {
		return Rect{}, ErrStale
	}

	lt := pointW{X: rc.Left, Y: rc.Top}
	rb := pointW{X: rc.Right, Y: rc.Bottom}
	procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(&lt)))
	procClientToScreen.Call(hwnd, uintptr(unsafe.Pointer(&rb)))

	return Rect{Left: int(lt.X), Top: int(lt.Y), Right: int(rb.X), Bottom: int(rb.Y)}, nil
}

// ProcessName returns the base executable name owning hwnd, e.g. "Code.exe".
func ProcessName(hwnd uintptr) string {
	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	return processNameByPID(pid)
}

func describeWindow(hwnd uintptr) (WindowInfo, error) {
	rect, err := ClientRect(hwnd)
	if err != nil {
		return WindowInfo{}, err
	}
	return WindowInfo{Handle: hwnd, ProcessName: ProcessName(hwnd), ClientRect: rect}, nil
}

func isLiveTopLevelWindow(hwnd uintptr) bool {
	ret, _, _ := procIsWindow.Call(hwnd)
	if ret == 0 {
		return false
	}
	root, _, _ := user32.NewProc("GetAncestor").Call(hwnd, 2) // GA_ROOT
	return root == hwnd
}

func isVisible(hwnd uintptr) bool {
	ret, _, _ := procIsWindowVisible.Call(hwnd)
	return ret != 0
}

func windowTitle(hwnd uintptr) string {
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf)
}

func findByTitle(title string, partial bool) (uintptr, bool) {
	var found uintptr
	needle := strings.ToLower(title)

	cb := syscall.NewCallback(func(hwnd, _ uintptr) uintptr {
		if !isVisible(hwnd) {
			return 1
		}
		t := strings.ToLower(windowTitle(hwnd))
		if t == "" {
			return 1
		}
		match := t == needle
		if partial {
			match = strings.Contains(t, needle)
		}
		if match {
			found = hwnd
			return 0
		}
		return 1
	})
	procEnumWindows.Call(cb, 0)
	return found, found != 0
}

func findByProcess(processName string) (uintptr, bool) {
	var found uintptr
	needle := strings.ToLower(processName)

	cb := syscall.NewCallback(func(hwnd, _ uintptr) uintptr {
		if !isVisible(hwnd) {
			return 1
		}
		if strings.ToLower(ProcessName(hwnd)) == needle {
			found = hwnd
			return 0
		}
		return 1
	})
	procEnumWindows.Call(cb, 0)
	return found, found != 0
}

func processNameByPID(pid uint32) string {
	h, _, _ := procOpenProcess.Call(processQueryLimitedInformation, 0, uintptr(pid))
	if h == 0 {
		return ""
	}
	defer procCloseHandle.Call(h)

	buf := make([]uint16, 260)
	size := uint32(len(buf))
	ret, _, _ := procQueryFullProcessImageNameW.Call(h, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if ret == 0 {
		return ""
	}
	path := syscall.UTF16ToString(buf[:size])
	parts := strings.Split(path, `\`)
	return parts[len(parts)-1]
}
