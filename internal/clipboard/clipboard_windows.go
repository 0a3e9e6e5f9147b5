//go:build windows

package clipboard

import (
	"syscall"
	"unsafe"
)

var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	openClipboard    = user32.NewProc("OpenClipboard")
	closeClipboard   = user32.NewProc("CloseClipboard")
	emptyClipboard   = user32.NewProc("EmptyClipboard")
	setClipboardData = user32.NewProc("SetClipboardData")
	getClipboardData = user32.NewProc("GetClipboardData")

	globalAlloc  = kernel32.NewProc("GlobalAlloc")
	globalFree   = kernel32.NewProc("GlobalFree")
	globalLock   = kernel32.NewProc("GlobalLock")
	globalUnlock = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

// WindowsClipboard is the Win32 clipboard implementation.
type WindowsClipboard struct{}

// NewClipboard returns a Windows clipboard instance.
func NewClipboard() Clipboard {
	return &WindowsClipboard{}
}

// SetText replaces the clipboard contents with text, used by the tray's
// "copy status" action to place the worker's last event JSON on it.
func (c *WindowsClipboard) SetText(text string) error {
	utf16 := syscall.StringToUTF16(text)
	size := len(utf16) * 2

	ret, _, _ := openClipboard.Call(0)
	if ret == 0 {
		return syscall.GetLastError()
	}
	defer closeClipboard.Call()

	emptyClipboard.Call()

	hMem, _, _ := globalAlloc.Call(gmemMoveable, uintptr(size))
	if hMem == 0 {
		return syscall.GetLastError()
	}

	ptr, _, _ := globalLock.Call(hMem)
	if ptr == 0 {
		globalFree.Call(hMem)
		return syscall.GetLastError()
	}

	for i, v := range utf16 {
		*(*uint16)(unsafe.Pointer(ptr + uintptr(i*2))) = v
	}

	globalUnlock.Call(hMem)

	ret, _, _ = setClipboardData.Call(cfUnicodeText, hMem)
	if ret == 0 {
		globalFree.Call(hMem)
		return syscall.GetLastError()
	}

	return nil
}

// GetText reads the clipboard's current Unicode text contents.
func (c *WindowsClipboard) GetText() (string, error) {
	ret, _, _ := openClipboard.Call(0)
	if ret == 0 {
		return "", syscall.GetLastError()
	}
	defer closeClipboard.Call()

	hMem, _, _ := getClipboardData.Call(cfUnicodeText)
	if hMem == 0 {
		return "", nil
	}

	ptr, _, _ := globalLock.Call(hMem)
	if ptr == 0 {
		return "", syscall.GetLastError()
	}
	defer globalUnlock.Call(hMem)

	var text []uint16
	for i := 0; ; i++ {
		ch := *(*uint16)(unsafe.Pointer(ptr + uintptr(i*2)))
		if ch == 0 {
			break
		}
		text = append(text, ch)
	}

	return syscall.UTF16ToString(text), nil
}
