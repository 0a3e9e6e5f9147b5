//go:build windows

package clickdispatch

import (
	"fmt"
	"syscall"
	"unsafe"
)

var user32 = syscall.NewLazyDLL("user32.dll")

var (
	procScreenToClient       = user32.NewProc("ScreenToClient")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procSendMessageTimeoutW  = user32.NewProc("SendMessageTimeoutW")
	procSendInput            = user32.NewProc("SendInput")
)

const (
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202

	smtoAbortIfHung = 0x0002
	sendTimeoutMS   = 500 // spec §5: "default 500 ms" guarded send

	inputMouse        = 0
	mouseEventFLeftDown = 0x0002
	mouseEventFLeftUp   = 0x0004
)

type pointW struct {
	X, Y int32
}

func makeLParam(x, y int32) uintptr {
	return uintptr(uint32(y)<<16 | uint32(x)&0xFFFF)
}

// postClick sends WM_LBUTTONDOWN/UP via PostMessage for MethodMessage;
// any other method takes the guarded SendMessageTimeout path so a hung
// window cannot stall the scanner thread (spec §4.8, §5).
func postClick(handle uintptr, screenX, screenY int, method Method) error {
	pt := pointW{X: int32(screenX), Y: int32(screenY)}
	ret, _, _ := procScreenToClient.Call(handle, uintptr(unsafe.Pointer(&pt)))
	if ret == 0 {
		return fmt.Errorf("clickdispatch: ScreenToClient failed")
	}

	lparam := makeLParam(pt.X, pt.Y)

	if method == MethodMessage {
		r1, _, _ := procPostMessageW.Call(handle, wmLButtonDown, 1, lparam)
		r2, _, _ := procPostMessageW.Call(handle, wmLButtonUp, 0, lparam)
		if r1 == 0 || r2 == 0 {
			return fmt.Errorf("clickdispatch: PostMessage failed")
		}
		return nil
	}

	var dwResult uintptr
	r1, _, _ := procSendMessageTimeoutW.Call(handle, wmLButtonDown, 1, lparam,
		smtoAbortIfHung, sendTimeoutMS, uintptr(unsafe.Pointer(&dwResult)))
	r2, _, _ := procSendMessageTimeoutW.Call(handle, wmLButtonUp, 0, lparam,
		smtoAbortIfHung, sendTimeoutMS, uintptr(unsafe.Pointer(&dwResult)))

	if r1 == 0 || r2 == 0 {
		return fmt.Errorf("clickdispatch: SendMessageTimeout failed")
	}
	return nil
}
