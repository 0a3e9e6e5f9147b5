//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"unsafe"
)

// combase.dll hosts WinRT activation and HSTRING marshalling; it ships
// on every Windows version that also ships Windows.Graphics.Capture
// (1903+), so no extra redistributable is required.
var (
	combase = syscall.NewLazyDLL("combase.dll")
	ole32   = syscall.NewLazyDLL("ole32.dll")

	procRoInitialize            = combase.NewProc("RoInitialize")
	procRoGetActivationFactory  = combase.NewProc("RoGetActivationFactory")
	procWindowsCreateString     = combase.NewProc("WindowsCreateString")
	procWindowsDeleteString     = combase.NewProc("WindowsDeleteString")
	procCoInitializeEx          = ole32.NewProc("CoInitializeEx")
)

const (
	roInitMultithreaded = 1
	coInitMultithreaded = 0x0
)

// guid mirrors the Win32 GUID layout for syscall marshalling.
type guid struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func mustGUID(s string) guid {
	g, err := parseGUID(s)
	if err != nil {
		panic(err)
	}
	return g
}

// parseGUID accepts the canonical "{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}"
// form used throughout the WinRT/COM headers this package binds against.
func parseGUID(s string) (guid, error) {
	var g guid
	var b [8]byte
	n, err := fmt.Sscanf(s, "{%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x}",
		&g.Data1, &g.Data2, &g.Data3,
		&b[0], &b[1], &b[2], &b[3], &b[4], &b[5], &b[6], &b[7])
	if err != nil || n != 11 {
		return guid{}, fmt.Errorf("capture: bad GUID %q: %w", s, err)
	}
	g.Data4 = b
	return g, nil
}

// hstring wraps a WinRT HSTRING handle.
type hstring struct {
	handle uintptr
}

func newHString(s string) (hstring, error) {
	u16, err := syscall.UTF16FromString(s)
	if err != nil {
		return hstring{}, err
	}
	var h uintptr
	ret, _, _ := procWindowsCreateString.Call(
		uintptr(unsafe.Pointer(&u16[0])),
		uintptr(len(u16)-1),
		uintptr(unsafe.Pointer(&h)),
	)
	if ret != 0 {
		return hstring{}, fmt.Errorf("capture: WindowsCreateString failed: 0x%x", ret)
	}
	return hstring{handle: h}, nil
}

func (h hstring) release() {
	if h.handle != 0 {
		procWindowsDeleteString.Call(h.handle)
	}
}

// comObject is a thin IUnknown-shaped pointer with vtable call helpers.
// Every WinRT interface used by this package is accessed this way
// rather than through a generated binding, since none exists in the
// example corpus this module is grounded on.
type comObject struct {
	ptr unsafe.Pointer
}

func (o comObject) vtable() *[64]uintptr {
	return (*[64]uintptr)(unsafe.Pointer(*(*uintptr)(o.ptr)))
}

// call invokes the method at vtable slot idx with args following the
// implicit `this` pointer.
func (o comObject) call(idx int, args ...uintptr) (uintptr, error) {
	full := append([]uintptr{uintptr(o.ptr)}, args...)
	fn := o.vtable()[idx]
	ret, _, _ := syscall.SyscallN(fn, full...)
	if ret&0x80000000 != 0 {
		return ret, fmt.Errorf("capture: HRESULT 0x%08x", uint32(ret))
	}
	return ret, nil
}

func (o comObject) release() {
	if o.ptr != nil {
		o.call(2) // IUnknown::Release
	}
}

// roInitialize brings up the WinRT runtime for the calling thread. It
// is safe to call more than once; RO_E_... "already initialized" style
// returns are treated as success since this package only needs a
// process-lifetime initialization, not per-apartment accounting.
func roInitialize() error {
	procCoInitializeEx.Call(0, coInitMultithreaded)
	ret, _, _ := procRoInitialize.Call(roInitMultithreaded)
	if ret != 0 && ret != 1 { // S_OK or S_FALSE (already initialized)
		return fmt.Errorf("capture: RoInitialize failed: 0x%x", ret)
	}
	return nil
}

// getActivationFactory activates a WinRT runtime class and queries it
// for iid, returning the raw interface pointer.
func getActivationFactory(className string, iid guid) (comObject, error) {
	name, err := newHString(className)
	if err != nil {
		return comObject{}, err
	}
	defer name.release()

	var out uintptr
	ret, _, _ := procRoGetActivationFactory.Call(
		name.handle,
		uintptr(unsafe.Pointer(&iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	if ret != 0 {
		return comObject{}, fmt.Errorf("capture: RoGetActivationFactory(%s) failed: 0x%x", className, ret)
	}
	return comObject{ptr: unsafe.Pointer(out)}, nil
}
