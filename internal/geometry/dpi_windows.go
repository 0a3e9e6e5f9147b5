//go:build windows

package geometry

import (
	"fmt"
	"sync"
	"syscall"
	"unsafe"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")
	shcore = syscall.NewLazyDLL("shcore.dll")

	procEnumDisplayMonitors       = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfoW           = user32.NewProc("GetMonitorInfoW")
	procSetProcessDpiAwareCtx     = user32.NewProc("SetProcessDpiAwarenessContext")
	procSetProcessDPIAware        = user32.NewProc("SetProcessDPIAware")
	procSetProcessDpiAwareness    = shcore.NewProc("SetProcessDpiAwareness")
	procGetDpiForMonitor          = shcore.NewProc("GetDpiForMonitor")
)

const (
	monitorDefaultToNull = 0
	mdtEffectiveDPI      = 0
	monitorInfoFPrimary  = 0x1
)

type rectW struct {
	Left, Top, Right, Bottom int32
}

type monitorInfoW struct {
	CbSize    uint32
	RcMonitor rectW
	RcWork    rectW
	DwFlags   uint32
}

var dpiAwarenessOnce sync.Once

// EnsurePerMonitorDPIAwareness opts the process into per-monitor v2 DPI
// awareness, falling back through the Windows 8.1 and Vista APIs on
// older systems. It must run before any Win32 geometry call; callers
// typically invoke this from an init() in cmd/autoapprove, mirroring
// how the shell binary used to set it.
func EnsurePerMonitorDPIAwareness() {
	dpiAwarenessOnce.Do(func() {
		if err := procSetProcessDpiAwareCtx.Find(); err == nil {
			// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2 = -4
			if r, _, _ := procSetProcessDpiAwareCtx.Call(^uintptr(3)); r != 0 {
				return
			}
			// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE = -3
			if r, _, _ := procSetProcessDpiAwareCtx.Call(^uintptr(2)); r != 0 {
				return
			}
		}

		if err := procSetProcessDpiAwareness.Find(); err == nil {
			if r, _, _ := procSetProcessDpiAwareness.Call(2); r == 0 { // PROCESS_PER_MONITOR_DPI_AWARE
				return
			}
			procSetProcessDpiAwareness.Call(1) // PROCESS_SYSTEM_DPI_AWARE, best effort
			return
		}

		procSetProcessDPIAware.Call()
	})
}

// EnumerateMonitors walks every attached display via EnumDisplayMonitors
// and resolves its effective DPI via GetDpiForMonitor, falling back to
// a 96-DPI (1.0 scale) assumption on systems lacking shcore.
func EnumerateMonitors() (Registry, error) {
	var monitors []Monitor

	callback := syscall.NewCallback(func(hMonitor, _hdc, _rect, _data uintptr) uintptr {
		var mi monitorInfoW
		mi.CbSize = uint32(unsafe.Sizeof(mi))

		ret, _, _ := procGetMonitorInfoW.Call(hMonitor, uintptr(unsafe.Pointer(&mi)))
		if ret == 0 {
			return 1
		}

		m := Monitor{
			Handle: hMonitor,
			Index:  len(monitors) + 1,
			Bounds: Rect{
				Left: int(mi.RcMonitor.Left), Top: int(mi.RcMonitor.Top),
				Right: int(mi.RcMonitor.Right), Bottom: int(mi.RcMonitor.Bottom),
			},
			WorkArea: Rect{
				Left: int(mi.RcWork.Left), Top: int(mi.RcWork.Top),
				Right: int(mi.RcWork.Right), Bottom: int(mi.RcWork.Bottom),
			},
			DPI:         96,
			ScaleFactor: 1.0,
			Primary:     mi.DwFlags&monitorInfoFPrimary != 0,
		}

		var dpiX, dpiY uint32
		if procGetDpiForMonitor.Find() == nil {
			if r, _, _ := procGetDpiForMonitor.Call(hMonitor, mdtEffectiveDPI,
				uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY))); r == 0 {
				m.DPI = int(dpiX)
				m.ScaleFactor = float64(dpiX) / 96.0
			}
		}

		monitors = append(monitors, m)
		return 1
	})

	ret, _, err := procEnumDisplayMonitors.Call(0, 0, callback, 0)
	if ret == 0 {
		return Registry{}, fmt.Errorf("geometry: EnumDisplayMonitors failed: %w", err)
	}

	// Ensure the primary monitor always resolves to index 1, per the
	// monitor_index convention documented in config (spec §6).
	for i, m := range monitors {
		if m.Primary && i != 0 {
			monitors[0], monitors[i] = monitors[i], monitors[0]
			monitors[0].Index, monitors[i].Index = 1, i+1
			break
		}
	}

	return Registry{Monitors: monitors}, nil
}
