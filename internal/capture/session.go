// Package capture implements the Windows Graphics Capture backend
// (spec §4.3, C3): hardware-accelerated window/monitor capture via the
// WinRT Windows.Graphics.Capture API, with no bitblt/print-window
// fallback path (explicitly forbidden by spec §4.3).
//
// No Go binding for Windows.Graphics.Capture exists among the example
// repos or the wider ecosystem this module draws from, so the COM/
// WinRT activation and vtable plumbing is hand-written via
// syscall.NewLazyDLL/NewProc/unsafe, in the same idiom the teacher
// already uses for its user32/gdi32 bindings (see com_windows.go,
// d3d_windows.go, wgc_windows.go).
package capture

import (
	"errors"
	"time"
)

var (
	// ErrUnsupported means the OS lacks Windows.Graphics.Capture support.
	ErrUnsupported = errors.New("capture: graphics capture unsupported on this system")
	// ErrUnavailable means a transient capture failure (spec §4.3).
	ErrUnavailable = errors.New("capture: frame unavailable")
	// ErrClosed means the session's target was lost (window destroyed, monitor removed).
	ErrClosed = errors.New("capture: session closed")
)

// Source names what to capture: exactly one of WindowHandle or MonitorHandle
// is set, matching spec §4.3's Window(handle)/Monitor(monitor-id).
type Source struct {
	WindowHandle  uintptr
	MonitorHandle uintptr
}

// Options configures a capture session per spec §4.3's start(source, opts).
type Options struct {
	IncludeCursor             bool
	BorderRequired            bool
	FPSMax                    int
	TimeoutMS                 int
	RestoreMinimizedNoactivate bool
}

// Session is an open capture backend instance. All methods are safe
// to call from any goroutine; latest_frame never blocks on the
// capture-callback path (spec §5).
type Session interface {
	// LatestFrame returns the most recently published frame, or nil if
	// none has arrived within opts.TimeoutMS.
	LatestFrame() (*Frame, error)
	// Stop is idempotent; it releases the pool and capture item.
	Stop() error
}

// Start opens a capture session against source. The backend never
// falls back to bitblt/print-window (spec §4.3): when the platform
// cannot start graphics capture, Start returns ErrUnsupported and the
// caller (C9) transitions to Faulted with backoff.
func Start(source Source, opts Options) (Session, error) {
	return startPlatform(source, opts)
}

// defaultTimeout is the fallback used when Options.TimeoutMS is unset.
const defaultTimeout = 5 * time.Second
