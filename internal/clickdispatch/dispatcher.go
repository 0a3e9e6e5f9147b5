// Package clickdispatch posts non-activating click messages to a
// target window (spec §4.8, C8), adapted from the reference
// win_clicker post_click_screen_pos flow.
package clickdispatch

import (
	"errors"
	"sync"
	"time"

	"autoapprove/internal/geometry"
	"autoapprove/internal/winlocator"
)

var (
	// ErrWindowGone means the target handle no longer refers to a live window.
	ErrWindowGone = errors.New("clickdispatch: target window is gone")
	// ErrOutOfBounds means the computed point falls outside the window's client area.
	ErrOutOfBounds = errors.New("clickdispatch: point outside target client area")
	// ErrPostFailed means the message post/send itself failed or timed out.
	ErrPostFailed = errors.New("clickdispatch: failed to post click messages")
	// ErrCooling means a click was requested before cooldown_s elapsed; not an error, just a no-op.
	ErrCooling = errors.New("clickdispatch: still cooling down")
)

// Method selects how the click is synthesized (spec §6 click_method).
type Method string

const (
	MethodMessage  Method = "message"
	MethodSimulate Method = "simulate"
)

// Dispatcher posts clicks to windows, enforcing a per-handle cooldown.
type Dispatcher struct {
	mu             sync.Mutex
	lastClick      map[uintptr]time.Time
	cooldown       time.Duration
	method         Method
	verifyBeforeClick bool
}

// New builds a dispatcher. cooldown is cooldown_s (spec §6); method is
// click_method; verifyBeforeClick is verify_window_before_click.
func New(cooldown time.Duration, method Method, verifyBeforeClick bool) *Dispatcher {
	return &Dispatcher{
		lastClick:         make(map[uintptr]time.Time),
		cooldown:          cooldown,
		method:            method,
		verifyBeforeClick: verifyBeforeClick,
	}
}

// Dispatch implements spec §4.8's five-step sequence: resolve the
// client rect, compute the screen point, optionally bounds-check,
// convert to client-relative coordinates, then post down/up messages
// via the non-activating message API.
func (d *Dispatcher) Dispatch(handle uintptr, framePoint geometry.Point, clickOffset [2]int) error {
	d.mu.Lock()
	last, hasLast := d.lastClick[handle]
	d.mu.Unlock()
	if hasLast && time.Since(last) < d.cooldown {
		return ErrCooling
	}

	clientRect, err := winlocator.ClientRect(handle)
	if err != nil {
		return ErrWindowGone
	}

	screenX, screenY := screenPoint(clientRect, framePoint, clickOffset)

	if d.verifyBeforeClick {
		if screenX < clientRect.Left || screenX >= clientRect.Right ||
			screenY < clientRect.Top || screenY >= clientRect.Bottom {
			return ErrOutOfBounds
		}
	}

	if err := postClick(handle, screenX, screenY, d.method); err != nil {
		return ErrPostFailed
	}

	d.mu.Lock()
	d.lastClick[handle] = time.Now()
	d.mu.Unlock()
	return nil
}

// screenPoint converts a frame-relative match point to a screen point,
// honoring the per-monitor offset a multi-monitor capture target
// carries in its client rect's top-left corner (spec §4.8, §8: frame
// coordinates are always relative to the captured window/monitor, not
// the virtual desktop).
func screenPoint(clientRect winlocator.Rect, framePoint geometry.Point, clickOffset [2]int) (int, int) {
	x := clientRect.Left + framePoint.X + clickOffset[0]
	y := clientRect.Top + framePoint.Y + clickOffset[1]
	return x, y
}
