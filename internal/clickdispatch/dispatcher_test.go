package clickdispatch

import (
	"errors"
	"testing"
	"time"

	"autoapprove/internal/geometry"
	"autoapprove/internal/winlocator"
)

// A bogus handle never resolves to a live window, so Dispatch's first
// call passes the cooldown gate and then fails with ErrWindowGone. A
// failed dispatch does not start the cooldown, so the test stamps
// lastClick directly to stand in for a successful click; the second
// call within cooldown_s must then return ErrCooling.
const bogusHandle = 0xDEADBEEF

func TestDispatchCooldownGatesRepeatedClicks(t *testing.T) {
	d := New(time.Minute, MethodMessage, false)

	first := d.Dispatch(bogusHandle, geometry.Point{X: 5, Y: 5}, [2]int{})
	if errors.Is(first, ErrCooling) {
		t.Fatal("expected the first click on a handle to not be gated by cooldown")
	}

	d.mu.Lock()
	d.lastClick[bogusHandle] = time.Now()
	d.mu.Unlock()

	second := d.Dispatch(bogusHandle, geometry.Point{X: 5, Y: 5}, [2]int{})
	if !errors.Is(second, ErrCooling) {
		t.Fatalf("expected ErrCooling for a click inside cooldown_s, got %v", second)
	}
}

// TestScreenPointHonorsMultiMonitorOffset exercises the coordinate
// arithmetic with a negative-origin client rect, as seen when the
// target window sits on a monitor to the left of the primary.
func TestScreenPointHonorsMultiMonitorOffset(t *testing.T) {
	clientRect := winlocator.Rect{Left: -1820, Top: 120, Right: -820, Bottom: 1120}
	framePoint := geometry.Point{X: 100, Y: 100}

	x, y := screenPoint(clientRect, framePoint, [2]int{})
	if x != -1720 || y != 220 {
		t.Fatalf("expected screen point (-1720, 220), got (%d, %d)", x, y)
	}
}

func TestDispatchAllowsClickAfterCooldownElapses(t *testing.T) {
	d := New(time.Millisecond, MethodMessage, false)

	d.mu.Lock()
	d.lastClick[bogusHandle] = time.Now().Add(-time.Second)
	d.mu.Unlock()

	err := d.Dispatch(bogusHandle, geometry.Point{X: 5, Y: 5}, [2]int{})
	if errors.Is(err, ErrCooling) {
		t.Fatal("expected cooldown to have elapsed, but Dispatch still reported ErrCooling")
	}
}
