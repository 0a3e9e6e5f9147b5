package scanner

import (
	"testing"
	"time"
)

func TestRecordFaultBacksOffExponentiallyUpToCap(t *testing.T) {
	f := newFaultTracker()
	base := time.Now()

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		wait, _ := f.recordFault(base.Add(time.Duration(i) * time.Millisecond))
		if wait != w {
			t.Fatalf("fault %d: expected backoff %v, got %v", i, w, wait)
		}
	}
}

func TestRecordFaultSticksAfterFiveInWindow(t *testing.T) {
	f := newFaultTracker()
	base := time.Now()

	var sticky bool
	for i := 0; i < 5; i++ {
		_, sticky = f.recordFault(base.Add(time.Duration(i) * time.Second))
	}
	if !sticky {
		t.Fatal("expected sticky=true on the 5th fault within the 60s window")
	}
}

func TestRecordFaultWindowExpires(t *testing.T) {
	f := newFaultTracker()
	base := time.Now()

	for i := 0; i < 4; i++ {
		f.recordFault(base.Add(time.Duration(i) * time.Second))
	}
	// A 5th fault long after the window has rolled past the first four
	// must not trip sticky, since only the most recent one is in-window.
	_, sticky := f.recordFault(base.Add(120 * time.Second))
	if sticky {
		t.Fatal("expected stale faults outside the 60s window to be pruned")
	}
}

func TestResetClearsBackoffAndWindow(t *testing.T) {
	f := newFaultTracker()
	base := time.Now()
	f.recordFault(base)
	f.recordFault(base.Add(time.Second))

	f.reset()

	wait, sticky := f.recordFault(base.Add(2 * time.Second))
	if wait != time.Second {
		t.Fatalf("expected backoff to restart at 1s after reset, got %v", wait)
	}
	if sticky {
		t.Fatal("expected a single fault after reset to not be sticky")
	}
}
