package scanner

import "time"

// faultTracker implements the single backoff authority spec §7/§4.9
// calls for: C3/C8 report faults without retrying themselves, and this
// is the only place that decides how long to wait before re-arming or
// whether to declare the worker sticky-faulted.
type faultTracker struct {
	backoff   time.Duration
	maxBackoff time.Duration

	window     []time.Time
	windowSpan time.Duration
	stickyAt   int
}

func newFaultTracker() *faultTracker {
	return &faultTracker{
		backoff:    time.Second,
		maxBackoff: 8 * time.Second,
		windowSpan: 60 * time.Second,
		stickyAt:   5,
	}
}

// recordFault registers a fault at now and returns the backoff to wait
// before the next Arming attempt, plus whether the fault budget for the
// 60s window has been exceeded (sticky Faulted, requires user action).
func (f *faultTracker) recordFault(now time.Time) (wait time.Duration, sticky bool) {
	f.window = append(f.window, now)
	cutoff := now.Add(-f.windowSpan)
	kept := f.window[:0]
	for _, t := range f.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	f.window = kept

	wait = f.backoff
	f.backoff *= 2
	if f.backoff > f.maxBackoff {
		f.backoff = f.maxBackoff
	}

	return wait, len(f.window) >= f.stickyAt
}

// reset clears accumulated backoff after a successful re-arm, so a
// single transient fault does not leave the scanner permanently slow.
func (f *faultTracker) reset() {
	f.backoff = time.Second
	f.window = nil
}
