// Package eventbus implements the bounded, latest-wins status/event
// channel the worker uses to tell the shell what it is doing (spec
// §4.10, C10), plus a JSON-over-websocket transport so the two
// processes can exchange it across the loopback boundary (spec §5:
// "worker process" / "shell process").
package eventbus

import "time"

// Kind names one of the five event kinds from spec §4.10. Each kind
// has its own depth-1 slot in the Channel, so a burst of one kind
// never displaces a pending event of another kind.
type Kind string

const (
	KindStatusChanged Kind = "status_changed"
	KindMatch         Kind = "match"
	KindClick         Kind = "click"
	KindError         Kind = "error"
	KindPerfTick      Kind = "perf_tick"
)

// Event is the envelope carried on the channel and over the wire. ID
// is a correlation id a diagnostic client can use to match a Match
// event to the Click it produced, or to de-duplicate events replayed
// after a reconnect.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Status *StatusChanged `json:"status,omitempty"`
	Match  *Match         `json:"match,omitempty"`
	Click  *Click         `json:"click,omitempty"`
	Error  *Error         `json:"error,omitempty"`
	Perf   *PerfTick      `json:"perf,omitempty"`
}

// StatusChanged reports a scanner state machine transition (spec §4.9).
type StatusChanged struct {
	State string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// Match reports a qualifying template match before a click is dispatched.
type Match struct {
	TemplateID string  `json:"template_id"`
	Score      float64 `json:"score"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
}

// Click reports the outcome of a click dispatch attempt.
type Click struct {
	Success bool   `json:"success"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Detail  string `json:"detail,omitempty"`
}

// Error reports a recoverable fault, per the taxonomy in spec §7.
type Error struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// PerfTick reports periodic resource usage (spec §4.10).
type PerfTick struct {
	FPS float64 `json:"fps"`
	CPU float64 `json:"cpu"`
	MemMB float64 `json:"mem_mb"`
}
