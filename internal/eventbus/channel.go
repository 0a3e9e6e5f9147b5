package eventbus

import (
	"sync"

	"github.com/google/uuid"
)

// Channel is the bounded latest-wins primitive from spec §4.10: queue
// depth is 1 per event kind, so a sender that outruns the receiver
// overwrites the pending item of that kind rather than blocking or
// growing unbounded. Distinct kinds never displace each other, so
// status events still arrive in emission order relative to other kinds
// (spec §5 ordering guarantees).
type Channel struct {
	mu      sync.Mutex
	pending map[Kind]Event
	order   []Kind
	notify  chan struct{}
}

// NewChannel returns an empty channel.
func NewChannel() *Channel {
	return &Channel{
		pending: make(map[Kind]Event),
		notify:  make(chan struct{}, 1),
	}
}

// Send publishes ev, overwriting any undrained event of the same kind.
// Never blocks.
func (c *Channel) Send(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	c.mu.Lock()
	if _, exists := c.pending[ev.Kind]; exists {
		for i, k := range c.order {
			if k == ev.Kind {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
	c.order = append(c.order, ev.Kind)
	c.pending[ev.Kind] = ev
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Drain returns every pending event, in the order the kinds were last
// sent since the last Drain, and clears the queue.
func (c *Channel) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.order) == 0 {
		return nil
	}
	out := make([]Event, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.pending[k])
	}
	c.pending = make(map[Kind]Event)
	c.order = nil
	return out
}

// Wait blocks until Send has been called at least once since the last
// Wait returned true, or until done is closed. Drain does not reset
// this signal, so a Wait after a Drain may return with nothing pending.
func (c *Channel) Wait(done <-chan struct{}) bool {
	select {
	case <-c.notify:
		return true
	case <-done:
		return false
	}
}
