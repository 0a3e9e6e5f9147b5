// Package framecache implements the single-slot, reference-counted,
// multi-consumer frame cache described in spec §4.4 (C4): one capture
// feeds both the scanner and any number of preview consumers without
// re-capturing or re-copying the frame.
package framecache

import (
	"sync"
	"time"
)

// Frame is an immutable capture result, identified by a sequence ID. Once
// published, its Pix slice is never mutated — consumers may read it
// outside the cache's critical section.
type Frame struct {
	ID        uint64
	Width     int
	Height    int
	RowPitch  int
	Pix       []byte // BGRA, RowPitch bytes per row, only Width*4 meaningful
	Timestamp time.Time
}

// Handle is a reference-counted view into a cached frame. Callers must
// call Release exactly once when done; a second Release is a no-op.
type Handle struct {
	cache           *Cache
	consumerID      string
	frame           *entry
	released        bool
	mu              sync.Mutex
}

// Frame returns the underlying immutable frame data.
func (h *Handle) Frame() *Frame {
	return h.frame.frame
}

// Release drops this consumer's reference. Idempotent.
func (h *Handle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.cache.release(h.consumerID, h.frame)
}

type entry struct {
	frame    *Frame
	refs     int
	superseded bool
}

type consumerRecord struct {
	lastAccess time.Time
	entry      *entry
}

// Cache is the single logical slot described in spec §4.4.
type Cache struct {
	mu             sync.Mutex
	current        *entry
	consumers      map[string]*consumerRecord
	sessionTimeout time.Duration
}

// New returns an empty cache. sessionTimeout is the staleness bound the
// background sweeper uses to reap abandoned consumer records; zero
// selects the spec default of 5 minutes.
func New(sessionTimeout time.Duration) *Cache {
	if sessionTimeout <= 0 {
		sessionTimeout = 5 * time.Minute
	}
	return &Cache{
		consumers:      make(map[string]*consumerRecord),
		sessionTimeout: sessionTimeout,
	}
}

// Publish replaces the current slot atomically. The previous frame, if
// still referenced by any consumer, remains alive until released.
func (c *Cache) Publish(frame *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.superseded = true
		if c.current.refs == 0 {
			c.current = nil
		}
	}
	c.current = &entry{frame: frame}
}

// Acquire returns a reference-counted handle to the current frame and
// records consumerID's access timestamp, or nil if nothing has been
// published yet.
func (c *Cache) Acquire(consumerID string) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}

	if rec, ok := c.consumers[consumerID]; ok && rec.entry == c.current {
		rec.lastAccess = time.Now()
	} else {
		if ok {
			c.dropConsumerLocked(consumerID, rec)
		}
		c.current.refs++
		c.consumers[consumerID] = &consumerRecord{lastAccess: time.Now(), entry: c.current}
	}

	return &Handle{cache: c, consumerID: consumerID, frame: c.current}
}

// release drops a consumer's reference to the given entry. Called from
// Handle.Release and from the sweeper on timeout.
func (c *Cache) release(consumerID string, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.consumers[consumerID]
	if !ok || rec.entry != e {
		return
	}
	delete(c.consumers, consumerID)
	c.dropRefLocked(e)
}

func (c *Cache) dropConsumerLocked(consumerID string, rec *consumerRecord) {
	delete(c.consumers, consumerID)
	c.dropRefLocked(rec.entry)
}

func (c *Cache) dropRefLocked(e *entry) {
	e.refs--
	if e.refs == 0 && e.superseded && e != c.current {
		// nothing else references this entry; let it be collected.
	}
}

// Stats mirrors the diagnostic counters a preview UI or status event
// would want (spec §4.10 PerfTick companions).
type Stats struct {
	CurrentFrameID uint64
	RefCount       int
	ConsumerCount  int
	FrameAge       time.Duration
}

// Snapshot returns the current cache statistics.
func (c *Cache) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return Stats{}
	}
	return Stats{
		CurrentFrameID: c.current.frame.ID,
		RefCount:       c.current.refs,
		ConsumerCount:  len(c.consumers),
		FrameAge:       time.Since(c.current.frame.Timestamp),
	}
}
