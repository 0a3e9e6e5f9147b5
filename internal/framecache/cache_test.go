package framecache

import "testing"

func newTestFrame(id uint64) *Frame {
	return &Frame{ID: id, Width: 4, Height: 4, RowPitch: 16, Pix: make([]byte, 64)}
}

func TestAcquireNilBeforePublish(t *testing.T) {
	c := New(0)
	if h := c.Acquire("scanner"); h != nil {
		t.Fatalf("expected nil handle before any Publish, got %+v", h)
	}
}

func TestAcquireReturnsLatestPublished(t *testing.T) {
	c := New(0)
	c.Publish(newTestFrame(1))
	c.Publish(newTestFrame(2))

	h := c.Acquire("scanner")
	if h == nil {
		t.Fatal("expected a handle after Publish")
	}
	defer h.Release()

	if h.Frame().ID != 2 {
		t.Fatalf("expected frame 2 (latest), got %d", h.Frame().ID)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	c := New(0)
	c.Publish(newTestFrame(1))
	h := c.Acquire("scanner")

	h.Release()
	h.Release() // must not panic or double-decrement

	stats := c.Snapshot()
	if stats.RefCount != 0 {
		t.Fatalf("expected refcount 0 after release, got %d", stats.RefCount)
	}
}

func TestMultipleConsumersShareOneFrame(t *testing.T) {
	c := New(0)
	c.Publish(newTestFrame(1))

	h1 := c.Acquire("scanner")
	h2 := c.Acquire("preview")

	stats := c.Snapshot()
	if stats.RefCount != 2 {
		t.Fatalf("expected refcount 2 with two consumers, got %d", stats.RefCount)
	}
	if stats.ConsumerCount != 2 {
		t.Fatalf("expected 2 distinct consumers, got %d", stats.ConsumerCount)
	}

	h1.Release()
	if c.Snapshot().RefCount != 1 {
		t.Fatalf("expected refcount 1 after one release, got %d", c.Snapshot().RefCount)
	}
	h2.Release()
}

func TestReacquireSameConsumerDoesNotDoubleCount(t *testing.T) {
	c := New(0)
	c.Publish(newTestFrame(1))

	h1 := c.Acquire("scanner")
	h2 := c.Acquire("scanner") // same tag, same frame still current

	if c.Snapshot().RefCount != 1 {
		t.Fatalf("expected refcount 1 for repeated acquire by the same consumer, got %d", c.Snapshot().RefCount)
	}
	h2.Release()
	h1.Release()
}

func TestPublishSupersedesPreviousFrame(t *testing.T) {
	c := New(0)
	c.Publish(newTestFrame(1))
	h := c.Acquire("scanner")

	c.Publish(newTestFrame(2))

	// The old handle still points at frame 1 until released.
	if h.Frame().ID != 1 {
		t.Fatalf("expected held handle to keep pointing at frame 1, got %d", h.Frame().ID)
	}

	latest := c.Acquire("preview")
	if latest.Frame().ID != 2 {
		t.Fatalf("expected a fresh acquire to see frame 2, got %d", latest.Frame().ID)
	}

	h.Release()
	latest.Release()
}
