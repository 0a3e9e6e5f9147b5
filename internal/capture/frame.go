package capture

import (
	"sync/atomic"
	"time"

	"autoapprove/internal/framecache"
)

// Frame is an alias for the cache's frame representation: the capture
// backend is the only producer of framecache.Frame values, and keeping
// a single type avoids a copy at the C3/C4 boundary.
type Frame = framecache.Frame

var frameSeq uint64

// nextFrameID hands out the monotonically increasing IDs that
// framecache reports in its Snapshot stats.
func nextFrameID() uint64 {
	return atomic.AddUint64(&frameSeq, 1)
}

// newFrame builds a Frame from a row-major BGRA buffer. rowPitch is the
// byte stride reported by the backend (DXGI surfaces are frequently
// padded wider than width*4); matcher.go relies on this field to avoid
// reading past each row's true data (spec §4.3, §8).
func newFrame(width, height, rowPitch int, pix []byte) *Frame {
	return &Frame{
		ID:        nextFrameID(),
		Width:     width,
		Height:    height,
		RowPitch:  rowPitch,
		Pix:       pix,
		Timestamp: time.Now(),
	}
}
