package matcher

import "autoapprove/internal/geometry"

// ROI names a sub-rectangle of a frame to match within. A zero width
// or height means "use the entire frame" (spec §4.6/§8).
type ROI struct {
	X, Y, W, H int
}

// Resolve clips roi to the frame dimensions, or returns the full frame
// when roi is the zero-width/height sentinel.
func (r ROI) Resolve(frameW, frameH int) geometry.Rect {
	if r.W == 0 || r.H == 0 {
		return geometry.Rect{Left: 0, Top: 0, Right: frameW, Bottom: frameH}
	}
	return geometry.ClampToFrame(geometry.Rect{
		Left: r.X, Top: r.Y, Right: r.X + r.W, Bottom: r.Y + r.H,
	}, frameW, frameH)
}
