package geometry

// Point is a coordinate pair in whichever space the call site names.
type Point struct {
	X, Y int
}

// ToLogical converts a point in the monitor's physical pixel space
// (the space WGC frames and EnumDisplayMonitors rectangles use) into
// logical DPI-independent coordinates, as Win32 window-placement APIs
// expect on a thread that is not per-monitor DPI aware.
func (m Monitor) ToLogical(p Point) Point {
	if m.ScaleFactor == 0 {
		return p
	}
	return Point{
		X: m.Bounds.Left + int(float64(p.X-m.Bounds.Left)/m.ScaleFactor),
		Y: m.Bounds.Top + int(float64(p.Y-m.Bounds.Top)/m.ScaleFactor),
	}
}

// ToPhysical is the inverse of ToLogical.
func (m Monitor) ToPhysical(p Point) Point {
	return Point{
		X: m.Bounds.Left + int(float64(p.X-m.Bounds.Left)*m.ScaleFactor),
		Y: m.Bounds.Top + int(float64(p.Y-m.Bounds.Top)*m.ScaleFactor),
	}
}

// MonitorAt returns the monitor whose bounds contain the given physical
// point, falling back to the primary monitor for off-screen points
// (e.g. a window dragged partially past a virtual-desktop edge).
func (r Registry) MonitorAt(p Point) Monitor {
	for _, m := range r.Monitors {
		if m.Bounds.Contains(p.X, p.Y) {
			return m
		}
	}
	if primary, err := r.Primary(); err == nil {
		return primary
	}
	if len(r.Monitors) > 0 {
		return r.Monitors[0]
	}
	return Monitor{ScaleFactor: 1.0}
}

// ClampToFrame clamps an ROI's rectangle to the bounds of a width x
// height frame, so an out-of-range config value (spec §8 edge case)
// degrades to the largest valid sub-rectangle instead of panicking.
func ClampToFrame(r Rect, width, height int) Rect {
	if r.Left < 0 {
		r.Left = 0
	}
	if r.Top < 0 {
		r.Top = 0
	}
	if r.Right > width {
		r.Right = width
	}
	if r.Bottom > height {
		r.Bottom = height
	}
	if r.Right < r.Left {
		r.Right = r.Left
	}
	if r.Bottom < r.Top {
		r.Bottom = r.Top
	}
	return r
}
