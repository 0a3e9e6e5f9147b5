//go:build windows

package main

import "autoapprove/internal/geometry"

// DPI awareness must be set before any Win32 call that returns
// coordinates, so this runs in init() to guarantee it happens first.
func init() {
	geometry.EnsurePerMonitorDPIAwareness()
}
