//go:build windows

package capture

import (
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"
)

// Runtime class names and interface IIDs for the pieces of
// Windows.Graphics.Capture this package drives directly. Activated via
// RoGetActivationFactory rather than a generated WinRT projection,
// since none exists in the example corpus (see com_windows.go).
const (
	clsGraphicsCaptureItem  = "Windows.Graphics.Capture.GraphicsCaptureItem"
	clsFramePool            = "Windows.Graphics.Capture.Direct3D11CaptureFramePool"
)

var (
	iidGraphicsCaptureItemInterop = mustGUID("{3628E81B-3CAC-4C60-B7F4-23CE0E0C3356}")
	iidFramePoolStatics           = mustGUID("{7784056A-67AA-4D53-AE54-1088D5A8CA21}")
	iidFramePoolInterop           = mustGUID("{19AEFA6D-8F28-4A73-A552-D13F51E573C6}")
)

var (
	user32WGC        = syscall.NewLazyDLL("user32.dll")
	procMonitorFromW = user32WGC.NewProc("MonitorFromWindow")
	procIsIconic     = user32WGC.NewProc("IsIconic")
	procShowWindow   = user32WGC.NewProc("ShowWindow")
)

// swShowNoActivate restores a minimized window without stealing
// foreground focus from whatever the user is currently working in
// (spec §4.3's "Minimized windows" subsection).
const swShowNoActivate = 4

func isIconic(hwnd uintptr) bool {
	r, _, _ := procIsIconic.Call(hwnd)
	return r != 0
}

func showWindowNoActivate(hwnd uintptr) {
	procShowWindow.Call(hwnd, swShowNoActivate)
}

// winSession implements Session over a live WGC frame pool + capture
// session pair, polling TryGetNextFrame at a cadence derived from
// Options.FPSMax. A true FrameArrived event registration would need a
// full ITypedEventHandler vtable implementation; polling is the
// documented simplification recorded in DESIGN.md, and it still
// satisfies spec §4.3's "deliver the newest frame, drop older ones"
// contract because framecache.Publish already supersedes unread
// frames.
type winSession struct {
	device *d3dDevice
	item   comObject
	pool   comObject
	sess   comObject

	fps      int
	timeout  time.Duration
	minimized atomicBool

	windowHandle     uintptr
	restoreMinimized bool
	restoredOnce     atomicBool

	mu       sync.Mutex
	latest   *Frame
	stopCh   chan struct{}
	stopOnce sync.Once
	pollDone chan struct{}
}

type atomicBool struct{ v int32 }

func (a *atomicBool) set(b bool) {
	n := int32(0)
	if b {
		n = 1
	}
	atomic.StoreInt32(&a.v, n)
}

func (a *atomicBool) get() bool { return atomic.LoadInt32(&a.v) != 0 }

func startPlatform(source Source, opts Options) (Session, error) {
	if err := roInitialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	factory, err := getActivationFactory(clsGraphicsCaptureItem, iidGraphicsCaptureItemInterop)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	defer factory.release()

	var itemPtr uintptr
	var callErr error
	iidItem := iidGraphicsCaptureItem()
	if source.WindowHandle != 0 {
		// IGraphicsCaptureItemInterop::CreateForWindow, vtable slot 3.
		_, callErr = factory.call(3, source.WindowHandle, uintptr(unsafe.Pointer(&iidItem)), uintptr(unsafe.Pointer(&itemPtr)))
	} else if source.MonitorHandle != 0 {
		// IGraphicsCaptureItemInterop::CreateForMonitor, vtable slot 4.
		_, callErr = factory.call(4, source.MonitorHandle, uintptr(unsafe.Pointer(&iidItem)), uintptr(unsafe.Pointer(&itemPtr)))
	} else {
		return nil, fmt.Errorf("capture: no source handle supplied")
	}
	if callErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, callErr)
	}
	item := comObject{ptr: unsafe.Pointer(itemPtr)}

	device, err := createD3DDevice()
	if err != nil {
		item.release()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	width, height, err := itemSize(item)
	if err != nil {
		device.Close()
		item.release()
		return nil, err
	}

	pool, err := createFramePool(device, width, height)
	if err != nil {
		device.Close()
		item.release()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	sess, err := createCaptureSession(pool, item)
	if err != nil {
		pool.release()
		device.Close()
		item.release()
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	if opts.BorderRequired {
		trySetBorderRequired(sess, true)
	}
	trySetIncludeCursor(sess, opts.IncludeCursor)

	fps := opts.FPSMax
	if fps <= 0 {
		fps = 30
	}
	timeout := time.Duration(opts.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &winSession{
		device:           device,
		item:             item,
		pool:             pool,
		sess:             sess,
		fps:              fps,
		timeout:          timeout,
		windowHandle:     source.WindowHandle,
		restoreMinimized: opts.RestoreMinimizedNoactivate,
		stopCh:           make(chan struct{}),
		pollDone:         make(chan struct{}),
	}

	// StartCapture, vtable slot 6 on IGraphicsCaptureSession.
	if _, err := sess.call(6); err != nil {
		s.Stop()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	go s.pollLoop()
	return s, nil
}

func iidGraphicsCaptureItem() guid {
	return mustGUID("{79C3F95B-31F7-4EC2-A464-632EF5D30760}")
}

func itemSize(item comObject) (int, int, error) {
	// IGraphicsCaptureItem::get_Size, vtable slot 8; SizeInt32 is two int32s.
	var size struct{ W, H int32 }
	if _, err := item.call(8, uintptr(unsafe.Pointer(&size))); err != nil {
		return 0, 0, fmt.Errorf("capture: get_Size failed: %w", err)
	}
	if size.W <= 0 || size.H <= 0 {
		return 0, 0, fmt.Errorf("capture: invalid item size %dx%d", size.W, size.H)
	}
	return int(size.W), int(size.H), nil
}

func createFramePool(device *d3dDevice, width, height int) (comObject, error) {
	factory, err := getActivationFactory(clsFramePool, iidFramePoolStatics)
	if err != nil {
		return comObject{}, err
	}
	defer factory.release()

	var poolPtr uintptr
	size := struct{ W, H int32 }{int32(width), int32(height)}
	// Direct3D11CaptureFramePoolStatics::CreateFreeThreaded, vtable slot 6:
	// (device, pixelFormat, numberOfBuffers, size) -> pool.
	_, err = factory.call(6,
		uintptr(device.winrtDevice.ptr),
		uintptr(dxgiFormatB8G8R8A8Unorm),
		2,
		uintptr(unsafe.Pointer(&size)),
		uintptr(unsafe.Pointer(&poolPtr)),
	)
	if err != nil {
		return comObject{}, err
	}
	return comObject{ptr: unsafe.Pointer(poolPtr)}, nil
}

func createCaptureSession(pool, item comObject) (comObject, error) {
	var sessPtr uintptr
	// IDirect3D11CaptureFramePool::CreateCaptureSession, vtable slot 9.
	_, err := pool.call(9, uintptr(item.ptr), uintptr(unsafe.Pointer(&sessPtr)))
	if err != nil {
		return comObject{}, err
	}
	return comObject{ptr: unsafe.Pointer(sessPtr)}, nil
}

func trySetBorderRequired(sess comObject, required bool) {
	v := uintptr(0)
	if required {
		v = 1
	}
	// put_IsBorderRequired, vtable slot 11; absent on pre-22H2 systems,
	// so a failure here is swallowed rather than surfaced.
	sess.call(11, v)
}

func trySetIncludeCursor(sess comObject, include bool) {
	v := uintptr(0)
	if include {
		v = 1
	}
	// put_IsCursorCaptureEnabled, vtable slot 12; absent on pre-2004
	// systems, so a failure here is swallowed rather than surfaced.
	sess.call(12, v)
}

// pollLoop repeatedly calls TryGetNextFrame and publishes the newest
// surface. Content-size changes trigger a pool rebuild once the new
// size has been stable for two consecutive frames, matching the
// debounce spec §4.3 calls for.
func (s *winSession) pollLoop() {
	defer close(s.pollDone)

	interval := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingW, pendingH, stableCount, texW, texH int

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		if s.windowHandle != 0 {
			minimized := isIconic(s.windowHandle)
			wasMinimized := s.minimized.get()
			s.minimized.set(minimized)
			if minimized {
				if !wasMinimized && s.restoreMinimized && !s.restoredOnce.get() {
					showWindowNoActivate(s.windowHandle)
					s.restoredOnce.set(true)
				}
				// Leave the cached frame untouched rather than polling a
				// minimized surface; LatestFrame's staleness check turns
				// it into Unavailable once timeout elapses.
				continue
			}
			if !minimized {
				s.restoredOnce.set(false)
			}
		}

		framePtr, contentW, contentH, err := tryGetNextFrame(s.pool)
		if err != nil || framePtr.ptr == nil {
			continue
		}

		if contentW != 0 && contentH != 0 {
			if contentW != texW || contentH != texH {
				if contentW == pendingW && contentH == pendingH {
					stableCount++
				} else {
					pendingW, pendingH, stableCount = contentW, contentH, 1
				}
				if stableCount >= 2 {
					s.rebuildPool(pendingW, pendingH)
					stableCount = 0
				}
			}
		}

		surface, w, h, relErr := frameSurface(framePtr)
		if relErr == nil {
			texW, texH = w, h
			if pix, rowPitch, copyErr := copySurfaceToCPU(s.device, surface, w, h); copyErr == nil {
				// Publish only min(content size, pool size): pixels outside
				// the content area are undefined until the pool is rebuilt.
				if contentW > 0 && contentW < w {
					w = contentW
				}
				if contentH > 0 && contentH < h {
					h = contentH
				}
				f := newFrame(w, h, rowPitch, pix[:rowPitch*h])
				s.mu.Lock()
				s.latest = f
				s.mu.Unlock()
			}
			surface.release()
		}
		framePtr.release()
	}
}

type poolSize struct{ w, h int }

func (s *winSession) currentSize() poolSize {
	f := s.LatestFrameUnsafe()
	if f == nil {
		return poolSize{}
	}
	return poolSize{w: f.Width, h: f.Height}
}

// LatestFrameUnsafe returns the cached frame without blocking,
// bypassing the Session interface's error return for internal use.
func (s *winSession) LatestFrameUnsafe() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func (s *winSession) rebuildPool(w, h int) {
	// Direct3D11CaptureFramePool::Recreate, vtable slot 10.
	size := struct{ W, H int32 }{int32(w), int32(h)}
	s.pool.call(10, uintptr(s.device.winrtDevice.ptr), uintptr(dxgiFormatB8G8R8A8Unorm), 2, uintptr(unsafe.Pointer(&size)))
}

func tryGetNextFrame(pool comObject) (comObject, int, int, error) {
	var framePtr uintptr
	// IDirect3D11CaptureFramePool::TryGetNextFrame, vtable slot 7.
	if _, err := pool.call(7, uintptr(unsafe.Pointer(&framePtr))); err != nil {
		return comObject{}, 0, 0, err
	}
	if framePtr == 0 {
		return comObject{}, 0, 0, nil
	}
	frame := comObject{ptr: unsafe.Pointer(framePtr)}

	var size struct{ W, H int32 }
	// Direct3D11CaptureFrame::get_ContentSize, vtable slot 9.
	frame.call(9, uintptr(unsafe.Pointer(&size)))
	return frame, int(size.W), int(size.H), nil
}

func frameSurface(frame comObject) (comObject, int, int, error) {
	var surfacePtr uintptr
	// Direct3D11CaptureFrame::get_Surface, vtable slot 6.
	if _, err := frame.call(6, uintptr(unsafe.Pointer(&surfacePtr))); err != nil {
		return comObject{}, 0, 0, err
	}
	surface := comObject{ptr: unsafe.Pointer(surfacePtr)}

	iid := mustGUID("{A9B3D012-3DF2-4EE3-B8D1-8695F457D3C1}") // IDirect3DDxgiInterfaceAccess
	access, err := queryInterface(surface, iid)
	if err != nil {
		surface.release()
		return comObject{}, 0, 0, err
	}
	defer access.release()

	var texPtr uintptr
	texIID := mustGUID("{6f15aaf2-d208-4e89-9ab4-489535d34f9c}") // ID3D11Texture2D
	if _, err := access.call(3, uintptr(unsafe.Pointer(&texIID)), uintptr(unsafe.Pointer(&texPtr))); err != nil {
		surface.release()
		return comObject{}, 0, 0, err
	}
	tex := comObject{ptr: unsafe.Pointer(texPtr)}

	var desc textureDesc
	tex.call(10, uintptr(unsafe.Pointer(&desc))) // ID3D11Texture2D::GetDesc, slot 10
	surface.release()
	return tex, int(desc.Width), int(desc.Height), nil
}

// LatestFrame implements Session. A frame older than the configured
// timeout (e.g. because pollLoop has stopped publishing while the
// target window is minimized) is treated the same as no frame at all,
// matching spec §4.3: "returns the most recent published frame or
// None if stale beyond timeout_ms."
func (s *winSession) LatestFrame() (*Frame, error) {
	deadline := time.Now().Add(s.timeout)
	for {
		if f := s.LatestFrameUnsafe(); f != nil && time.Since(f.Timestamp) <= s.timeout {
			return f, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrUnavailable
		}
		select {
		case <-s.stopCh:
			return nil, ErrClosed
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Stop implements Session.
func (s *winSession) Stop() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.pollDone
		s.sess.call(3) // IClosable::Close on the capture session
		s.pool.call(3) // IClosable::Close on the frame pool
		s.sess.release()
		s.pool.release()
		s.item.release()
		s.device.Close()
	})
	return nil
}
