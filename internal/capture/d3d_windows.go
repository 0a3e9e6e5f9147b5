//go:build windows

package capture

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	d3d11 = syscall.NewLazyDLL("d3d11.dll")

	procD3D11CreateDevice                      = d3d11.NewProc("D3D11CreateDevice")
	procCreateDirect3D11DeviceFromDXGIDevice    = d3d11.NewProc("CreateDirect3D11DeviceFromDXGIDevice")
)

const (
	d3dDriverTypeHardware = 1
	d3d11CreateDeviceBgraSupport = 0x20
	dxgiFormatB8G8R8A8Unorm = 87
	d3d11UsageStaging = 3
	d3d11CpuAccessRead = 0x20000
	d3d11MapRead = 1
)

// d3d11Box mirrors D3D11_BOX for CopySubresourceRegion calls, unused
// here since whole-texture copies are sufficient for a single capture
// surface, but kept for clarity of the copy-to-staging path.
type d3d11Box struct {
	Left, Top, Front, Right, Bottom, Back uint32
}

// textureDesc mirrors D3D11_TEXTURE2D_DESC.
type textureDesc struct {
	Width, Height     uint32
	MipLevels, ArraySize uint32
	Format            uint32
	SampleCount, SampleQuality uint32
	Usage             uint32
	BindFlags         uint32
	CPUAccessFlags    uint32
	MiscFlags         uint32
}

type mappedSubresource struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

// d3dDevice bundles the ID3D11Device/ID3D11DeviceContext pair and the
// WinRT IDirect3DDevice interop wrapper the capture frame pool needs.
type d3dDevice struct {
	device      comObject
	context     comObject
	winrtDevice comObject
}

func createD3DDevice() (*d3dDevice, error) {
	var device, context uintptr
	ret, _, _ := procD3D11CreateDevice.Call(
		0, // default adapter
		d3dDriverTypeHardware,
		0,
		d3d11CreateDeviceBgraSupport,
		0, 0, // no explicit feature level array: accept the highest available
		7, // D3D11_SDK_VERSION
		uintptr(unsafe.Pointer(&device)),
		0,
		uintptr(unsafe.Pointer(&context)),
	)
	if ret != 0 {
		return nil, fmt.Errorf("capture: D3D11CreateDevice failed: 0x%x", ret)
	}

	dev := comObject{ptr: unsafe.Pointer(device)}

	dxgiDevice, err := queryInterface(dev, mustGUID("{54ec77fa-1377-44e6-8c32-88fd5f44c84c}")) // IDXGIDevice
	if err != nil {
		dev.release()
		return nil, err
	}
	defer dxgiDevice.release()

	var winrtPtr uintptr
	ret, _, _ = procCreateDirect3D11DeviceFromDXGIDevice.Call(
		uintptr(dxgiDevice.ptr),
		uintptr(unsafe.Pointer(&winrtPtr)),
	)
	if ret != 0 {
		dev.release()
		return nil, fmt.Errorf("capture: CreateDirect3D11DeviceFromDXGIDevice failed: 0x%x", ret)
	}

	return &d3dDevice{
		device:      dev,
		context:     comObject{ptr: unsafe.Pointer(context)},
		winrtDevice: comObject{ptr: unsafe.Pointer(winrtPtr)},
	}, nil
}

func (d *d3dDevice) Close() {
	d.winrtDevice.release()
	d.context.release()
	d.device.release()
}

// queryInterface performs IUnknown::QueryInterface (vtable slot 0).
func queryInterface(o comObject, iid guid) (comObject, error) {
	var out uintptr
	full := []uintptr{uintptr(o.ptr), uintptr(unsafe.Pointer(&iid)), uintptr(unsafe.Pointer(&out))}
	fn := o.vtable()[0]
	ret, _, _ := syscall.SyscallN(fn, full...)
	if ret != 0 {
		return comObject{}, fmt.Errorf("capture: QueryInterface failed: 0x%08x", uint32(ret))
	}
	return comObject{ptr: unsafe.Pointer(out)}, nil
}

// copySurfaceToCPU copies a GPU texture (obtained from a capture frame)
// into a CPU-readable staging texture and maps it, returning a BGRA
// buffer and its true row pitch. This is the single point where the
// WGC backend produces the byte slice matcher.go's row-pitch-safe Mat
// construction expects (spec §4.3, §8).
func copySurfaceToCPU(device *d3dDevice, surface comObject, width, height int) ([]byte, int, error) {
	desc := textureDesc{
		Width: uint32(width), Height: uint32(height),
		MipLevels: 1, ArraySize: 1,
		Format:      dxgiFormatB8G8R8A8Unorm,
		SampleCount: 1,
		Usage:       d3d11UsageStaging,
		CPUAccessFlags: d3d11CpuAccessRead,
	}

	var staging uintptr
	// ID3D11Device::CreateTexture2D is vtable slot 5.
	ret, err := device.device.call(5, uintptr(unsafe.Pointer(&desc)), 0, uintptr(unsafe.Pointer(&staging)))
	if err != nil {
		return nil, 0, fmt.Errorf("capture: CreateTexture2D failed: %w", err)
	}
	_ = ret
	stagingObj := comObject{ptr: unsafe.Pointer(staging)}
	defer stagingObj.release()

	// ID3D11DeviceContext::CopyResource is vtable slot 47.
	if _, err := device.context.call(47, uintptr(stagingObj.ptr), uintptr(surface.ptr)); err != nil {
		return nil, 0, fmt.Errorf("capture: CopyResource failed: %w", err)
	}

	var mapped mappedSubresource
	// ID3D11DeviceContext::Map is vtable slot 14.
	if _, err := device.context.call(14, uintptr(stagingObj.ptr), 0, d3d11MapRead, 0, uintptr(unsafe.Pointer(&mapped))); err != nil {
		return nil, 0, fmt.Errorf("capture: Map failed: %w", err)
	}
	// ID3D11DeviceContext::Unmap is vtable slot 15.
	defer device.context.call(15, uintptr(stagingObj.ptr), 0)

	rowPitch := int(mapped.RowPitch)
	size := rowPitch * height
	src := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), size)
	out := make([]byte, size)
	copy(out, src)
	return out, rowPitch, nil
}
