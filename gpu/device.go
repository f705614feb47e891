// Package gpu adapts the cogentcore/webgpu binding to the framegraph package's
// DeviceContext, TextureView, BufferView and CommandEncoder interfaces, so a
// compiled frame graph can be executed against a real WebGPU device rather
// than a fake.
package gpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/oxygraph/framegraph"
)

// Device wraps a WebGPU instance/adapter/device/queue quad and implements
// framegraph.DeviceContext. Construction follows the usual wgpu bootstrap:
// create an instance, request a compatible adapter for the surface, then
// request a device off it.
type Device struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

// Options configures device creation.
type Options struct {
	// Surface, when non-nil, is passed to the adapter request as the surface
	// the adapter must be compatible with; when nil, the adapter is chosen
	// without reference to any surface.
	Surface *wgpu.Surface
	// ForceFallbackAdapter requests the software adapter instead of a
	// hardware one, useful for headless CI.
	ForceFallbackAdapter bool
	// MaxBindGroups raises the default WebGPU bind group limit; 0 keeps the
	// spec default.
	MaxBindGroups uint32
}

// NewDevice creates a WebGPU instance, requests a compatible adapter and
// device, and returns a Device ready to back a framegraph.FrameGraph.
func NewDevice(opts Options) (*Device, error) {
	runtime.LockOSThread()

	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.ForceFallbackAdapter,
		CompatibleSurface:    opts.Surface,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: requesting adapter: %w", err)
	}

	limits := wgpu.DefaultLimits()
	if opts.MaxBindGroups > 0 {
		limits.MaxBindGroups = opts.MaxBindGroups
	}

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "framegraph device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: requesting device: %w", err)
	}

	return &Device{
		mu:       &sync.Mutex{},
		instance: instance,
		adapter:  adapter,
		device:   dev,
		queue:    dev.GetQueue(),
	}, nil
}

// Adapter exposes the underlying adapter, needed to configure a Swapchain's
// surface.
func (d *Device) Adapter() *wgpu.Adapter { return d.adapter }

// Instance exposes the underlying wgpu.Instance, needed to create the
// platform surface a Swapchain configures.
func (d *Device) Instance() *wgpu.Instance { return d.instance }

// Raw exposes the underlying wgpu.Device for code that needs capabilities
// framegraph.DeviceContext does not expose, such as pipeline creation.
func (d *Device) Raw() *wgpu.Device { return d.device }

// QueueFamilyIndices reports the queue layout WebGPU exposes to the frame
// graph planner. WebGPU has exactly one queue backing every submission, so
// every abstract Queue maps to the same family index; the planner's
// same-queue/cross-queue distinction collapses to "always same queue" on this
// backend, which is correct: wgpu serializes and synchronizes all work
// submitted through Device.GetQueue() itself.
func (d *Device) QueueFamilyIndices() framegraph.QueueFamilyIndices {
	return framegraph.QueueFamilyIndices{Graphics: 0, Compute: 0, Transfer: 0, Present: 0}
}

func mapTextureFormat(f framegraph.TextureFormat) wgpu.TextureFormat {
	switch f {
	case framegraph.TextureFormatR8Unorm:
		return wgpu.TextureFormatR8Unorm
	case framegraph.TextureFormatR8Snorm:
		return wgpu.TextureFormatR8Snorm
	case framegraph.TextureFormatR8Uint:
		return wgpu.TextureFormatR8Uint
	case framegraph.TextureFormatR8Sint:
		return wgpu.TextureFormatR8Sint
	case framegraph.TextureFormatR16Uint:
		return wgpu.TextureFormatR16Uint
	case framegraph.TextureFormatR16Sint:
		return wgpu.TextureFormatR16Sint
	case framegraph.TextureFormatR16Float:
		return wgpu.TextureFormatR16Float
	case framegraph.TextureFormatR32Uint:
		return wgpu.TextureFormatR32Uint
	case framegraph.TextureFormatR32Sint:
		return wgpu.TextureFormatR32Sint
	case framegraph.TextureFormatR32Float:
		return wgpu.TextureFormatR32Float
	case framegraph.TextureFormatRG8Unorm:
		return wgpu.TextureFormatRG8Unorm
	case framegraph.TextureFormatRG8Snorm:
		return wgpu.TextureFormatRG8Snorm
	case framegraph.TextureFormatRG8Uint:
		return wgpu.TextureFormatRG8Uint
	case framegraph.TextureFormatRG8Sint:
		return wgpu.TextureFormatRG8Sint
	case framegraph.TextureFormatRG16Float:
		return wgpu.TextureFormatRG16Float
	case framegraph.TextureFormatRG32Float:
		return wgpu.TextureFormatRG32Float
	case framegraph.TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case framegraph.TextureFormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case framegraph.TextureFormatRGBA8Snorm:
		return wgpu.TextureFormatRGBA8Snorm
	case framegraph.TextureFormatRGBA8Uint:
		return wgpu.TextureFormatRGBA8Uint
	case framegraph.TextureFormatRGBA8Sint:
		return wgpu.TextureFormatRGBA8Sint
	case framegraph.TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case framegraph.TextureFormatBGRA8UnormSrgb:
		return wgpu.TextureFormatBGRA8UnormSrgb
	case framegraph.TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case framegraph.TextureFormatRGBA16Uint:
		return wgpu.TextureFormatRGBA16Uint
	case framegraph.TextureFormatRGBA16Sint:
		return wgpu.TextureFormatRGBA16Sint
	case framegraph.TextureFormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case framegraph.TextureFormatRGBA32Uint:
		return wgpu.TextureFormatRGBA32Uint
	case framegraph.TextureFormatRGBA32Sint:
		return wgpu.TextureFormatRGBA32Sint
	case framegraph.TextureFormatRGB10A2Unorm:
		return wgpu.TextureFormatRGB10A2Unorm
	case framegraph.TextureFormatBC1RGBAUnorm:
		return wgpu.TextureFormatBC1RGBAUnorm
	case framegraph.TextureFormatBC1RGBAUnormSrgb:
		return wgpu.TextureFormatBC1RGBAUnormSrgb
	case framegraph.TextureFormatBC3RGBAUnorm:
		return wgpu.TextureFormatBC3RGBAUnorm
	case framegraph.TextureFormatBC3RGBAUnormSrgb:
		return wgpu.TextureFormatBC3RGBAUnormSrgb
	case framegraph.TextureFormatBC4RUnorm:
		return wgpu.TextureFormatBC4RUnorm
	case framegraph.TextureFormatBC5RGUnorm:
		return wgpu.TextureFormatBC5RGUnorm
	case framegraph.TextureFormatBC6HRGBFloat:
		return wgpu.TextureFormatBC6HRGBFloat
	case framegraph.TextureFormatBC7RGBAUnorm:
		return wgpu.TextureFormatBC7RGBAUnorm
	case framegraph.TextureFormatBC7RGBAUnormSrgb:
		return wgpu.TextureFormatBC7RGBAUnormSrgb
	case framegraph.TextureFormatDepth16Unorm:
		return wgpu.TextureFormatDepth16Unorm
	case framegraph.TextureFormatDepth24Plus:
		return wgpu.TextureFormatDepth24Plus
	case framegraph.TextureFormatDepth24PlusStencil8:
		return wgpu.TextureFormatDepth24PlusStencil8
	case framegraph.TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	default:
		return wgpu.TextureFormatUndefined
	}
}

func mapTextureDimension(d framegraph.TextureDimension) wgpu.TextureDimension {
	switch d {
	case framegraph.TextureDimension1D:
		return wgpu.TextureDimension1D
	case framegraph.TextureDimension3D:
		return wgpu.TextureDimension3D
	default:
		// WebGPU has no native cube dimension; a cube texture is a 2D texture
		// array of 6 layers with a cube view taken at view-creation time.
		return wgpu.TextureDimension2D
	}
}

// mapTextureUsage folds the frame graph's usage flags and memory type into a
// wgpu usage mask. WebGPU exposes no explicit heap selection; a host-visible
// resource instead becomes a copy destination so Queue.WriteBuffer/WriteTexture
// uploads can reach it.
func mapTextureUsage(u framegraph.TextureUsageFlags, m framegraph.MemoryType) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if m == framegraph.MemoryTypeHostVisible {
		out |= wgpu.TextureUsageCopyDst
	}
	if u.Has(framegraph.TextureUsageColorAttachment) || u.Has(framegraph.TextureUsageDepthAttachment) {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u.Has(framegraph.TextureUsageSRV) {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u.Has(framegraph.TextureUsageUAV) {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u.Has(framegraph.TextureUsageTransferSource) {
		out |= wgpu.TextureUsageCopySrc
	}
	if u.Has(framegraph.TextureUsageTransferDestination) {
		out |= wgpu.TextureUsageCopyDst
	}
	return out
}

func mapBufferUsage(u framegraph.BufferUsageFlags, m framegraph.MemoryType) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if m == framegraph.MemoryTypeHostVisible {
		out |= wgpu.BufferUsageCopyDst
	}
	if u.Has(framegraph.BufferUsageSRV) {
		out |= wgpu.BufferUsageUniform
	}
	if u.Has(framegraph.BufferUsageUAV) {
		out |= wgpu.BufferUsageStorage
	}
	if u.Has(framegraph.BufferUsageIndirect) {
		out |= wgpu.BufferUsageIndirect
	}
	if u.Has(framegraph.BufferUsageIndex) {
		out |= wgpu.BufferUsageIndex
	}
	if u.Has(framegraph.BufferUsageTransferSource) {
		out |= wgpu.BufferUsageCopySrc
	}
	if u.Has(framegraph.BufferUsageTransferDestination) {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}
