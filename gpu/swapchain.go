package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/oxygraph/framegraph"
)

// Swapchain wraps a configured wgpu.Surface and implements
// framegraph.Swapchain. AcquireFrame and present bracket one frame's worth
// of use: acquire before building the frame graph (so its backbuffer texture
// can be imported); Device.Submit calls present, which presents the frame and
// releases it.
type Swapchain struct {
	name    string
	surface *wgpu.Surface
	format  wgpu.TextureFormat
	width   uint32
	height  uint32

	current *wgpu.Texture
	view    *wgpu.TextureView
}

func (s *Swapchain) DebugName() string { return s.name }

// NewSwapchain configures surface for presentation against device, picking
// the surface's first reported format and alpha mode.
func NewSwapchain(name string, device *Device, surface *wgpu.Surface, width, height int) (*Swapchain, error) {
	capabilities := surface.GetCapabilities(device.adapter)
	if len(capabilities.Formats) == 0 {
		return nil, fmt.Errorf("gpu: surface reports no supported formats")
	}
	format := capabilities.Formats[0]

	surface.Configure(device.adapter, device.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeImmediate,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	return &Swapchain{name: name, surface: surface, format: format, width: uint32(width), height: uint32(height)}, nil
}

// Format reports the swapchain's native pixel format translated back into
// framegraph.TextureFormat, so callers can declare a present-pass texture
// that satisfies invariant 3's format check.
func (s *Swapchain) Format() framegraph.TextureFormat {
	switch s.format {
	case wgpu.TextureFormatBGRA8Unorm:
		return framegraph.TextureFormatBGRA8Unorm
	case wgpu.TextureFormatBGRA8UnormSrgb:
		return framegraph.TextureFormatBGRA8UnormSrgb
	case wgpu.TextureFormatRGBA8Unorm:
		return framegraph.TextureFormatRGBA8Unorm
	case wgpu.TextureFormatRGBA8UnormSrgb:
		return framegraph.TextureFormatRGBA8UnormSrgb
	default:
		return framegraph.TextureFormatUndefined
	}
}

// AcquireFrame gets the current swapchain texture and wraps it as a
// framegraph.TextureView, ready to be imported into a FrameGraph with
// ImportTexture before the frame's passes are registered.
func (s *Swapchain) AcquireFrame() (framegraph.TextureView, error) {
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("gpu: acquiring swapchain texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: creating swapchain texture view: %w", err)
	}
	s.current = tex
	s.view = view
	return &textureView{
		name:    s.name + ".backbuffer",
		texture: tex,
		view:    view,
		extent:  wgpu.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
	}, nil
}

// present hands the acquired frame to the platform compositor and releases
// the local references to it. Called by Device.Submit for every PresentInfo
// in the frame, after the command buffers carrying the present barrier have
// been submitted.
func (s *Swapchain) present() {
	if s.current == nil {
		return
	}
	s.surface.Present()
	s.view.Release()
	s.current.Release()
	s.view = nil
	s.current = nil
}
