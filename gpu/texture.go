package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/oxygraph/framegraph"
)

// textureView wraps a realized wgpu texture and the view the frame graph's
// attachments and bindings resolve through. It implements
// framegraph.TextureView.
type textureView struct {
	name    string
	texture *wgpu.Texture
	view    *wgpu.TextureView

	// extent is retained from the create descriptor so whole-texture copies
	// know their copy size without querying the backend.
	extent wgpu.Extent3D
}

func (t *textureView) DebugName() string { return t.name }

// View exposes the underlying wgpu.TextureView for pipeline/bind-group code
// outside the frame graph's own interfaces.
func (t *textureView) View() *wgpu.TextureView { return t.view }

// bufferView wraps a realized wgpu buffer. It implements framegraph.BufferView.
type bufferView struct {
	name   string
	buffer *wgpu.Buffer
}

func (b *bufferView) DebugName() string { return b.name }

// Raw exposes the underlying wgpu.Buffer.
func (b *bufferView) Raw() *wgpu.Buffer { return b.buffer }

// CreateTexture implements framegraph.DeviceContext: it allocates the backing
// wgpu texture for a transient resource at the boundary the executor decided
// (immediately before the resource's creator pass runs) and takes its default
// view.
func (d *Device) CreateTexture(info framegraph.TextureCreateInfo) (framegraph.TextureView, error) {
	kind := info.Kind
	layers := kind.Layers
	if layers == 0 {
		layers = 1
	}
	depthOrLayers := layers
	if kind.Dimension == framegraph.TextureDimension3D {
		depthOrLayers = max1(kind.Depth)
	}

	extent := wgpu.Extent3D{
		Width:              max1(kind.Width),
		Height:             max1(kind.Height),
		DepthOrArrayLayers: depthOrLayers,
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: info.Name,
		Size:  extent,
		MipLevelCount: max1(kind.MipCount),
		SampleCount:   uint32(max1(uint32(kind.SampleCount))),
		Dimension:     mapTextureDimension(kind.Dimension),
		Format:        mapTextureFormat(info.Format),
		Usage:         mapTextureUsage(info.Usage, info.Memory),
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating texture %q: %w", info.Name, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpu: creating view for texture %q: %w", info.Name, err)
	}

	return &textureView{name: info.Name, texture: tex, view: view, extent: extent}, nil
}

// CreateBuffer implements framegraph.DeviceContext.
func (d *Device) CreateBuffer(info framegraph.BufferCreateInfo) (framegraph.BufferView, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: info.Name,
		Size:  info.Size,
		Usage: mapBufferUsage(info.Usage, info.Memory),
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating buffer %q: %w", info.Name, err)
	}
	return &bufferView{name: info.Name, buffer: buf}, nil
}

// DestroyTexture implements framegraph.DeviceContext. Called by the executor
// once the frame's last consuming pass of a transient texture has run.
func (d *Device) DestroyTexture(v framegraph.TextureView) {
	tv, ok := v.(*textureView)
	if !ok {
		return
	}
	tv.view.Release()
	tv.texture.Release()
}

// DestroyBuffer implements framegraph.DeviceContext.
func (d *Device) DestroyBuffer(v framegraph.BufferView) {
	bv, ok := v.(*bufferView)
	if !ok {
		return
	}
	bv.buffer.Release()
}

// UpdateBuffer implements framegraph.DeviceContext: each region is staged
// through the queue's write path, the same upload route used for vertex and
// index data.
func (d *Device) UpdateBuffer(v framegraph.BufferView, regions []framegraph.BufferUpdate) error {
	bv, ok := v.(*bufferView)
	if !ok {
		return fmt.Errorf("gpu: UpdateBuffer requires a buffer realized by this device, got %T", v)
	}
	for _, r := range regions {
		d.queue.WriteBuffer(bv.buffer, r.Offset, r.Data)
	}
	return nil
}

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}
