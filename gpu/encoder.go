package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/oxy-engine/oxygraph/framegraph"
)

// encoder wraps a single wgpu.CommandEncoder for the lifetime of one
// framegraph pass's recorded commands (or, for the final present submission,
// the present barrier's no-op scope). It implements framegraph.CommandEncoder.
type encoder struct {
	device *Device

	raw     *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	compute *wgpu.ComputePassEncoder

	commandBuffer *wgpu.CommandBuffer
}

// NewCommandEncoder implements framegraph.DeviceContext. The underlying
// wgpu.CommandEncoder is created here rather than lazily in
// BeginCommandBuffer because wgpu has no separate "begin" step: encoder
// creation and command-buffer recording start together.
func (d *Device) NewCommandEncoder() framegraph.CommandEncoder {
	raw, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		// DeviceContext offers no error return here because wgpu practically
		// never fails this call once device creation has already succeeded.
		panic("gpu: creating command encoder: " + err.Error())
	}
	return &encoder{device: d, raw: raw}
}

// BeginCommandBuffer implements framegraph.CommandEncoder. WebGPU command
// encoders begin recording implicitly on creation, so there is nothing to do
// here beyond the documentation boundary framegraph.CommandEncoder expects.
func (e *encoder) BeginCommandBuffer() {}

// EndCommandBuffer implements framegraph.CommandEncoder: it finishes
// recording and holds the resulting command buffer until the Device submits
// it.
func (e *encoder) EndCommandBuffer() {
	e.endComputeScope()
	cb, err := e.raw.Finish(nil)
	if err != nil {
		panic("gpu: finishing command buffer: " + err.Error())
	}
	e.commandBuffer = cb
	e.raw.Release()
}

// BeginRegion/EndRegion implement framegraph.CommandEncoder as no-ops,
// relying on the render-pass and resource labels for GPU capture tooling
// instead of debug groups.
func (e *encoder) BeginRegion(name string) {}
func (e *encoder) EndRegion()              {}

// BeginRenderPass implements framegraph.CommandEncoder. Every attachment's
// ResolvedView/ResolvedResolveView has already been filled in by Execute via
// the Registry, so this only has to translate load/store ops and clear
// values into a wgpu.RenderPassDescriptor.
func (e *encoder) BeginRenderPass(rp framegraph.RenderPass) {
	e.endComputeScope()

	colors := make([]wgpu.RenderPassColorAttachment, len(rp.ColorAttachments))
	for i, c := range rp.ColorAttachments {
		view, _ := c.ResolvedView.(*textureView)
		colors[i] = wgpu.RenderPassColorAttachment{
			View:       viewOrNil(view),
			LoadOp:     mapLoadOp(c.Ops.Load),
			StoreOp:    mapStoreOp(c.Ops.Store),
			ClearValue: wgpu.Color{R: float64(c.ClearValue.Float[0]), G: float64(c.ClearValue.Float[1]), B: float64(c.ClearValue.Float[2]), A: float64(c.ClearValue.Float[3])},
		}
		if c.ResolveTexture != nil {
			if rv, ok := c.ResolvedResolveView.(*textureView); ok {
				colors[i].ResolveTarget = viewOrNil(rv)
			}
		}
	}

	desc := &wgpu.RenderPassDescriptor{ColorAttachments: colors}

	if rp.DepthStencilAttachment != nil {
		d := rp.DepthStencilAttachment
		dv, _ := d.ResolvedView.(*textureView)
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            viewOrNil(dv),
			DepthLoadOp:     mapLoadOp(d.Ops.Load),
			DepthStoreOp:    mapStoreOp(d.Ops.Store),
			DepthClearValue: d.ClearValue.Depth,
		}
	}

	e.pass = e.raw.BeginRenderPass(desc)
}

// EndRenderPass implements framegraph.CommandEncoder.
func (e *encoder) EndRenderPass() {
	e.pass.End()
	e.pass = nil
}

// PushConstants implements framegraph.CommandEncoder as a no-op: core WebGPU
// has no push-constant range, the equivalent data travels through a uniform
// buffer bind group instead.
func (e *encoder) PushConstants(offset uint32, data []byte) {}

// BindGraphicsPipeline implements framegraph.CommandEncoder.
func (e *encoder) BindGraphicsPipeline(p framegraph.GraphicsPipeline) {
	gp, ok := p.(*GraphicsPipeline)
	if !ok || e.pass == nil {
		return
	}
	e.pass.SetPipeline(gp.raw)
}

// SetViewport implements framegraph.CommandEncoder.
func (e *encoder) SetViewport(v framegraph.Viewport) {
	if e.pass == nil {
		return
	}
	e.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

// SetScissor implements framegraph.CommandEncoder.
func (e *encoder) SetScissor(r framegraph.ScissorRect) {
	if e.pass == nil {
		return
	}
	e.pass.SetScissorRect(r.X, r.Y, r.Width, r.Height)
}

// SetCullingMode implements framegraph.CommandEncoder as a no-op: WebGPU bakes
// the cull mode into render pipeline state, so the mode a pass requests here
// has already been chosen at pipeline creation.
func (e *encoder) SetCullingMode(mode framegraph.CullingMode) {}

// BindIndexBuffer implements framegraph.CommandEncoder.
func (e *encoder) BindIndexBuffer(buffer framegraph.BufferView, format framegraph.IndexFormat, offset uint64) {
	bv, ok := buffer.(*bufferView)
	if !ok || e.pass == nil {
		return
	}
	wf := wgpu.IndexFormatUint32
	if format == framegraph.IndexFormatUint16 {
		wf = wgpu.IndexFormatUint16
	}
	e.pass.SetIndexBuffer(bv.buffer, wf, offset, wgpu.WholeSize)
}

// Draw, DrawIndexed, DrawIndirect and DrawIndexedIndirect implement
// framegraph.CommandEncoder.
func (e *encoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if e.pass == nil {
		return
	}
	e.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (e *encoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	if e.pass == nil {
		return
	}
	e.pass.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (e *encoder) DrawIndirect(args framegraph.BufferView, offset uint64) {
	bv, ok := args.(*bufferView)
	if !ok || e.pass == nil {
		return
	}
	e.pass.DrawIndirect(bv.buffer, offset)
}

func (e *encoder) DrawIndexedIndirect(args framegraph.BufferView, offset uint64) {
	bv, ok := args.(*bufferView)
	if !ok || e.pass == nil {
		return
	}
	e.pass.DrawIndexedIndirect(bv.buffer, offset)
}

// BindComputePipeline implements framegraph.CommandEncoder. wgpu scopes
// dispatches inside an explicit compute pass, which the frame graph's encoder
// contract leaves implicit; the pass is opened here on first use and closed
// again before any copy, render pass or command-buffer finish.
func (e *encoder) BindComputePipeline(p framegraph.ComputePipeline) {
	cp, ok := p.(*ComputePipeline)
	if !ok {
		return
	}
	if e.compute == nil {
		e.compute = e.raw.BeginComputePass(nil)
	}
	e.compute.SetPipeline(cp.raw)
}

// Dispatch implements framegraph.CommandEncoder.
func (e *encoder) Dispatch(groupsX, groupsY, groupsZ uint32) {
	if e.compute == nil {
		return
	}
	e.compute.DispatchWorkgroups(groupsX, groupsY, groupsZ)
}

// DispatchIndirect implements framegraph.CommandEncoder.
func (e *encoder) DispatchIndirect(args framegraph.BufferView, offset uint64) {
	bv, ok := args.(*bufferView)
	if !ok || e.compute == nil {
		return
	}
	e.compute.DispatchWorkgroupsIndirect(bv.buffer, offset)
}

func (e *encoder) endComputeScope() {
	if e.compute == nil {
		return
	}
	e.compute.End()
	e.compute = nil
}

// BufferCopyToBuffer implements framegraph.CommandEncoder.
func (e *encoder) BufferCopyToBuffer(source, destination framegraph.BufferView, regions []framegraph.BufferCopy) {
	src, okSrc := source.(*bufferView)
	dst, okDst := destination.(*bufferView)
	if !okSrc || !okDst {
		return
	}
	e.endComputeScope()
	for _, r := range regions {
		e.raw.CopyBufferToBuffer(src.buffer, r.SourceOffset, dst.buffer, r.DestinationOffset, r.Size)
	}
}

// TextureCopyToTexture implements framegraph.CommandEncoder as a whole-texture
// copy of mip level zero, the only shape the frame graph's transfer passes
// declare.
func (e *encoder) TextureCopyToTexture(source, destination framegraph.TextureView) {
	src, okSrc := source.(*textureView)
	dst, okDst := destination.(*textureView)
	if !okSrc || !okDst {
		return
	}
	e.endComputeScope()
	e.raw.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: src.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: dst.texture, Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{Width: src.extent.Width, Height: src.extent.Height, DepthOrArrayLayers: src.extent.DepthOrArrayLayers},
	)
}

// InsertGlobalBarrier, InsertTextureBarrier and InsertBufferBarrier implement
// framegraph.CommandEncoder as no-ops. Unlike the Vulkan-shaped RHI this
// planner was modeled on, WebGPU exposes no explicit barrier API: the
// implementation tracks every resource's hazard state internally and
// synchronizes automatically between passes within a submission. The planner
// still computes the barrier plan because it drives render-pass attachment
// access resolution and gives a future explicit-barrier backend (e.g. a
// Vulkan DeviceContext) everything it needs; this backend just doesn't have
// anywhere to emit them.
func (e *encoder) InsertGlobalBarrier(b framegraph.GlobalBarrier)   {}
func (e *encoder) InsertTextureBarrier(b framegraph.TextureBarrier) {}
func (e *encoder) InsertBufferBarrier(b framegraph.BufferBarrier)   {}

func viewOrNil(v *textureView) *wgpu.TextureView {
	if v == nil {
		return nil
	}
	return v.view
}

func mapLoadOp(op framegraph.AttachmentLoadOp) wgpu.LoadOp {
	switch op {
	case framegraph.LoadOpClear:
		return wgpu.LoadOpClear
	case framegraph.LoadOpDontCare:
		return wgpu.LoadOpClear
	default:
		return wgpu.LoadOpLoad
	}
}

func mapStoreOp(op framegraph.AttachmentStoreOp) wgpu.StoreOp {
	if op == framegraph.StoreOpDontCare {
		return wgpu.StoreOpDiscard
	}
	return wgpu.StoreOpStore
}

// Submit implements framegraph.DeviceContext. Encoders within a SubmitInfo
// were already produced in the order they must run; wgpu's Queue.Submit
// accepts every command buffer across every SubmitInfo in one call and runs
// them in submission order, since this backend folds every abstract Queue
// onto the single hardware queue WebGPU exposes.
func (d *Device) Submit(submits []framegraph.SubmitInfo, presents []framegraph.PresentInfo) error {
	var buffers []*wgpu.CommandBuffer
	for _, s := range submits {
		for _, enc := range s.Encoders {
			e, ok := enc.(*encoder)
			if !ok || e.commandBuffer == nil {
				continue
			}
			buffers = append(buffers, e.commandBuffer)
		}
	}
	if len(buffers) > 0 {
		d.queue.Submit(buffers...)
	}
	for _, b := range buffers {
		b.Release()
	}

	for _, p := range presents {
		if sc, ok := p.Swapchain.(*Swapchain); ok {
			sc.present()
		}
	}
	return nil
}
