package framegraph

import "fmt"

// Execute runs the compiled frame graph against a concrete device: it
// realizes each pass's created resources immediately before that pass runs,
// emits the pass's before-barriers, invokes its execute callable, emits its
// after-barriers, and coalesces adjacent encoders on the same queue into a
// single submission. Present passes are folded into one final submission on
// the present queue. Execute must only be called after a successful Compile,
// and Reset must run before the graph is built up for the next frame.
func (g *FrameGraph) Execute(ctx DeviceContext) error {
	var submits []SubmitInfo
	var transientTextures []TextureHandle
	var transientBuffers []BufferHandle

	appendEncoder := func(queue Queue, encoder CommandEncoder) {
		if n := len(submits); n > 0 && submits[n-1].Queue == queue {
			submits[n-1].Encoders = append(submits[n-1].Encoders, encoder)
			return
		}
		submits = append(submits, SubmitInfo{
			Queue:                queue,
			SynchronizationStage: mapQueueToSynchronizationStage(queue),
			Encoders:             []CommandEncoder{encoder},
		})
	}

	for _, level := range g.levels {
		for _, passId := range level.Passes {
			p := g.passes[passId]

			for _, id := range p.creates {
				r := g.resources[id]
				switch r.rtype {
				case ResourceTypeTexture:
					view, err := ctx.CreateTexture(r.texture)
					if err != nil {
						return fmt.Errorf("framegraph: realizing texture %q for %s: %w", r.name, passId, err)
					}
					handle := TextureHandle{id: id}
					g.registry.addTexture(handle, view)
					transientTextures = append(transientTextures, handle)
				case ResourceTypeBuffer:
					view, err := ctx.CreateBuffer(r.buffer)
					if err != nil {
						return fmt.Errorf("framegraph: realizing buffer %q for %s: %w", r.name, passId, err)
					}
					handle := BufferHandle{id: id}
					g.registry.addBuffer(handle, view)
					transientBuffers = append(transientBuffers, handle)
				}
			}

			encoder := ctx.NewCommandEncoder()
			encoder.BeginCommandBuffer()
			encoder.BeginRegion(p.name)

			emitBarriers(encoder, g.barriers[passId].global.before, g.barriers[passId].textures.before, g.barriers[passId].buffers.before)

			switch p.kind {
			case PassKindRender:
				g.resolveRenderPassViews(p)
				encoder.BeginRenderPass(p.renderPass)
				p.renderExec(ctx, g.registry, encoder, p.renderPass)
				encoder.EndRenderPass()
			default:
				p.execute(ctx, g.registry, encoder)
			}

			emitBarriers(encoder, g.barriers[passId].global.after, g.barriers[passId].textures.after, g.barriers[passId].buffers.after)

			encoder.EndRegion()
			encoder.EndCommandBuffer()

			appendEncoder(p.queue, encoder)
		}
	}

	presents, err := g.resolvePresentInfos()
	if err != nil {
		return err
	}
	if len(presents) > 0 {
		encoder := ctx.NewCommandEncoder()
		encoder.BeginCommandBuffer()
		encoder.BeginRegion("present")
		for _, pp := range g.presents {
			if pp.barrier != nil {
				encoder.InsertTextureBarrier(*pp.barrier)
			}
		}
		encoder.EndRegion()
		encoder.EndCommandBuffer()
		appendEncoder(QueuePresent, encoder)
	}

	if err := ctx.Submit(submits, presents); err != nil {
		return fmt.Errorf("framegraph: submit failed: %w", err)
	}

	for _, h := range transientTextures {
		ctx.DestroyTexture(g.registry.Texture(h))
	}
	for _, h := range transientBuffers {
		ctx.DestroyBuffer(g.registry.Buffer(h))
	}

	return nil
}

// resolveRenderPassViews fills in each attachment's ResolvedView (and
// ResolvedResolveView for color attachments with a resolve target) from the
// Registry, so the DeviceContext's BeginRenderPass implementation can build
// the hardware render-pass descriptor without resolving handles itself.
func (g *FrameGraph) resolveRenderPassViews(p *pass) {
	for i := range p.renderPass.ColorAttachments {
		c := &p.renderPass.ColorAttachments[i]
		c.ResolvedView = g.registry.ResolveAttachment(c.Texture)
		if c.ResolveTexture != nil {
			c.ResolvedResolveView = g.registry.ResolveAttachment(*c.ResolveTexture)
		}
	}
	if d := p.renderPass.DepthStencilAttachment; d != nil {
		d.ResolvedView = g.registry.ResolveAttachment(d.Texture)
	}
}

// emitBarriers records one pass's before or after slot in emission order:
// the global barrier first, then textures, then buffers. A noop
// global barrier is skipped rather than emitted as a pointless full-pipeline
// stall.
func emitBarriers(encoder CommandEncoder, global GlobalBarrier, textures []TextureBarrier, buffers []BufferBarrier) {
	if !global.isNoop() {
		encoder.InsertGlobalBarrier(global)
	}
	for _, b := range textures {
		encoder.InsertTextureBarrier(b)
	}
	for _, b := range buffers {
		encoder.InsertBufferBarrier(b)
	}
}

// resolvePresentInfos resolves every present pass's texture handle through the
// registry into the backend-native view Submit expects. Compile must have run
// first: a present record with a nil barrier means Compile never resolved it.
func (g *FrameGraph) resolvePresentInfos() ([]PresentInfo, error) {
	if len(g.presents) == 0 {
		return nil, nil
	}
	infos := make([]PresentInfo, 0, len(g.presents))
	for _, pp := range g.presents {
		if pp.barrier == nil {
			return nil, fmt.Errorf("framegraph: present texture %s has no resolved barrier; Compile must run before Execute", pp.texture)
		}
		infos = append(infos, PresentInfo{
			Swapchain:             pp.swapchain,
			Texture:               g.registry.Texture(pp.texture),
			TexturePreviousAccess: presentAccess,
		})
	}
	return infos, nil
}
