package framegraph

// lastResourceUsage is the barrier planner's per-resource bookkeeping: which
// pass most recently touched the resource, on which queue, with which combined
// usage mask, and whether that touch included a write.
type lastResourceUsage struct {
	pass      PassId
	queue     Queue
	usage     ResourceUsage
	isWritten bool
}

// mapQueueToFamilyIndex resolves the abstract Queue a pass declared to the
// physical hardware queue family index it runs on, so the planner can tell
// whether two Queue values that differ nonetheless share one physical queue.
func (g *FrameGraph) mapQueueToFamilyIndex(q Queue) uint32 {
	switch q {
	case QueueGraphics:
		return g.queues.Graphics
	case QueueAsyncCompute:
		return g.queues.Compute
	case QueueTransfer:
		return g.queues.Transfer
	case QueuePresent:
		return g.queues.Present
	default:
		return g.queues.Graphics
	}
}

// buildBarriers is the heart of the planner: walking passes level by level, it threads
// a last-usage timeline per resource and emits exactly the barriers required
// to carry each resource's access from producer to every consumer, including
// across queue-ownership boundaries, then resolves the present passes'
// barriers from whatever usage was left behind. Passes within the same level
// have no data dependency, so each plans its barriers against the state the
// previous level left behind, never against a sibling in its own level.
func (g *FrameGraph) buildBarriers() error {
	g.barriers = make([]passBarriers, len(g.passes))
	last := make(map[ResourceId]lastResourceUsage)

	accessOf := func(id ResourceId) Access {
		l := last[id]
		return mapResourceUsage(l.usage, l.isWritten)
	}

	for _, level := range g.levels {
		// Passes within a level share no data dependency, so each one's barrier
		// must be computed against the resource state left behind by the
		// previous level, not by a sibling processed earlier in this loop.
		// last_usage updates made during this level are staged here and only
		// folded into last once the whole level has been planned.
		pending := make(map[ResourceId]lastResourceUsage)

		for _, passId := range level.Passes {
			p := g.passes[passId]

			for _, id := range p.touchedResources() {
				isWritten := p.isWritten(id)
				isRead := p.isRead(id)
				combined := p.combinedUsage(id)

				if offender, ok := checkAttachmentLegality(combined); !ok {
					return &IllegalUsageCombinationError{Pass: passId, Resource: id, Attachment: offender, Combined: combined}
				}

				if prev, ok := last[id]; ok {
					sameQueue := g.mapQueueToFamilyIndex(prev.queue) == g.mapQueueToFamilyIndex(p.queue)
					discard := discardContents(isWritten, isRead, prev.isWritten)

					if sameQueue {
						g.insertBarrier(id, prev.usage, prev.isWritten, passId, combined, isWritten, discard)
					} else {
						g.queueOwnershipTransfer(id, prev.pass, prev.usage, prev.isWritten, passId, combined, isWritten, prev.queue, p.queue, discard)
					}
				} else {
					// First touch: textures get a before-barrier from NONE (contents
					// undefined, so always discardable); buffers need nothing.
					if g.resources[id].rtype == ResourceTypeTexture {
						next := mapResourceUsage(combined, isWritten)
						g.barriers[passId].textures.before = append(g.barriers[passId].textures.before, TextureBarrier{
							Texture:         id,
							PreviousAccess:  AccessNone,
							NextAccess:      next,
							DiscardContents: true,
						})
					}
				}

				pending[id] = lastResourceUsage{pass: passId, queue: p.queue, usage: combined, isWritten: isWritten}
			}

			if p.kind == PassKindRender {
				g.resolveRenderPassAccess(p, func(id ResourceId) Access {
					if l, ok := pending[id]; ok {
						return mapResourceUsage(l.usage, l.isWritten)
					}
					return accessOf(id)
				})
			}
		}

		for id, u := range pending {
			last[id] = u
		}
	}

	for i := range g.presents {
		present := &g.presents[i]
		id := present.texture.id

		prev, ok := last[id]
		if !ok {
			return &UnusedResourceError{Texture: present.texture}
		}

		previousAccess := mapResourceUsage(prev.usage, prev.isWritten)
		sameQueue := g.mapQueueToFamilyIndex(prev.queue) == g.mapQueueToFamilyIndex(QueuePresent)

		if sameQueue {
			present.barrier = &TextureBarrier{
				Texture:        id,
				PreviousAccess: accessOf(id),
				NextAccess:     presentAccess,
			}
		} else {
			srcQueue, dstQueue := prev.queue, QueuePresent
			g.barriers[prev.pass].textures.after = append(g.barriers[prev.pass].textures.after, TextureBarrier{
				Texture:          id,
				PreviousAccess:   previousAccess,
				NextAccess:       presentAccess,
				SourceQueue:      &srcQueue,
				DestinationQueue: &dstQueue,
			})
			present.barrier = &TextureBarrier{
				Texture:          id,
				PreviousAccess:   accessOf(id),
				NextAccess:       presentAccess,
				SourceQueue:      &srcQueue,
				DestinationQueue: &dstQueue,
			}
		}
	}

	return nil
}

// presentAccess is the hardware access a present pass transitions its source
// texture into: every backend that can present can also treat the frame as a
// transfer source for the final blit/copy to the swapchain image.
const presentAccess = AccessTransferSource

// discardContents decides whether a transition may drop the texture's previous
// contents: a pass may
// discard a texture's previous contents exactly when it writes without also
// reading, regardless of whether the previous touch was itself a read or
// write.
func discardContents(isWritten, isRead, prevWasWritten bool) bool {
	_ = prevWasWritten
	return isWritten && !isRead
}

// insertBarrier handles the same-queue case, per resource kind:
// buffers always try to fold into the pass's before-global-barrier (skipped
// entirely if both sides are pure reads); textures fold into the global
// barrier only when the usage mask is unchanged and at least one side writes,
// otherwise they get a dedicated texture barrier.
func (g *FrameGraph) insertBarrier(
	id ResourceId,
	prevUsage ResourceUsage, prevWritten bool,
	passId PassId,
	nextUsage ResourceUsage, nextWritten bool,
	discard bool,
) {
	previousAccess := mapResourceUsage(prevUsage, prevWritten)
	nextAccess := mapResourceUsage(nextUsage, nextWritten)

	switch g.resources[id].rtype {
	case ResourceTypeBuffer:
		if prevWritten || nextWritten {
			g.foldGlobalBefore(passId, previousAccess, nextAccess)
		}
	case ResourceTypeTexture:
		if prevUsage == nextUsage && (prevWritten || nextWritten) {
			g.foldGlobalBefore(passId, previousAccess, nextAccess)
		} else {
			g.barriers[passId].textures.before = append(g.barriers[passId].textures.before, TextureBarrier{
				Texture:         id,
				PreviousAccess:  previousAccess,
				NextAccess:      nextAccess,
				DiscardContents: discard,
			})
		}
	}
}

func (g *FrameGraph) foldGlobalBefore(passId PassId, previousAccess, nextAccess Access) {
	before := &g.barriers[passId].global.before
	if before.isNoop() {
		*before = GlobalBarrier{PreviousAccess: previousAccess, NextAccess: nextAccess}
		return
	}
	before.PreviousAccess |= previousAccess
	before.NextAccess |= nextAccess
}

// queueOwnershipTransfer handles the cross-queue case: a release barrier is
// appended to the producing pass's after-slot and a matching acquire barrier
// to the consuming pass's before-slot, both carrying the same source and
// destination queue.
func (g *FrameGraph) queueOwnershipTransfer(
	id ResourceId,
	prevPassId PassId, prevUsage ResourceUsage, prevWritten bool,
	passId PassId, nextUsage ResourceUsage, nextWritten bool,
	sourceQueue, destinationQueue Queue,
	discard bool,
) {
	previousAccess := mapResourceUsage(prevUsage, prevWritten)
	nextAccess := mapResourceUsage(nextUsage, nextWritten)
	src, dst := sourceQueue, destinationQueue

	switch g.resources[id].rtype {
	case ResourceTypeBuffer:
		g.barriers[prevPassId].buffers.after = append(g.barriers[prevPassId].buffers.after, BufferBarrier{
			Buffer: id, PreviousAccess: previousAccess, NextAccess: nextAccess,
			SourceQueue: &src, DestinationQueue: &dst,
		})
		g.barriers[passId].buffers.before = append(g.barriers[passId].buffers.before, BufferBarrier{
			Buffer: id, PreviousAccess: previousAccess, NextAccess: nextAccess,
			SourceQueue: &src, DestinationQueue: &dst,
		})
	case ResourceTypeTexture:
		g.barriers[prevPassId].textures.after = append(g.barriers[prevPassId].textures.after, TextureBarrier{
			Texture: id, PreviousAccess: previousAccess, NextAccess: nextAccess,
			SourceQueue: &src, DestinationQueue: &dst, DiscardContents: discard,
		})
		g.barriers[passId].textures.before = append(g.barriers[passId].textures.before, TextureBarrier{
			Texture: id, PreviousAccess: previousAccess, NextAccess: nextAccess,
			SourceQueue: &src, DestinationQueue: &dst, DiscardContents: discard,
		})
	}
}

// resolveRenderPassAccess fills in the hardware access mask each attachment's
// resolved descriptor carries, looked up from the same last-usage timeline the
// barrier planning loop just updated for this pass. This is what the backend
// consults to choose the correct hardware layout for each attachment.
func (g *FrameGraph) resolveRenderPassAccess(p *pass, accessOf func(ResourceId) Access) {
	for i := range p.renderPass.ColorAttachments {
		c := &p.renderPass.ColorAttachments[i]
		c.Access = accessOf(c.Texture.resourceId())
	}
	if d := p.renderPass.DepthStencilAttachment; d != nil {
		d.Access = accessOf(d.Texture.resourceId())
	}
}
