package framegraph

import (
	"errors"
	"testing"
)

// fakeTextureView/fakeBufferView stand in for backend-native handles in
// tests; the FrameGraph package never inspects them beyond DebugName.
type fakeTextureView struct{ name string }

func (v fakeTextureView) DebugName() string { return v.name }

type fakeBufferView struct{ name string }

func (v fakeBufferView) DebugName() string { return v.name }

type fakeSwapchain struct{ name string }

func (s fakeSwapchain) DebugName() string { return s.name }

// fakeEncoder records every call made against it so tests can assert on
// barrier order and content without a real graphics backend.
type fakeEncoder struct {
	label      string
	globals    []GlobalBarrier
	textures   []TextureBarrier
	buffers    []BufferBarrier
	renders    int
	draws      int
	dispatches int
	copies     int
}

func (e *fakeEncoder) BeginCommandBuffer()             {}
func (e *fakeEncoder) EndCommandBuffer()               {}
func (e *fakeEncoder) BeginRegion(name string)         { e.label = name }
func (e *fakeEncoder) EndRegion()                      {}
func (e *fakeEncoder) BeginRenderPass(pass RenderPass) { e.renders++ }
func (e *fakeEncoder) EndRenderPass()                  {}

func (e *fakeEncoder) PushConstants(offset uint32, data []byte)            {}
func (e *fakeEncoder) BindGraphicsPipeline(p GraphicsPipeline)             {}
func (e *fakeEncoder) SetViewport(v Viewport)                              {}
func (e *fakeEncoder) SetScissor(r ScissorRect)                            {}
func (e *fakeEncoder) SetCullingMode(m CullingMode)                        {}
func (e *fakeEncoder) BindIndexBuffer(b BufferView, f IndexFormat, o uint64) {}

func (e *fakeEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.draws++
}
func (e *fakeEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	e.draws++
}
func (e *fakeEncoder) DrawIndirect(args BufferView, offset uint64)        { e.draws++ }
func (e *fakeEncoder) DrawIndexedIndirect(args BufferView, offset uint64) { e.draws++ }

func (e *fakeEncoder) BindComputePipeline(p ComputePipeline)          {}
func (e *fakeEncoder) Dispatch(x, y, z uint32)                        { e.dispatches++ }
func (e *fakeEncoder) DispatchIndirect(args BufferView, offset uint64) { e.dispatches++ }

func (e *fakeEncoder) BufferCopyToBuffer(src, dst BufferView, regions []BufferCopy) { e.copies++ }
func (e *fakeEncoder) TextureCopyToTexture(src, dst TextureView)                    { e.copies++ }

func (e *fakeEncoder) InsertGlobalBarrier(b GlobalBarrier)   { e.globals = append(e.globals, b) }
func (e *fakeEncoder) InsertTextureBarrier(b TextureBarrier) { e.textures = append(e.textures, b) }
func (e *fakeEncoder) InsertBufferBarrier(b BufferBarrier)   { e.buffers = append(e.buffers, b) }

// fakeDevice is a minimal in-memory DeviceContext: resources are named
// fakeTextureView/fakeBufferView stand-ins, and Submit just records the batch
// it was handed. queues is configurable so tests can simulate a backend with
// dedicated compute/transfer families.
type fakeDevice struct {
	queues    QueueFamilyIndices
	created   []string
	destroyed []string
	updates   []BufferUpdate
	submits   []SubmitInfo
	presents  []PresentInfo
}

func (d *fakeDevice) CreateTexture(info TextureCreateInfo) (TextureView, error) {
	d.created = append(d.created, info.Name)
	return fakeTextureView{name: info.Name}, nil
}

func (d *fakeDevice) CreateBuffer(info BufferCreateInfo) (BufferView, error) {
	d.created = append(d.created, info.Name)
	return fakeBufferView{name: info.Name}, nil
}

func (d *fakeDevice) DestroyTexture(v TextureView) { d.destroyed = append(d.destroyed, v.DebugName()) }
func (d *fakeDevice) DestroyBuffer(v BufferView)   { d.destroyed = append(d.destroyed, v.DebugName()) }

func (d *fakeDevice) UpdateBuffer(v BufferView, regions []BufferUpdate) error {
	d.updates = append(d.updates, regions...)
	return nil
}

func (d *fakeDevice) NewCommandEncoder() CommandEncoder { return &fakeEncoder{} }

func (d *fakeDevice) QueueFamilyIndices() QueueFamilyIndices { return d.queues }

func (d *fakeDevice) Submit(submits []SubmitInfo, presents []PresentInfo) error {
	d.submits = append(d.submits, submits...)
	d.presents = append(d.presents, presents...)
	return nil
}

// uniformQueues simulates a backend folding every abstract queue onto one
// hardware family (as WebGPU does); splitQueues simulates dedicated compute
// and transfer families.
func uniformQueues() *fakeDevice {
	return &fakeDevice{queues: QueueFamilyIndices{Graphics: 0, Compute: 0, Transfer: 0, Present: 0}}
}

func splitQueues() *fakeDevice {
	return &fakeDevice{queues: QueueFamilyIndices{Graphics: 0, Compute: 1, Transfer: 2, Present: 0}}
}

// Scenario 1: two passes with a read/write cycle between them must fail
// Compile with CycleDetected.
func TestCompileDetectsCycle(t *testing.T) {
	g := New(uniformQueues())

	var bufT, bufU BufferHandle
	g.AddPass(QueueGraphics, "alloc", func(b *Builder) {
		bufT = b.CreateBuffer("T", BufferCreateInfo{Size: 64})
		bufU = b.CreateBuffer("U", BufferCreateInfo{Size: 64})
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	// A writes T and reads U; B writes U and reads T: a cycle.
	g.AddPass(QueueGraphics, "A", func(b *Builder) {
		b.WriteBuffer(bufT, UsageTransfer)
		b.ReadBuffer(bufU, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})
	g.AddPass(QueueGraphics, "B", func(b *Builder) {
		b.WriteBuffer(bufU, UsageTransfer)
		b.ReadBuffer(bufT, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	err := g.Compile()
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
}

// Scenario 2: a single render pass that clears a texture and presents it
// produces exactly the expected barriers and submission order.
func TestSinglePassRenderAndPresent(t *testing.T) {
	g := New(uniformQueues())

	var tex TextureHandle
	_, err := g.AddRenderPass(QueueGraphics, "clear", func(b *Builder) RenderPass {
		tex = b.CreateTexture("backbuffer", TextureCreateInfo{
			Kind:   TextureKind{Dimension: TextureDimension2D, Width: 1920, Height: 1080, Layers: 1, MipCount: 1, SampleCount: SampleCount1},
			Format: TextureFormatRGBA8Unorm,
			Usage:  TextureUsageColorAttachment | TextureUsagePresent,
			Tiling: TextureTilingOptimal,
		})
		b.WriteTexture(tex, UsageColorAttachment)
		return RenderPass{
			ColorAttachments: []ColorAttachment{
				{Ops: AttachmentOpsInit, Texture: NewAttachmentTexture(tex)},
			},
		}
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder, pass RenderPass) {})
	if err != nil {
		t.Fatalf("AddRenderPass: %v", err)
	}

	swap := fakeSwapchain{name: "swap"}
	if err := g.AddPresentPass(swap, tex); err != nil {
		t.Fatalf("AddPresentPass: %v", err)
	}

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	clearBarriers := g.barriers[0]
	if len(clearBarriers.textures.before) != 1 {
		t.Fatalf("expected 1 before-barrier on clear, got %d", len(clearBarriers.textures.before))
	}
	before := clearBarriers.textures.before[0]
	if before.PreviousAccess != AccessNone || before.NextAccess != AccessColorAttachmentWrite || !before.DiscardContents {
		t.Fatalf("unexpected before barrier: %+v", before)
	}

	present := g.presents[0]
	if present.barrier == nil {
		t.Fatal("expected present barrier to be resolved")
	}
	if present.barrier.PreviousAccess != AccessColorAttachmentWrite || present.barrier.NextAccess != AccessTransferSource {
		t.Fatalf("unexpected present barrier: %+v", present.barrier)
	}

	device := &fakeDevice{}
	if err := g.Execute(device); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(device.submits) != 2 {
		t.Fatalf("expected 2 submissions (clear, present), got %d", len(device.submits))
	}
	if device.submits[0].Queue != QueueGraphics || device.submits[1].Queue != QueuePresent {
		t.Fatalf("unexpected submission queues: %v, %v", device.submits[0].Queue, device.submits[1].Queue)
	}
	if device.submits[1].SynchronizationStage != StageBottomOfPipe {
		t.Fatalf("unexpected present submission stage: %v", device.submits[1].SynchronizationStage)
	}
	if len(device.presents) != 1 || device.presents[0].Texture.DebugName() != "backbuffer" {
		t.Fatalf("unexpected presents: %+v", device.presents)
	}
}

// Scenario 3: a producer on AsyncCompute and a consumer on Graphics touching
// the same buffer must get a matching release/acquire barrier pair and run in
// two submissions.
func TestCrossQueueBufferHandoff(t *testing.T) {
	g := New(splitQueues())

	var buf BufferHandle
	g.AddPass(QueueAsyncCompute, "producer", func(b *Builder) {
		buf = b.CreateBuffer("indirect-args", BufferCreateInfo{Size: 256, Usage: BufferUsageIndirect})
		b.WriteBuffer(buf, UsageShaderCompute)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "consumer", func(b *Builder) {
		b.ReadBuffer(buf, UsageIndirectBuffer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	release := g.barriers[0].buffers.after
	if len(release) != 1 {
		t.Fatalf("expected 1 release barrier on producer.after, got %d", len(release))
	}
	if release[0].SourceQueue == nil || release[0].DestinationQueue == nil {
		t.Fatalf("release barrier missing queue ownership transfer: %+v", release[0])
	}
	if *release[0].SourceQueue != QueueAsyncCompute || *release[0].DestinationQueue != QueueGraphics {
		t.Fatalf("unexpected release queues: %+v", release[0])
	}
	if release[0].PreviousAccess != AccessUAVCompute || release[0].NextAccess != AccessIndirectBuffer {
		t.Fatalf("unexpected release access: %+v", release[0])
	}

	acquire := g.barriers[1].buffers.before
	if len(acquire) != 1 {
		t.Fatalf("expected 1 acquire barrier on consumer.before, got %d", len(acquire))
	}
	if *acquire[0].SourceQueue != QueueAsyncCompute || *acquire[0].DestinationQueue != QueueGraphics {
		t.Fatalf("unexpected acquire queues: %+v", acquire[0])
	}

	device := &fakeDevice{}
	if err := g.Execute(device); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(device.submits) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(device.submits))
	}
	if device.submits[0].SynchronizationStage != StageComputeShader {
		t.Fatalf("unexpected compute submission stage: %v", device.submits[0].SynchronizationStage)
	}
	if device.submits[1].SynchronizationStage != StageAllGraphics|StageComputeShader {
		t.Fatalf("unexpected graphics submission stage: %v", device.submits[1].SynchronizationStage)
	}
}

// Scenario 4: an independent pair of creators, a joining consumer and a final
// reader produce three dependency levels {A,B}, {C}, {D}.
func TestDependencyLevels(t *testing.T) {
	g := New(uniformQueues())

	var t1, t2, t3 BufferHandle
	g.AddPass(QueueGraphics, "A", func(b *Builder) {
		t1 = b.CreateBuffer("T1", BufferCreateInfo{Size: 64})
		b.WriteBuffer(t1, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "B", func(b *Builder) {
		t2 = b.CreateBuffer("T2", BufferCreateInfo{Size: 64})
		b.WriteBuffer(t2, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "C", func(b *Builder) {
		b.ReadBuffer(t1, UsageTransfer)
		b.ReadBuffer(t2, UsageTransfer)
		t3 = b.CreateBuffer("T3", BufferCreateInfo{Size: 64})
		b.WriteBuffer(t3, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "D", func(b *Builder) {
		b.ReadBuffer(t3, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if len(g.levels) != 3 {
		t.Fatalf("expected 3 dependency levels, got %d: %+v", len(g.levels), g.levels)
	}
	if len(g.levels[0].Passes) != 2 {
		t.Fatalf("expected level 0 to contain {A,B}, got %v", g.levels[0].Passes)
	}
	if len(g.levels[1].Passes) != 1 || g.levels[1].Passes[0] != 2 {
		t.Fatalf("expected level 1 to contain {C}, got %v", g.levels[1].Passes)
	}
	if len(g.levels[2].Passes) != 1 || g.levels[2].Passes[0] != 3 {
		t.Fatalf("expected level 2 to contain {D}, got %v", g.levels[2].Passes)
	}
}

// Universal property: for every edge A -> B in the adjacency list, A's index
// in the topological order precedes B's. Uses the same branching shape as
// scenario 4 (two independent producers joining into a consumer) so the sort
// must actually respect both incoming edges, not just whichever pass happened
// to be visited first.
func TestTopologicalOrderRespectsEdges(t *testing.T) {
	g := New(uniformQueues())

	var t1, t2, t3 BufferHandle
	g.AddPass(QueueGraphics, "A", func(b *Builder) {
		t1 = b.CreateBuffer("T1", BufferCreateInfo{Size: 64})
		b.WriteBuffer(t1, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "B", func(b *Builder) {
		t2 = b.CreateBuffer("T2", BufferCreateInfo{Size: 64})
		b.WriteBuffer(t2, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "C", func(b *Builder) {
		b.ReadBuffer(t1, UsageTransfer)
		b.ReadBuffer(t2, UsageTransfer)
		t3 = b.CreateBuffer("T3", BufferCreateInfo{Size: 64})
		b.WriteBuffer(t3, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "D", func(b *Builder) {
		b.ReadBuffer(t3, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if len(g.topoOrder) != len(g.passes) {
		t.Fatalf("expected topoOrder to be a permutation of all %d passes, got %d", len(g.passes), len(g.topoOrder))
	}
	indexOf := make(map[PassId]int, len(g.topoOrder))
	for i, id := range g.topoOrder {
		indexOf[id] = i
	}
	for a, neighbors := range g.adjacency {
		for _, b := range neighbors {
			if indexOf[PassId(a)] >= indexOf[b] {
				t.Fatalf("edge %d -> %d violates topological order: index(%d)=%d, index(%d)=%d",
					a, b, a, indexOf[PassId(a)], b, indexOf[b])
			}
		}
	}
}

// Scenario 5: two independent readers of the same texture each get their own
// before-barrier, and no barrier is inserted between them.
func TestReadOnlyFanOut(t *testing.T) {
	g := New(uniformQueues())

	var tex TextureHandle
	g.AddPass(QueueGraphics, "P", func(b *Builder) {
		tex = b.CreateTexture("T", TextureCreateInfo{
			Kind:   TextureKind{Dimension: TextureDimension2D, Width: 64, Height: 64, Layers: 1, MipCount: 1, SampleCount: SampleCount1},
			Format: TextureFormatRGBA8Unorm,
			Usage:  TextureUsageColorAttachment,
		})
		b.WriteTexture(tex, UsageColorAttachment)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "Q", func(b *Builder) {
		b.ReadTexture(tex, UsageShaderCompute)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	g.AddPass(QueueGraphics, "R", func(b *Builder) {
		b.ReadTexture(tex, UsageShaderCompute)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	qBefore := g.barriers[1].textures.before
	rBefore := g.barriers[2].textures.before
	if len(qBefore) != 1 || len(rBefore) != 1 {
		t.Fatalf("expected one before-barrier each on Q and R, got %d and %d", len(qBefore), len(rBefore))
	}
	for _, b := range []TextureBarrier{qBefore[0], rBefore[0]} {
		if b.PreviousAccess != AccessColorAttachmentWrite || b.NextAccess != AccessSRVCompute {
			t.Fatalf("unexpected fan-out barrier: %+v", b)
		}
	}
}

// Scenario 6: a render pass that names the same resource as two color
// attachments is rejected at AddRenderPass time.
func TestDuplicateAttachmentRejected(t *testing.T) {
	g := New(uniformQueues())

	_, err := g.AddRenderPass(QueueGraphics, "bad", func(b *Builder) RenderPass {
		tex := b.CreateTexture("T", TextureCreateInfo{
			Kind:   TextureKind{Dimension: TextureDimension2D, Width: 64, Height: 64, Layers: 1, MipCount: 1, SampleCount: SampleCount1},
			Format: TextureFormatRGBA8Unorm,
			Usage:  TextureUsageColorAttachment,
		})
		b.WriteTexture(tex, UsageColorAttachment)
		return RenderPass{
			ColorAttachments: []ColorAttachment{
				{Ops: AttachmentOpsInit, Texture: NewAttachmentTexture(tex)},
				{Ops: AttachmentOpsInit, Texture: NewAttachmentTexture(tex)},
			},
		}
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder, pass RenderPass) {})

	var dupErr *DuplicateAttachmentError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected *DuplicateAttachmentError, got %T: %v", err, err)
	}
}

func TestMissingResourceFailsCompile(t *testing.T) {
	g := New(uniformQueues())
	g.AddPass(QueueGraphics, "A", func(b *Builder) {
		b.ReadBuffer(BufferHandle{}, UsageTransfer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	err := g.Compile()
	var missing *MissingResourceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingResourceError, got %T: %v", err, err)
	}
}

func TestPresentPreconditionRejectsWrongFormat(t *testing.T) {
	g := New(uniformQueues())
	var tex TextureHandle
	g.AddPass(QueueGraphics, "A", func(b *Builder) {
		tex = b.CreateTexture("depth", TextureCreateInfo{
			Kind:   TextureKind{Dimension: TextureDimension2D, Width: 64, Height: 64, Layers: 1, MipCount: 1, SampleCount: SampleCount1},
			Format: TextureFormatDepth32Float,
			Usage:  TextureUsageDepthAttachment | TextureUsagePresent,
		})
		b.WriteTexture(tex, UsageDepthStencilAttachment)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	err := g.AddPresentPass(fakeSwapchain{name: "swap"}, tex)
	var presentErr *PresentPreconditionFailedError
	if !errors.As(err, &presentErr) {
		t.Fatalf("expected *PresentPreconditionFailedError, got %T: %v", err, err)
	}
}

func TestIllegalUsageCombinationRejected(t *testing.T) {
	g := New(uniformQueues())
	g.AddPass(QueueGraphics, "A", func(b *Builder) {
		tex := b.CreateTexture("T", TextureCreateInfo{
			Kind:   TextureKind{Dimension: TextureDimension2D, Width: 64, Height: 64, Layers: 1, MipCount: 1, SampleCount: SampleCount1},
			Format: TextureFormatRGBA8Unorm,
			Usage:  TextureUsageColorAttachment,
		})
		b.WriteTexture(tex, UsageColorAttachment|UsageIndexBuffer)
	}, func(ctx DeviceContext, r *Registry, e CommandEncoder) {})

	err := g.Compile()
	var illegalErr *IllegalUsageCombinationError
	if !errors.As(err, &illegalErr) {
		t.Fatalf("expected *IllegalUsageCombinationError, got %T: %v", err, err)
	}
}

func TestResetAllowsReuse(t *testing.T) {
	build := func(g *FrameGraph) error {
		var tex TextureHandle
		_, err := g.AddRenderPass(QueueGraphics, "clear", func(b *Builder) RenderPass {
			tex = b.CreateTexture("backbuffer", TextureCreateInfo{
				Kind:   TextureKind{Dimension: TextureDimension2D, Width: 1920, Height: 1080, Layers: 1, MipCount: 1, SampleCount: SampleCount1},
				Format: TextureFormatRGBA8Unorm,
				Usage:  TextureUsageColorAttachment | TextureUsagePresent,
				Tiling: TextureTilingOptimal,
			})
			b.WriteTexture(tex, UsageColorAttachment)
			return RenderPass{ColorAttachments: []ColorAttachment{{Ops: AttachmentOpsInit, Texture: NewAttachmentTexture(tex)}}}
		}, func(ctx DeviceContext, r *Registry, e CommandEncoder, pass RenderPass) {})
		if err != nil {
			return err
		}
		return g.AddPresentPass(fakeSwapchain{name: "swap"}, tex)
	}

	g := New(uniformQueues())
	if err := build(g); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile (first): %v", err)
	}
	firstBarriers := g.barriers[0].textures.before[0]

	g.Reset()
	if err := build(g); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile (second): %v", err)
	}
	secondBarriers := g.barriers[0].textures.before[0]

	if firstBarriers != secondBarriers {
		t.Fatalf("rebuilding the identical graph produced different barriers: %+v vs %+v", firstBarriers, secondBarriers)
	}
}
