package graph2

import (
	"strings"
	"testing"

	"github.com/oxy-engine/oxygraph/framegraph"
)

type fakeTextureView struct{ name string }

func (v fakeTextureView) DebugName() string { return v.name }

type fakeBufferView struct{ name string }

func (v fakeBufferView) DebugName() string { return v.name }

type fakeSwapchain struct{ name string }

func (s fakeSwapchain) DebugName() string { return s.name }

type fakeEncoder struct {
	textures []framegraph.TextureBarrier
	globals  []framegraph.GlobalBarrier
	buffers  []framegraph.BufferBarrier
}

func (e *fakeEncoder) BeginCommandBuffer()                         {}
func (e *fakeEncoder) EndCommandBuffer()                           {}
func (e *fakeEncoder) BeginRegion(name string)                     {}
func (e *fakeEncoder) EndRegion()                                  {}
func (e *fakeEncoder) BeginRenderPass(pass framegraph.RenderPass)  {}
func (e *fakeEncoder) EndRenderPass()                              {}
func (e *fakeEncoder) PushConstants(offset uint32, data []byte)    {}
func (e *fakeEncoder) BindGraphicsPipeline(p framegraph.GraphicsPipeline) {}
func (e *fakeEncoder) SetViewport(v framegraph.Viewport)           {}
func (e *fakeEncoder) SetScissor(r framegraph.ScissorRect)         {}
func (e *fakeEncoder) SetCullingMode(m framegraph.CullingMode)     {}
func (e *fakeEncoder) BindIndexBuffer(b framegraph.BufferView, f framegraph.IndexFormat, o uint64) {
}
func (e *fakeEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {}
func (e *fakeEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
}
func (e *fakeEncoder) DrawIndirect(args framegraph.BufferView, offset uint64)         {}
func (e *fakeEncoder) DrawIndexedIndirect(args framegraph.BufferView, offset uint64)  {}
func (e *fakeEncoder) BindComputePipeline(p framegraph.ComputePipeline)               {}
func (e *fakeEncoder) Dispatch(x, y, z uint32)                                        {}
func (e *fakeEncoder) DispatchIndirect(args framegraph.BufferView, offset uint64)     {}
func (e *fakeEncoder) BufferCopyToBuffer(src, dst framegraph.BufferView, r []framegraph.BufferCopy) {
}
func (e *fakeEncoder) TextureCopyToTexture(src, dst framegraph.TextureView) {}

func (e *fakeEncoder) InsertGlobalBarrier(b framegraph.GlobalBarrier) {
	e.globals = append(e.globals, b)
}
func (e *fakeEncoder) InsertTextureBarrier(b framegraph.TextureBarrier) {
	e.textures = append(e.textures, b)
}
func (e *fakeEncoder) InsertBufferBarrier(b framegraph.BufferBarrier) {
	e.buffers = append(e.buffers, b)
}

type fakeDevice struct {
	encoders []*fakeEncoder
	created  []string
	submits  []framegraph.SubmitInfo
	presents []framegraph.PresentInfo
}

func (d *fakeDevice) CreateTexture(info framegraph.TextureCreateInfo) (framegraph.TextureView, error) {
	d.created = append(d.created, info.Name)
	return fakeTextureView{name: info.Name}, nil
}

func (d *fakeDevice) CreateBuffer(info framegraph.BufferCreateInfo) (framegraph.BufferView, error) {
	d.created = append(d.created, info.Name)
	return fakeBufferView{name: info.Name}, nil
}

func (d *fakeDevice) DestroyTexture(v framegraph.TextureView) {}
func (d *fakeDevice) DestroyBuffer(v framegraph.BufferView)   {}

func (d *fakeDevice) UpdateBuffer(v framegraph.BufferView, regions []framegraph.BufferUpdate) error {
	return nil
}

func (d *fakeDevice) NewCommandEncoder() framegraph.CommandEncoder {
	e := &fakeEncoder{}
	d.encoders = append(d.encoders, e)
	return e
}

func (d *fakeDevice) QueueFamilyIndices() framegraph.QueueFamilyIndices {
	return framegraph.QueueFamilyIndices{}
}

func (d *fakeDevice) Submit(submits []framegraph.SubmitInfo, presents []framegraph.PresentInfo) error {
	d.submits = append(d.submits, submits...)
	d.presents = append(d.presents, presents...)
	return nil
}

func bufferInfo(size uint64) framegraph.BufferCreateInfo {
	return framegraph.BufferCreateInfo{Size: size}
}

// A pass whose written version nobody reads is culled, and culling cascades
// back through the resources only it consumed; a side-effect pass survives
// with the chain feeding it.
func TestCullingCascades(t *testing.T) {
	g := New(&fakeDevice{})

	executed := make(map[string]bool)
	exec := func(name string) framegraph.ExecuteFunc {
		return func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {
			executed[name] = true
		}
	}

	// dead-producer writes a buffer nobody reads.
	g.AddPass(framegraph.QueueGraphics, "dead-producer", func(b *Builder) {
		buf := b.CreateBuffer("dead", bufferInfo(64))
		b.WriteBuffer(buf, framegraph.UsageTransfer)
	}, exec("dead-producer"))

	// producer feeds consumer, which is pinned by a side effect.
	var fed BufferHandle
	g.AddPass(framegraph.QueueGraphics, "producer", func(b *Builder) {
		buf := b.CreateBuffer("fed", bufferInfo(64))
		fed = b.WriteBuffer(buf, framegraph.UsageTransfer)
	}, exec("producer"))

	g.AddPass(framegraph.QueueGraphics, "consumer", func(b *Builder) {
		b.ReadBuffer(fed, framegraph.UsageTransfer)
		b.SideEffect()
	}, exec("consumer"))

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if !g.Culled(g.passNodes[0]) {
		t.Fatal("expected dead-producer to be culled")
	}
	if g.Culled(g.passNodes[1]) || g.Culled(g.passNodes[2]) {
		t.Fatal("expected producer and consumer to survive culling")
	}
	if len(g.PassOrder()) != 2 {
		t.Fatalf("expected 2 surviving passes, got %d", len(g.PassOrder()))
	}

	device := &fakeDevice{}
	if err := g.Execute(device); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if executed["dead-producer"] {
		t.Fatal("culled pass must not execute")
	}
	if !executed["producer"] || !executed["consumer"] {
		t.Fatal("surviving passes must execute")
	}
	for _, name := range device.created {
		if name == "dead" {
			t.Fatal("culled pass's transient resource must not be realized")
		}
	}
}

// Writing through the builder returns a handle to a new resource version, so
// read-after-write dependencies are explicit edges from the newer version.
func TestWriteAliasesNewVersion(t *testing.T) {
	g := New(&fakeDevice{})

	var base, written BufferHandle
	g.AddPass(framegraph.QueueGraphics, "producer", func(b *Builder) {
		base = b.CreateBuffer("data", bufferInfo(64))
		written = b.WriteBuffer(base, framegraph.UsageShaderCompute)
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})

	if written.node == base.node {
		t.Fatal("expected WriteBuffer to return a new version node")
	}
	if gen := g.nodes[written.node].resource.generation; gen != 1 {
		t.Fatalf("expected generation 1 for the written version, got %d", gen)
	}
	if g.baseOf(written.node) != base.node {
		t.Fatal("expected the written version's parent chain to reach the base node")
	}

	g.AddPass(framegraph.QueueGraphics, "consumer", func(b *Builder) {
		b.ReadBuffer(written, framegraph.UsageShaderCompute)
		b.SideEffect()
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	order := g.PassOrder()
	if len(order) != 2 || order[0] != g.passNodes[0] || order[1] != g.passNodes[1] {
		t.Fatalf("expected producer before consumer, got %v", order)
	}
}

// The Kahn sort's levels count pass-to-pass hops only: two independent
// producers, a joining consumer and a final reader land in levels 0, 1 and 2.
func TestKahnDependencyLevels(t *testing.T) {
	g := New(&fakeDevice{})
	noop := func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {}

	var t1, t2, t3 BufferHandle
	g.AddPass(framegraph.QueueGraphics, "A", func(b *Builder) {
		t1 = b.WriteBuffer(b.CreateBuffer("T1", bufferInfo(64)), framegraph.UsageTransfer)
	}, noop)
	g.AddPass(framegraph.QueueGraphics, "B", func(b *Builder) {
		t2 = b.WriteBuffer(b.CreateBuffer("T2", bufferInfo(64)), framegraph.UsageTransfer)
	}, noop)
	g.AddPass(framegraph.QueueGraphics, "C", func(b *Builder) {
		b.ReadBuffer(t1, framegraph.UsageTransfer)
		b.ReadBuffer(t2, framegraph.UsageTransfer)
		t3 = b.WriteBuffer(b.CreateBuffer("T3", bufferInfo(64)), framegraph.UsageTransfer)
	}, noop)
	g.AddPass(framegraph.QueueGraphics, "D", func(b *Builder) {
		b.ReadBuffer(t3, framegraph.UsageTransfer)
		b.SideEffect()
	}, noop)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	levels := g.DependencyLevels()
	if len(levels) != 3 {
		t.Fatalf("expected 3 dependency levels, got %d: %+v", len(levels), levels)
	}
	if len(levels[0].Passes) != 2 {
		t.Fatalf("expected level 0 to contain {A,B}, got %v", levels[0].Passes)
	}
	if len(levels[1].Passes) != 1 || levels[1].Passes[0] != g.passNodes[2] {
		t.Fatalf("expected level 1 to contain {C}, got %v", levels[1].Passes)
	}
	if len(levels[2].Passes) != 1 || levels[2].Passes[0] != g.passNodes[3] {
		t.Fatalf("expected level 2 to contain {D}, got %v", levels[2].Passes)
	}
}

// The clear-and-present scenario through graph2 produces the same observable
// contract as the first generation: the same barriers reach the encoders and
// the same two submissions reach the device.
func TestObservationalEquivalence(t *testing.T) {
	g := New(&fakeDevice{})

	var tex TextureHandle
	err := g.AddRenderPass(framegraph.QueueGraphics, "clear", func(b *Builder) RenderPass {
		created := b.CreateTexture("backbuffer", framegraph.TextureCreateInfo{
			Kind: framegraph.TextureKind{
				Dimension: framegraph.TextureDimension2D, Width: 1920, Height: 1080,
				Layers: 1, MipCount: 1, SampleCount: framegraph.SampleCount1,
			},
			Format: framegraph.TextureFormatRGBA8Unorm,
			Usage:  framegraph.TextureUsageColorAttachment | framegraph.TextureUsagePresent,
			Tiling: framegraph.TextureTilingOptimal,
		})
		tex = b.WriteTexture(created, framegraph.UsageColorAttachment)
		return RenderPass{
			ColorAttachments: []ColorAttachment{
				{Ops: framegraph.AttachmentOpsInit, Texture: created},
			},
		}
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder, rp framegraph.RenderPass) {
	})
	if err != nil {
		t.Fatalf("AddRenderPass: %v", err)
	}

	g.AddPresentPass(fakeSwapchain{name: "swap"}, tex)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	device := &fakeDevice{}
	if err := g.Execute(device); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(device.submits) != 2 {
		t.Fatalf("expected 2 submissions (clear, present), got %d", len(device.submits))
	}
	if device.submits[1].Queue != framegraph.QueuePresent {
		t.Fatalf("expected final submission on the present queue, got %v", device.submits[1].Queue)
	}
	if len(device.presents) != 1 || device.presents[0].Texture.DebugName() != "backbuffer" {
		t.Fatalf("unexpected presents: %+v", device.presents)
	}

	if len(device.encoders) != 2 {
		t.Fatalf("expected 2 encoders, got %d", len(device.encoders))
	}
	clear := device.encoders[0]
	if len(clear.textures) != 1 {
		t.Fatalf("expected 1 texture barrier on the clear encoder, got %d", len(clear.textures))
	}
	before := clear.textures[0]
	if before.PreviousAccess != framegraph.AccessNone ||
		before.NextAccess != framegraph.AccessColorAttachmentWrite ||
		!before.DiscardContents {
		t.Fatalf("unexpected clear barrier: %+v", before)
	}
	present := device.encoders[1]
	if len(present.textures) != 1 {
		t.Fatalf("expected 1 texture barrier on the present encoder, got %d", len(present.textures))
	}
	if present.textures[0].PreviousAccess != framegraph.AccessColorAttachmentWrite ||
		present.textures[0].NextAccess != framegraph.AccessTransferSource {
		t.Fatalf("unexpected present barrier: %+v", present.textures[0])
	}
}

// A duplicate attachment is rejected even when the duplicate names a
// different version of the same resource.
func TestDuplicateAttachmentAcrossVersions(t *testing.T) {
	g := New(&fakeDevice{})

	err := g.AddRenderPass(framegraph.QueueGraphics, "bad", func(b *Builder) RenderPass {
		created := b.CreateTexture("T", framegraph.TextureCreateInfo{
			Kind: framegraph.TextureKind{
				Dimension: framegraph.TextureDimension2D, Width: 64, Height: 64,
				Layers: 1, MipCount: 1, SampleCount: framegraph.SampleCount1,
			},
			Format: framegraph.TextureFormatRGBA8Unorm,
			Usage:  framegraph.TextureUsageColorAttachment,
		})
		written := b.WriteTexture(created, framegraph.UsageColorAttachment)
		return RenderPass{
			ColorAttachments: []ColorAttachment{
				{Ops: framegraph.AttachmentOpsInit, Texture: created},
				{Ops: framegraph.AttachmentOpsInit, Texture: written},
			},
		}
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder, rp framegraph.RenderPass) {
	})

	if _, ok := err.(*DuplicateAttachmentError); !ok {
		t.Fatalf("expected *DuplicateAttachmentError, got %T: %v", err, err)
	}
}

func TestGraphvizExport(t *testing.T) {
	g := New(&fakeDevice{})

	var fed BufferHandle
	g.AddPass(framegraph.QueueGraphics, "dead", func(b *Builder) {
		b.WriteBuffer(b.CreateBuffer("unused", bufferInfo(64)), framegraph.UsageTransfer)
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})
	g.AddPass(framegraph.QueueGraphics, "alive", func(b *Builder) {
		fed = b.WriteBuffer(b.CreateBuffer("used", bufferInfo(64)), framegraph.UsageTransfer)
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})
	g.AddPass(framegraph.QueueGraphics, "sink", func(b *Builder) {
		b.ReadBuffer(fed, framegraph.UsageTransfer)
		b.SideEffect()
	}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})

	dot := g.ExportGraphviz()
	for _, want := range []string{
		"digraph",
		"rankdir = LR",
		"fillcolor=darkorange4", // the culled "dead" pass, dimmed
		"fillcolor=darkorange",  // a surviving pass
		"fillcolor=skyblue",     // a resource node
		"color=firebrick",       // a write edge
		"color=darkolivegreen",  // a read edge
	} {
		if !strings.Contains(dot, want) {
			t.Fatalf("expected export to contain %q:\n%s", want, dot)
		}
	}
}

// Reset returns the graph to an empty, reusable state.
func TestResetAllowsReuse(t *testing.T) {
	g := New(&fakeDevice{})

	build := func() {
		var fed BufferHandle
		g.AddPass(framegraph.QueueGraphics, "producer", func(b *Builder) {
			fed = b.WriteBuffer(b.CreateBuffer("fed", bufferInfo(64)), framegraph.UsageTransfer)
		}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})
		g.AddPass(framegraph.QueueGraphics, "consumer", func(b *Builder) {
			b.ReadBuffer(fed, framegraph.UsageTransfer)
			b.SideEffect()
		}, func(ctx framegraph.DeviceContext, r *framegraph.Registry, e framegraph.CommandEncoder) {})
	}

	build()
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile (first): %v", err)
	}
	first := len(g.PassOrder())

	g.Reset()
	if len(g.nodes) != 0 || len(g.edges) != 0 {
		t.Fatal("Reset must clear nodes and edges")
	}

	build()
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile (second): %v", err)
	}
	if len(g.PassOrder()) != first {
		t.Fatalf("rebuilding the identical graph changed the surviving pass count: %d vs %d", first, len(g.PassOrder()))
	}
}
