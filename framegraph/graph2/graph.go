package graph2

import (
	"fmt"

	"github.com/oxy-engine/oxygraph/framegraph"
)

// RenderPass is the attachment layout of a render pass declared against this
// generation of the graph. Attachment textures are graph2 handles; lowering
// translates them into first-generation attachments once the surviving pass
// set is known.
type RenderPass struct {
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthStencilAttachment
}

// ColorAttachment describes one color render target.
type ColorAttachment struct {
	Ops            framegraph.AttachmentOps
	Texture        TextureHandle
	ResolveTexture *TextureHandle
	ClearValue     framegraph.ClearValue
}

// DepthStencilAttachment describes the depth/stencil render target.
type DepthStencilAttachment struct {
	Ops        framegraph.AttachmentOps
	StencilOps framegraph.AttachmentOps
	Texture    TextureHandle
	ClearValue framegraph.ClearDepthStencil
}

// CycleError is returned by Compile when Kahn's algorithm terminates before
// visiting every node, which can only happen if the remaining nodes form a
// cycle.
type CycleError struct {
	Node NodeIndex
	Name string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph2: cycle detected among graph nodes (stuck at node %d %q)", e.Node, e.Name)
}

// DuplicateAttachmentError is returned when a render pass names two
// attachments that resolve to the same underlying resource, in any version.
type DuplicateAttachmentError struct {
	Pass     string
	Resource string
}

func (e *DuplicateAttachmentError) Error() string {
	return fmt.Sprintf("graph2: render pass %q declares resource %q as more than one attachment", e.Pass, e.Resource)
}

// presentDecl is a deferred present-pass record, lowered into the
// first-generation graph's AddPresentPass during Compile.
type presentDecl struct {
	swapchain framegraph.Swapchain
	texture   TextureHandle
}

// Graph is the second-generation frame graph. Usage mirrors the
// first-generation framegraph.FrameGraph: register passes, Compile, Execute,
// Reset once per frame; the difference is the versioned-write model and the
// culling pass Compile runs before anything is scheduled.
type Graph struct {
	device framegraph.DeviceContext

	nodes []*node
	edges []edge

	passNodes     []NodeIndex
	resourceNodes []NodeIndex
	presents      []presentDecl

	// Compile artifacts.
	topo      []NodeIndex
	passOrder []NodeIndex
	levels    []DependencyLevel
	lowered   *framegraph.FrameGraph
}

// DependencyLevel groups the surviving pass nodes whose longest pass-to-pass
// path from any root equals Level.
type DependencyLevel struct {
	Level  int
	Passes []NodeIndex
}

// New constructs an empty second-generation graph bound to device.
func New(device framegraph.DeviceContext) *Graph {
	return &Graph{device: device}
}

func (g *Graph) addNode(n *node) NodeIndex {
	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return idx
}

func (g *Graph) addEdge(from, to NodeIndex, usage framegraph.ResourceUsage, write bool) {
	g.edges = append(g.edges, edge{from: from, to: to, usage: usage, write: write})
}

// ImportTexture registers a backend-owned texture as a generation-0 resource
// node the graph can read and write but never allocates or destroys.
func (g *Graph) ImportTexture(name string, info framegraph.TextureCreateInfo, view framegraph.TextureView) TextureHandle {
	info.Name = name
	idx := g.addNode(&node{kind: nodeKindResource, resource: &resourceNode{
		name: name, rtype: framegraph.ResourceTypeTexture, texture: info,
		imported: true, importedTexture: view,
	}})
	g.nodes[idx].resource.parent = idx
	g.resourceNodes = append(g.resourceNodes, idx)
	return TextureHandle{node: idx, ok: true}
}

// ImportBuffer registers a backend-owned buffer the same way.
func (g *Graph) ImportBuffer(name string, info framegraph.BufferCreateInfo, view framegraph.BufferView) BufferHandle {
	info.Name = name
	idx := g.addNode(&node{kind: nodeKindResource, resource: &resourceNode{
		name: name, rtype: framegraph.ResourceTypeBuffer, buffer: info,
		imported: true, importedBuffer: view,
	}})
	g.nodes[idx].resource.parent = idx
	g.resourceNodes = append(g.resourceNodes, idx)
	return BufferHandle{node: idx, ok: true}
}

// AddPass registers a generic pass as a pass node and runs its setup callback
// against a Builder scoped to it.
func (g *Graph) AddPass(queue framegraph.Queue, name string, setup func(b *Builder), execute framegraph.ExecuteFunc) {
	idx := g.addNode(&node{kind: nodeKindPass, pass: &passNode{
		name: name, queue: queue, kind: framegraph.PassKindGeneric, execute: execute,
	}})
	g.passNodes = append(g.passNodes, idx)
	setup(&Builder{graph: g, pass: idx})
}

// AddRenderPass registers a render pass node. After setup it validates that no
// two attachments resolve to the same underlying resource, version aliasing
// included: writing an attachment and also naming the ref it returned counts
// as a duplicate.
func (g *Graph) AddRenderPass(queue framegraph.Queue, name string, setup func(b *Builder) RenderPass, execute framegraph.RenderExecuteFunc) error {
	idx := g.addNode(&node{kind: nodeKindPass, pass: &passNode{
		name: name, queue: queue, kind: framegraph.PassKindRender, renderExec: execute,
	}})
	g.passNodes = append(g.passNodes, idx)
	rp := setup(&Builder{graph: g, pass: idx})
	g.nodes[idx].pass.renderPass = rp

	seen := make(map[NodeIndex]bool)
	check := func(h TextureHandle) error {
		base := g.baseOf(h.node)
		if seen[base] {
			return &DuplicateAttachmentError{Pass: name, Resource: g.nodes[base].resource.name}
		}
		seen[base] = true
		return nil
	}
	for _, c := range rp.ColorAttachments {
		if err := check(c.Texture); err != nil {
			return err
		}
		if c.ResolveTexture != nil {
			if err := check(*c.ResolveTexture); err != nil {
				return err
			}
		}
	}
	if d := rp.DepthStencilAttachment; d != nil {
		if err := check(d.Texture); err != nil {
			return err
		}
	}
	return nil
}

// AddPresentPass records a deferred present of texture through swapchain. The
// referenced version is pinned uncullable so the chain of passes producing it
// survives culling; the first-generation core validates the texture's present
// preconditions when the record is lowered during Compile.
func (g *Graph) AddPresentPass(swapchain framegraph.Swapchain, texture TextureHandle) {
	g.nodes[texture.node].uncullable = true
	g.presents = append(g.presents, presentDecl{swapchain: swapchain, texture: texture})
}

// baseOf follows a version's parent chain back to its generation-0 node.
func (g *Graph) baseOf(idx NodeIndex) NodeIndex {
	for g.nodes[idx].resource.generation > 0 {
		idx = g.nodes[idx].resource.parent
	}
	return idx
}

// Builder is the setup façade scoped to one pass node. It matches the
// first-generation Builder with two differences: Write returns a handle to the
// freshly allocated resource version, and SideEffect pins the pass against
// culling.
type Builder struct {
	graph *Graph
	pass  NodeIndex
}

// CreateTexture allocates a generation-0 texture node created by this pass.
func (b *Builder) CreateTexture(name string, info framegraph.TextureCreateInfo) TextureHandle {
	info.Name = name
	idx := b.graph.addNode(&node{kind: nodeKindResource, resource: &resourceNode{
		name: name, rtype: framegraph.ResourceTypeTexture, texture: info, creator: b.pass,
	}})
	b.graph.nodes[idx].resource.parent = idx
	b.graph.resourceNodes = append(b.graph.resourceNodes, idx)
	return TextureHandle{node: idx, ok: true}
}

// CreateBuffer allocates a generation-0 buffer node created by this pass.
func (b *Builder) CreateBuffer(name string, info framegraph.BufferCreateInfo) BufferHandle {
	info.Name = name
	idx := b.graph.addNode(&node{kind: nodeKindResource, resource: &resourceNode{
		name: name, rtype: framegraph.ResourceTypeBuffer, buffer: info, creator: b.pass,
	}})
	b.graph.nodes[idx].resource.parent = idx
	b.graph.resourceNodes = append(b.graph.resourceNodes, idx)
	return BufferHandle{node: idx, ok: true}
}

// ReadTexture records a read edge from the given texture version to this pass
// and returns the handle unchanged.
func (b *Builder) ReadTexture(h TextureHandle, usage framegraph.ResourceUsage) TextureHandle {
	b.graph.addEdge(h.node, b.pass, usage, false)
	return h
}

// ReadBuffer records a read edge from the given buffer version to this pass.
func (b *Builder) ReadBuffer(h BufferHandle, usage framegraph.ResourceUsage) BufferHandle {
	b.graph.addEdge(h.node, b.pass, usage, false)
	return h
}

// WriteTexture allocates a new version of the texture, records the
// pass -> new-version write edge plus the ordering edge from the superseded
// version, and returns a handle to the new version. Passes that should see
// the result of this write must read through the returned handle.
func (b *Builder) WriteTexture(h TextureHandle, usage framegraph.ResourceUsage) TextureHandle {
	return TextureHandle{node: b.graph.writeImpl(b.pass, h.node, usage), ok: true}
}

// WriteBuffer is WriteTexture for buffers.
func (b *Builder) WriteBuffer(h BufferHandle, usage framegraph.ResourceUsage) BufferHandle {
	return BufferHandle{node: b.graph.writeImpl(b.pass, h.node, usage), ok: true}
}

// SideEffect marks the pass uncullable regardless of whether anything reads
// its outputs, for passes whose value is outside the graph (a readback, a
// debug dump).
func (b *Builder) SideEffect() {
	b.graph.nodes[b.pass].uncullable = true
}

func (g *Graph) writeImpl(pass, prev NodeIndex, usage framegraph.ResourceUsage) NodeIndex {
	prevRes := g.nodes[prev].resource
	ref := g.addNode(&node{kind: nodeKindResource, resource: &resourceNode{
		name:       prevRes.name,
		rtype:      prevRes.rtype,
		texture:    prevRes.texture,
		buffer:     prevRes.buffer,
		imported:   prevRes.imported,
		creator:    pass,
		parent:     prev,
		generation: prevRes.generation + 1,
	}})
	g.resourceNodes = append(g.resourceNodes, ref)

	// The ordering edge keeps the writer after the version it supersedes;
	// UsageNone marks it as not-a-read for lowering.
	g.addEdge(prev, pass, framegraph.UsageNone, false)
	g.addEdge(pass, ref, usage, true)
	return ref
}
