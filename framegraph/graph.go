package framegraph

import "fmt"

// PresentPass is the deferred present-pass record AddPresentPass appends. It
// carries no execute callable: present passes run only as part of the
// executor's final present submission, after every other pass in the frame.
type presentPass struct {
	swapchain Swapchain
	texture   TextureHandle
	barrier   *TextureBarrier
}

// DependencyLevel groups every pass whose longest-path distance from any root
// pass equals Level. Passes within the same level share no data dependency and
// may, as far as the frame graph is concerned, run concurrently.
type DependencyLevel struct {
	Level int
	Passes []PassId
}

// FrameGraph is the entry point for describing, compiling and executing one
// frame's worth of GPU work. A FrameGraph instance is reused across frames:
// callers call AddPass/AddRenderPass/AddPresentPass, Compile, Execute and
// Reset once per frame in that order.
type FrameGraph struct {
	queues QueueFamilyIndices

	passes    []*pass
	resources []*resource
	presents  []presentPass

	adjacency [][]PassId
	topoOrder []PassId
	levels    []DependencyLevel
	barriers  []passBarriers

	registry *Registry
}

// New constructs an empty FrameGraph bound to device's queue family layout.
// The layout lets the planner tell whether two abstract Queue values in fact
// share one physical hardware queue, which decides same-queue coalescing
// versus cross-queue ownership transfer. The device itself is not retained;
// Execute takes it again when the frame actually runs.
func New(device DeviceContext) *FrameGraph {
	return &FrameGraph{
		queues:   device.QueueFamilyIndices(),
		registry: newRegistry(),
	}
}

func (g *FrameGraph) nextResourceId() ResourceId {
	return ResourceId(len(g.resources))
}

func (g *FrameGraph) addResource(r *resource) ResourceId {
	g.resources = append(g.resources, r)
	return r.id
}

func (g *FrameGraph) noteProducer(id ResourceId, p PassId) {
	g.resources[id].producers = append(g.resources[id].producers, p)
}

func (g *FrameGraph) noteConsumer(id ResourceId, p PassId) {
	g.resources[id].consumers = append(g.resources[id].consumers, p)
}

// resourceExists reports whether id refers to a resource actually registered
// in this frame, as opposed to a stray or zero-valued handle.
func (g *FrameGraph) resourceExists(id ResourceId) bool {
	return id != NullResourceId && int(id) < len(g.resources)
}

// ImportTexture registers a backend-owned texture (most commonly a swapchain
// backbuffer) as a resource the graph can read and write but never allocates
// or destroys. view is the already-realized backend handle for it; it is
// registered immediately, since an imported resource's creator pass never
// runs Execute's realization step.
func (g *FrameGraph) ImportTexture(name string, info TextureCreateInfo, view TextureView) TextureHandle {
	id := g.addResource(newTextureResource(g.nextResourceId(), TextureCreateInfo{
		Kind: info.Kind, Format: info.Format, Usage: info.Usage, Tiling: info.Tiling, Memory: info.Memory, Name: name,
	}, true))
	handle := TextureHandle{id: id}
	g.registry.addTexture(handle, view)
	return handle
}

// ImportBuffer registers a backend-owned buffer the graph can read and write
// but never allocates or destroys. view is its already-realized backend
// handle, registered immediately for the same reason ImportTexture registers
// its view immediately.
func (g *FrameGraph) ImportBuffer(name string, info BufferCreateInfo, view BufferView) BufferHandle {
	id := g.addResource(newBufferResource(g.nextResourceId(), BufferCreateInfo{
		Size: info.Size, Usage: info.Usage, Memory: info.Memory, Name: name,
	}, true))
	handle := BufferHandle{id: id}
	g.registry.addBuffer(handle, view)
	return handle
}

// AddPass registers a generic (non-render) pass. setup runs synchronously and
// must perform every CreateTexture/CreateBuffer/Read/Write call the pass needs;
// execute is retained and invoked later, during Execute.
func (g *FrameGraph) AddPass(queue Queue, name string, setup func(b *Builder), execute ExecuteFunc) PassId {
	id := PassId(len(g.passes))
	p := &pass{id: id, name: name, kind: PassKindGeneric, queue: queue, execute: execute}
	g.passes = append(g.passes, p)
	setup(&Builder{graph: g, pass: p})
	return id
}

// AddRenderPass registers a pass that drives a hardware render pass. setup
// additionally builds the RenderPass attachment descriptor it returns; after
// setup, AddRenderPass validates that no resource appears as more than one
// attachment (invariant 2).
func (g *FrameGraph) AddRenderPass(queue Queue, name string, setup func(b *Builder) RenderPass, execute RenderExecuteFunc) (PassId, error) {
	id := PassId(len(g.passes))
	p := &pass{id: id, name: name, kind: PassKindRender, queue: queue, renderExec: execute}
	g.passes = append(g.passes, p)
	p.renderPass = setup(&Builder{graph: g, pass: p})

	if dup, ok := findDuplicateAttachment(p.renderPass); ok {
		return id, &DuplicateAttachmentError{Pass: id, Resource: dup}
	}
	return id, nil
}

func findDuplicateAttachment(rp RenderPass) (ResourceId, bool) {
	seen := make(map[ResourceId]bool)
	check := func(a AttachmentTexture) (ResourceId, bool) {
		id := a.resourceId()
		if seen[id] {
			return id, true
		}
		seen[id] = true
		return id, false
	}
	for _, c := range rp.ColorAttachments {
		if id, dup := check(c.Texture); dup {
			return id, true
		}
		if c.ResolveTexture != nil {
			if id, dup := check(*c.ResolveTexture); dup {
				return id, true
			}
		}
	}
	if rp.DepthStencilAttachment != nil {
		if id, dup := check(rp.DepthStencilAttachment.Texture); dup {
			return id, true
		}
		if rp.DepthStencilAttachment.ResolveTexture != nil {
			if id, dup := check(*rp.DepthStencilAttachment.ResolveTexture); dup {
				return id, true
			}
		}
	}
	return 0, false
}

// AddPresentPass validates invariant 3 for texture and appends a deferred
// present-pass record. Present passes run after every other pass in the frame
// and never invoke an execute callback; they only hand the texture to
// swapchain once the planner has resolved their barrier.
func (g *FrameGraph) AddPresentPass(swapchain Swapchain, texture TextureHandle) error {
	if !texture.IsValid() || !g.resourceExists(texture.id) {
		return &PresentPreconditionFailedError{Texture: texture, Reason: "handle is not valid"}
	}
	r := g.resources[texture.id]
	if r.rtype != ResourceTypeTexture {
		return &PresentPreconditionFailedError{Texture: texture, Reason: "handle does not refer to a texture"}
	}
	if !r.texture.Usage.Has(TextureUsagePresent) {
		return &PresentPreconditionFailedError{Texture: texture, Reason: "texture usage flags lack TextureUsagePresent"}
	}
	if !isValidPresentSource(r.texture.Format) {
		return &PresentPreconditionFailedError{Texture: texture, Reason: fmt.Sprintf("format %s is not valid for presentation", r.texture.Format)}
	}
	if r.texture.Tiling != TextureTilingOptimal {
		return &PresentPreconditionFailedError{Texture: texture, Reason: "tiling is not TextureTilingOptimal"}
	}
	if r.texture.Kind.Dimension != TextureDimension2D {
		return &PresentPreconditionFailedError{Texture: texture, Reason: "texture is not 2D"}
	}
	if r.texture.Kind.SampleCount != SampleCount1 {
		return &PresentPreconditionFailedError{Texture: texture, Reason: "sample count is not 1"}
	}

	g.presents = append(g.presents, presentPass{swapchain: swapchain, texture: texture})
	return nil
}

// UnusedResources reports every created or imported resource that no pass ever
// read or wrote. It is informational: the graph does not reject unused
// resources on its own, callers decide whether to treat the warning as fatal.
func (g *FrameGraph) UnusedResources() []UnusedResourceWarning {
	var out []UnusedResourceWarning
	for _, r := range g.resources {
		if r.isUnused() {
			out = append(out, UnusedResourceWarning{Resource: r.id, Name: r.name})
		}
	}
	return out
}

// Compile runs the full build pipeline: adjacency list
// construction, topological sort with cycle detection, dependency-level
// assignment, and barrier planning. It must be called exactly once after every
// pass for the frame has been registered and before Execute.
func (g *FrameGraph) Compile() error {
	if err := g.validateResourceReferences(); err != nil {
		return err
	}
	g.buildAdjacencyList()
	if err := g.topologicalSort(); err != nil {
		return err
	}
	g.buildDependencyLevels()
	return g.buildBarriers()
}

// validateResourceReferences enforces invariant 1: every resource a pass reads
// or writes, or names as a render pass attachment, must have been created or
// imported into this frame. Builder.read/write tolerate a stray handle at
// setup time precisely so this check, not a slice-index panic, is what a
// caller observes.
func (g *FrameGraph) validateResourceReferences() error {
	for _, p := range g.passes {
		for _, a := range p.reads {
			if !g.resourceExists(a.resource) {
				return &MissingResourceError{Pass: p.id, Resource: a.resource}
			}
		}
		for _, a := range p.writes {
			if !g.resourceExists(a.resource) {
				return &MissingResourceError{Pass: p.id, Resource: a.resource}
			}
		}
		if p.kind == PassKindRender {
			for _, c := range p.renderPass.ColorAttachments {
				if id := c.Texture.resourceId(); !g.resourceExists(id) {
					return &MissingResourceError{Pass: p.id, Resource: id}
				}
			}
			if d := p.renderPass.DepthStencilAttachment; d != nil {
				if id := d.Texture.resourceId(); !g.resourceExists(id) {
					return &MissingResourceError{Pass: p.id, Resource: id}
				}
			}
		}
	}
	return nil
}

// buildAdjacencyList adds an edge A -> B iff some resource B reads is written
// by A. Write-after-write and write-after-read orderings are not edges here;
// the barrier planner derives those from the per-resource usage timeline
// instead, from the per-resource usage timeline.
func (g *FrameGraph) buildAdjacencyList() {
	g.adjacency = make([][]PassId, len(g.passes))
	for i, a := range g.passes {
		for j, b := range g.passes {
			if i == j {
				continue
			}
			for _, read := range b.reads {
				if a.isWritten(read.resource) {
					g.adjacency[i] = append(g.adjacency[i], PassId(j))
					break
				}
			}
		}
	}
}

// topologicalSort performs the iterative DFS-with-explicit-stack sort: a
// vertex is pushed to the output once every one of its neighbors has finished
// (post-order), and the accumulated order is reversed at the end so that for
// every edge A -> B, A precedes B. An edge into a vertex still on the stack
// means the graph has a cycle.
func (g *FrameGraph) topologicalSort() error {
	n := len(g.passes)
	visited := make([]bool, n)
	onStack := make([]bool, n)

	// childIdx tracks, per stack frame, how far into that node's adjacency
	// list the DFS has already explored, so each frame can be resumed
	// without rescanning neighbors already pushed or rejected.
	type frame struct {
		node     PassId
		childIdx int
	}

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		onStack[i] = true
		stack := []frame{{node: PassId(i)}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.childIdx < len(g.adjacency[top.node]) {
				child := g.adjacency[top.node][top.childIdx]
				top.childIdx++
				if onStack[child] {
					return &CycleError{Pass: child}
				}
				if !visited[child] {
					visited[child] = true
					onStack[child] = true
					stack = append(stack, frame{node: child})
				}
				continue
			}

			onStack[top.node] = false
			g.topoOrder = append(g.topoOrder, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	for l, r := 0, len(g.topoOrder)-1; l < r; l, r = l+1, r-1 {
		g.topoOrder[l], g.topoOrder[r] = g.topoOrder[r], g.topoOrder[l]
	}
	return nil
}

// buildDependencyLevels computes each pass's longest-path distance from any
// root by relaxing edges once in topological order, so every pass's distance
// is final before its outgoing edges are relaxed, then buckets the
// topologically sorted passes by that distance.
func (g *FrameGraph) buildDependencyLevels() {
	n := len(g.passes)
	distances := make([]int, n)
	levelCount := 1

	for _, i := range g.topoOrder {
		for _, adjacent := range g.adjacency[i] {
			if distances[adjacent] < distances[i]+1 {
				distances[adjacent] = distances[i] + 1
				if distances[adjacent]+1 > levelCount {
					levelCount = distances[adjacent] + 1
				}
			}
		}
	}

	g.levels = make([]DependencyLevel, levelCount)
	for i := range g.levels {
		g.levels[i].Level = i
	}
	for _, passId := range g.topoOrder {
		level := distances[passId]
		g.passes[passId].level = level
		g.levels[level].Passes = append(g.levels[level].Passes, passId)
	}
}

// Reset clears every pass, resource, present record and compiled artifact so
// the FrameGraph can be reused for the next frame. The Registry is cleared too;
// entries from the frame just executed must not be consulted afterward.
func (g *FrameGraph) Reset() {
	g.passes = nil
	g.resources = nil
	g.presents = nil
	g.adjacency = nil
	g.topoOrder = nil
	g.levels = nil
	g.barriers = nil
	g.registry.clear()
}
