package graph2

import (
	"fmt"

	"github.com/oxy-engine/oxygraph/framegraph"
)

// Compile runs the second-generation build pipeline: reference-counted
// culling, Kahn's topological sort (producing both the order and the pass
// dependency levels), then lowering of the surviving passes onto a
// first-generation FrameGraph, whose own Compile plans every barrier. After a
// successful Compile the graph is ready for Execute.
func (g *Graph) Compile() error {
	g.cullNodes()
	if err := g.topologicalSort(); err != nil {
		return err
	}
	return g.lower()
}

// Execute runs the lowered graph against ctx. Compile must have succeeded
// first.
func (g *Graph) Execute(ctx framegraph.DeviceContext) error {
	if g.lowered == nil {
		return fmt.Errorf("graph2: Execute called before a successful Compile")
	}
	return g.lowered.Execute(ctx)
}

// Reset clears every node, edge, present record and compile artifact so the
// Graph can be reused for the next frame.
func (g *Graph) Reset() {
	g.nodes = nil
	g.edges = nil
	g.passNodes = nil
	g.resourceNodes = nil
	g.presents = nil
	g.topo = nil
	g.passOrder = nil
	g.levels = nil
	if g.lowered != nil {
		g.lowered.Reset()
		g.lowered = nil
	}
}

// PassOrder returns the surviving pass nodes in topological order. Only valid
// after Compile.
func (g *Graph) PassOrder() []NodeIndex { return g.passOrder }

// DependencyLevels returns the surviving pass nodes bucketed by longest
// pass-to-pass path from any root. Only valid after Compile.
func (g *Graph) DependencyLevels() []DependencyLevel { return g.levels }

// Culled reports whether the culling pass dropped the given node. Only
// meaningful after Compile (or ExportGraphviz, which also runs the cull).
func (g *Graph) Culled(idx NodeIndex) bool { return g.nodes[idx].culled() }

// cullNodes seeds every node's reference count with its outgoing-edge count,
// pushes the unreferenced cullable nodes onto a stack, and cascades: each
// culled node releases its incoming neighbors, which may in turn become
// unreferenced.
func (g *Graph) cullNodes() {
	for i := range g.nodes {
		g.nodes[i].refCount = 0
	}
	for _, e := range g.edges {
		g.nodes[e.from].refCount++
	}

	var stack []NodeIndex
	for i, n := range g.nodes {
		if n.culled() {
			stack = append(stack, NodeIndex(i))
		}
	}

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.edges {
			if e.to != idx {
				continue
			}
			in := g.nodes[e.from]
			in.refCount--
			if in.culled() {
				stack = append(stack, e.from)
			}
		}
	}
}

// topologicalSort is Kahn's algorithm over the whole node graph, culled nodes
// included so a cycle hiding behind culled work is still reported. Dependency
// levels fall out of the same walk: the graph is bipartite (edges only ever
// connect a resource version and a pass), so a pass's level advances only on
// the pass -> resource -> pass hops, giving the longest pass-to-pass distance
// from any root.
func (g *Graph) topologicalSort() error {
	n := len(g.nodes)
	inDegree := make([]int, n)
	for _, e := range g.edges {
		inDegree[e.to]++
	}

	var stack []NodeIndex
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			stack = append(stack, NodeIndex(i))
		}
	}

	levels := make([]int, n)
	levelCount := 1
	g.topo = g.topo[:0]

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.topo = append(g.topo, idx)

		hop := 0
		if g.nodes[idx].kind == nodeKindPass {
			hop = 1
		}

		for _, e := range g.edges {
			if e.from != idx {
				continue
			}
			if l := levels[idx] + hop; l > levels[e.to] {
				levels[e.to] = l
				if l+1 > levelCount {
					levelCount = l + 1
				}
			}
			inDegree[e.to]--
			if inDegree[e.to] == 0 {
				stack = append(stack, e.to)
			}
		}
	}

	if len(g.topo) != n {
		visited := make([]bool, n)
		for _, idx := range g.topo {
			visited[idx] = true
		}
		for i := 0; i < n; i++ {
			if !visited[i] {
				return &CycleError{Node: NodeIndex(i), Name: g.nodes[i].name()}
			}
		}
	}

	g.passOrder = g.passOrder[:0]
	g.levels = make([]DependencyLevel, levelCount)
	for i := range g.levels {
		g.levels[i].Level = i
	}
	maxLevel := 0
	for _, idx := range g.topo {
		node := g.nodes[idx]
		if node.kind != nodeKindPass || node.culled() {
			continue
		}
		g.passOrder = append(g.passOrder, idx)
		level := levels[idx]
		g.levels[level].Passes = append(g.levels[level].Passes, idx)
		if level > maxLevel {
			maxLevel = level
		}
	}
	g.levels = g.levels[:maxLevel+1]
	return nil
}

// lower replays the surviving passes, in topological order, onto a
// first-generation FrameGraph: imports first, then each pass's creates, reads
// and writes (collapsed from versioned nodes back to their base resources),
// then the present records. The lowered graph's Compile plans barriers exactly
// as if the client had built it directly, which is what keeps the two
// generations observationally equivalent.
func (g *Graph) lower() error {
	fg := framegraph.New(g.device)

	unculledPass := func(idx NodeIndex) bool {
		return g.nodes[idx].kind == nodeKindPass && !g.nodes[idx].culled()
	}

	// An imported base resource is lowered only if a surviving pass or a
	// present record actually touches it.
	neededImports := make(map[NodeIndex]bool)
	for _, e := range g.edges {
		var base NodeIndex
		switch {
		case g.nodes[e.from].kind == nodeKindResource && unculledPass(e.to):
			base = g.baseOf(e.from)
		case g.nodes[e.to].kind == nodeKindResource && unculledPass(e.from):
			base = g.baseOf(e.to)
		default:
			continue
		}
		if g.nodes[base].resource.imported {
			neededImports[base] = true
		}
	}
	for _, p := range g.presents {
		if base := g.baseOf(p.texture.node); g.nodes[base].resource.imported {
			neededImports[base] = true
		}
	}

	texByBase := make(map[NodeIndex]framegraph.TextureHandle)
	bufByBase := make(map[NodeIndex]framegraph.BufferHandle)
	for _, idx := range g.resourceNodes {
		if !neededImports[idx] {
			continue
		}
		r := g.nodes[idx].resource
		switch r.rtype {
		case framegraph.ResourceTypeTexture:
			texByBase[idx] = fg.ImportTexture(r.name, r.texture, r.importedTexture)
		case framegraph.ResourceTypeBuffer:
			bufByBase[idx] = fg.ImportBuffer(r.name, r.buffer, r.importedBuffer)
		}
	}

	for _, passIdx := range g.passOrder {
		p := g.nodes[passIdx].pass

		replay := func(b *framegraph.Builder) {
			for _, resIdx := range g.resourceNodes {
				r := g.nodes[resIdx].resource
				if r.imported || r.generation != 0 || r.creator != passIdx {
					continue
				}
				switch r.rtype {
				case framegraph.ResourceTypeTexture:
					texByBase[resIdx] = b.CreateTexture(r.name, r.texture)
				case framegraph.ResourceTypeBuffer:
					bufByBase[resIdx] = b.CreateBuffer(r.name, r.buffer)
				}
			}
			for _, e := range g.edges {
				switch {
				case e.to == passIdx && e.usage != framegraph.UsageNone:
					base := g.baseOf(e.from)
					if g.nodes[base].resource.rtype == framegraph.ResourceTypeTexture {
						b.ReadTexture(texByBase[base], e.usage)
					} else {
						b.ReadBuffer(bufByBase[base], e.usage)
					}
				case e.from == passIdx && e.write:
					base := g.baseOf(e.to)
					if g.nodes[base].resource.rtype == framegraph.ResourceTypeTexture {
						b.WriteTexture(texByBase[base], e.usage)
					} else {
						b.WriteBuffer(bufByBase[base], e.usage)
					}
				}
			}
		}

		switch p.kind {
		case framegraph.PassKindRender:
			rp := p.renderPass
			_, err := fg.AddRenderPass(p.queue, p.name, func(b *framegraph.Builder) framegraph.RenderPass {
				replay(b)
				return g.lowerRenderPass(rp, texByBase)
			}, p.renderExec)
			if err != nil {
				return err
			}
		default:
			fg.AddPass(p.queue, p.name, replay, p.execute)
		}
	}

	for _, pr := range g.presents {
		base := g.baseOf(pr.texture.node)
		handle, ok := texByBase[base]
		if !ok {
			return fmt.Errorf("graph2: present texture %q was never realized by any surviving pass", g.nodes[base].resource.name)
		}
		if err := fg.AddPresentPass(pr.swapchain, handle); err != nil {
			return err
		}
	}

	if err := fg.Compile(); err != nil {
		return err
	}
	g.lowered = fg
	return nil
}

func (g *Graph) lowerRenderPass(rp RenderPass, texByBase map[NodeIndex]framegraph.TextureHandle) framegraph.RenderPass {
	out := framegraph.RenderPass{}
	for _, c := range rp.ColorAttachments {
		lowered := framegraph.ColorAttachment{
			Ops:        c.Ops,
			Texture:    framegraph.NewAttachmentTexture(texByBase[g.baseOf(c.Texture.node)]),
			ClearValue: c.ClearValue,
		}
		if c.ResolveTexture != nil {
			resolve := framegraph.NewAttachmentTexture(texByBase[g.baseOf(c.ResolveTexture.node)])
			lowered.ResolveTexture = &resolve
		}
		out.ColorAttachments = append(out.ColorAttachments, lowered)
	}
	if d := rp.DepthStencilAttachment; d != nil {
		out.DepthStencilAttachment = &framegraph.DepthStencilAttachment{
			Ops:        d.Ops,
			StencilOps: d.StencilOps,
			Texture:    framegraph.NewAttachmentTexture(texByBase[g.baseOf(d.Texture.node)]),
			ClearValue: d.ClearValue,
		}
	}
	return out
}
