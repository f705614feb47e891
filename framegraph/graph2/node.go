// Package graph2 is the second-generation frame graph core: instead of keeping
// passes and resources in separate arrays, it materializes both as first-class
// vertices of one heterogeneous node graph. Every write to a resource allocates
// a new versioned resource node, making read-after-write dependencies explicit
// as edges, which in turn enables reference-counted culling of passes whose
// results nobody consumes. Compilation culls, topologically sorts with Kahn's
// algorithm, then lowers the surviving passes onto the first-generation
// framegraph core, so barrier planning and execution behave identically to a
// graph built against that package directly.
package graph2

import "github.com/oxy-engine/oxygraph/framegraph"

// NodeIndex is a dense identifier for one vertex (pass or resource version) of
// the node graph.
type NodeIndex uint16

// edge is one directed dependency between a resource node and a pass node.
// Read edges point resource -> pass and carry the read usage; write edges
// point pass -> new resource version and carry the write usage. A write also
// adds a resource -> pass edge with UsageNone, ordering the writer after the
// version it overwrites without counting as a read.
type edge struct {
	from  NodeIndex
	to    NodeIndex
	usage framegraph.ResourceUsage
	write bool
}

type nodeKind uint8

const (
	nodeKindPass nodeKind = iota
	nodeKindResource
)

// node is one vertex of the heterogeneous graph: a tagged union of pass and
// resource payloads plus the culling bookkeeping shared by both.
type node struct {
	kind     nodeKind
	pass     *passNode
	resource *resourceNode

	refCount   uint16
	uncullable bool
}

// culled reports whether the node has been (or would be) dropped by the
// culling pass: nothing references it and no side effect pins it.
func (n *node) culled() bool {
	return n.refCount == 0 && !n.uncullable
}

func (n *node) name() string {
	if n.kind == nodeKindPass {
		return n.pass.name
	}
	return n.resource.name
}

// passNode is the payload of a pass vertex.
type passNode struct {
	name  string
	queue framegraph.Queue
	kind  framegraph.PassKind

	execute    framegraph.ExecuteFunc
	renderExec framegraph.RenderExecuteFunc
	renderPass RenderPass
}

// resourceNode is the payload of a resource vertex: either the base version
// created or imported into the frame (generation 0), or a ref allocated by a
// write, pointing back at the version it superseded.
type resourceNode struct {
	name  string
	rtype framegraph.ResourceType

	texture framegraph.TextureCreateInfo
	buffer  framegraph.BufferCreateInfo

	imported        bool
	importedTexture framegraph.TextureView
	importedBuffer  framegraph.BufferView

	// creator is the pass node that created (generation 0) or wrote
	// (generation > 0) this version. Invalid for imported base versions.
	creator NodeIndex
	// parent is the version this ref supersedes; equal to the node's own index
	// for generation 0.
	parent     NodeIndex
	generation uint16
}

// TextureHandle is a typed reference to one version of a texture in the node
// graph. Unlike the first-generation handle, writing through a Builder returns
// a new handle naming the new version.
type TextureHandle struct {
	node NodeIndex
	ok   bool
}

// IsValid reports whether the handle was produced by a Builder or Import call.
func (h TextureHandle) IsValid() bool { return h.ok }

// BufferHandle is a typed reference to one version of a buffer in the node
// graph.
type BufferHandle struct {
	node NodeIndex
	ok   bool
}

// IsValid reports whether the handle was produced by a Builder or Import call.
func (h BufferHandle) IsValid() bool { return h.ok }
