package framegraph

import "fmt"

// Queue identifies which hardware queue a pass's commands are submitted to. The
// planner uses this to decide same-queue coalescing versus cross-queue ownership
// transfer barriers, and the executor uses it to decide submission
// boundaries.
type Queue uint8

const (
	QueueGraphics Queue = iota
	QueueAsyncCompute
	QueueTransfer
	QueuePresent
)

func (q Queue) String() string {
	switch q {
	case QueueGraphics:
		return "Graphics"
	case QueueAsyncCompute:
		return "AsyncCompute"
	case QueueTransfer:
		return "Transfer"
	case QueuePresent:
		return "Present"
	default:
		return "Unknown"
	}
}

// SynchronizationStage is a bitmask of pipeline stages a barrier waits on or
// signals from. mapQueueToSynchronizationStage derives the canonical stage mask
// for a queue's submissions.
type SynchronizationStage uint8

const (
	StageNone                SynchronizationStage = 0
	StageTopOfPipe           SynchronizationStage = 1 << 0
	StageBottomOfPipe        SynchronizationStage = 1 << 1
	StageEarlyFragmentTests  SynchronizationStage = 1 << 2
	StageLateFragmentTests   SynchronizationStage = 1 << 3
	StageVertexShader        SynchronizationStage = 1 << 4
	StageFragmentShader      SynchronizationStage = 1 << 5
	StageComputeShader       SynchronizationStage = 1 << 6
	StageTransfer            SynchronizationStage = 1 << 7
	StageAllGraphics         = StageTopOfPipe | StageBottomOfPipe | StageEarlyFragmentTests |
		StageLateFragmentTests | StageVertexShader | StageFragmentShader
)

// mapQueueToSynchronizationStage returns the stage mask a SubmitInfo on queue q
// should wait on by default: graphics submissions cover both the graphics and
// compute stages (a graphics queue can run either), present submissions only
// need the bottom of the pipe since the frame's rendering has already been
// ordered by barriers.
func mapQueueToSynchronizationStage(q Queue) SynchronizationStage {
	switch q {
	case QueueGraphics:
		return StageAllGraphics | StageComputeShader
	case QueueAsyncCompute:
		return StageComputeShader
	case QueueTransfer:
		return StageTransfer
	case QueuePresent:
		return StageBottomOfPipe
	default:
		return StageNone
	}
}

// PassKind distinguishes a generic compute/transfer pass from one that drives a
// hardware render pass with attachments.
type PassKind uint8

const (
	PassKindGeneric PassKind = iota
	PassKindRender
)

func (k PassKind) String() string {
	if k == PassKindRender {
		return "Render"
	}
	return "Generic"
}

// AttachmentLoadOp selects how a render pass attachment's existing contents are
// treated when the pass begins.
type AttachmentLoadOp uint8

const (
	LoadOpLoad AttachmentLoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

// AttachmentStoreOp selects how a render pass attachment's contents are treated
// when the pass ends.
type AttachmentStoreOp uint8

const (
	StoreOpStore AttachmentStoreOp = iota
	StoreOpDontCare
)

// AttachmentOps bundles the load/store behavior of a single render pass
// attachment.
type AttachmentOps struct {
	Load  AttachmentLoadOp
	Store AttachmentStoreOp
}

var (
	// AttachmentOpsDontCare discards both the incoming and outgoing contents.
	AttachmentOpsDontCare = AttachmentOps{Load: LoadOpDontCare, Store: StoreOpDontCare}
	// AttachmentOpsInit clears the attachment on load and keeps the result.
	AttachmentOpsInit = AttachmentOps{Load: LoadOpClear, Store: StoreOpStore}
	// AttachmentOpsPreserve keeps the existing contents on load and keeps the
	// result on store.
	AttachmentOpsPreserve = AttachmentOps{Load: LoadOpLoad, Store: StoreOpStore}
)

// ClearValue is the color a color attachment is cleared to when its AttachmentOps
// specifies LoadOpClear. Only one of the fields is meaningful, selected by the
// attachment's texture format; callers set whichever matches.
type ClearValue struct {
	Float [4]float32
	Int   [4]int32
	Uint  [4]uint32
}

// ClearDepthStencil is the depth/stencil pair a depth attachment is cleared to.
type ClearDepthStencil struct {
	Depth   float32
	Stencil uint32
}

// attachmentTextureKind tags which of AttachmentTexture's two fields is the one
// actually populated. A validity check on the handle itself is not enough: the
// zero ResourceId is a real resource (the first one created), so an unset
// Texture field is indistinguishable from a genuine reference to resource 0.
type attachmentTextureKind uint8

const (
	attachmentKindTexture attachmentTextureKind = iota
	attachmentKindView
)

// AttachmentTexture names the render target of a single attachment: either a
// whole texture or a view taken from one. Construct one with
// NewAttachmentTexture or NewAttachmentView rather than a bare
// struct literal, so the kind tag always matches the populated field.
type AttachmentTexture struct {
	kind    attachmentTextureKind
	Texture TextureHandle
	View    TextureViewHandle
}

// NewAttachmentTexture builds an AttachmentTexture naming a whole texture.
func NewAttachmentTexture(h TextureHandle) AttachmentTexture {
	return AttachmentTexture{kind: attachmentKindTexture, Texture: h}
}

// NewAttachmentView builds an AttachmentTexture naming a view taken from a
// texture.
func NewAttachmentView(h TextureViewHandle) AttachmentTexture {
	return AttachmentTexture{kind: attachmentKindView, View: h}
}

// resourceId returns the underlying resource this attachment texture resolves
// to, selected by the kind tag rather than by probing handle validity.
func (a AttachmentTexture) resourceId() ResourceId {
	if a.kind == attachmentKindView {
		return a.View.id
	}
	return a.Texture.id
}

// ColorAttachment describes one color render target of a RenderPass. Access is
// left zero by setup code; the barrier planner fills it in during Compile from
// the resource's last-usage timeline, so an execute callback can rely on it
// being populated by the time it runs. ResolvedView and ResolvedResolveView
// are likewise left zero by setup code; Execute fills them in from the
// Registry immediately before the pass's command encoder begins the hardware
// render pass, so a DeviceContext's BeginRenderPass never has to resolve
// handles itself.
type ColorAttachment struct {
	Ops                 AttachmentOps
	Texture             AttachmentTexture
	ResolveTexture      *AttachmentTexture
	ClearValue          ClearValue
	Access              Access
	ResolvedView        TextureView
	ResolvedResolveView TextureView
}

// DepthStencilAttachment describes the depth/stencil render target of a
// RenderPass. Access and ResolvedView are filled in by Compile/Execute, like
// ColorAttachment's.
type DepthStencilAttachment struct {
	Ops            AttachmentOps
	StencilOps     AttachmentOps
	Texture        AttachmentTexture
	ResolveTexture *AttachmentTexture
	ClearValue     ClearDepthStencil
	Access         Access
	ResolvedView   TextureView
}

// RenderPass is the attachment layout a PassKindRender pass draws into. An
// execute callback resolves each AttachmentTexture to a real backend handle
// through Registry.ResolveAttachment as it records its draw commands.
type RenderPass struct {
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthStencilAttachment
}

// resourceAccess records one (resource, usage, isWrite) declaration a pass made
// against the builder, in declaration order.
type resourceAccess struct {
	resource ResourceId
	usage    ResourceUsage
	isWrite  bool
}

// ExecuteFunc is the callback a generic pass runs during execution. It receives
// the Registry to resolve any handles the pass captured, the CommandEncoder to
// record work into, and the device context for backend queries.
type ExecuteFunc func(ctx DeviceContext, registry *Registry, encoder CommandEncoder)

// RenderExecuteFunc is the callback a render pass runs during execution. It
// receives the fully resolved RenderPass attachment set alongside the same
// arguments ExecuteFunc receives.
type RenderExecuteFunc func(ctx DeviceContext, registry *Registry, encoder CommandEncoder, pass RenderPass)

// pass is the FrameGraph's internal representation of one registered pass,
// generic or render. Builder populates reads/writes as client code calls
// Read/Write against it; compile() consumes them to build the dependency graph
// and barrier plan.
type pass struct {
	id    PassId
	name  string
	kind  PassKind
	queue Queue

	renderPass RenderPass
	execute    ExecuteFunc
	renderExec RenderExecuteFunc

	reads   []resourceAccess
	writes  []resourceAccess
	creates []ResourceId

	// level is the dependency level assigned during Compile: the length
	// of the longest path from any root pass to this one.
	level int
}

func (p *pass) String() string {
	return fmt.Sprintf("%s(%q, %s/%s)", p.id, p.name, p.kind, p.queue)
}

// touchedResources returns every distinct resource this pass reads or writes:
// first the read resources in declaration order, then any written-only ones.
// combinedUsage gives the usage mask for each.
func (p *pass) touchedResources() []ResourceId {
	seen := make(map[ResourceId]bool)
	var out []ResourceId
	for _, a := range p.reads {
		if !seen[a.resource] {
			seen[a.resource] = true
			out = append(out, a.resource)
		}
	}
	for _, a := range p.writes {
		if !seen[a.resource] {
			seen[a.resource] = true
			out = append(out, a.resource)
		}
	}
	return out
}

// combinedUsage ORs every usage declared against resource id across both reads
// and writes on this pass, used by the attachment-legality check.
func (p *pass) combinedUsage(id ResourceId) ResourceUsage {
	var u ResourceUsage
	for _, a := range p.reads {
		if a.resource == id {
			u |= a.usage
		}
	}
	for _, a := range p.writes {
		if a.resource == id {
			u |= a.usage
		}
	}
	return u
}

// isRead/isWritten report whether the pass declared a read/write against id.
func (p *pass) isRead(id ResourceId) bool {
	for _, a := range p.reads {
		if a.resource == id {
			return true
		}
	}
	return false
}

func (p *pass) isWritten(id ResourceId) bool {
	for _, a := range p.writes {
		if a.resource == id {
			return true
		}
	}
	return false
}
