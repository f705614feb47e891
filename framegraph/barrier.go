package framegraph

// GlobalBarrier is a coarse, resource-agnostic barrier: a full pipeline
// wait-and-flush between two access patterns. The planner emits at most one per
// pass per before/after slot, used whenever a buffer access folds into it rather
// than getting its own dedicated BufferBarrier.
type GlobalBarrier struct {
	PreviousAccess Access
	NextAccess     Access
}

func (b GlobalBarrier) isNoop() bool {
	return b.PreviousAccess == AccessNone && b.NextAccess == AccessNone
}

// TextureBarrier is a layout transition and/or queue ownership transfer for a
// single texture resource.
type TextureBarrier struct {
	Texture          ResourceId
	PreviousAccess   Access
	NextAccess       Access
	SourceQueue      *Queue
	DestinationQueue *Queue
	// DiscardContents is true when the pass writes the texture without ever
	// reading it, letting the backend skip preserving its previous contents
	// across the transition.
	DiscardContents bool
}

// BufferBarrier is an execution/memory dependency and/or queue ownership
// transfer for a single buffer resource.
type BufferBarrier struct {
	Buffer           ResourceId
	PreviousAccess   Access
	NextAccess       Access
	SourceQueue      *Queue
	DestinationQueue *Queue
}

// barrierSlots holds the barriers the planner decided to run before a pass
// executes and the barriers it decided to run after, for one of the three
// barrier kinds.
type globalBarrierSlots struct {
	before GlobalBarrier
	after  GlobalBarrier
}

type textureBarrierSlots struct {
	before []TextureBarrier
	after  []TextureBarrier
}

type bufferBarrierSlots struct {
	before []BufferBarrier
	after  []BufferBarrier
}

// passBarriers bundles every barrier the planner attached to one pass, in the
// emission order the executor uses: global, then textures, then buffers.
type passBarriers struct {
	global   globalBarrierSlots
	textures textureBarrierSlots
	buffers  bufferBarrierSlots
}
