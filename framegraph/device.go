package framegraph

// DeviceContext is the backend capability the FrameGraph depends on to realize
// transient resources and submit recorded work. A concrete implementation wraps
// a real graphics API (the gpu package in this module backs it with WebGPU); the
// FrameGraph package itself never imports a graphics API directly so that it can
// be tested with a fake DeviceContext.
type DeviceContext interface {
	// CreateTexture allocates the backing resource for a transient texture
	// declared through Builder.CreateTexture. Called once per realized texture,
	// immediately before the first pass that touches it executes.
	CreateTexture(info TextureCreateInfo) (TextureView, error)
	// CreateBuffer allocates the backing resource for a transient buffer
	// declared through Builder.CreateBuffer.
	CreateBuffer(info BufferCreateInfo) (BufferView, error)
	// DestroyTexture/DestroyBuffer release a previously realized transient
	// resource. Called once per realized resource after the frame's last
	// consuming pass has executed.
	DestroyTexture(view TextureView)
	DestroyBuffer(view BufferView)

	// UpdateBuffer uploads the given regions into a realized buffer from the
	// host. The buffer must have been created with MemoryTypeHostVisible or a
	// transfer-destination usage flag.
	UpdateBuffer(view BufferView, regions []BufferUpdate) error

	// NewCommandEncoder returns a fresh CommandEncoder bound to this device,
	// ready to have begin_command_buffer-equivalent setup performed on it.
	NewCommandEncoder() CommandEncoder

	// QueueFamilyIndices reports which physical hardware queue family each
	// abstract Queue maps to. The planner compares families by index to decide
	// whether two passes share a queue or need an ownership transfer.
	QueueFamilyIndices() QueueFamilyIndices

	// Submit hands a batch of per-queue command submissions and any present
	// requests to the backend. Submissions are ordered: encoders within a
	// SubmitInfo run in order, SubmitInfo entries are submitted in order, and a
	// later SubmitInfo may depend on an earlier one completing only through the
	// barriers the FrameGraph itself recorded.
	Submit(submits []SubmitInfo, presents []PresentInfo) error
}

// BufferUpdate is one host-to-buffer upload region passed to
// DeviceContext.UpdateBuffer.
type BufferUpdate struct {
	Offset uint64
	Data   []byte
}

// TextureView is the backend-native handle a realized texture resource resolves
// to in the Registry. The FrameGraph package treats it as opaque.
type TextureView interface {
	// DebugName returns the name the resource was created with, for logging.
	DebugName() string
}

// BufferView is the backend-native handle a realized buffer resource resolves
// to in the Registry.
type BufferView interface {
	DebugName() string
}

// GraphicsPipeline and ComputePipeline are opaque backend pipeline state
// objects a pass's execute callback binds before recording draws or
// dispatches. The FrameGraph never creates pipelines; clients build them
// against the concrete backend and thread them into execute callbacks.
type GraphicsPipeline interface {
	DebugName() string
}

type ComputePipeline interface {
	DebugName() string
}

// Viewport is the render-target rectangle plus depth range draw commands
// rasterize into.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// ScissorRect clips rasterization to a pixel rectangle.
type ScissorRect struct {
	X, Y          uint32
	Width, Height uint32
}

// CullingMode selects which triangle winding a graphics pipeline discards.
type CullingMode uint8

const (
	CullingModeNone CullingMode = iota
	CullingModeFront
	CullingModeBack
)

// IndexFormat is the element width of a bound index buffer.
type IndexFormat uint8

const (
	IndexFormatUint16 IndexFormat = iota
	IndexFormatUint32
)

// BufferCopy describes one region of a buffer-to-buffer copy.
type BufferCopy struct {
	SourceOffset      uint64
	DestinationOffset uint64
	Size              uint64
}

// CommandEncoder records a single command buffer's worth of work: the barriers
// the planner computed plus whatever draw/dispatch/copy commands a pass's
// execute callback issues against it.
type CommandEncoder interface {
	BeginCommandBuffer()
	EndCommandBuffer()

	// BeginRegion/EndRegion bracket a pass's recorded commands with a debug
	// marker carrying the pass's name, for GPU capture tooling. A backend with
	// nothing to attach the marker to may implement both as no-ops.
	BeginRegion(name string)
	EndRegion()

	// BeginRenderPass/EndRenderPass bracket a PassKindRender pass's draw
	// commands. Only called between BeginRegion/EndRegion for render passes.
	BeginRenderPass(pass RenderPass)
	EndRenderPass()

	// PushConstants uploads a small block of per-draw data at the given byte
	// offset of the pipeline's push-constant range.
	PushConstants(offset uint32, data []byte)

	// BindGraphicsPipeline/SetViewport/SetScissor/SetCullingMode/BindIndexBuffer
	// configure draw state. Only valid between BeginRenderPass and
	// EndRenderPass.
	BindGraphicsPipeline(pipeline GraphicsPipeline)
	SetViewport(viewport Viewport)
	SetScissor(rect ScissorRect)
	SetCullingMode(mode CullingMode)
	BindIndexBuffer(buffer BufferView, format IndexFormat, offset uint64)

	// Draw commands. Only valid between BeginRenderPass and EndRenderPass, with
	// a graphics pipeline bound.
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	DrawIndirect(args BufferView, offset uint64)
	DrawIndexedIndirect(args BufferView, offset uint64)

	// Dispatch commands. Only valid outside a render pass, with a compute
	// pipeline bound.
	BindComputePipeline(pipeline ComputePipeline)
	Dispatch(groupsX, groupsY, groupsZ uint32)
	DispatchIndirect(args BufferView, offset uint64)

	// Copy commands. Only valid outside a render pass.
	BufferCopyToBuffer(source, destination BufferView, regions []BufferCopy)
	TextureCopyToTexture(source, destination TextureView)

	// InsertGlobalBarrier, InsertTextureBarrier and InsertBufferBarrier record
	// the synchronization the planner computed for this pass's before/after
	// slots, in emission order: the global barrier first, then texture
	// barriers, then buffer barriers.
	InsertGlobalBarrier(barrier GlobalBarrier)
	InsertTextureBarrier(barrier TextureBarrier)
	InsertBufferBarrier(barrier BufferBarrier)
}

// SubmitInfo is one queue submission: every encoder in Encoders runs on Queue,
// waiting on the synchronization stage mask SynchronizationStage before
// executing its own recorded barriers and commands.
type SubmitInfo struct {
	Queue                Queue
	SynchronizationStage SynchronizationStage
	Encoders             []CommandEncoder
}

// PresentInfo is one swapchain present request, resolved from a PresentPass at
// execute time.
type PresentInfo struct {
	Swapchain             Swapchain
	Texture               TextureView
	TexturePreviousAccess Access
}

// Swapchain is the backend-native handle a present pass hands its frame back to.
// The FrameGraph package never creates or owns one; the client imports a
// swapchain texture and declares it as the present pass's source.
type Swapchain interface {
	DebugName() string
}

// QueueFamilyIndices maps the four FrameGraph queues to the backend's native
// hardware queue family indices. A DeviceContext implementation supplies this so
// callers can tell, e.g., whether the device exposes a dedicated async compute
// queue or folds it onto the graphics family.
type QueueFamilyIndices struct {
	Graphics uint32
	Compute  uint32
	Transfer uint32
	Present  uint32
}
