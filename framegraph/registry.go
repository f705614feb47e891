package framegraph

// Registry maps the virtual handles a pass declared against the Builder to the
// real backend handles the executor realized them as. A pass's execute callback
// receives the Registry to resolve any TextureHandle/BufferHandle it captured
// during setup into the DeviceContext-native handle it needs to record commands.
//
// The FrameGraph owns one Registry per compiled graph and repopulates it fresh
// every execute(); a Registry from a previous frame must not be retained past its
// frame's execution.
type Registry struct {
	textures map[ResourceId]TextureView
	buffers  map[ResourceId]BufferView
}

func newRegistry() *Registry {
	return &Registry{
		textures: make(map[ResourceId]TextureView),
		buffers:  make(map[ResourceId]BufferView),
	}
}

func (r *Registry) addTexture(handle TextureHandle, view TextureView) {
	r.textures[handle.id] = view
}

func (r *Registry) addBuffer(handle BufferHandle, view BufferView) {
	r.buffers[handle.id] = view
}

func (r *Registry) clear() {
	for k := range r.textures {
		delete(r.textures, k)
	}
	for k := range r.buffers {
		delete(r.buffers, k)
	}
}

// Texture resolves a TextureHandle to the backend-native view realized for it
// this frame. It panics if the handle was never realized, which only happens if
// a pass captured a handle it never declared through Builder.Read/Builder.Write.
func (r *Registry) Texture(handle TextureHandle) TextureView {
	view, ok := r.textures[handle.id]
	if !ok {
		panic("framegraph: texture handle " + handle.String() + " was never realized in this Registry")
	}
	return view
}

// TextureFromView resolves a TextureViewHandle the same way Texture resolves a
// TextureHandle; views share their parent texture's realized backend view.
func (r *Registry) TextureFromView(handle TextureViewHandle) TextureView {
	view, ok := r.textures[handle.id]
	if !ok {
		panic("framegraph: texture view handle " + handle.String() + " was never realized in this Registry")
	}
	return view
}

// Buffer resolves a BufferHandle to the backend-native view realized for it this
// frame.
func (r *Registry) Buffer(handle BufferHandle) BufferView {
	view, ok := r.buffers[handle.id]
	if !ok {
		panic("framegraph: buffer handle " + handle.String() + " was never realized in this Registry")
	}
	return view
}

// ResolveAttachment resolves a ColorAttachment or DepthStencilAttachment's
// AttachmentTexture to its realized backend view, dispatching on the kind tag
// rather than handle validity so a reference to resource id 0 resolves
// correctly. Execute callbacks use this instead of inspecting the kind tag
// themselves.
func (r *Registry) ResolveAttachment(a AttachmentTexture) TextureView {
	if a.kind == attachmentKindView {
		return r.TextureFromView(a.View)
	}
	return r.Texture(a.Texture)
}
