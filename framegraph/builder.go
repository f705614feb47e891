package framegraph

// Builder is the façade a pass's setup callback receives. It is scoped to the
// single pass being registered and discarded once setup returns; the resource
// creations and read/write declarations made through it are what the compiler
// uses to build the dependency graph.
//
// Builder does not own any resource itself. create_texture/create_buffer only
// allocate a ResourceId and record a descriptor; the executor is what realizes
// the backing GPU resource, and only for passes the compiled graph actually
// keeps.
type Builder struct {
	graph *FrameGraph
	pass  *pass
}

// CreateTexture registers a transient texture as created by this pass and
// returns a handle setup code can thread into later Read/Write calls, either on
// this pass or on downstream passes it passes the handle to.
func (b *Builder) CreateTexture(name string, info TextureCreateInfo) TextureHandle {
	info.Name = name
	r := newTextureResource(b.graph.nextResourceId(), info, false)
	id := b.graph.addResource(r)
	r.creatorPass = b.pass.id
	b.pass.creates = append(b.pass.creates, id)
	return TextureHandle{id: id}
}

// CreateBuffer registers a transient buffer as created by this pass.
func (b *Builder) CreateBuffer(name string, info BufferCreateInfo) BufferHandle {
	info.Name = name
	r := newBufferResource(b.graph.nextResourceId(), info, false)
	id := b.graph.addResource(r)
	r.creatorPass = b.pass.id
	b.pass.creates = append(b.pass.creates, id)
	return BufferHandle{id: id}
}

// ReadTexture OR-merges usage into the pass's read set for handle's resource
// and returns the handle unchanged, so call sites can write
// `t := builder.ReadTexture(t, framegraph.UsageShaderGraphics)`.
func (b *Builder) ReadTexture(handle TextureHandle, usage ResourceUsage) TextureHandle {
	b.read(handle.id, usage)
	return handle
}

// WriteTexture OR-merges usage into the pass's write set for handle's resource.
func (b *Builder) WriteTexture(handle TextureHandle, usage ResourceUsage) TextureHandle {
	b.write(handle.id, usage)
	return handle
}

// ReadTextureView records a read against the resource a texture view was taken
// from. Views are always read-only: a pass that wants to write a texture must
// declare the write against the TextureHandle itself.
func (b *Builder) ReadTextureView(handle TextureViewHandle, usage ResourceUsage) TextureViewHandle {
	b.read(handle.id, usage)
	return handle
}

// ReadBuffer OR-merges usage into the pass's read set for handle's resource.
func (b *Builder) ReadBuffer(handle BufferHandle, usage ResourceUsage) BufferHandle {
	b.read(handle.id, usage)
	return handle
}

// WriteBuffer OR-merges usage into the pass's write set for handle's resource.
func (b *Builder) WriteBuffer(handle BufferHandle, usage ResourceUsage) BufferHandle {
	b.write(handle.id, usage)
	return handle
}

func (b *Builder) read(id ResourceId, usage ResourceUsage) {
	b.pass.reads = append(b.pass.reads, resourceAccess{resource: id, usage: usage, isWrite: false})
	if b.graph.resourceExists(id) {
		b.graph.noteConsumer(id, b.pass.id)
	}
}

func (b *Builder) write(id ResourceId, usage ResourceUsage) {
	b.pass.writes = append(b.pass.writes, resourceAccess{resource: id, usage: usage, isWrite: true})
	if b.graph.resourceExists(id) {
		b.graph.noteProducer(id, b.pass.id)
	}
}
