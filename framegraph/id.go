// Package framegraph implements a declarative GPU frame graph: a scheduler that lets
// rendering code describe a frame as a directed graph of passes producing and consuming
// virtual resources, then compiles that description into an ordered command stream with
// correct synchronization and allocates the physical resources transient to the frame.
package framegraph

import "fmt"

// PassId is a dense identifier for a Pass within a FrameGraph. Ids are assigned in
// registration order starting at zero and are only meaningful for the FrameGraph that
// issued them.
type PassId uint32

// NullPassId marks the absence of a pass.
const NullPassId PassId = 0xffffffff

// String implements fmt.Stringer for diagnostic output.
func (id PassId) String() string {
	if id == NullPassId {
		return "<null-pass>"
	}
	return fmt.Sprintf("pass#%d", uint32(id))
}

// ResourceId is a dense identifier for a Resource (texture or buffer) within a
// FrameGraph. Ids are assigned in registration order, shared across textures and
// buffers, and are only meaningful for the FrameGraph that issued them.
type ResourceId uint32

// NullResourceId marks the absence of a resource.
const NullResourceId ResourceId = 0xffffffff

// String implements fmt.Stringer for diagnostic output.
func (id ResourceId) String() string {
	if id == NullResourceId {
		return "<null-resource>"
	}
	return fmt.Sprintf("resource#%d", uint32(id))
}

// ResourceType distinguishes the two kinds of resource a FrameGraph can manage.
type ResourceType uint8

const (
	// ResourceTypeBuffer identifies a linear GPU buffer resource.
	ResourceTypeBuffer ResourceType = iota
	// ResourceTypeTexture identifies an image resource (1D/2D/3D/Cube).
	ResourceTypeTexture
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeBuffer:
		return "Buffer"
	case ResourceTypeTexture:
		return "Texture"
	default:
		return "Unknown"
	}
}

// TextureHandle is a typed, opaque reference to a transient or imported texture
// resource. It carries no data beyond a dense ResourceId; the backing resource record
// lives in the FrameGraph's resource arena.
type TextureHandle struct {
	id ResourceId
}

// IsValid reports whether the handle refers to a real resource.
func (h TextureHandle) IsValid() bool { return h.id != NullResourceId }

// ResourceId returns the underlying dense identifier. Builder-internal and backend
// adapters use this to index into the resource arena; client code should treat handles
// as opaque.
func (h TextureHandle) ResourceId() ResourceId { return h.id }

func (h TextureHandle) String() string { return h.id.String() }

// TextureViewHandle is a typed, opaque reference to a texture view derived from a
// TextureHandle. Views share the resource id of the texture they are taken from; the
// extra type wrapper exists purely so attachment declarations can distinguish "the
// whole texture" from "a view of it" at the type level.
type TextureViewHandle struct {
	id ResourceId
}

// IsValid reports whether the handle refers to a real resource.
func (h TextureViewHandle) IsValid() bool { return h.id != NullResourceId }

// ResourceId returns the underlying dense identifier.
func (h TextureViewHandle) ResourceId() ResourceId { return h.id }

func (h TextureViewHandle) String() string { return h.id.String() }

// BufferHandle is a typed, opaque reference to a transient or imported buffer
// resource.
type BufferHandle struct {
	id ResourceId
}

// IsValid reports whether the handle refers to a real resource.
func (h BufferHandle) IsValid() bool { return h.id != NullResourceId }

// ResourceId returns the underlying dense identifier.
func (h BufferHandle) ResourceId() ResourceId { return h.id }

func (h BufferHandle) String() string { return h.id.String() }
