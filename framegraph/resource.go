package framegraph

import "fmt"

// TextureFormat enumerates the pixel formats a transient or imported texture can
// carry. The set mirrors the uncompressed integer/float permutations and block
// compressed formats a frame graph pass is expected to declare, plus the depth
// formats used by depth/stencil attachments.
type TextureFormat uint8

const (
	TextureFormatUndefined TextureFormat = iota

	TextureFormatR8Unorm
	TextureFormatR8Snorm
	TextureFormatR8Uint
	TextureFormatR8Sint

	TextureFormatR16Unorm
	TextureFormatR16Snorm
	TextureFormatR16Uint
	TextureFormatR16Sint
	TextureFormatR16Float

	TextureFormatR32Uint
	TextureFormatR32Sint
	TextureFormatR32Float

	TextureFormatRG8Unorm
	TextureFormatRG8Snorm
	TextureFormatRG8Uint
	TextureFormatRG8Sint

	TextureFormatRG16Float
	TextureFormatRG32Float

	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatRGBA8Snorm
	TextureFormatRGBA8Uint
	TextureFormatRGBA8Sint

	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb

	TextureFormatRGBA16Float
	TextureFormatRGBA16Uint
	TextureFormatRGBA16Sint

	TextureFormatRGBA32Float
	TextureFormatRGBA32Uint
	TextureFormatRGBA32Sint

	TextureFormatRGB10A2Unorm

	TextureFormatBC1RGBAUnorm
	TextureFormatBC1RGBAUnormSrgb
	TextureFormatBC3RGBAUnorm
	TextureFormatBC3RGBAUnormSrgb
	TextureFormatBC4RUnorm
	TextureFormatBC5RGUnorm
	TextureFormatBC6HRGBFloat
	TextureFormatBC7RGBAUnorm
	TextureFormatBC7RGBAUnormSrgb

	TextureFormatDepth16Unorm
	TextureFormatDepth24Plus
	TextureFormatDepth24PlusStencil8
	TextureFormatDepth32Float
)

var textureFormatNames = map[TextureFormat]string{
	TextureFormatUndefined:           "Undefined",
	TextureFormatR8Unorm:             "R8Unorm",
	TextureFormatR8Snorm:             "R8Snorm",
	TextureFormatR8Uint:              "R8Uint",
	TextureFormatR8Sint:              "R8Sint",
	TextureFormatR16Unorm:            "R16Unorm",
	TextureFormatR16Snorm:            "R16Snorm",
	TextureFormatR16Uint:             "R16Uint",
	TextureFormatR16Sint:             "R16Sint",
	TextureFormatR16Float:            "R16Float",
	TextureFormatR32Uint:             "R32Uint",
	TextureFormatR32Sint:             "R32Sint",
	TextureFormatR32Float:            "R32Float",
	TextureFormatRG8Unorm:            "RG8Unorm",
	TextureFormatRG8Snorm:            "RG8Snorm",
	TextureFormatRG8Uint:             "RG8Uint",
	TextureFormatRG8Sint:             "RG8Sint",
	TextureFormatRG16Float:           "RG16Float",
	TextureFormatRG32Float:           "RG32Float",
	TextureFormatRGBA8Unorm:          "RGBA8Unorm",
	TextureFormatRGBA8UnormSrgb:      "RGBA8UnormSrgb",
	TextureFormatRGBA8Snorm:          "RGBA8Snorm",
	TextureFormatRGBA8Uint:           "RGBA8Uint",
	TextureFormatRGBA8Sint:           "RGBA8Sint",
	TextureFormatBGRA8Unorm:          "BGRA8Unorm",
	TextureFormatBGRA8UnormSrgb:      "BGRA8UnormSrgb",
	TextureFormatRGBA16Float:         "RGBA16Float",
	TextureFormatRGBA16Uint:          "RGBA16Uint",
	TextureFormatRGBA16Sint:          "RGBA16Sint",
	TextureFormatRGBA32Float:         "RGBA32Float",
	TextureFormatRGBA32Uint:          "RGBA32Uint",
	TextureFormatRGBA32Sint:          "RGBA32Sint",
	TextureFormatRGB10A2Unorm:        "RGB10A2Unorm",
	TextureFormatBC1RGBAUnorm:        "BC1RGBAUnorm",
	TextureFormatBC1RGBAUnormSrgb:    "BC1RGBAUnormSrgb",
	TextureFormatBC3RGBAUnorm:        "BC3RGBAUnorm",
	TextureFormatBC3RGBAUnormSrgb:    "BC3RGBAUnormSrgb",
	TextureFormatBC4RUnorm:           "BC4RUnorm",
	TextureFormatBC5RGUnorm:          "BC5RGUnorm",
	TextureFormatBC6HRGBFloat:        "BC6HRGBFloat",
	TextureFormatBC7RGBAUnorm:        "BC7RGBAUnorm",
	TextureFormatBC7RGBAUnormSrgb:    "BC7RGBAUnormSrgb",
	TextureFormatDepth16Unorm:        "Depth16Unorm",
	TextureFormatDepth24Plus:         "Depth24Plus",
	TextureFormatDepth24PlusStencil8: "Depth24PlusStencil8",
	TextureFormatDepth32Float:        "Depth32Float",
}

func (f TextureFormat) String() string {
	if name, ok := textureFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("TextureFormat(%d)", uint8(f))
}

// IsDepth reports whether f carries depth (and possibly stencil) data rather than
// color data. A depth format may only be declared with UsageDepthStencilAttachment,
// UsageTransfer or UsageShaderGraphics/UsageShaderCompute (sampled depth), never
// UsageColorAttachment.
func (f TextureFormat) IsDepth() bool {
	switch f {
	case TextureFormatDepth16Unorm, TextureFormatDepth24Plus, TextureFormatDepth24PlusStencil8, TextureFormatDepth32Float:
		return true
	default:
		return false
	}
}

// IsCompressed reports whether f is a block compressed format. Compressed textures
// cannot be used as render target attachments of any kind.
func (f TextureFormat) IsCompressed() bool {
	switch f {
	case TextureFormatBC1RGBAUnorm, TextureFormatBC1RGBAUnormSrgb,
		TextureFormatBC3RGBAUnorm, TextureFormatBC3RGBAUnormSrgb,
		TextureFormatBC4RUnorm, TextureFormatBC5RGUnorm,
		TextureFormatBC6HRGBFloat, TextureFormatBC7RGBAUnorm, TextureFormatBC7RGBAUnormSrgb:
		return true
	default:
		return false
	}
}

// isValidPresentSource reports whether a texture of format f may be declared as the
// source resource of a present pass. Only the formats a swapchain can actually hand
// back to the platform compositor qualify: the standard 8-bit-per-channel RGBA/BGRA
// color formats, linear or sRGB encoded, and 10-bit RGB10A2Unorm.
func isValidPresentSource(f TextureFormat) bool {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSrgb,
		TextureFormatBGRA8Unorm, TextureFormatBGRA8UnormSrgb,
		TextureFormatRGB10A2Unorm:
		return true
	default:
		return false
	}
}

// MemoryType selects which heap a resource's backing allocation should live in.
type MemoryType uint8

const (
	// MemoryTypeDeviceLocal places the allocation in GPU-local memory, the right
	// choice for any resource only ever touched by GPU work.
	MemoryTypeDeviceLocal MemoryType = iota
	// MemoryTypeHostVisible places the allocation where the host can write it,
	// for resources updated from the CPU every frame.
	MemoryTypeHostVisible
)

func (m MemoryType) String() string {
	if m == MemoryTypeHostVisible {
		return "HostVisible"
	}
	return "DeviceLocal"
}

// TextureTiling selects the memory layout of a texture's backing allocation.
type TextureTiling uint8

const (
	// TextureTilingOptimal lets the backend choose an implementation-defined layout,
	// the correct choice for any texture only ever touched on the GPU.
	TextureTilingOptimal TextureTiling = iota
	// TextureTilingLinear lays the texture out row-major, required for textures the
	// host will map and read or write directly.
	TextureTilingLinear
)

// TextureUsageFlags is a bitmask of the hardware capabilities a texture's backing
// allocation must support. Distinct from ResourceUsage: ResourceUsage describes how
// a single pass touches the resource, TextureUsageFlags describes what the
// allocation as a whole must be capable of across its entire lifetime.
type TextureUsageFlags uint8

const (
	TextureUsageNone               TextureUsageFlags = 0
	TextureUsageColorAttachment    TextureUsageFlags = 1 << 0
	TextureUsageDepthAttachment    TextureUsageFlags = 1 << 1
	TextureUsageSRV                TextureUsageFlags = 1 << 2
	TextureUsageUAV                TextureUsageFlags = 1 << 3
	TextureUsageTransferSource     TextureUsageFlags = 1 << 4
	TextureUsageTransferDestination TextureUsageFlags = 1 << 5
	TextureUsagePresent            TextureUsageFlags = 1 << 6
)

func (f TextureUsageFlags) Has(other TextureUsageFlags) bool { return f&other == other }

// SampleCount is the MSAA sample count of a texture.
type SampleCount uint8

const (
	SampleCount1 SampleCount = 1
	SampleCount2 SampleCount = 2
	SampleCount4 SampleCount = 4
	SampleCount8 SampleCount = 8
)

// TextureDimension tags which member of TextureKind is populated.
type TextureDimension uint8

const (
	TextureDimension1D TextureDimension = iota
	TextureDimension2D
	TextureDimension3D
	TextureDimensionCube
)

func (d TextureDimension) String() string {
	switch d {
	case TextureDimension1D:
		return "1D"
	case TextureDimension2D:
		return "2D"
	case TextureDimension3D:
		return "3D"
	case TextureDimensionCube:
		return "Cube"
	default:
		return "Unknown"
	}
}

// TextureKind describes the shape of a texture. It is a flat descriptor rather than
// a variant type: Depth and Layers are ignored where the Dimension makes them
// meaningless (a 1D texture ignores Height/Depth, a non-array texture treats Layers
// as 1); the backend interprets the subset that applies.
type TextureKind struct {
	Dimension   TextureDimension
	Width       uint32
	Height      uint32
	Depth       uint32
	Layers      uint32
	MipCount    uint32
	SampleCount SampleCount
}

// TextureCreateInfo is the descriptor a client passes to Builder.CreateTexture. It
// is the virtual counterpart of the backend's real texture descriptor: the
// FrameGraph never allocates the backing texture itself, it only records this
// descriptor; Execute hands it to DeviceContext.CreateTexture immediately before
// the creator pass runs.
type TextureCreateInfo struct {
	Kind    TextureKind
	Format  TextureFormat
	Usage   TextureUsageFlags
	Tiling  TextureTiling
	Memory  MemoryType
	Name    string
}

// BufferUsageFlags is a bitmask of the hardware capabilities a buffer's backing
// allocation must support.
type BufferUsageFlags uint8

const (
	BufferUsageNone              BufferUsageFlags = 0
	BufferUsageSRV               BufferUsageFlags = 1 << 0
	BufferUsageUAV               BufferUsageFlags = 1 << 1
	BufferUsageIndirect          BufferUsageFlags = 1 << 2
	BufferUsageIndex             BufferUsageFlags = 1 << 3
	BufferUsageTransferSource    BufferUsageFlags = 1 << 4
	BufferUsageTransferDestination BufferUsageFlags = 1 << 5
)

func (f BufferUsageFlags) Has(other BufferUsageFlags) bool { return f&other == other }

// BufferCreateInfo is the descriptor a client passes to Builder.CreateBuffer.
type BufferCreateInfo struct {
	Size   uint64
	Usage  BufferUsageFlags
	Memory MemoryType
	Name   string
}

// resourceLifetime records how a virtual resource entered the graph: created by a
// pass during setup, or imported by the caller.
type resourceLifetime uint8

const (
	// lifetimeTransient resources are allocated by the executor for the duration of
	// the frame and torn down after the frame's work has been submitted.
	lifetimeTransient resourceLifetime = iota
	// lifetimeImported resources are owned by the caller (e.g. the swapchain's
	// backbuffer); the executor only tracks access to them, it never allocates or
	// frees the backing handle.
	lifetimeImported
)

// resource is the FrameGraph's internal bookkeeping record for a single virtual
// resource, texture or buffer. Builder and graph code populate it as passes declare
// reads and writes; the executor consults it during realization and teardown.
type resource struct {
	id       ResourceId
	rtype    ResourceType
	name     string
	lifetime resourceLifetime

	texture TextureCreateInfo
	buffer  BufferCreateInfo

	// creatorPass is the pass whose setup callback created this resource, or
	// NullPassId for an imported resource. The executor realizes a transient
	// resource immediately before its creator pass runs.
	creatorPass PassId

	// producers/consumers record every pass that writes or reads this resource, in
	// registration order, for unused-resource diagnostics.
	producers []PassId
	consumers []PassId
}

func newTextureResource(id ResourceId, info TextureCreateInfo, imported bool) *resource {
	lifetime := lifetimeTransient
	if imported {
		lifetime = lifetimeImported
	}
	return &resource{
		id:          id,
		rtype:       ResourceTypeTexture,
		name:        info.Name,
		lifetime:    lifetime,
		texture:     info,
		creatorPass: NullPassId,
	}
}

func newBufferResource(id ResourceId, info BufferCreateInfo, imported bool) *resource {
	lifetime := lifetimeTransient
	if imported {
		lifetime = lifetimeImported
	}
	return &resource{
		id:          id,
		rtype:       ResourceTypeBuffer,
		name:        info.Name,
		lifetime:    lifetime,
		buffer:      info,
		creatorPass: NullPassId,
	}
}

func (r *resource) isUnused() bool {
	return len(r.producers) == 0 && len(r.consumers) == 0
}
