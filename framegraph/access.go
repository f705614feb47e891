package framegraph

// Access is a hardware-level memory access mask, the target of the ResourceUsage →
// Access mapping. Barrier records carry Access values rather than ResourceUsage
// values because a single usage can expand to different Access bits depending on
// whether the pass reads, writes, or both.
type Access uint32

const (
	// AccessNone grants no access and is the implicit "before anyone touched it"
	// state for a resource's first use.
	AccessNone Access = 0

	AccessTransferRead  Access = 1 << 0
	AccessTransferWrite Access = 1 << 1

	AccessSRVGraphics Access = 1 << 2
	AccessSRVCompute  Access = 1 << 3
	AccessUAVGraphics Access = 1 << 4
	AccessUAVCompute  Access = 1 << 5

	AccessColorAttachmentRead  Access = 1 << 6
	AccessColorAttachmentWrite Access = 1 << 7

	AccessDepthStencilAttachmentRead  Access = 1 << 8
	AccessDepthStencilAttachmentWrite Access = 1 << 9

	AccessIndirectBuffer Access = 1 << 10
	AccessIndexBuffer    Access = 1 << 11

	// AccessTransferSource is the access a present pass transitions its texture
	// into: every backend that can present can also treat the frame as a transfer
	// source for the final blit/copy to the swapchain image.
	AccessTransferSource = AccessTransferRead
)

// Has reports whether all bits of other are set in a.
func (a Access) Has(other Access) bool { return a&other == other }

// mapResourceUsage is a pure function: it maps a ResourceUsage
// bitmask plus a read/write flag to the hardware Access mask a barrier should carry.
// INDIRECT_BUFFER and INDEX_BUFFER are read-only regardless of isWrite.
func mapResourceUsage(usage ResourceUsage, isWrite bool) Access {
	var access Access
	if isWrite {
		if usage.Has(UsageColorAttachment) {
			access |= AccessColorAttachmentWrite
		}
		if usage.Has(UsageDepthStencilAttachment) {
			access |= AccessDepthStencilAttachmentWrite
		}
		if usage.Has(UsageShaderGraphics) {
			access |= AccessUAVGraphics
		}
		if usage.Has(UsageShaderCompute) {
			access |= AccessUAVCompute
		}
		if usage.Has(UsageTransfer) {
			access |= AccessTransferWrite
		}
	} else {
		if usage.Has(UsageColorAttachment) {
			access |= AccessColorAttachmentRead
		}
		if usage.Has(UsageDepthStencilAttachment) {
			access |= AccessDepthStencilAttachmentRead
		}
		if usage.Has(UsageShaderGraphics) {
			access |= AccessSRVGraphics
		}
		if usage.Has(UsageShaderCompute) {
			access |= AccessSRVCompute
		}
		if usage.Has(UsageTransfer) {
			access |= AccessTransferRead
		}
	}
	// Indirect/index buffers are read-only regardless of which side set the flag.
	if usage.Has(UsageIndirectBuffer) {
		access |= AccessIndirectBuffer
	}
	if usage.Has(UsageIndexBuffer) {
		access |= AccessIndexBuffer
	}
	return access
}
