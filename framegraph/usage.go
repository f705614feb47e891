package framegraph

import "strings"

// ResourceUsage is a bitmask describing how a pass intends to use a resource. The
// FrameGraph tracks a usage mask per (pass, resource) separately for reads and writes;
// the two masks are OR-combined when the barrier planner needs the pass's overall
// access pattern.
type ResourceUsage uint8

const (
	// UsageNone grants no access.
	UsageNone ResourceUsage = 0
	// UsageColorAttachment marks the resource as a render target color attachment.
	UsageColorAttachment ResourceUsage = 1 << 0
	// UsageDepthStencilAttachment marks the resource as a depth/stencil attachment.
	UsageDepthStencilAttachment ResourceUsage = 1 << 1
	// UsageShaderGraphics marks the resource as bound to a graphics pipeline shader
	// stage (SRV when read, UAV when written).
	UsageShaderGraphics ResourceUsage = 1 << 2
	// UsageShaderCompute marks the resource as bound to a compute pipeline shader
	// stage (SRV when read, UAV when written).
	UsageShaderCompute ResourceUsage = 1 << 3
	// UsageIndirectBuffer marks a buffer consumed as indirect draw/dispatch
	// arguments. Always a read regardless of the write flag passed to Read/Write.
	UsageIndirectBuffer ResourceUsage = 1 << 4
	// UsageIndexBuffer marks a buffer consumed as an index buffer. Always a read
	// regardless of the write flag passed to Read/Write.
	UsageIndexBuffer ResourceUsage = 1 << 5
	// UsageTransfer marks the resource as the source or destination of a copy
	// operation.
	UsageTransfer ResourceUsage = 1 << 6

	// UsageAll is the union of every usage flag, used as the legality mask.
	UsageAll = UsageColorAttachment | UsageDepthStencilAttachment | UsageShaderGraphics |
		UsageShaderCompute | UsageIndirectBuffer | UsageIndexBuffer | UsageTransfer
)

// Has reports whether all bits of other are set in u.
func (u ResourceUsage) Has(other ResourceUsage) bool { return u&other == other }

// Intersects reports whether u and other share any bit.
func (u ResourceUsage) Intersects(other ResourceUsage) bool { return u&other != 0 }

// String renders the set flags for diagnostics, e.g. "COLOR_ATTACHMENT|TRANSFER".
func (u ResourceUsage) String() string {
	if u == UsageNone {
		return "NONE"
	}
	var names []string
	for _, f := range []struct {
		bit  ResourceUsage
		name string
	}{
		{UsageColorAttachment, "COLOR_ATTACHMENT"},
		{UsageDepthStencilAttachment, "DEPTH_STENCIL_ATTACHMENT"},
		{UsageShaderGraphics, "SHADER_GRAPHICS"},
		{UsageShaderCompute, "SHADER_COMPUTE"},
		{UsageIndirectBuffer, "INDIRECT_BUFFER"},
		{UsageIndexBuffer, "INDEX_BUFFER"},
		{UsageTransfer, "TRANSFER"},
	} {
		if u.Has(f.bit) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// legalAttachmentCompanions lists, for each attachment usage, the full set of usage
// flags a pass is allowed to combine it with on the same resource. Any bit
// outside this set alongside the attachment usage is an IllegalUsageCombination.
var legalAttachmentCompanions = map[ResourceUsage]ResourceUsage{
	UsageColorAttachment:        UsageColorAttachment | UsageShaderGraphics | UsageShaderCompute | UsageTransfer,
	UsageDepthStencilAttachment: UsageDepthStencilAttachment | UsageShaderGraphics | UsageShaderCompute | UsageTransfer,
}

// checkAttachmentLegality enforces the attachment rule: a texture carrying COLOR_ATTACHMENT or
// DEPTH_STENCIL_ATTACHMENT in a pass may only otherwise carry SHADER_GRAPHICS,
// SHADER_COMPUTE or TRANSFER on that same pass.
func checkAttachmentLegality(combined ResourceUsage) (offender ResourceUsage, ok bool) {
	for attachment, allowed := range legalAttachmentCompanions {
		if combined.Has(attachment) && combined&^allowed != 0 {
			return attachment, false
		}
	}
	return UsageNone, true
}
