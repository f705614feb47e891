package framegraph

import "fmt"

// CycleError is returned by Compile when the topological sort's DFS closes an
// edge back onto a pass still on its traversal stack.
type CycleError struct {
	Pass PassId
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("framegraph: cycle detected while sorting passes (closed back onto %s)", e.Pass)
}

// DuplicateAttachmentError is returned when a render pass's setup callback
// declares the same resource as two different attachments.
type DuplicateAttachmentError struct {
	Pass     PassId
	Resource ResourceId
}

func (e *DuplicateAttachmentError) Error() string {
	return fmt.Sprintf("framegraph: %s declares %s as more than one render pass attachment", e.Pass, e.Resource)
}

// IllegalUsageCombinationError is returned when a pass combines an attachment
// usage flag with a usage flag outside that attachment's legal companion set.
type IllegalUsageCombinationError struct {
	Pass      PassId
	Resource  ResourceId
	Attachment ResourceUsage
	Combined  ResourceUsage
}

func (e *IllegalUsageCombinationError) Error() string {
	return fmt.Sprintf(
		"framegraph: %s uses %s as %s alongside incompatible usage %s",
		e.Pass, e.Resource, e.Attachment, e.Combined,
	)
}

// MissingResourceError is returned when a pass reads or writes a handle that was
// never created or imported into the graph.
type MissingResourceError struct {
	Pass     PassId
	Resource ResourceId
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("framegraph: %s references %s, which was never created or imported", e.Pass, e.Resource)
}

// UnusedResourceError is returned by Compile when a present pass names a
// texture that no pass in the frame ever produced; unlike UnusedResourceWarning
// (a created-but-never-touched resource), this is fatal because the present
// pass has nothing to hand to the swapchain.
type UnusedResourceError struct {
	Texture TextureHandle
}

func (e *UnusedResourceError) Error() string {
	return fmt.Sprintf("framegraph: present texture %s was never produced by any pass", e.Texture)
}

// PresentPreconditionFailedError is returned by AddPresentPass when the source
// texture fails one of the present preconditions (PRESENT usage bit,
// presentable format, optimal tiling, 2D, single-sampled).
type PresentPreconditionFailedError struct {
	Texture TextureHandle
	Reason  string
}

func (e *PresentPreconditionFailedError) Error() string {
	return fmt.Sprintf("framegraph: texture %s cannot be used in a present pass: %s", e.Texture, e.Reason)
}

// UnusedResourceWarning is not an error returned from any operation;
// FrameGraph.UnusedResources collects these for resources that were created or imported but never read or
// written by any pass, so callers can surface them through their own logging.
type UnusedResourceWarning struct {
	Resource ResourceId
	Name     string
}

func (w UnusedResourceWarning) String() string {
	return fmt.Sprintf("framegraph: resource %s (%q) was created but never used", w.Resource, w.Name)
}
