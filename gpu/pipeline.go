package gpu

import "github.com/cogentcore/webgpu/wgpu"

// GraphicsPipeline wraps a wgpu render pipeline so it can be bound through
// framegraph.CommandEncoder. Pipeline creation stays outside the frame graph;
// clients build the wgpu.RenderPipeline against Device.Raw and wrap it here.
type GraphicsPipeline struct {
	name string
	raw  *wgpu.RenderPipeline
}

func NewGraphicsPipeline(name string, raw *wgpu.RenderPipeline) *GraphicsPipeline {
	return &GraphicsPipeline{name: name, raw: raw}
}

func (p *GraphicsPipeline) DebugName() string         { return p.name }
func (p *GraphicsPipeline) Raw() *wgpu.RenderPipeline { return p.raw }

// ComputePipeline wraps a wgpu compute pipeline the same way.
type ComputePipeline struct {
	name string
	raw  *wgpu.ComputePipeline
}

func NewComputePipeline(name string, raw *wgpu.ComputePipeline) *ComputePipeline {
	return &ComputePipeline{name: name, raw: raw}
}

func (p *ComputePipeline) DebugName() string          { return p.name }
func (p *ComputePipeline) Raw() *wgpu.ComputePipeline { return p.raw }
