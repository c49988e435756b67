//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/overlay"
	"github.com/gogpu/wgpu/hal"
)

// Uniform buffer sizes.
//
//	flat:     color (vec4<f32>)                                   = 16 bytes
//	textured: model_view (mat4x4) + projection (mat4x4) + color   = 144 bytes
const (
	flatUniformSize     = 16
	texturedUniformSize = 144
)

// Vertex strides.
//
//	flat:     position (vec2<f32>)                        = 8 bytes
//	textured: position (vec2<f32>) + tex_coord (vec2<f32>) = 16 bytes
const (
	flatVertexStride     = 8
	texturedVertexStride = 16
)

// pipelineSet owns the GPU objects for one shader: the module, its bind
// group layout and pipeline layout, and one render pipeline per primitive.
// Pipelines are created on first use.
type pipelineSet struct {
	kind ShaderKind

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  map[overlay.Primitive]hal.RenderPipeline
}

func newPipelineSet(kind ShaderKind) *pipelineSet {
	return &pipelineSet{
		kind:      kind,
		pipelines: make(map[overlay.Primitive]hal.RenderPipeline),
	}
}

// ensure returns the render pipeline for prim, creating the shader module,
// layouts and pipeline as needed.
func (ps *pipelineSet) ensure(device hal.Device, prim overlay.Primitive, cfg Config) (hal.RenderPipeline, error) {
	if ps.shader == nil {
		if err := ps.createBase(device, cfg); err != nil {
			ps.destroy(device)
			return nil, err
		}
	}
	if p, ok := ps.pipelines[prim]; ok {
		return p, nil
	}
	p, err := ps.createPipeline(device, prim, cfg)
	if err != nil {
		return nil, err
	}
	ps.pipelines[prim] = p
	slogger().Info("overlay gpu: pipeline created",
		"shader", ps.kind.String(),
		"primitive", prim.String(),
		"format", cfg.Format,
		"samples", cfg.SampleCount)
	return p, nil
}

// createBase compiles the shader and creates the bind group and pipeline
// layouts.
func (ps *pipelineSet) createBase(device hal.Device, cfg Config) error {
	src, err := shaderModuleSource(ps.kind, cfg.SPIRV)
	if err != nil {
		return err
	}
	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  ps.kind.String() + "_shader",
		Source: src,
	})
	if err != nil {
		return fmt.Errorf("compile %s shader: %w", ps.kind, err)
	}
	ps.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   ps.kind.String() + "_bind_layout",
		Entries: bindLayoutEntries(ps.kind),
	})
	if err != nil {
		return fmt.Errorf("create %s bind group layout: %w", ps.kind, err)
	}
	ps.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            ps.kind.String() + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{ps.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline layout: %w", ps.kind, err)
	}
	ps.pipeLayout = pipeLayout
	return nil
}

func (ps *pipelineSet) createPipeline(device hal.Device, prim overlay.Primitive, cfg Config) (hal.RenderPipeline, error) {
	blend := gputypes.BlendStateAlpha()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s_%s_pipeline", ps.kind, prim),
		Layout: ps.pipeLayout,
		Vertex: hal.VertexState{
			Module:     ps.shader,
			EntryPoint: "vs_main",
			Buffers:    vertexLayout(ps.kind),
		},
		Fragment: &hal.FragmentState{
			Module:     ps.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    cfg.Format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: primitiveTopology(prim),
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: cfg.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s %s pipeline: %w", ps.kind, prim, err)
	}
	return pipeline, nil
}

// destroy releases all objects in reverse creation order.
func (ps *pipelineSet) destroy(device hal.Device) {
	if device == nil {
		return
	}
	for prim, p := range ps.pipelines {
		device.DestroyRenderPipeline(p)
		delete(ps.pipelines, prim)
	}
	if ps.pipeLayout != nil {
		device.DestroyPipelineLayout(ps.pipeLayout)
		ps.pipeLayout = nil
	}
	if ps.bindLayout != nil {
		device.DestroyBindGroupLayout(ps.bindLayout)
		ps.bindLayout = nil
	}
	if ps.shader != nil {
		device.DestroyShaderModule(ps.shader)
		ps.shader = nil
	}
}

// bindLayoutEntries returns the bind group layout for a shader:
//
//	Binding 0: uniforms (vertex+fragment)
//	Binding 1: texture_2d (fragment, textured only)
//	Binding 2: sampler (fragment, textured only)
func bindLayoutEntries(k ShaderKind) []gputypes.BindGroupLayoutEntry {
	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		},
	}
	if k != ShaderTextured {
		return entries
	}
	return append(entries,
		gputypes.BindGroupLayoutEntry{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
		gputypes.BindGroupLayoutEntry{
			Binding:    2,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	)
}

// vertexLayout returns the vertex buffer layout matching the shader's
// VertexInput:
//
//	location 0: position (vec2<f32>)
//	location 1: tex_coord (vec2<f32>, textured only)
func vertexLayout(k ShaderKind) []gputypes.VertexBufferLayout {
	if k == ShaderTextured {
		return []gputypes.VertexBufferLayout{
			{
				ArrayStride: texturedVertexStride,
				StepMode:    gputypes.VertexStepModeVertex,
				Attributes: []gputypes.VertexAttribute{
					{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
					{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // tex_coord
				},
			},
		}
	}
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: flatVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
			},
		},
	}
}

func primitiveTopology(p overlay.Primitive) gputypes.PrimitiveTopology {
	switch p {
	case overlay.PrimitiveLineList:
		return gputypes.PrimitiveTopologyLineList
	case overlay.PrimitiveLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}
