//go:build !nogpu

// Package gpu records overlay batches with gogpu/wgpu.
//
// This is an internal package used by the public gpu backend.
//
// # Pipelines
//
// Two shader programs are embedded as WGSL:
//
//   - flat_color: clip-space positions, one color uniform
//   - textured_alpha: projection * model_view transform, texture unit 0
//     with a nearest sampler, output alpha taken from the color uniform
//
// Each shader gets one render pipeline per primitive (line list, line
// strip, triangle list), created on first use with straight alpha
// blending. Shaders can be pre-compiled to SPIR-V with naga.
//
// # Frame resources
//
// A recorded batch owns its vertex, index and uniform buffers and its bind
// group until Renderer.EndFrame.
package gpu
