// Package overlay translates immediate-mode drawing calls into batched
// draws for 2D screen-space overlays.
//
// # Overview
//
// A caller declares a topology, emits vertices (and optionally texture
// coordinates) one at a time, and commits. The commit builds an index
// list for the topology, picks a flat-color or textured shader, binds its
// uniforms, and issues a single draw through a Backend. The stream is then
// cleared and ready for the next batch.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/overlay"
//	    "github.com/gogpu/overlay/gpu"
//	)
//
//	backend, _ := gpu.NewBackend(device, queue)
//	r := overlay.NewRenderer(backend)
//	s := overlay.NewStream()
//
//	// Inside the host paint callback:
//	s.SetColor(1, 1, 1, 0.8)
//	_ = s.BeginBatch(overlay.Quads)
//	_ = s.AppendTexCoord(0, 0)
//	_ = s.AppendVertex(10, 10)
//	// ... three more corners ...
//	err := r.Commit(s, overlay.BindTexture(frame, tex))
//
// # Topologies
//
// Lines, LineStrip, LineLoop, Triangles, TriangleFan and Quads are
// supported. Quads are split into two triangles along the diagonal from
// the first to the third vertex of each group; winding is not checked.
//
// # Shaders
//
// Batches without texture coordinates use a flat shader whose only
// uniform is the color. Textured batches use the host's model-view and
// projection matrices and sample the texture on unit 0; the fragment keeps
// the texel's RGB and replaces its alpha with the color's alpha, so the
// color alpha acts as a global opacity.
//
// # Backends
//
// The gpu sub-package draws with gogpu/wgpu. The soft sub-package draws
// into an image on the CPU with the same shading rules.
package overlay
