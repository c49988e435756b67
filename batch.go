package overlay

import "fmt"

// Batch is the committed form of a stream: the positions and texture
// coordinates as they will be uploaded, the index list generated for the
// topology, and the uniform state chosen for the draw.
//
// A Batch is built by Renderer.Commit and handed to a Backend. Backends
// must not retain it after Draw returns.
type Batch struct {
	// Topology is the topology the stream declared.
	Topology Topology

	// Primitive is the GPU primitive used for the draw.
	Primitive Primitive

	// Positions are the vertex positions. For LineLoop the first vertex
	// has been appended again to close the strip.
	Positions []Vec2

	// TexCoords is empty for untextured batches, otherwise one per
	// position.
	TexCoords []Vec2

	// Indices index into Positions. Nil for PrimitiveLineStrip.
	Indices []uint32

	// Color is the flat color uniform.
	Color RGBA

	// LineWidth is carried for completeness; backends ignore it.
	LineWidth float32

	// ModelView and Projection are the host transforms, set only for
	// textured batches.
	ModelView  Mat4
	Projection Mat4

	// Texture is the texture bound to unit 0, set only for textured
	// batches.
	Texture Texture
}

// Textured reports whether the batch uses the textured shader.
func (b *Batch) Textured() bool {
	return len(b.TexCoords) > 0
}

// DrawCount returns the number of indices (or strip vertices) the draw
// call covers.
func (b *Batch) DrawCount() int {
	if b.Primitive.Indexed() {
		return len(b.Indices)
	}
	return len(b.Positions)
}

// Triangles returns the triangles of a triangle-list batch as index
// triples. It returns nil for line primitives.
func (b *Batch) Triangles() [][3]uint32 {
	if b.Primitive != PrimitiveTriangleList {
		return nil
	}
	tris := make([][3]uint32, 0, len(b.Indices)/3)
	for i := 0; i+2 < len(b.Indices); i += 3 {
		tris = append(tris, [3]uint32{b.Indices[i], b.Indices[i+1], b.Indices[i+2]})
	}
	return tris
}

// BuildIndices returns the primitive and index list used to draw n
// vertices with topology t. Vertices that do not complete a primitive are
// left unreferenced. LineStrip and LineLoop return a nil index list; for
// LineLoop the caller closes the strip by repeating vertex 0.
//
// It returns ErrUnsupportedTopology for values outside the six topologies.
func BuildIndices(t Topology, n int) (Primitive, []uint32, error) {
	switch t {
	case Lines:
		idx := make([]uint32, 0, n/2*2)
		for i := 0; i+1 < n; i += 2 {
			idx = append(idx, uint32(i), uint32(i+1)) //nolint:gosec // vertex count fits uint32
		}
		return PrimitiveLineList, idx, nil

	case LineStrip, LineLoop:
		return PrimitiveLineStrip, nil, nil

	case Triangles:
		idx := make([]uint32, 0, n/3*3)
		for i := 0; i+2 < n; i += 3 {
			idx = append(idx, uint32(i), uint32(i+1), uint32(i+2)) //nolint:gosec // vertex count fits uint32
		}
		return PrimitiveTriangleList, idx, nil

	case TriangleFan:
		var idx []uint32
		if n >= 3 {
			idx = make([]uint32, 0, (n-2)*3)
		}
		for i := 1; i+1 < n; i++ {
			idx = append(idx, 0, uint32(i), uint32(i+1)) //nolint:gosec // vertex count fits uint32
		}
		return PrimitiveTriangleList, idx, nil

	case Quads:
		idx := make([]uint32, 0, n/4*6)
		for i := 0; i+3 < n; i += 4 {
			q := uint32(i) //nolint:gosec // vertex count fits uint32
			// Two triangles sharing the diagonal q -> q+2.
			idx = append(idx,
				q, q+1, q+2,
				q+2, q+3, q,
			)
		}
		return PrimitiveTriangleList, idx, nil

	default:
		return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedTopology, t)
	}
}
