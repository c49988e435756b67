package overlay

import "fmt"

// Topology declares how a flat vertex list is interpreted when a batch is
// committed. It is set once per batch by Stream.BeginBatch.
type Topology uint8

const (
	// TopologyNone is the zero value: no batch has been declared.
	TopologyNone Topology = iota

	// Lines draws independent segments from consecutive vertex pairs.
	Lines

	// LineStrip draws a connected polyline in vertex order.
	LineStrip

	// LineLoop draws a polyline that closes back to the first vertex.
	LineLoop

	// Triangles draws independent triangles from consecutive vertex triples.
	Triangles

	// TriangleFan draws triangles that all share vertex 0 as the pivot.
	TriangleFan

	// Quads draws each group of four vertices as two triangles sharing the
	// diagonal from the first to the third vertex.
	Quads
)

// String returns a human-readable name for the topology.
func (t Topology) String() string {
	switch t {
	case TopologyNone:
		return "None"
	case Lines:
		return "Lines"
	case LineStrip:
		return "LineStrip"
	case LineLoop:
		return "LineLoop"
	case Triangles:
		return "Triangles"
	case TriangleFan:
		return "TriangleFan"
	case Quads:
		return "Quads"
	default:
		return fmt.Sprintf("Topology(%d)", uint8(t))
	}
}

// Primitive is the GPU primitive a committed batch is drawn with.
type Primitive uint8

const (
	// PrimitiveLineList draws indexed line segments.
	PrimitiveLineList Primitive = iota

	// PrimitiveLineStrip draws the vertex array as a connected strip
	// without an index buffer.
	PrimitiveLineStrip

	// PrimitiveTriangleList draws indexed triangles.
	PrimitiveTriangleList
)

// String returns a human-readable name for the primitive.
func (p Primitive) String() string {
	switch p {
	case PrimitiveLineList:
		return "LineList"
	case PrimitiveLineStrip:
		return "LineStrip"
	case PrimitiveTriangleList:
		return "TriangleList"
	default:
		return fmt.Sprintf("Primitive(%d)", uint8(p))
	}
}

// Indexed reports whether draws of this primitive use an index buffer.
func (p Primitive) Indexed() bool {
	return p != PrimitiveLineStrip
}
