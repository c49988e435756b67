package overlay

import (
	"fmt"
	"sync"
)

// Stream accumulates one in-progress primitive batch: a topology, vertex
// positions, optional texture coordinates, and the flat color and line
// width that act as the current graphics state.
//
// A Stream holds a single batch at a time. The sequence is always
// BeginBatch, then AppendTexCoord/AppendVertex in lockstep, then
// Renderer.Commit, which renders and clears the batch.
//
// Stream is not safe for concurrent use; it is meant to be driven from the
// host's paint callback on the UI thread.
type Stream struct {
	topology  Topology
	vertices  []Vec2
	texCoords []Vec2
	dims      int

	// Graphics state. Survives Clear and Commit.
	color     RGBA
	lineWidth float32
}

// NewStream creates an empty stream with opaque white color and a line
// width of 1.
func NewStream() *Stream {
	return &Stream{
		color:     White,
		lineWidth: 1,
	}
}

var (
	defaultStream     *Stream
	defaultStreamOnce sync.Once
)

// Default returns the process-wide stream, creating it on first use.
// Creation is safe when several threads race on the first paint callback;
// everything after that must stay on one thread.
//
// Prefer owning a Stream created with NewStream.
func Default() *Stream {
	defaultStreamOnce.Do(func() {
		defaultStream = NewStream()
	})
	return defaultStream
}

// BeginBatch starts a new batch with the given topology, discarding any
// vertices, texture coordinates and dimensionality left from an empty
// previous batch. Color and line width are kept.
//
// It returns ErrBatchInProgress, leaving the stream untouched, if the
// current batch already holds vertices: commit or Clear it first.
// The topology is not validated here; an unknown value fails at commit.
func (s *Stream) BeginBatch(t Topology) error {
	if len(s.vertices) > 0 {
		return fmt.Errorf("%w: %s batch holds %d vertices", ErrBatchInProgress, s.topology, len(s.vertices))
	}
	s.Clear()
	s.topology = t
	return nil
}

// AppendVertex appends a 2D position to the current batch.
func (s *Stream) AppendVertex(x, y float32) error {
	if s.topology == TopologyNone {
		return ErrNoBatch
	}
	s.vertices = append(s.vertices, Vec2{X: x, Y: y})
	s.dims = 2
	return nil
}

// AppendVertex3 appends a 3D position. Only x and y are stored; the batch
// is marked three-dimensional and will be rejected by Commit with
// ErrInvalidTopology.
func (s *Stream) AppendVertex3(x, y, _ float32) error {
	if s.topology == TopologyNone {
		return ErrNoBatch
	}
	s.vertices = append(s.vertices, Vec2{X: x, Y: y})
	s.dims = 3
	return nil
}

// AppendTexCoord appends a texture coordinate to the current batch.
// Callers wanting texturing append exactly one per vertex; the count is
// only checked at commit.
func (s *Stream) AppendTexCoord(u, v float32) error {
	if s.topology == TopologyNone {
		return ErrNoBatch
	}
	s.texCoords = append(s.texCoords, Vec2{X: u, Y: v})
	return nil
}

// SetColor sets the flat color for the current and all later batches.
// It may be called at any time, including outside a batch.
func (s *Stream) SetColor(r, g, b, a float32) {
	s.color = RGBA{R: r, G: g, B: b, A: a}
}

// SetLineWidth stores the line width. It is kept as graphics state but
// does not affect rendering.
func (s *Stream) SetLineWidth(width float32) {
	s.lineWidth = width
}

// Clear resets vertices, texture coordinates, topology and dimensionality.
// Color and line width are not reset.
func (s *Stream) Clear() {
	s.topology = TopologyNone
	s.vertices = s.vertices[:0]
	s.texCoords = s.texCoords[:0]
	s.dims = 0
}

// Open reports whether a batch has been declared and not yet committed.
func (s *Stream) Open() bool { return s.topology != TopologyNone }

// Topology returns the declared topology, or TopologyNone outside a batch.
func (s *Stream) Topology() Topology { return s.topology }

// Len returns the number of vertices in the current batch.
func (s *Stream) Len() int { return len(s.vertices) }

// Dims returns the batch dimensionality, 0 if no vertex was appended.
func (s *Stream) Dims() int { return s.dims }

// Color returns the current flat color.
func (s *Stream) Color() RGBA { return s.color }

// LineWidth returns the stored line width.
func (s *Stream) LineWidth() float32 { return s.lineWidth }

// Vertices returns a copy of the vertex positions.
func (s *Stream) Vertices() []Vec2 {
	return append([]Vec2(nil), s.vertices...)
}

// TexCoords returns a copy of the texture coordinates.
func (s *Stream) TexCoords() []Vec2 {
	return append([]Vec2(nil), s.texCoords...)
}
