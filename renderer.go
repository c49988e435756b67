package overlay

import "fmt"

// Backend turns a validated Batch into GPU (or CPU) draw state.
//
// Draw selects the flat or textured shader from b.Textured(), binds the
// color uniform, and for textured batches the model-view and projection
// matrices and the texture on unit 0, then issues exactly one draw for
// b.Indices (or the strip). Backends skip the draw when DrawCount is 0.
type Backend interface {
	Draw(dc DrawContext, b *Batch) error
}

// Renderer commits streams through a Backend. It holds no per-batch state.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	backend Backend
}

// NewRenderer creates a renderer that draws through backend.
// If backend has a SetLogger(*slog.Logger) method it receives the package
// logger now and on every later SetLogger call.
func NewRenderer(backend Backend) *Renderer {
	propagateLogger(backend)
	return &Renderer{backend: backend}
}

// Backend returns the backend the renderer draws through.
func (r *Renderer) Backend() Backend { return r.backend }

// Commit converts the stream's batch into one draw call and clears the
// stream.
//
// An empty stream issues no draw and is cleared. Validation failures
// (ErrInvalidTopology, ErrArityMismatch, ErrUnsupportedTopology,
// ErrNoTexture) are reported before the backend is called and leave the
// stream untouched. A backend failure is reported after the stream has
// been cleared.
func (r *Renderer) Commit(s *Stream, dc DrawContext) error {
	if s.Len() == 0 {
		s.Clear()
		return nil
	}

	b, err := prepareBatch(s, dc)
	if err != nil {
		return err
	}

	log := Logger()
	err = r.backend.Draw(dc, b)
	s.Clear()
	if err != nil {
		return fmt.Errorf("overlay: draw %s batch: %w", b.Topology, err)
	}
	log.Debug("overlay: batch committed",
		"topology", b.Topology.String(),
		"primitive", b.Primitive.String(),
		"vertices", len(b.Positions),
		"count", b.DrawCount(),
		"textured", b.Textured())
	return nil
}

// prepareBatch validates the stream and builds the Batch for it. It does
// not modify the stream.
func prepareBatch(s *Stream, dc DrawContext) (*Batch, error) {
	if s.dims != 2 {
		return nil, fmt.Errorf("%w: dimensionality %d", ErrInvalidTopology, s.dims)
	}
	n := len(s.vertices)
	if len(s.texCoords) != 0 && len(s.texCoords) != n {
		return nil, fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrArityMismatch, len(s.texCoords), n)
	}
	prim, indices, err := BuildIndices(s.topology, n)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		Topology:  s.topology,
		Primitive: prim,
		Indices:   indices,
		Color:     s.color,
		LineWidth: s.lineWidth,
	}

	extra := 0
	if s.topology == LineLoop {
		extra = 1
	}
	b.Positions = make([]Vec2, n, n+extra)
	copy(b.Positions, s.vertices)
	if len(s.texCoords) > 0 {
		b.TexCoords = make([]Vec2, n, n+extra)
		copy(b.TexCoords, s.texCoords)
	}
	if s.topology == LineLoop {
		b.Positions = append(b.Positions, b.Positions[0])
		if b.Textured() {
			b.TexCoords = append(b.TexCoords, b.TexCoords[0])
		}
	}

	if b.Textured() {
		tex := dc.BoundTexture()
		if tex == nil {
			return nil, ErrNoTexture
		}
		b.Texture = tex
		b.ModelView = dc.ModelViewMatrix()
		b.Projection = dc.ProjectionMatrix()
	}
	return b, nil
}
