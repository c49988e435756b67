// Package soft is a CPU backend for overlay that draws batches into an
// *image.NRGBA.
//
// It applies the same shader rules as the GPU backend: untextured batches
// are filled with the batch color, textured batches sample the nearest
// texel and replace its alpha with the color's alpha. Fragments are
// composited source-over. Lines are one pixel wide.
//
//	backend := soft.New()
//	r := overlay.NewRenderer(backend)
//	frame := &soft.Frame{Target: img, ModelView: mv, Projection: proj}
//	err := r.Commit(stream, overlay.BindTexture(frame, tex))
package soft

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/internal/imageio"
)

// Backend errors.
var (
	// ErrNoTarget is returned when the draw context carries no target image.
	ErrNoTarget = errors.New("overlay/soft: draw context has no target image")

	// ErrForeignTexture is returned for textures not uploaded by this
	// backend, or already released.
	ErrForeignTexture = errors.New("overlay/soft: texture not owned by this backend")
)

// Texture is an image held in memory by a Backend.
type Texture struct {
	img   *image.NRGBA
	label string
}

// Size implements overlay.Texture.
func (t *Texture) Size() (width, height int) {
	return t.img.Rect.Dx(), t.img.Rect.Dy()
}

// Label returns the name the texture was uploaded under.
func (t *Texture) Label() string { return t.label }

// Image returns the texel data.
func (t *Texture) Image() *image.NRGBA { return t.img }

// Frame is the DrawContext a host passes to Commit.
type Frame struct {
	Target     *image.NRGBA
	ModelView  overlay.Mat4
	Projection overlay.Mat4

	// Texture is the texture bound to unit 0, if any.
	Texture *Texture
}

// ModelViewMatrix implements overlay.DrawContext.
func (f *Frame) ModelViewMatrix() overlay.Mat4 { return f.ModelView }

// ProjectionMatrix implements overlay.DrawContext.
func (f *Frame) ProjectionMatrix() overlay.Mat4 { return f.Projection }

// BoundTexture implements overlay.DrawContext.
func (f *Frame) BoundTexture() overlay.Texture {
	if f.Texture == nil {
		return nil
	}
	return f.Texture
}

// TargetImage returns the image batches are drawn into.
func (f *Frame) TargetImage() *image.NRGBA { return f.Target }

type targetProvider interface {
	TargetImage() *image.NRGBA
}

// Backend implements overlay.Backend on the CPU. Texture upload and
// release are safe for concurrent use; Draw must not run concurrently
// on the same target.
type Backend struct {
	logger atomic.Pointer[slog.Logger]

	mu       sync.Mutex
	textures map[*Texture]struct{}
}

// New creates a software backend.
func New() *Backend {
	b := &Backend{textures: make(map[*Texture]struct{})}
	b.logger.Store(overlay.Logger())
	return b
}

// SetLogger receives the logger from overlay.SetLogger.
func (b *Backend) SetLogger(l *slog.Logger) {
	if l == nil {
		l = overlay.Logger()
	}
	b.logger.Store(l)
}

// Draw implements overlay.Backend.
func (b *Backend) Draw(dc overlay.DrawContext, batch *overlay.Batch) error {
	tp, ok := overlay.Unwrap[targetProvider](dc)
	if !ok || tp.TargetImage() == nil {
		return ErrNoTarget
	}
	target := tp.TargetImage()

	var tex *Texture
	if batch.Textured() {
		t, ok := batch.Texture.(*Texture)
		if !ok || !b.owns(t) {
			return fmt.Errorf("%w: %T", ErrForeignTexture, batch.Texture)
		}
		tex = t
	}
	if batch.DrawCount() == 0 {
		return nil
	}

	r := newRasterizer(target, batch, tex)
	switch batch.Primitive {
	case overlay.PrimitiveTriangleList:
		for _, tri := range batch.Triangles() {
			r.triangle(tri[0], tri[1], tri[2])
		}
	case overlay.PrimitiveLineList:
		for i := 0; i+1 < len(batch.Indices); i += 2 {
			r.line(batch.Indices[i], batch.Indices[i+1])
		}
	case overlay.PrimitiveLineStrip:
		for i := 0; i+1 < len(batch.Positions); i++ {
			r.line(uint32(i), uint32(i+1)) //nolint:gosec // bounded by len(Positions)
		}
	default:
		return fmt.Errorf("overlay/soft: %w: %v", overlay.ErrUnsupportedTopology, batch.Primitive)
	}

	b.logger.Load().Debug("overlay soft: batch drawn",
		"primitive", batch.Primitive.String(),
		"count", batch.DrawCount(),
		"textured", tex != nil,
		"pixels", r.pixels)
	return nil
}

// UploadImage stores a copy of img as a texture.
func (b *Backend) UploadImage(label string, img image.Image) (*Texture, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, imageio.ErrEmptyImage
	}
	src := imageio.ToNRGBA(img)
	if src == img {
		cp := *src
		cp.Pix = append([]uint8(nil), src.Pix...)
		src = &cp
	}
	tex := &Texture{img: src, label: label}
	b.mu.Lock()
	b.textures[tex] = struct{}{}
	b.mu.Unlock()
	b.logger.Load().Info("overlay soft: texture uploaded",
		"label", label, "width", src.Rect.Dx(), "height", src.Rect.Dy())
	return tex, nil
}

// UploadTexture loads the image file at path and stores it.
func (b *Backend) UploadTexture(path string) (overlay.Texture, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}
	return b.UploadImage(filepath.Base(path), img)
}

// ReleaseTexture forgets a texture uploaded by this backend.
func (b *Backend) ReleaseTexture(t overlay.Texture) error {
	tex, ok := t.(*Texture)
	if !ok || tex == nil {
		return ErrForeignTexture
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.textures[tex]; !ok {
		return ErrForeignTexture
	}
	delete(b.textures, tex)
	return nil
}

// Textures returns the number of live textures.
func (b *Backend) Textures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

func (b *Backend) owns(t *Texture) bool {
	if t == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.textures[t]
	return ok
}
