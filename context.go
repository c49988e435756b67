package overlay

// Texture is an opaque handle to an uploaded image. Concrete handles are
// created by a backend's UploadTexture and are only valid with that
// backend.
type Texture interface {
	// Size returns the texture dimensions in texels.
	Size() (width, height int)
}

// DrawContext is the drawing state the host provides to a paint callback.
//
// The matrices are read only for batches that carry texture coordinates.
// Backends may require a richer context (a render pass, a target image)
// and check for it with a type assertion.
type DrawContext interface {
	// ModelViewMatrix returns the host's current model-view transform.
	ModelViewMatrix() Mat4

	// ProjectionMatrix returns the host's current projection transform.
	ProjectionMatrix() Mat4

	// BoundTexture returns the texture bound to unit 0, or nil.
	BoundTexture() Texture
}

// BindTexture returns a DrawContext that reports tex as the texture bound
// to unit 0 and otherwise delegates to dc. It is the equivalent of binding
// a texture before drawing in a fixed-function API.
//
// Binding nil unbinds whatever dc had bound.
func BindTexture(dc DrawContext, tex Texture) DrawContext {
	return boundContext{DrawContext: dc, tex: tex}
}

type boundContext struct {
	DrawContext
	tex Texture
}

func (c boundContext) BoundTexture() Texture { return c.tex }

// Unwrap returns the host context, so backends can reach their own
// context type through a binding.
func (c boundContext) Unwrap() DrawContext { return c.DrawContext }

// Unwrap peels BindTexture layers off dc until it finds a context of type
// T. It returns the zero value and false if none matches.
func Unwrap[T any](dc DrawContext) (T, bool) {
	for dc != nil {
		if t, ok := dc.(T); ok {
			return t, true
		}
		u, ok := dc.(interface{ Unwrap() DrawContext })
		if !ok {
			break
		}
		dc = u.Unwrap()
	}
	var zero T
	return zero, false
}

// StaticContext is a DrawContext with fixed matrices and texture, useful
// for hosts that compute their transforms once per frame and for tests.
type StaticContext struct {
	ModelView  Mat4
	Projection Mat4
	Texture    Texture
}

// ModelViewMatrix implements DrawContext.
func (c *StaticContext) ModelViewMatrix() Mat4 { return c.ModelView }

// ProjectionMatrix implements DrawContext.
func (c *StaticContext) ProjectionMatrix() Mat4 { return c.Projection }

// BoundTexture implements DrawContext.
func (c *StaticContext) BoundTexture() Texture { return c.Texture }
