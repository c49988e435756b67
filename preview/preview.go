// Package preview draws a material thumbnail as a movable overlay on top
// of a host viewport.
//
// The preview registers a paint handler with its Host while active. Each
// paint commits one white textured quad at the preview position, so the
// thumbnail's colors show through and its alpha comes from the color
// uniform. Dragging with the middle mouse button moves it.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/internal/cache"
)

// Preview sizes in pixels.
const (
	SmallSize = 128
	BigSize   = 256
)

const (
	defaultX            = 10
	defaultY            = 10
	defaultTextureLimit = 8
)

// ErrNoUploader is returned by New when the renderer's backend cannot
// upload textures.
var ErrNoUploader = errors.New("preview: backend does not upload textures")

// HandlerID identifies a registered paint handler.
type HandlerID uint64

// Host is the viewport the preview draws into.
type Host interface {
	// AddPaintHandler registers fn to run on every paint, after the
	// host's own drawing.
	AddPaintHandler(fn func(overlay.DrawContext)) HandlerID

	// RemovePaintHandler unregisters a handler.
	RemovePaintHandler(id HandlerID)

	// Redraw requests a repaint.
	Redraw()
}

// Fetcher resolves an image URL to a local file.
type Fetcher interface {
	FetchImage(ctx context.Context, url string) (string, error)
}

// Uploader turns image files into textures. Both overlay backends
// implement it.
type Uploader interface {
	UploadTexture(path string) (overlay.Texture, error)
	ReleaseTexture(t overlay.Texture) error
}

// Result tells the host what happened to a pointer event.
type Result uint8

const (
	// Finished means the preview is inactive and the modal handler
	// should end.
	Finished Result = iota

	// RunningModal means the event was consumed.
	RunningModal

	// PassThrough means the event was not for the preview.
	PassThrough
)

func (r Result) String() string {
	switch r {
	case Finished:
		return "Finished"
	case RunningModal:
		return "RunningModal"
	case PassThrough:
		return "PassThrough"
	default:
		return fmt.Sprintf("Result(%d)", uint8(r))
	}
}

// Option configures a Preview.
type Option func(*Preview)

// WithBigPreview selects 256x256 instead of 128x128.
func WithBigPreview(big bool) Option {
	return func(p *Preview) { p.setBig(big) }
}

// WithPosition sets the initial top-left corner. Default: (10, 10).
func WithPosition(x, y float64) Option {
	return func(p *Preview) { p.x, p.y = x, y }
}

// WithTextureCache sets how many uploaded thumbnails are kept for reuse.
// Zero keeps all of them. Default: 8.
func WithTextureCache(n int) Option {
	return func(p *Preview) { p.cacheLimit = n }
}

// Preview is a draggable thumbnail overlay. Its methods are safe for
// concurrent use. Host methods are never called with the lock that Draw
// and HandlePointer take.
type Preview struct {
	host     Host
	fetcher  Fetcher
	uploader Uploader
	renderer *overlay.Renderer

	cacheLimit int
	textures   *cache.Cache[string, overlay.Texture]

	// loadMu serializes SetImage.
	loadMu sync.Mutex

	// regMu serializes Activate and Deactivate.
	regMu sync.Mutex

	mu            sync.Mutex
	stream        *overlay.Stream
	x, y          float64
	width, height float64
	active        bool
	handler       HandlerID
	moving        bool
	lastX, lastY  float64
	url           string
	tex           overlay.Texture
}

// New creates an inactive preview. The renderer's backend must implement
// Uploader.
func New(host Host, fetcher Fetcher, r *overlay.Renderer, opts ...Option) (*Preview, error) {
	up, ok := r.Backend().(Uploader)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNoUploader, r.Backend())
	}
	p := &Preview{
		host:       host,
		fetcher:    fetcher,
		uploader:   up,
		renderer:   r,
		cacheLimit: defaultTextureLimit,
		stream:     overlay.NewStream(),
		x:          defaultX,
		y:          defaultY,
	}
	p.setBig(false)
	for _, opt := range opts {
		opt(p)
	}
	p.textures = cache.New(p.cacheLimit, cache.WithOnEvict(p.release))
	return p, nil
}

func (p *Preview) setBig(big bool) {
	if big {
		p.width, p.height = BigSize, BigSize
	} else {
		p.width, p.height = SmallSize, SmallSize
	}
}

// SetBigPreview switches between the two preview sizes.
func (p *Preview) SetBigPreview(big bool) {
	p.mu.Lock()
	p.setBig(big)
	active := p.active
	p.mu.Unlock()
	if active {
		p.host.Redraw()
	}
}

// Position returns the top-left corner.
func (p *Preview) Position() (x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y
}

// Size returns the preview size in pixels.
func (p *Preview) Size() (width, height float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// Active reports whether the paint handler is registered.
func (p *Preview) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// URL returns the URL of the image shown, or "".
func (p *Preview) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Activate registers the paint handler and requests a redraw.
func (p *Preview) Activate() {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	if p.Active() {
		return
	}

	id := p.host.AddPaintHandler(p.Draw)
	p.mu.Lock()
	p.active = true
	p.handler = id
	p.mu.Unlock()
	p.host.Redraw()
}

// Deactivate unregisters the paint handler and requests a redraw.
func (p *Preview) Deactivate() {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	p.moving = false
	id := p.handler
	p.mu.Unlock()

	p.host.RemovePaintHandler(id)
	p.host.Redraw()
}

// HandlePointer applies a pointer event. A middle-button press starts a
// drag, moves offset the preview by the pointer delta, and the release
// ends it. Pointer coordinates must be in the same space as the preview
// position.
func (p *Preview) HandlePointer(ev gpucontext.PointerEvent) Result {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return Finished
	}

	switch {
	case ev.Type == gpucontext.PointerDown && ev.Button == gpucontext.ButtonMiddle:
		p.moving = true
		p.lastX, p.lastY = ev.X, ev.Y
		p.mu.Unlock()
		return RunningModal

	case ev.Type == gpucontext.PointerUp && ev.Button == gpucontext.ButtonMiddle,
		ev.Type == gpucontext.PointerCancel && p.moving:
		p.moving = false
		p.mu.Unlock()
		return RunningModal

	case ev.Type == gpucontext.PointerMove && p.moving:
		dx, dy := ev.X-p.lastX, ev.Y-p.lastY
		if ev.DeltaX != 0 || ev.DeltaY != 0 {
			// Locked cursor: positions do not change, deltas do.
			dx, dy = ev.DeltaX, ev.DeltaY
		}
		p.x += dx
		p.y += dy
		p.lastX, p.lastY = ev.X, ev.Y
		p.mu.Unlock()
		p.host.Redraw()
		return RunningModal
	}
	p.mu.Unlock()
	return PassThrough
}

// SetImage shows the image at url, replacing the current one. The image
// is fetched and uploaded unless a texture for url is cached. An empty
// url only unloads the current image.
func (p *Preview) SetImage(ctx context.Context, url string) error {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	p.show("", nil)
	if url == "" {
		return nil
	}

	tex, ok := p.textures.Get(url)
	if !ok {
		path, err := p.fetcher.FetchImage(ctx, url)
		if err != nil {
			return fmt.Errorf("preview: %w", err)
		}
		tex, err = p.uploader.UploadTexture(path)
		if err != nil {
			return fmt.Errorf("preview: upload %s: %w", url, err)
		}
		p.textures.Set(url, tex)
	}
	p.show(url, tex)
	return nil
}

func (p *Preview) show(url string, tex overlay.Texture) {
	p.mu.Lock()
	p.url, p.tex = url, tex
	active := p.active
	p.mu.Unlock()
	if active {
		p.host.Redraw()
	}
}

// Draw is the paint handler. It draws nothing when the preview is
// inactive or no image is loaded. Errors are logged and the frame's
// preview is skipped.
func (p *Preview) Draw(dc overlay.DrawContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active || p.tex == nil {
		return
	}
	x, y := float32(p.x), float32(p.y)
	w, h := float32(p.width), float32(p.height)

	if err := p.drawQuad(dc, x, y, w, h); err != nil {
		overlay.Logger().Warn("preview: frame skipped", "url", p.url, "err", err)
	}
}

// drawQuad commits the textured quad. Called with p.mu held.
func (p *Preview) drawQuad(dc overlay.DrawContext, x, y, w, h float32) error {
	s := p.stream
	s.Clear()
	s.SetColor(1, 1, 1, 1)
	if err := s.BeginBatch(overlay.Quads); err != nil {
		return err
	}
	corners := [4][4]float32{
		{0, 0, x, y},
		{1, 0, x + w, y},
		{1, 1, x + w, y + h},
		{0, 1, x, y + h},
	}
	for _, c := range corners {
		if err := s.AppendTexCoord(c[0], c[1]); err != nil {
			return err
		}
		if err := s.AppendVertex(c[2], c[3]); err != nil {
			return err
		}
	}
	return p.renderer.Commit(s, overlay.BindTexture(dc, p.tex))
}

// TextureStats reports the thumbnail cache counters.
func (p *Preview) TextureStats() cache.Stats {
	return p.textures.Stats()
}

// Close deactivates the preview and releases every cached texture.
func (p *Preview) Close() {
	p.Deactivate()
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	p.show("", nil)
	p.textures.Clear()
}

func (p *Preview) release(url string, tex overlay.Texture) {
	if err := p.uploader.ReleaseTexture(tex); err != nil {
		overlay.Logger().Warn("preview: texture release failed", "url", url, "err", err)
	}
}
