//go:build !nogpu

// Package gpu is the wgpu backend for overlay.
//
// The backend records each committed batch into a render pass owned by the
// host. The host passes that pass in a Frame:
//
//	backend, err := gpu.NewBackend(device, queue, gpu.WithTargetFormat(format))
//	r := overlay.NewRenderer(backend)
//
//	// per frame, inside the host's render pass:
//	frame := &gpu.Frame{Pass: pass, ModelView: mv, Projection: proj}
//	err = r.Commit(stream, overlay.BindTexture(frame, tex))
//
//	// after the frame's command buffer has completed:
//	backend.EndFrame()
//
// Hosts built on gogpu can pass their gpucontext.DeviceProvider to
// NewBackendFromProvider instead.
package gpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/overlay"
	gpuimpl "github.com/gogpu/overlay/internal/gpu"
	"github.com/gogpu/overlay/internal/imageio"
	"github.com/gogpu/wgpu/hal"
)

// Backend errors.
var (
	// ErrNoRenderPass is returned when the draw context does not carry a
	// render pass.
	ErrNoRenderPass = errors.New("overlay/gpu: draw context has no render pass")

	// ErrForeignTexture is returned for textures not uploaded by this
	// backend, or already released.
	ErrForeignTexture = errors.New("overlay/gpu: texture not owned by this backend")

	// ErrNoDevice is returned when a provider does not expose HAL objects.
	ErrNoDevice = errors.New("overlay/gpu: provider does not expose a HAL device and queue")
)

// Texture is a texture uploaded by a Backend.
type Texture = gpuimpl.Texture

// Frame is the DrawContext a host passes to Commit. Pass is the render pass
// the batch is recorded into.
type Frame struct {
	Pass       hal.RenderPassEncoder
	ModelView  overlay.Mat4
	Projection overlay.Mat4

	// Texture is the texture bound to unit 0, if any. overlay.BindTexture
	// overrides it.
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

// RenderPass returns the pass batches are recorded into.
func (f *Frame) RenderPass() hal.RenderPassEncoder { return f.Pass }

type passProvider interface {
	RenderPass() hal.RenderPassEncoder
}

// Option configures a Backend.
type Option func(*gpuimpl.Config)

// WithTargetFormat sets the color attachment format the pipelines are
// built for. Default: BGRA8Unorm.
func WithTargetFormat(f gputypes.TextureFormat) Option {
	return func(c *gpuimpl.Config) { c.Format = f }
}

// WithSampleCount sets the color attachment sample count. Default: 1.
func WithSampleCount(n uint32) Option {
	return func(c *gpuimpl.Config) { c.SampleCount = n }
}

// WithSPIRV compiles the shaders to SPIR-V with naga before creating
// shader modules.
func WithSPIRV() Option {
	return func(c *gpuimpl.Config) { c.SPIRV = true }
}

// Backend implements overlay.Backend on a wgpu HAL device.
//
// Draw, EndFrame and Destroy must be called from the render thread.
// Texture upload and release are safe for concurrent use.
type Backend struct {
	r *gpuimpl.Renderer

	mu       sync.Mutex
	textures map[*Texture]struct{}
}

// NewBackend creates a backend drawing with device and queue.
func NewBackend(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	var cfg gpuimpl.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Backend{
		r:        gpuimpl.NewRenderer(device, queue, cfg),
		textures: make(map[*Texture]struct{}),
	}, nil
}

// NewBackendFromProvider creates a backend on a device shared by the host.
// The provider must either implement HalDevice() any and HalQueue() any,
// or return hal objects from Device and Queue. The provider's surface
// format is used unless WithTargetFormat overrides it.
func NewBackendFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	if provider == nil {
		return nil, ErrNoDevice
	}
	var device, queue any = provider.Device(), provider.Queue()
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if hp, ok := provider.(halProvider); ok {
		device, queue = hp.HalDevice(), hp.HalQueue()
	}
	d, ok := device.(hal.Device)
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: device is %T", ErrNoDevice, device)
	}
	q, ok := queue.(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: queue is %T", ErrNoDevice, queue)
	}
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		opts = append([]Option{WithTargetFormat(f)}, opts...)
	}
	return NewBackend(d, q, opts...)
}

// Config returns the pipeline configuration in effect.
func (b *Backend) Config() gpuimpl.Config { return b.r.Config() }

// Draw implements overlay.Backend.
func (b *Backend) Draw(dc overlay.DrawContext, batch *overlay.Batch) error {
	pp, ok := overlay.Unwrap[passProvider](dc)
	if !ok || pp.RenderPass() == nil {
		return ErrNoRenderPass
	}
	var tex *Texture
	if batch.Textured() {
		t, ok := batch.Texture.(*Texture)
		if !ok || !b.owns(t) {
			return fmt.Errorf("%w: %T", ErrForeignTexture, batch.Texture)
		}
		tex = t
	}
	return b.r.Draw(pp.RenderPass(), batch, tex)
}

// UploadImage uploads img as a texture.
func (b *Backend) UploadImage(label string, img image.Image) (*Texture, error) {
	tex, err := gpuimpl.UploadTexture(b.r.Device(), b.r.Queue(), label, img)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.textures[tex] = struct{}{}
	b.mu.Unlock()
	return tex, nil
}

// UploadTexture loads the image file at path and uploads it.
func (b *Backend) UploadTexture(path string) (overlay.Texture, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return nil, err
	}
	return b.UploadImage(filepath.Base(path), img)
}

// ReleaseTexture releases a texture uploaded by this backend. The texture
// can no longer be drawn; its GPU objects are destroyed at the next
// EndFrame, after the batches recorded with it have executed.
func (b *Backend) ReleaseTexture(t overlay.Texture) error {
	tex, ok := t.(*Texture)
	if !ok {
		return ErrForeignTexture
	}
	b.mu.Lock()
	_, owned := b.textures[tex]
	delete(b.textures, tex)
	b.mu.Unlock()
	if !owned {
		return ErrForeignTexture
	}
	b.r.Retire(tex)
	return nil
}

// Textures returns the number of live textures.
func (b *Backend) Textures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

// EndFrame releases the buffers recorded during the frame and the textures
// released since the last EndFrame. Call it once the frame's command
// buffer has completed.
func (b *Backend) EndFrame() { b.r.EndFrame() }

// Destroy releases pipelines, frame resources and all live textures.
func (b *Backend) Destroy() {
	b.r.Destroy()
	b.mu.Lock()
	textures := b.textures
	b.textures = make(map[*Texture]struct{})
	b.mu.Unlock()
	for tex := range textures {
		tex.Destroy(b.r.Device())
	}
}

// SetLogger receives the logger from overlay.SetLogger.
func (b *Backend) SetLogger(l *slog.Logger) { gpuimpl.SetLogger(l) }

func (b *Backend) owns(t *Texture) bool {
	if t == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.textures[t]
	return ok
}
