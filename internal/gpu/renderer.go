//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/overlay"
	"github.com/gogpu/wgpu/hal"
)

// Renderer errors.
var (
	// ErrNilRenderPass is returned when Draw is called without a render pass.
	ErrNilRenderPass = errors.New("overlay gpu: render pass is nil")

	// ErrNilTexture is returned when a textured batch has no GPU texture.
	ErrNilTexture = errors.New("overlay gpu: textured batch without texture")

	// ErrDestroyed is returned when drawing with a destroyed renderer.
	ErrDestroyed = errors.New("overlay gpu: renderer destroyed")
)

// Config controls the render target the pipelines are built for.
type Config struct {
	// Format is the color attachment format. Default: BGRA8Unorm.
	Format gputypes.TextureFormat

	// SampleCount is the color attachment sample count. Default: 1.
	SampleCount uint32

	// SPIRV compiles shaders to SPIR-V with naga before creating modules,
	// for devices that do not accept WGSL.
	SPIRV bool
}

func (c Config) withDefaults() Config {
	if c.Format == gputypes.TextureFormatUndefined {
		c.Format = gputypes.TextureFormatBGRA8Unorm
	}
	if c.SampleCount == 0 {
		c.SampleCount = 1
	}
	return c
}

// Renderer records overlay batches into a caller-owned render pass.
//
// Each Draw creates vertex, index and uniform buffers plus a bind group
// for one batch. They must outlive the render pass, so they are kept until
// EndFrame, which the caller invokes after the frame's command buffer has
// been submitted and completed.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	cfg    Config

	flat     *pipelineSet
	textured *pipelineSet
	sampler  hal.Sampler

	frame     []*frameResources
	destroyed bool

	// retired textures are destroyed at EndFrame; bind groups recorded
	// this frame may still reference them.
	retireMu sync.Mutex
	retired  []*Texture
}

// NewRenderer creates a renderer. GPU objects are created on first draw.
func NewRenderer(device hal.Device, queue hal.Queue, cfg Config) *Renderer {
	return &Renderer{
		device:   device,
		queue:    queue,
		cfg:      cfg.withDefaults(),
		flat:     newPipelineSet(ShaderFlat),
		textured: newPipelineSet(ShaderTextured),
	}
}

// Config returns the effective configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Device returns the device the renderer creates resources on.
func (r *Renderer) Device() hal.Device { return r.device }

// Queue returns the queue used for uploads.
func (r *Renderer) Queue() hal.Queue { return r.queue }

// PendingResources returns the number of batches whose buffers are held
// until EndFrame.
func (r *Renderer) PendingResources() int { return len(r.frame) }

// Draw records one draw call for b into rp. tex must be non-nil for
// textured batches. A batch with a zero draw count records nothing.
func (r *Renderer) Draw(rp hal.RenderPassEncoder, b *overlay.Batch, tex *Texture) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if rp == nil {
		return ErrNilRenderPass
	}
	count := b.DrawCount()
	if count == 0 {
		return nil
	}

	ps := r.flat
	if b.Textured() {
		if tex == nil || tex.view == nil {
			return ErrNilTexture
		}
		ps = r.textured
	}

	pipeline, err := ps.ensure(r.device, b.Primitive, r.cfg)
	if err != nil {
		return err
	}
	if b.Textured() {
		if err := r.ensureSampler(); err != nil {
			return err
		}
	}

	res, err := r.buildResources(ps, b, tex)
	if err != nil {
		return err
	}
	r.frame = append(r.frame, res)

	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, res.bindGroup, nil)
	rp.SetVertexBuffer(0, res.vertBuf, 0)
	if b.Primitive.Indexed() {
		rp.SetIndexBuffer(res.idxBuf, gputypes.IndexFormatUint32, 0)
		rp.DrawIndexed(res.count, 1, 0, 0, 0)
	} else {
		rp.Draw(res.count, 1, 0, 0)
	}

	slogger().Debug("overlay gpu: draw recorded",
		"shader", ps.kind.String(),
		"primitive", b.Primitive.String(),
		"count", res.count,
		"vertex_bytes", res.vertBytes)
	return nil
}

// Retire schedules tex for destruction at the next EndFrame. It may be
// called from any goroutine.
func (r *Renderer) Retire(tex *Texture) {
	r.retireMu.Lock()
	r.retired = append(r.retired, tex)
	r.retireMu.Unlock()
}

// EndFrame releases the per-batch resources of the finished frame and the
// textures retired since the previous EndFrame.
func (r *Renderer) EndFrame() {
	for _, res := range r.frame {
		res.destroy(r.device)
	}
	clear(r.frame)
	r.frame = r.frame[:0]

	r.retireMu.Lock()
	retired := r.retired
	r.retired = nil
	r.retireMu.Unlock()
	for _, tex := range retired {
		tex.Destroy(r.device)
	}
	if len(retired) > 0 {
		slogger().Debug("overlay gpu: retired textures destroyed", "count", len(retired))
	}
}

// Destroy releases all GPU objects. The renderer cannot be used afterwards.
// Safe to call multiple times.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.EndFrame()
	r.textured.destroy(r.device)
	r.flat.destroy(r.device)
	if r.sampler != nil && r.device != nil {
		r.device.DestroySampler(r.sampler)
		r.sampler = nil
	}
	r.destroyed = true
}

// ensureSampler creates the nearest-filter sampler for texture unit 0.
func (r *Renderer) ensureSampler() error {
	if r.sampler != nil {
		return nil
	}
	sampler, err := r.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "overlay_nearest_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create overlay sampler: %w", err)
	}
	r.sampler = sampler
	return nil
}

// frameResources holds the GPU resources for one recorded batch.
type frameResources struct {
	vertBuf    hal.Buffer
	idxBuf     hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
	count      uint32
	vertBytes  int
}

func (f *frameResources) destroy(device hal.Device) {
	if f.bindGroup != nil {
		device.DestroyBindGroup(f.bindGroup)
	}
	if f.uniformBuf != nil {
		device.DestroyBuffer(f.uniformBuf)
	}
	if f.idxBuf != nil {
		device.DestroyBuffer(f.idxBuf)
	}
	if f.vertBuf != nil {
		device.DestroyBuffer(f.vertBuf)
	}
}

// buildResources uploads the batch's vertices, indices and uniforms and
// creates its bind group. On failure everything created so far is
// released.
func (r *Renderer) buildResources(ps *pipelineSet, b *overlay.Batch, tex *Texture) (*frameResources, error) {
	res := &frameResources{
		count: uint32(b.DrawCount()), //nolint:gosec // draw count is bounded by vertex count
	}
	fail := func(err error) (*frameResources, error) {
		res.destroy(r.device)
		return nil, err
	}

	vertexData := buildVertexData(b)
	res.vertBytes = len(vertexData)
	var err error
	res.vertBuf, err = r.createAndUploadBuffer(ps.kind.String()+"_verts", vertexData,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fail(err)
	}

	if b.Primitive.Indexed() {
		res.idxBuf, err = r.createAndUploadBuffer(ps.kind.String()+"_indices", buildIndexData(b.Indices),
			gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return fail(err)
		}
	}

	var uniformData []byte
	if b.Textured() {
		uniformData = makeTexturedUniform(b.ModelView, b.Projection, b.Color)
	} else {
		uniformData = makeFlatUniform(b.Color)
	}
	res.uniformBuf, err = r.createAndUploadBuffer(ps.kind.String()+"_uniform", uniformData,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return fail(err)
	}

	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{
			Buffer: res.uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(uniformData)),
		}},
	}
	if b.Textured() {
		entries = append(entries,
			gputypes.BindGroupEntry{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}},
			gputypes.BindGroupEntry{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: r.sampler.NativeHandle()}},
		)
	}
	res.bindGroup, err = r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   ps.kind.String() + "_bind",
		Layout:  ps.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fail(fmt.Errorf("create %s bind group: %w", ps.kind, err))
	}
	return res, nil
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (r *Renderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}
