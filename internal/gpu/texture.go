//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/overlay/internal/imageio"
	"github.com/gogpu/wgpu/hal"
)

// ErrEmptyImage is returned when uploading an image with no pixels.
var ErrEmptyImage = errors.New("overlay gpu: image has no pixels")

// Texture is an RGBA8 texture uploaded for the textured shader.
type Texture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	label  string
}

// Size returns the texture dimensions in texels.
func (t *Texture) Size() (width, height int) { return t.width, t.height }

// Label returns the debug label given at upload.
func (t *Texture) Label() string { return t.label }

// View returns the texture view bound at binding 1.
func (t *Texture) View() hal.TextureView { return t.view }

// UploadTexture creates a texture of img's size and writes its pixels.
// Pixels are stored non-premultiplied; the textured shader discards
// texel alpha.
func UploadTexture(device hal.Device, queue hal.Queue, label string, img image.Image) (*Texture, error) {
	nrgba := imageio.ToNRGBA(img)
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(w), //nolint:gosec // image dimensions are positive
			Height:             uint32(h), //nolint:gosec // image dimensions are positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}

	err = queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		nrgba.Pix,
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(nrgba.Stride), //nolint:gosec // stride is positive
			RowsPerImage: uint32(h),            //nolint:gosec // image dimensions are positive
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // image dimensions are positive
	)
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("write texture %q: %w", label, err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %q: %w", label, err)
	}

	slogger().Info("overlay gpu: texture uploaded", "label", label, "width", w, "height", h)
	return &Texture{tex: tex, view: view, width: w, height: h, label: label}, nil
}

// Destroy releases the texture and its view. Safe to call more than once.
func (t *Texture) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
