// Command overlaydemo renders the material preview overlay with the
// software backend and saves the frame as PNG.
//
// Without -image it previews a generated checkerboard, so it runs offline.
// With -image it fetches the URL through the download cache configured by
// -prefs, or loads a local file directly. With -category (or -favorites)
// it previews the first material the catalogue lists.
package main

import (
	"context"
	"errors"
	"flag"
	"image"
	"image/color"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/overlay"
	"github.com/gogpu/overlay/fetch"
	"github.com/gogpu/overlay/internal/imageio"
	"github.com/gogpu/overlay/prefs"
	"github.com/gogpu/overlay/preview"
	"github.com/gogpu/overlay/soft"
)

func main() {
	var (
		width     = flag.Int("width", 400, "frame width")
		height    = flag.Int("height", 300, "frame height")
		output    = flag.String("output", "overlay.png", "output file")
		prefsPath = flag.String("prefs", "", "preferences file (YAML)")
		imageURL  = flag.String("image", "", "preview image URL or local file")
		engine    = flag.String("engine", fetch.EngineCycles, "catalogue render engine (int, cyc, eve)")
		category  = flag.Int("category", 0, "preview the first material of this catalogue category")
		favorites = flag.Bool("favorites", false, "preview the first favorite material (needs api_key)")
		dragX     = flag.Float64("dx", 60, "horizontal middle-button drag")
		dragY     = flag.Float64("dy", 40, "vertical middle-button drag")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		overlay.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	p := prefs.Default()
	if *prefsPath != "" {
		var err error
		if p, err = prefs.Load(*prefsPath); err != nil {
			log.Fatalf("Failed to load preferences: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		fetcher preview.Fetcher
		url     string
		err     error
	)
	if *category > 0 || *favorites {
		fetcher, url, err = catalogueSource(ctx, p, *engine, *category, *favorites)
	} else {
		fetcher, url, err = chooseSource(p, *imageURL)
	}
	if err != nil {
		log.Fatalf("Failed to prepare image source: %v", err)
	}

	backend := soft.New()
	r := overlay.NewRenderer(backend)
	host := &demoHost{}
	pv, err := preview.New(host, fetcher, r, preview.WithBigPreview(p.BigPreview))
	if err != nil {
		log.Fatalf("Failed to create preview: %v", err)
	}
	defer pv.Close()

	pv.Activate()
	if err := pv.SetImage(ctx, url); err != nil {
		log.Fatalf("Failed to load preview image: %v", err)
	}

	// Drag the preview with the middle button.
	pv.HandlePointer(gpucontext.PointerEvent{Type: gpucontext.PointerDown, Button: gpucontext.ButtonMiddle})
	pv.HandlePointer(gpucontext.PointerEvent{Type: gpucontext.PointerMove, Button: gpucontext.ButtonNone, X: *dragX, Y: *dragY})
	pv.HandlePointer(gpucontext.PointerEvent{Type: gpucontext.PointerUp, Button: gpucontext.ButtonMiddle, X: *dragX, Y: *dragY})

	target := image.NewNRGBA(image.Rect(0, 0, *width, *height))
	frame := &soft.Frame{
		Target:     target,
		ModelView:  overlay.Identity4(),
		Projection: overlay.Ortho2D(0, float32(*width), float32(*height), 0),
	}
	drawBackground(target)
	if err := drawViewport(r, frame); err != nil {
		log.Fatalf("Failed to draw viewport: %v", err)
	}
	host.paint(frame)

	if err := imageio.SavePNG(*output, target); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	x, y := pv.Position()
	log.Printf("Preview of %s at (%.0f, %.0f) saved to %s (%dx%d, %d redraws)\n",
		url, x, y, *output, *width, *height, host.redraws)
}

// demoHost runs paint handlers once, when the frame is painted.
type demoHost struct {
	next     preview.HandlerID
	handlers map[preview.HandlerID]func(overlay.DrawContext)
	redraws  int
}

func (h *demoHost) AddPaintHandler(fn func(overlay.DrawContext)) preview.HandlerID {
	if h.handlers == nil {
		h.handlers = make(map[preview.HandlerID]func(overlay.DrawContext))
	}
	h.next++
	h.handlers[h.next] = fn
	return h.next
}

func (h *demoHost) RemovePaintHandler(id preview.HandlerID) { delete(h.handlers, id) }

func (h *demoHost) Redraw() { h.redraws++ }

func (h *demoHost) paint(dc overlay.DrawContext) {
	for _, fn := range h.handlers {
		fn(dc)
	}
}

// chooseSource returns the fetcher and URL for the preview image.
func chooseSource(p prefs.Preferences, src string) (preview.Fetcher, string, error) {
	if src == "" {
		path, err := writeChecker()
		if err != nil {
			return nil, "", err
		}
		return localFetcher{}, path, nil
	}
	if _, err := os.Stat(src); err == nil {
		return localFetcher{}, src, nil
	}
	c, err := p.NewFetcher()
	if err != nil {
		return nil, "", err
	}
	return c, src, nil
}

// catalogueSource looks up the first material of a category, or of the
// favorites, and returns its preview image URL.
func catalogueSource(ctx context.Context, p prefs.Preferences, engine string, category int, favorites bool) (preview.Fetcher, string, error) {
	c, err := p.NewFetcher()
	if err != nil {
		return nil, "", err
	}
	var mats []fetch.Material
	if favorites {
		if !p.HasFavorites() {
			return nil, "", errors.New("favorites need api_key in the preferences")
		}
		mats, err = c.Favorites(ctx, engine, p.APIKey)
	} else {
		mats, err = c.Materials(ctx, engine, category)
	}
	if err != nil {
		return nil, "", err
	}
	if len(mats) == 0 {
		return nil, "", errors.New("no materials listed")
	}
	detail, err := c.MaterialDetail(ctx, mats[0].ID)
	if err != nil {
		return nil, "", err
	}
	log.Printf("Material %q (%d downloads, rating %.1f), library %s\n",
		detail.Name, detail.Downloads, detail.Rating, detail.Storage)
	return c, detail.Image, nil
}

// localFetcher serves files that are already on disk.
type localFetcher struct{}

func (localFetcher) FetchImage(_ context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func writeChecker() (string, error) {
	const n = 8
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			c := color.NRGBA{R: 230, G: 120, B: 40, A: 255}
			if (x+y)%2 == 1 {
				c = color.NRGBA{R: 250, G: 240, B: 220, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(os.TempDir(), "overlaydemo-checker.png")
	return path, imageio.SavePNG(path, img)
}

func drawBackground(img *image.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		t := float64(y-b.Min.Y) / float64(b.Dy())
		c := color.NRGBA{
			R: uint8(40 + 40*t), //nolint:gosec // t in [0, 1)
			G: uint8(45 + 50*t), //nolint:gosec // t in [0, 1)
			B: uint8(60 + 60*t), //nolint:gosec // t in [0, 1)
			A: 255,
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// drawViewport draws a clip-space grid and border with flat batches.
func drawViewport(r *overlay.Renderer, dc overlay.DrawContext) error {
	s := overlay.NewStream()
	s.SetColor(1, 1, 1, 0.15)
	if err := s.BeginBatch(overlay.Lines); err != nil {
		return err
	}
	for i := -3; i <= 3; i++ {
		v := float32(i) / 4
		for _, p := range [][2]float32{{v, -1}, {v, 1}, {-1, v}, {1, v}} {
			if err := s.AppendVertex(p[0], p[1]); err != nil {
				return err
			}
		}
	}
	if err := r.Commit(s, dc); err != nil {
		return err
	}

	s.SetColor(0.9, 0.6, 0.2, 1)
	if err := s.BeginBatch(overlay.LineLoop); err != nil {
		return err
	}
	for _, p := range [][2]float32{{-0.99, -0.99}, {0.99, -0.99}, {0.99, 0.99}, {-0.99, 0.99}} {
		if err := s.AppendVertex(p[0], p[1]); err != nil {
			return err
		}
	}
	return r.Commit(s, dc)
}
