package soft

import (
	"image"
	"math"

	"github.com/gogpu/overlay"
)

// screenVertex is a vertex after the vertex stage, in target pixels.
type screenVertex struct {
	x, y    float64
	u, v    float64
	visible bool
}

// rasterizer draws the primitives of one batch into a target.
type rasterizer struct {
	dst    *image.NRGBA
	clip   image.Rectangle
	verts  []screenVertex
	color  overlay.RGBA
	tex    *image.NRGBA
	pixels int
}

func newRasterizer(dst *image.NRGBA, b *overlay.Batch, tex *Texture) *rasterizer {
	r := &rasterizer{
		dst:   dst,
		clip:  dst.Rect,
		verts: make([]screenVertex, len(b.Positions)),
		color: b.Color,
	}
	if tex != nil {
		r.tex = tex.img
	}

	// Flat positions are already in clip space; textured ones go through
	// the host transforms.
	mvp := overlay.Identity4()
	if b.Textured() {
		mvp = b.Projection.Mul(b.ModelView)
	}
	w, h := float64(dst.Rect.Dx()), float64(dst.Rect.Dy())
	for i, p := range b.Positions {
		cx, cy, _, cw := mvp.Project(p.X, p.Y)
		if cw <= 0 {
			continue
		}
		nx, ny := float64(cx)/float64(cw), float64(cy)/float64(cw)
		sv := screenVertex{
			x:       float64(dst.Rect.Min.X) + (nx+1)*0.5*w,
			y:       float64(dst.Rect.Min.Y) + (1-ny)*0.5*h,
			visible: true,
		}
		if b.Textured() {
			sv.u, sv.v = float64(b.TexCoords[i].X), float64(b.TexCoords[i].Y)
		}
		r.verts[i] = sv
	}
	return r
}

// edge is positive when p lies to the left of a->b in y-down coordinates.
func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// ownsEdge breaks ties for pixel centers exactly on an edge shared by two
// triangles, so the pixel is drawn once.
func ownsEdge(a, b screenVertex) bool {
	nx, ny := -(b.y - a.y), b.x-a.x
	return nx > 0 || (nx == 0 && ny > 0)
}

func covered(w float64, owns bool) bool {
	return w > 0 || (w == 0 && owns)
}

// triangle fills the triangle at pixel centers, in either winding.
func (r *rasterizer) triangle(i0, i1, i2 uint32) {
	a, b, c := r.verts[i0], r.verts[i1], r.verts[i2]
	if !a.visible || !b.visible || !c.visible {
		return
	}
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	bounds := image.Rect(
		int(math.Floor(min(a.x, b.x, c.x))), int(math.Floor(min(a.y, b.y, c.y))),
		int(math.Ceil(max(a.x, b.x, c.x))), int(math.Ceil(max(a.y, b.y, c.y))),
	).Intersect(r.clip)

	ownA, ownB, ownC := ownsEdge(b, c), ownsEdge(c, a), ownsEdge(a, b)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		py := float64(y) + 0.5
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := float64(x) + 0.5
			wa, wb, wc := edge(b, c, px, py), edge(c, a, px, py), edge(a, b, px, py)
			if !covered(wa, ownA) || !covered(wb, ownB) || !covered(wc, ownC) {
				continue
			}
			wa, wb, wc = wa/area, wb/area, wc/area
			r.plot(x, y, wa*a.u+wb*b.u+wc*c.u, wa*a.v+wb*b.v+wc*c.v)
		}
	}
}

// line draws a one pixel wide DDA segment. The end pixel is left out so
// consecutive strip segments do not blend their shared vertex twice.
func (r *rasterizer) line(i0, i1 uint32) {
	a, b := r.verts[i0], r.verts[i1]
	if !a.visible || !b.visible {
		return
	}
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(math.Ceil(max(math.Abs(dx), math.Abs(dy))))
	for s := 0; s < steps; s++ {
		t := float64(s) / float64(steps)
		x := int(math.Floor(a.x + t*dx))
		y := int(math.Floor(a.y + t*dy))
		r.plot(x, y, a.u+t*(b.u-a.u), a.v+t*(b.v-a.v))
	}
}

// plot shades one fragment and composites it over the target pixel.
func (r *rasterizer) plot(x, y int, u, v float64) {
	if !(image.Point{X: x, Y: y}).In(r.clip) {
		return
	}
	sr, sg, sb := float64(r.color.R), float64(r.color.G), float64(r.color.B)
	sa := clamp01(float64(r.color.A))
	if r.tex != nil {
		t := r.sample(u, v)
		sr, sg, sb = float64(t.R)/255, float64(t.G)/255, float64(t.B)/255
	}

	i := r.dst.PixOffset(x, y)
	p := r.dst.Pix[i : i+4 : i+4]
	da := float64(p[3]) / 255
	inv := 1 - sa
	outA := sa + da*inv
	if outA <= 0 {
		return
	}
	p[0] = to8((clamp01(sr)*sa + float64(p[0])/255*da*inv) / outA)
	p[1] = to8((clamp01(sg)*sa + float64(p[1])/255*da*inv) / outA)
	p[2] = to8((clamp01(sb)*sa + float64(p[2])/255*da*inv) / outA)
	p[3] = to8(outA)
	r.pixels++
}

type texel struct{ R, G, B uint8 }

// sample returns the nearest texel, clamping to the edge.
func (r *rasterizer) sample(u, v float64) texel {
	rect := r.tex.Rect
	tx := clampInt(int(math.Floor(u*float64(rect.Dx()))), 0, rect.Dx()-1)
	ty := clampInt(int(math.Floor(v*float64(rect.Dy()))), 0, rect.Dy()-1)
	i := r.tex.PixOffset(rect.Min.X+tx, rect.Min.Y+ty)
	return texel{R: r.tex.Pix[i], G: r.tex.Pix[i+1], B: r.tex.Pix[i+2]}
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func to8(x float64) uint8 {
	return uint8(math.Round(clamp01(x) * 255)) //nolint:gosec // clamped to [0, 255]
}
