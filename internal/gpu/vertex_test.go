//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"image"
	"testing"

	"github.com/gogpu/overlay"
)

func TestBuildVertexData(t *testing.T) {
	flat := &overlay.Batch{Positions: []overlay.Vec2{{X: 1, Y: 2}, {X: 3, Y: 4}}}
	if got := readFloats(buildVertexData(flat)); len(got) != 4 || got[2] != 3 || got[3] != 4 {
		t.Errorf("flat vertices = %v, want [1 2 3 4]", got)
	}

	textured := &overlay.Batch{
		Positions: []overlay.Vec2{{X: 1, Y: 2}},
		TexCoords: []overlay.Vec2{{X: 0.25, Y: 0.75}},
	}
	got := readFloats(buildVertexData(textured))
	want := []float32{1, 2, 0.25, 0.75}
	if len(got) != len(want) {
		t.Fatalf("textured vertices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("textured vertices = %v, want %v", got, want)
			break
		}
	}

	if buildVertexData(&overlay.Batch{}) != nil {
		t.Error("empty batch should produce nil vertex data")
	}
}

func TestBuildIndexData(t *testing.T) {
	data := buildIndexData([]uint32{0, 1, 70000})
	if len(data) != 12 {
		t.Fatalf("len = %d, want 12", len(data))
	}
	if v := binary.LittleEndian.Uint32(data[8:]); v != 70000 {
		t.Errorf("third index = %d, want 70000", v)
	}
	if buildIndexData(nil) != nil {
		t.Error("nil indices should produce nil data")
	}
}

func TestMakeTexturedUniformLayout(t *testing.T) {
	mv := overlay.Scale4(2, 3, 1)
	proj := overlay.Translate4(5, 6, 0)
	u := readFloats(makeTexturedUniform(mv, proj, overlay.RGBA{R: 0.1, G: 0.2, B: 0.3, A: 0.4}))
	if u[0] != 2 || u[5] != 3 {
		t.Errorf("model-view diagonal = (%v, %v), want (2, 3)", u[0], u[5])
	}
	if u[16+12] != 5 || u[16+13] != 6 {
		t.Errorf("projection translation = (%v, %v), want (5, 6)", u[28], u[29])
	}
	if u[32] != 0.1 || u[35] != 0.4 {
		t.Errorf("color = %v, want [0.1 .. 0.4]", u[32:36])
	}
}

func TestUploadTextureEmpty(t *testing.T) {
	device, queue, cleanup := openNoopDevice(t)
	defer cleanup()

	if _, err := UploadTexture(device, queue, "empty", image.NewNRGBA(image.Rect(0, 0, 0, 0))); err != ErrEmptyImage {
		t.Errorf("UploadTexture(empty) = %v, want ErrEmptyImage", err)
	}
	tex, err := UploadTexture(device, queue, "ok", image.NewNRGBA(image.Rect(0, 0, 3, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if w, h := tex.Size(); w != 3 || h != 5 {
		t.Errorf("Size() = %d,%d, want 3,5", w, h)
	}
	tex.Destroy(device)
	tex.Destroy(device)
}
