//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/overlay"
)

// buildVertexData serializes batch positions (and texture coordinates for
// textured batches) into interleaved little-endian float32 vertices.
func buildVertexData(b *overlay.Batch) []byte {
	if len(b.Positions) == 0 {
		return nil
	}
	stride := flatVertexStride
	if b.Textured() {
		stride = texturedVertexStride
	}
	data := make([]byte, len(b.Positions)*stride)
	off := 0
	for i, p := range b.Positions {
		putFloat32(data[off:], p.X)
		putFloat32(data[off+4:], p.Y)
		if b.Textured() {
			tc := b.TexCoords[i]
			putFloat32(data[off+8:], tc.X)
			putFloat32(data[off+12:], tc.Y)
		}
		off += stride
	}
	return data
}

// buildIndexData serializes indices as little-endian uint32.
func buildIndexData(indices []uint32) []byte {
	if len(indices) == 0 {
		return nil
	}
	data := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(data[i*4:], idx)
	}
	return data
}

// makeFlatUniform creates the 16-byte flat shader uniform.
func makeFlatUniform(c overlay.RGBA) []byte {
	buf := make([]byte, flatUniformSize)
	putColor(buf, c)
	return buf
}

// makeTexturedUniform creates the 144-byte textured shader uniform:
// model-view, projection, color. Matrices are already column-major.
func makeTexturedUniform(mv, proj overlay.Mat4, c overlay.RGBA) []byte {
	buf := make([]byte, texturedUniformSize)
	off := 0
	for _, v := range mv {
		putFloat32(buf[off:], v)
		off += 4
	}
	for _, v := range proj {
		putFloat32(buf[off:], v)
		off += 4
	}
	putColor(buf[off:], c)
	return buf
}

func putColor(buf []byte, c overlay.RGBA) {
	for i, v := range c.Array() {
		putFloat32(buf[i*4:], v)
	}
}

func putFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}
