package overlay

// Mat4 is a 4x4 float32 matrix stored in column-major order, the layout
// WGSL uses for mat4x4<f32> uniforms:
//
//	| m[0] m[4] m[8]  m[12] |
//	| m[1] m[5] m[9]  m[13] |
//	| m[2] m[6] m[10] m[14] |
//	| m[3] m[7] m[11] m[15] |
//
// Model-view and projection transforms supplied by the host use this type.
type Mat4 [16]float32

// Identity4 returns the identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate4 creates a translation matrix.
func Translate4(x, y, z float32) Mat4 {
	m := Identity4()
	m[12], m[13], m[14] = x, y, z
	return m
}

// Scale4 creates a scaling matrix.
func Scale4(x, y, z float32) Mat4 {
	m := Identity4()
	m[0], m[5], m[10] = x, y, z
	return m
}

// Ortho2D creates an orthographic projection mapping the rectangle
// [left, right] x [bottom, top] to clip space [-1, 1] x [-1, 1].
// z passes through unchanged.
//
// For a pixel-space overlay with the origin at the top-left corner use
// Ortho2D(0, width, height, 0).
func Ortho2D(left, right, bottom, top float32) Mat4 {
	m := Identity4()
	m[0] = 2 / (right - left)
	m[5] = 2 / (top - bottom)
	m[12] = -(right + left) / (right - left)
	m[13] = -(top + bottom) / (top - bottom)
	return m
}

// Mul returns m * n. Applied to a point, n acts first.
func (m Mat4) Mul(n Mat4) Mat4 {
	var r Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * n[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// Project transforms the point (x, y, 0, 1) and returns the homogeneous
// clip-space result.
func (m Mat4) Project(x, y float32) (cx, cy, cz, cw float32) {
	cx = m[0]*x + m[4]*y + m[12]
	cy = m[1]*x + m[5]*y + m[13]
	cz = m[2]*x + m[6]*y + m[14]
	cw = m[3]*x + m[7]*y + m[15]
	return cx, cy, cz, cw
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Mat4) IsIdentity() bool {
	return m == Identity4()
}
