package overlay

// Vec2 is a 2D position or texture coordinate as stored in a batch.
// Components are float32 because they are uploaded to the GPU verbatim.
type Vec2 struct {
	X, Y float32
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Cross returns the z component of the 3D cross product of v and w.
func (v Vec2) Cross(w Vec2) float32 {
	return v.X*w.Y - v.Y*w.X
}

// SignedArea returns the signed area of triangle (a, b, c). The result is
// positive when the vertices wind counter-clockwise in a y-up system.
func SignedArea(a, b, c Vec2) float32 {
	return b.Sub(a).Cross(c.Sub(a)) / 2
}
