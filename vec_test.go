package overlay

import "testing"

func TestSignedArea(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Vec2
		want    float32
	}{
		{"ccw", V2(0, 0), V2(2, 0), V2(0, 2), 2},
		{"cw", V2(0, 0), V2(0, 2), V2(2, 0), -2},
		{"degenerate", V2(0, 0), V2(1, 1), V2(2, 2), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignedArea(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("SignedArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec2Arithmetic(t *testing.T) {
	a, b := V2(1, 2), V2(3, 5)
	if got := a.Add(b); got != V2(4, 7) {
		t.Errorf("Add() = %v", got)
	}
	if got := b.Sub(a); got != V2(2, 3) {
		t.Errorf("Sub() = %v", got)
	}
	if got := a.Cross(b); got != -1 {
		t.Errorf("Cross() = %v, want -1", got)
	}
}
