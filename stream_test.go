package overlay

import (
	"errors"
	"sync"
	"testing"
)

func TestNewStreamDefaults(t *testing.T) {
	s := NewStream()
	if s.Color() != White {
		t.Errorf("Color() = %v, want %v", s.Color(), White)
	}
	if s.LineWidth() != 1 {
		t.Errorf("LineWidth() = %v, want 1", s.LineWidth())
	}
	if s.Open() || s.Topology() != TopologyNone {
		t.Errorf("new stream should have no batch, got %s", s.Topology())
	}
	if s.Len() != 0 || s.Dims() != 0 {
		t.Errorf("new stream should be empty, got len=%d dims=%d", s.Len(), s.Dims())
	}
}

func TestStreamAppendRequiresBatch(t *testing.T) {
	s := NewStream()
	if err := s.AppendVertex(1, 2); !errors.Is(err, ErrNoBatch) {
		t.Errorf("AppendVertex outside batch = %v, want ErrNoBatch", err)
	}
	if err := s.AppendVertex3(1, 2, 3); !errors.Is(err, ErrNoBatch) {
		t.Errorf("AppendVertex3 outside batch = %v, want ErrNoBatch", err)
	}
	if err := s.AppendTexCoord(0, 0); !errors.Is(err, ErrNoBatch) {
		t.Errorf("AppendTexCoord outside batch = %v, want ErrNoBatch", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after rejected appends, want 0", s.Len())
	}
}

func TestStreamAppend(t *testing.T) {
	s := NewStream()
	if err := s.BeginBatch(Triangles); err != nil {
		t.Fatalf("BeginBatch: %v", err)
	}
	mustAppend(t, s, V2(0, 0), V2(1, 0), V2(0, 1))
	if err := s.AppendTexCoord(0.5, 0.25); err != nil {
		t.Fatalf("AppendTexCoord: %v", err)
	}

	if s.Topology() != Triangles {
		t.Errorf("Topology() = %s, want Triangles", s.Topology())
	}
	if s.Dims() != 2 {
		t.Errorf("Dims() = %d, want 2", s.Dims())
	}
	want := []Vec2{{0, 0}, {1, 0}, {0, 1}}
	got := s.Vertices()
	if len(got) != len(want) {
		t.Fatalf("Vertices() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Vertices()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if tc := s.TexCoords(); len(tc) != 1 || tc[0] != V2(0.5, 0.25) {
		t.Errorf("TexCoords() = %v, want [{0.5 0.25}]", tc)
	}

	// Returned slices are copies.
	got[0] = V2(9, 9)
	if s.Vertices()[0] != V2(0, 0) {
		t.Error("Vertices() exposed internal storage")
	}
}

func TestStreamAppendVertex3MarksDims(t *testing.T) {
	s := NewStream()
	_ = s.BeginBatch(Lines)
	if err := s.AppendVertex3(1, 2, 3); err != nil {
		t.Fatalf("AppendVertex3: %v", err)
	}
	if s.Dims() != 3 {
		t.Errorf("Dims() = %d, want 3", s.Dims())
	}
	if v := s.Vertices()[0]; v != V2(1, 2) {
		t.Errorf("stored vertex = %v, want {1 2}", v)
	}
}

func TestStreamBeginBatchInProgress(t *testing.T) {
	s := NewStream()
	_ = s.BeginBatch(Lines)
	mustAppend(t, s, V2(0, 0), V2(1, 1))

	err := s.BeginBatch(Triangles)
	if !errors.Is(err, ErrBatchInProgress) {
		t.Fatalf("BeginBatch over open batch = %v, want ErrBatchInProgress", err)
	}
	if s.Topology() != Lines || s.Len() != 2 {
		t.Errorf("rejected BeginBatch changed state: topology=%s len=%d", s.Topology(), s.Len())
	}

	s.Clear()
	if err := s.BeginBatch(Triangles); err != nil {
		t.Errorf("BeginBatch after Clear: %v", err)
	}
}

func TestStreamBeginBatchRedeclaresEmptyBatch(t *testing.T) {
	s := NewStream()
	_ = s.BeginBatch(Lines)
	if err := s.BeginBatch(Quads); err != nil {
		t.Fatalf("BeginBatch on empty batch: %v", err)
	}
	if s.Topology() != Quads {
		t.Errorf("Topology() = %s, want Quads", s.Topology())
	}
}

func TestStreamClearKeepsGraphicsState(t *testing.T) {
	s := NewStream()
	s.SetColor(0.1, 0.2, 0.3, 0.4)
	s.SetLineWidth(3)
	_ = s.BeginBatch(Quads)
	mustAppend(t, s, V2(0, 0))
	_ = s.AppendTexCoord(0, 0)

	s.Clear()

	if s.Len() != 0 || len(s.TexCoords()) != 0 {
		t.Errorf("Clear left data: len=%d texcoords=%d", s.Len(), len(s.TexCoords()))
	}
	if s.Topology() != TopologyNone || s.Dims() != 0 {
		t.Errorf("Clear left topology=%s dims=%d", s.Topology(), s.Dims())
	}
	if want := (RGBA{0.1, 0.2, 0.3, 0.4}); s.Color() != want {
		t.Errorf("Color() = %v after Clear, want %v", s.Color(), want)
	}
	if s.LineWidth() != 3 {
		t.Errorf("LineWidth() = %v after Clear, want 3", s.LineWidth())
	}
}

func TestStreamSetColorBeforeBatch(t *testing.T) {
	s := NewStream()
	s.SetColor(1, 0, 0, 1)
	_ = s.BeginBatch(Lines)
	if s.Color() != (RGBA{1, 0, 0, 1}) {
		t.Errorf("color set before BeginBatch was lost: %v", s.Color())
	}
}

func TestDefaultStreamSingleInstance(t *testing.T) {
	const n = 16
	got := make([]*Stream, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = Default()
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("Default() returned different instances")
		}
	}
	if got[0] == nil {
		t.Fatal("Default() returned nil")
	}
}

func mustAppend(t *testing.T, s *Stream, vs ...Vec2) {
	t.Helper()
	for _, v := range vs {
		if err := s.AppendVertex(v.X, v.Y); err != nil {
			t.Fatalf("AppendVertex(%v): %v", v, err)
		}
	}
}
