package scene

import (
	"errors"
	"testing"

	"github.com/hollowshade/aurora-assets/pkg/formats"
)

// fakeRenderer records backend calls for verification.
type fakeRenderer struct {
	next     MeshHandle
	uploaded map[MeshHandle]string
	visible  map[MeshHandle]bool

	failOn string // mesh name that fails to upload
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{
		uploaded: make(map[MeshHandle]string),
		visible:  make(map[MeshHandle]bool),
	}
}

func (r *fakeRenderer) UploadMesh(name string, vertices []float32, stride int, indices []uint16) (MeshHandle, error) {
	if name == r.failOn {
		return 0, errors.New("out of video memory")
	}
	if stride != formats.TerrainVertexStride && stride != formats.WaterVertexStride {
		return 0, errors.New("unexpected vertex stride")
	}

	r.next++
	r.uploaded[r.next] = name
	r.visible[r.next] = false
	return r.next, nil
}

func (r *fakeRenderer) SetVisible(h MeshHandle, visible bool) {
	r.visible[h] = visible
}

func (r *fakeRenderer) DeleteMesh(h MeshHandle) {
	delete(r.uploaded, h)
	delete(r.visible, h)
}

func testArea() *formats.TRX {
	return &formats.TRX{
		Width:  4,
		Height: 4,
		Terrain: []formats.TerrainMesh{
			{Name: "patch00", Vertices: make([]float32, 3*formats.TerrainVertexStride), Indices: []uint16{0, 1, 2}},
			{Name: "patch01", Vertices: make([]float32, 3*formats.TerrainVertexStride), Indices: []uint16{0, 1, 2}},
		},
		Water: []formats.WaterMesh{
			{Name: "lake", Vertices: make([]float32, 3*formats.WaterVertexStride), Indices: []uint16{0, 1, 2}},
		},
	}
}

func TestSceneLoadTerrain(t *testing.T) {
	r := newFakeRenderer()
	s := New(r, nil)

	if err := s.LoadTerrain(testArea()); err != nil {
		t.Fatalf("failed to load terrain: %v", err)
	}

	if s.MeshCount() != 3 {
		t.Errorf("expected 3 meshes, got %d", s.MeshCount())
	}
	if w, h := s.Size(); w != 4 || h != 4 {
		t.Errorf("expected size 4x4, got %dx%d", w, h)
	}
	if s.Visible() {
		t.Error("expected freshly loaded geometry to start hidden")
	}
}

func TestSceneShowHide(t *testing.T) {
	r := newFakeRenderer()
	s := New(r, nil)

	if err := s.LoadTerrain(testArea()); err != nil {
		t.Fatal(err)
	}

	s.Show()
	if !s.Visible() {
		t.Error("expected scene to be visible after Show")
	}
	for h, name := range r.uploaded {
		if !r.visible[h] {
			t.Errorf("mesh %q not in draw set after Show", name)
		}
	}

	s.Hide()
	if s.Visible() {
		t.Error("expected scene to be hidden after Hide")
	}
	for h, name := range r.uploaded {
		if r.visible[h] {
			t.Errorf("mesh %q still in draw set after Hide", name)
		}
	}
}

func TestSceneShowIsIdempotent(t *testing.T) {
	r := newFakeRenderer()
	s := New(r, nil)

	if err := s.LoadTerrain(testArea()); err != nil {
		t.Fatal(err)
	}

	s.Show()
	s.Show()
	if !s.Visible() {
		t.Error("expected scene to stay visible")
	}

	s.Hide()
	s.Hide()
	if s.Visible() {
		t.Error("expected scene to stay hidden")
	}
}

func TestSceneReloadReleasesOldGeometry(t *testing.T) {
	r := newFakeRenderer()
	s := New(r, nil)

	if err := s.LoadTerrain(testArea()); err != nil {
		t.Fatal(err)
	}
	s.Show()

	if err := s.LoadTerrain(testArea()); err != nil {
		t.Fatal(err)
	}

	if len(r.uploaded) != 3 {
		t.Errorf("expected old meshes released, %d meshes held", len(r.uploaded))
	}
	if s.Visible() {
		t.Error("expected reloaded geometry to start hidden")
	}
}

func TestSceneUploadFailureRollsBack(t *testing.T) {
	r := newFakeRenderer()
	r.failOn = "lake"
	s := New(r, nil)

	if err := s.LoadTerrain(testArea()); err == nil {
		t.Fatal("expected upload error")
	}

	if len(r.uploaded) != 0 {
		t.Errorf("expected partial uploads released, %d meshes held", len(r.uploaded))
	}
	if s.MeshCount() != 0 {
		t.Errorf("expected empty scene after failed load, got %d meshes", s.MeshCount())
	}
}

func TestSceneClear(t *testing.T) {
	r := newFakeRenderer()
	s := New(r, nil)

	if err := s.LoadTerrain(testArea()); err != nil {
		t.Fatal(err)
	}
	s.Show()
	s.Clear()

	if len(r.uploaded) != 0 {
		t.Errorf("expected all meshes released, %d held", len(r.uploaded))
	}
	if s.Visible() {
		t.Error("expected cleared scene to be hidden")
	}
	if w, h := s.Size(); w != 0 || h != 0 {
		t.Errorf("expected zero size after clear, got %dx%d", w, h)
	}
}
