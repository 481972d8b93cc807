// Package scene owns decoded area geometry and hands it to a rendering
// backend. The backend itself (GPU upload, shaders, windowing) lives behind
// the Renderer interface.
package scene

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hollowshade/aurora-assets/pkg/formats"
)

// MeshHandle identifies a mesh held by a rendering backend.
type MeshHandle uint64

// Renderer is the rendering backend boundary. Implementations receive
// GPU-ready interleaved vertex buffers and 16-bit index buffers.
type Renderer interface {
	// UploadMesh registers a mesh and returns a handle for it. Stride is
	// the number of floats per vertex.
	UploadMesh(name string, vertices []float32, stride int, indices []uint16) (MeshHandle, error)

	// SetVisible toggles a mesh in or out of the draw set.
	SetVisible(h MeshHandle, visible bool)

	// DeleteMesh releases a mesh.
	DeleteMesh(h MeshHandle)
}

// Scene manages the geometry of one loaded area: all terrain and water
// meshes of a baked-terrain file, shown and hidden as a unit.
type Scene struct {
	renderer Renderer
	log      *zap.Logger

	// frameMu guards the draw set against a concurrently running frame.
	frameMu sync.Mutex

	handles []MeshHandle
	visible bool

	width  uint32
	height uint32
}

// New creates a scene backed by the given renderer.
func New(r Renderer, log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{
		renderer: r,
		log:      log,
	}
}

// LoadTerrain uploads all terrain and water meshes of a decoded area.
// Previously loaded geometry is released first. The new set starts hidden.
func (s *Scene) LoadTerrain(trx *formats.TRX) error {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	s.clearLocked()

	s.width = trx.Width
	s.height = trx.Height

	for i := range trx.Terrain {
		mesh := &trx.Terrain[i]

		h, err := s.renderer.UploadMesh(mesh.Name, mesh.Vertices, formats.TerrainVertexStride, mesh.Indices)
		if err != nil {
			s.clearLocked()
			return fmt.Errorf("uploading terrain mesh %q: %w", mesh.Name, err)
		}
		s.handles = append(s.handles, h)
	}

	for i := range trx.Water {
		mesh := &trx.Water[i]

		h, err := s.renderer.UploadMesh(mesh.Name, mesh.Vertices, formats.WaterVertexStride, mesh.Indices)
		if err != nil {
			s.clearLocked()
			return fmt.Errorf("uploading water mesh %q: %w", mesh.Name, err)
		}
		s.handles = append(s.handles, h)
	}

	s.log.Debug("area geometry loaded",
		zap.Uint32("width", s.width),
		zap.Uint32("height", s.height),
		zap.Int("meshes", len(s.handles)))

	return nil
}

// Show makes the full terrain and water set visible.
func (s *Scene) Show() {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	s.setVisibleLocked(true)
}

// Hide removes the full terrain and water set from the draw set.
func (s *Scene) Hide() {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()

	s.setVisibleLocked(false)
}

func (s *Scene) setVisibleLocked(visible bool) {
	if s.visible == visible {
		return
	}
	for _, h := range s.handles {
		s.renderer.SetVisible(h, visible)
	}
	s.visible = visible
}

// Visible reports whether the scene geometry is currently shown.
func (s *Scene) Visible() bool {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.visible
}

// Size returns the area dimensions in terrain tiles.
func (s *Scene) Size() (width, height uint32) {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return s.width, s.height
}

// MeshCount returns the number of uploaded meshes.
func (s *Scene) MeshCount() int {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	return len(s.handles)
}

// Clear releases all loaded geometry.
func (s *Scene) Clear() {
	s.frameMu.Lock()
	defer s.frameMu.Unlock()
	s.clearLocked()
}

func (s *Scene) clearLocked() {
	for _, h := range s.handles {
		s.renderer.DeleteMesh(h)
	}
	s.handles = nil
	s.visible = false
	s.width = 0
	s.height = 0
}
