// Package assets handles asset loading and caching.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/hollowshade/aurora-assets/pkg/formats"
)

// Manager locates loose asset files across search directories and decodes
// them. Decoded assets are cached; failed decodes are never cached.
type Manager struct {
	searchPaths []string
	cache       *Cache
	log         *zap.Logger
	mu          sync.RWMutex
}

// NewManager creates a new asset manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cache: NewCache(),
		log:   log,
	}
}

// AddSearchPath adds a directory to search for asset files.
// Directories are searched in reverse order (last added = highest priority).
func (m *Manager) AddSearchPath(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("adding search path %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding search path %s: not a directory", dir)
	}

	m.mu.Lock()
	m.searchPaths = append(m.searchPaths, dir)
	m.mu.Unlock()

	return nil
}

// Resolve finds the highest-priority file matching name across the search
// paths.
func (m *Manager) Resolve(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.searchPaths) - 1; i >= 0; i-- {
		path := filepath.Join(m.searchPaths[i], name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("asset not found: %s", name)
}

// Terrain loads and decodes a baked terrain file by name.
func (m *Manager) Terrain(name string) (*formats.TRX, error) {
	if cached, ok := m.cache.Get(name); ok {
		return cached.(*formats.TRX), nil
	}

	path, err := m.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load terrain %q: %w", name, err)
	}

	trx, err := formats.ParseTRXFile(path)
	if err != nil {
		m.log.Warn("terrain decode failed",
			zap.String("asset", name),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load terrain %q: %w", name, err)
	}

	m.log.Debug("terrain loaded",
		zap.String("asset", name),
		zap.Int("terrainMeshes", len(trx.Terrain)),
		zap.Int("waterMeshes", len(trx.Water)))

	m.cache.Set(name, trx)
	return trx, nil
}

// SoundBank loads and decodes a sound bank file by name.
func (m *Manager) SoundBank(name string) (*formats.XSB, error) {
	if cached, ok := m.cache.Get(name); ok {
		return cached.(*formats.XSB), nil
	}

	path, err := m.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load sound bank %q: %w", name, err)
	}

	bank, err := formats.ParseXSBFile(path)
	if err != nil {
		m.log.Warn("sound bank decode failed",
			zap.String("asset", name),
			zap.String("path", path),
			zap.Error(err))
		return nil, fmt.Errorf("failed to load sound bank %q: %w", name, err)
	}

	m.log.Debug("sound bank loaded",
		zap.String("asset", name),
		zap.String("bank", bank.Name),
		zap.Int("cues", len(bank.Cues)),
		zap.Int("sounds", len(bank.Sounds)))

	m.cache.Set(name, bank)
	return bank, nil
}

// Close drops all search paths and cached assets.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchPaths = nil
	m.cache.Clear()
}

// Cache is a simple in-memory cache for decoded assets.
type Cache struct {
	data map[string]any
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]any),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return item, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, item any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = item
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]any)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
