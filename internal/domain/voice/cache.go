package voice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache keeps the enumerated voice list of each engine on disk so that slow
// or remote engines are not queried on every run.
type Cache struct {
	cacheDir string
	maxAge   time.Duration
}

// cachedVoices is the on-disk representation of one engine's voice list
type cachedVoices struct {
	Engine      string    `json:"engine"`
	Voices      []Voice   `json:"voices"`
	LastUpdated time.Time `json:"last_updated"`
}

// FetchFunc enumerates voices from the engine itself
type FetchFunc func() ([]Voice, error)

// NewCache creates a voice cache rooted at cacheDir
func NewCache(cacheDir string, maxAge time.Duration) *Cache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create voice cache directory")
	}

	return &Cache{
		cacheDir: cacheDir,
		maxAge:   maxAge,
	}
}

// Voices returns the engine's voices, from cache when fresh or from fetch
// otherwise. A stale cache is still used when fetch fails.
func (c *Cache) Voices(engine string, fetch FetchFunc) ([]Voice, error) {
	if c.isFresh(engine) {
		if voices, err := c.load(engine); err == nil {
			return voices, nil
		}
	}

	voices, err := fetch()
	if err != nil {
		logrus.WithError(err).WithField("engine", engine).Warn("Voice enumeration failed, trying stale cache")
		if cached, cacheErr := c.load(engine); cacheErr == nil {
			return cached, nil
		}
		return nil, fmt.Errorf("failed to enumerate voices and no cache available: %w", err)
	}

	if err := c.save(engine, voices); err != nil {
		logrus.WithError(err).Warn("Failed to save voice cache")
	}

	return voices, nil
}

// Clear removes the cached voice list of one engine
func (c *Cache) Clear(engine string) error {
	if err := os.Remove(c.path(engine)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear voice cache: %w", err)
	}
	logrus.WithField("engine", engine).Debug("Cleared voice cache")
	return nil
}

func (c *Cache) path(engine string) string {
	return filepath.Join(c.cacheDir, fmt.Sprintf("voices_%s.json", engine))
}

func (c *Cache) isFresh(engine string) bool {
	if c.maxAge <= 0 {
		return false
	}

	info, err := os.Stat(c.path(engine))
	if err != nil {
		return false
	}

	return time.Since(info.ModTime()) < c.maxAge
}

func (c *Cache) load(engine string) ([]Voice, error) {
	file, err := os.Open(c.path(engine))
	if err != nil {
		return nil, fmt.Errorf("failed to open voice cache: %w", err)
	}
	defer file.Close()

	var cached cachedVoices
	if err := json.NewDecoder(file).Decode(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode voice cache: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"engine":       engine,
		"voices":       len(cached.Voices),
		"last_updated": cached.LastUpdated.Format(time.RFC3339),
	}).Debug("Loaded voices from cache")

	return cached.Voices, nil
}

func (c *Cache) save(engine string, voices []Voice) error {
	cached := cachedVoices{
		Engine:      engine,
		Voices:      voices,
		LastUpdated: time.Now(),
	}

	file, err := os.Create(c.path(engine))
	if err != nil {
		return fmt.Errorf("failed to create voice cache: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cached); err != nil {
		return fmt.Errorf("failed to encode voice cache: %w", err)
	}

	return nil
}
