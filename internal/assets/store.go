package assets

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Ref identifies a stored asset. Key is used for release, URL is what the
// browser loads.
type Ref struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Store keeps uploaded previews and generated results as content-addressed
// files under a data directory. Filenames are the MD5 of the bytes plus an
// extension derived from the media type, so re-uploading the same image is
// idempotent on disk.
type Store struct {
	dir string
	mu  sync.Mutex
	// refcount per key; the same bytes can back a preview in two sessions
	refs map[string]int
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create assets directory: %w", err)
	}
	return &Store{
		dir:  dir,
		refs: make(map[string]int),
	}, nil
}

// Put writes data to the store and returns a reference to it.
func (s *Store) Put(data []byte, mediaType string) (Ref, error) {
	sum := md5.Sum(data)
	key := hex.EncodeToString(sum[:]) + extensionFor(mediaType)
	path := filepath.Join(s.dir, key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs[key] == 0 {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return Ref{}, fmt.Errorf("failed to save asset: %w", err)
		}
	}
	s.refs[key]++

	width, height := imageDimensions(data)
	slog.Info("Asset stored", "key", key, "bytes", len(data), "media_type", mediaType)

	return Ref{
		Key:       key,
		URL:       "/static/assets/" + key,
		MediaType: mediaType,
		Width:     width,
		Height:    height,
	}, nil
}

// Save writes a generated result without reference tracking; results stay on
// disk until the data directory is cleaned out. Returns the URL to load the
// result from.
func (s *Store) Save(data []byte, mediaType string) (string, error) {
	sum := md5.Sum(data)
	key := hex.EncodeToString(sum[:]) + extensionFor(mediaType)

	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save result: %w", err)
	}
	slog.Info("Result stored", "key", key, "bytes", len(data))
	return "/static/assets/" + key, nil
}

// Release drops one reference to key, deleting the file when the last
// reference goes. Returns false if the key was not held, which callers treat
// as a double-release bug.
func (s *Store) Release(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.refs[key]
	if !ok || n == 0 {
		slog.Warn("Release of unheld asset", "key", key)
		return false
	}
	if n == 1 {
		delete(s.refs, key)
		if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
			slog.Warn("Failed to remove asset file", "key", key, "err", err)
		}
	} else {
		s.refs[key] = n - 1
	}
	return true
}

// Path returns the on-disk path for a stored key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

// Held reports how many live references the store is tracking.
func (s *Store) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.refs {
		total += n
	}
	return total
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
