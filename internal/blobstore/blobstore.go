// Package blobstore keeps photo blobs as files in the cache directory.
package blobstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// ErrNotExist is returned when a blob is not present on disk.
var ErrNotExist = fs.ErrNotExist

const (
	// DefaultCacheTTL bounds how long a read blob stays in memory.
	DefaultCacheTTL = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// Store writes and reads blobs in a single directory.
type Store struct {
	dir   string
	cache *gocache.Cache
	now   func() time.Time
}

// Open returns a Store rooted at dir, creating the directory if needed.
func Open(dir string, cacheTTL time.Duration) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.Info("cache directory not found, creating", "path", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Store{
		dir:   dir,
		cache: gocache.New(cacheTTL, cleanupInterval),
		now:   time.Now,
	}, nil
}

// Dir returns the directory blobs are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Name builds a fresh blob name from the client's original filename. The
// millisecond prefix keeps names ordered by upload time and the uuid makes
// them unique even for simultaneous uploads of the same file.
func (s *Store) Name(original string) string {
	base := sanitize(original)
	return fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), uuid.NewString(), base)
}

func sanitize(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == 0:
			return -1
		case r < 0x20 || r == ' ':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		return "photo.jpg"
	}
	return base
}

// Save writes data under a new unique name derived from original and returns
// that name. The file is only visible under its final name once fully written.
func (s *Store) Save(original string, data []byte) (string, error) {
	name := s.Name(original)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("syncing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing blob: %w", err)
	}

	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("storing blob: %w", err)
	}

	return name, nil
}

// Read returns the blob's bytes. A cached copy is only used while the file is
// still on disk.
func (s *Store) Read(name string) ([]byte, error) {
	p, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(p); err != nil {
		s.cache.Delete(name)
		return nil, fmt.Errorf("reading blob %s: %w", name, err)
	}

	if v, ok := s.cache.Get(name); ok {
		if data, ok := v.([]byte); ok {
			return data, nil
		}
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", name, err)
	}
	s.cache.SetDefault(name, data)
	return data, nil
}

// Remove deletes the blob. Removing a blob that does not exist is not an error.
func (s *Store) Remove(name string) error {
	s.cache.Delete(name)

	p, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing blob %s: %w", name, err)
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// resolve maps a blob name to its path, refusing names that would escape the
// directory.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid blob name %q: %w", name, ErrNotExist)
	}
	return s.path(name), nil
}
