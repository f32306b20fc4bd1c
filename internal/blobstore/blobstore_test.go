package blobstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), time.Minute)
	require.NoError(t, err)
	return s
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	s, err := Open(dir, 0)
	require.NoError(t, err)
	require.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestOpenRequiresDirectory(t *testing.T) {
	_, err := Open("", 0)
	require.Error(t, err)
}

func TestSaveAndRead(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save("drill.jpg", []byte("jpeg bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(name, "-drill.jpg"), "name %q keeps the original filename", name)

	data, err := s.Read(name)
	require.NoError(t, err)
	require.Equal(t, "jpeg bytes", string(data))

	// No temp files are left behind.
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestNamesAreUnique(t *testing.T) {
	s := newTestStore(t)
	fixed := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name, err := s.Save("same.jpg", []byte{byte(i)})
		require.NoError(t, err)
		require.False(t, seen[name], "duplicate blob name %q", name)
		require.True(t, strings.HasPrefix(name, "1700000000000-"))
		seen[name] = true
	}
}

func TestSanitizeStripsDirectories(t *testing.T) {
	tests := map[string]string{
		"photo.png":            "photo.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\pic.jpg`:  "pic.jpg",
		"my holiday photo.jpg": "my_holiday_photo.jpg",
		"":                     "photo.jpg",
		"..":                   "photo.jpg",
	}
	for in, want := range tests {
		require.Equal(t, want, sanitize(in), "sanitize(%q)", in)
	}
}

func TestReadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read("nope.jpg")
	require.True(t, errors.Is(err, ErrNotExist), "got %v", err)

	_, err = s.Read("../outside.jpg")
	require.True(t, errors.Is(err, ErrNotExist), "got %v", err)
}

func TestReadNotServedFromCacheOnceFileIsGone(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save("a.jpg", []byte("data"))
	require.NoError(t, err)
	_, err = s.Read(name)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(s.Dir(), name)))

	_, err = s.Read(name)
	require.True(t, errors.Is(err, ErrNotExist), "got %v", err)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save("a.jpg", []byte("data"))
	require.NoError(t, err)
	_, err = s.Read(name)
	require.NoError(t, err)

	require.NoError(t, s.Remove(name))
	_, err = s.Read(name)
	require.True(t, errors.Is(err, ErrNotExist))

	require.NoError(t, s.Remove(name), "removing twice is not an error")
}
