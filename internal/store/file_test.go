package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfedor2020/Portfolio-Scripts/internal/domain"
)

func TestFileStore_ReadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "stats.json"))

	data, err := s.Read()
	assert.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileStore_WriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "stats.json")
	s := NewFileStore(path)
	assert.Equal(t, path, s.Path())

	require.NoError(t, s.Write([]byte(`{"followers": 10}`)))
	require.NoError(t, s.Write([]byte(`{"followers": 11}`)))

	data, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, `{"followers": 11}`, string(data))

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ReadError(t *testing.T) {
	// A directory at the target path cannot be read as a file.
	dir := t.TempDir()
	s := NewFileStore(dir)

	_, err := s.Read()
	assert.ErrorIs(t, err, domain.ErrWrite)
}

func TestFileStore_WriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// The parent of the target is a regular file.
	s := NewFileStore(filepath.Join(blocker, "stats.json"))
	err := s.Write([]byte("{}"))
	assert.ErrorIs(t, err, domain.ErrWrite)
}
