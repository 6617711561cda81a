package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadList(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("semesterPlannerData/b.json", []byte("second"))
	require.NoError(t, err)
	_, err = s.Save("semesterPlannerData/a.json", []byte("first"))
	require.NoError(t, err)

	data, err := s.Read("semesterPlannerData/a.json")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"semesterPlannerData/a.json", "semesterPlannerData/b.json"}, names)
}

func TestLocalStorageRejectsEscape(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("../outside.json", []byte("x"))
	assert.Error(t, err)
	_, err = s.Save("/etc/passwd", []byte("x"))
	assert.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = s.Save("old.json", []byte("old"))
	require.NoError(t, err)
	_, err = s.Save("new.json", []byte("new"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), past, past))

	deleted, err := s.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.json"}, deleted)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"new.json"}, names)

	require.NoError(t, s.Delete("new.json"))
	require.NoError(t, s.Delete("new.json"))
}
