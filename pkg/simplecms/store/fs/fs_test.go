package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms/store/storetest"
)

func TestFSBackend(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	storetest.Run(t, backend, "")
}

func TestFSBackend_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base directory is required")
}

func TestFSBackend_NamesStayInsideBaseDir(t *testing.T) {
	parent := t.TempDir()
	baseDir := filepath.Join(parent, "snapshots")
	backend, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "../escape", []byte(`{}`)))

	_, err = os.Stat(filepath.Join(parent, "escape.json"))
	assert.True(t, os.IsNotExist(err))

	names, err := backend.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"../escape"}, names)
}

func TestFSBackend_NoTempFilesLeft(t *testing.T) {
	baseDir := t.TempDir()
	backend, err := New(Config{BaseDir: baseDir})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "parts", []byte(`[]`)))
	require.NoError(t, backend.Put(ctx, "parts", []byte(`[{"id":"p1"}]`)))

	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "parts.json", entries[0].Name())
}
