package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "cms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	storetest.Run(t, store, "")
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "parts", []byte(`[]`)))
	got, err := store.Get(ctx, "parts")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "sqlite", DriverName("file:cms.db"))
	assert.Equal(t, "sqlite", DriverName(":memory:"))
	assert.Equal(t, "libsql", DriverName("libsql://cms-example.turso.io?authToken=x"))
	assert.Equal(t, "libsql", DriverName("wss://cms-example.turso.io"))
}
