// Package storetest holds the behavior every simplecms.SnapshotStore must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// Run exercises store. Names are scoped under a fresh prefix so the suite can
// run against a shared database or bucket.
func Run(t *testing.T, store simplecms.SnapshotStore, scope string) {
	ctx := context.Background()
	name := func(s string) string { return scope + s }

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, name("missing"))
		assert.ErrorIs(t, err, simplecms.ErrSnapshotNotFound)
	})

	t.Run("PutGet", func(t *testing.T) {
		data := []byte(`{"schemaVersion":1,"items":[{"id":"a"}]}`)
		require.NoError(t, store.Put(ctx, name("put-get"), data))

		got, err := store.Get(ctx, name("put-get"))
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(got))
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, name("overwrite"), []byte(`{"v":1}`)))
		require.NoError(t, store.Put(ctx, name("overwrite"), []byte(`{"v":2}`)))

		got, err := store.Get(ctx, name("overwrite"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, name("delete"), []byte(`[]`)))
		require.NoError(t, store.Delete(ctx, name("delete")))

		_, err := store.Get(ctx, name("delete"))
		assert.ErrorIs(t, err, simplecms.ErrSnapshotNotFound)

		// Deleting again is not an error
		assert.NoError(t, store.Delete(ctx, name("delete")))
	})

	t.Run("ListByPrefix", func(t *testing.T) {
		for _, n := range []string{"product-related-2", "product-related-1", "service-related-1"} {
			require.NoError(t, store.Put(ctx, name("list/"+n), []byte(`{}`)))
		}

		names, err := store.List(ctx, name("list/product-related-"))
		require.NoError(t, err)
		assert.Equal(t, []string{
			name("list/product-related-1"),
			name("list/product-related-2"),
		}, names)

		names, err = store.List(ctx, name("list/none-"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("ListByNonASCIIPrefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, name("café/product-related-é1"), []byte(`{}`)))
		require.NoError(t, store.Put(ctx, name("café/product-related-e1"), []byte(`{}`)))

		names, err := store.List(ctx, name("café/product-related-é"))
		require.NoError(t, err)
		assert.Equal(t, []string{name("café/product-related-é1")}, names)
	})

	t.Run("ConcurrentPuts", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.Put(ctx, name(fmt.Sprintf("concurrent-%d", i)), []byte(`{}`)))
			}(i)
		}
		wg.Wait()

		names, err := store.List(ctx, name("concurrent-"))
		require.NoError(t, err)
		assert.Len(t, names, 8)
	})
}
