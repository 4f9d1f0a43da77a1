package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cms/pkg/simplecms/store/storetest"
)

// TestPostgresStore requires a running PostgreSQL instance
func TestPostgresStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer pool.Close()

	store := NewWithPool(pool)
	require.NoError(t, store.Migrate(ctx))

	scope := fmt.Sprintf("test-%d/", time.Now().UnixNano())
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM cms_snapshots WHERE starts_with(name, $1)`, scope)
	})

	storetest.Run(t, store, scope)
}
