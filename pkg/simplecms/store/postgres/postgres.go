package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cms_snapshots (
	name       TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements simplecms.SnapshotStore using one PostgreSQL table
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL snapshot store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL snapshot store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Migrate creates the snapshot table if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return s.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (s *Store) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02", "22032": // invalid_text_representation, invalid_json_text
			return fmt.Errorf("snapshot is not valid JSON")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM cms_snapshots WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplecms.ErrSnapshotNotFound
		}
		return nil, s.handlePostgresError("get snapshot", err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	query := `
		INSERT INTO cms_snapshots (name, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(ctx, query, name, string(data)); err != nil {
		return s.handlePostgresError("put snapshot", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM cms_snapshots WHERE name = $1`, name); err != nil {
		return s.handlePostgresError("delete snapshot", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name FROM cms_snapshots WHERE starts_with(name, $1) ORDER BY name`, prefix)
	if err != nil {
		return nil, s.handlePostgresError("list snapshots", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, s.handlePostgresError("list snapshots", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, s.handlePostgresError("list snapshots", err)
	}
	return names, nil
}
