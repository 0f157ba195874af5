package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/peerlink/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Store bundles a repository with the lifecycle of its backing storage.
// There is deliberately no package-level singleton; the app owns the store
// and passes it down.
type Store struct {
	repo Repository
	db   *sql.DB
}

func (s *Store) Repository() Repository { return s.repo }

// Close flushes and releases the backing storage.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// NewInMemoryStore creates a store with no durable backing. Used in tests
// and single-process setups.
func NewInMemoryStore() *Store {
	return &Store{repo: NewInMemoryRepository()}
}

// NewPostgresStore opens the DSN with the pgx stdlib driver and applies the
// embedded goose migrations before returning.
func NewPostgresStore(ctx context.Context, dsn string) (*Store, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Store{repo: NewPostgresRepository(db), db: db}, nil
}
