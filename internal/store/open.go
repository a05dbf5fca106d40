package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ayush/consciousday/backend/internal/config"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
)

// Entries is the entry store contract shared by the SQLite and Postgres
// backends, plus their lifecycle.
type Entries interface {
	Migrate(ctx context.Context) error
	Close() error

	Save(ctx context.Context, e models.Entry) (models.Entry, error)
	GetByDate(ctx context.Context, userID, date string) (models.Entry, error)
	GetAll(ctx context.Context, userID string) ([]models.Entry, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, date string) (bool, error)
	Delete(ctx context.Context, userID string, id int64) (bool, error)
	Stats(ctx context.Context, userID string) (models.Stats, error)
	Update(ctx context.Context, userID string, id int64, fields map[string]string) (bool, error)
}

var (
	_ Entries = (*SQLiteStore)(nil)
	_ Entries = (*PostgresStore)(nil)
)

// OpenEntries connects the backend selected by cfg.DatabaseDriver and brings
// its schema up to date.
func OpenEntries(ctx context.Context, cfg *config.Config) (Entries, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("entry store ready", "driver", "sqlite", "path", cfg.SQLitePath)
		return s, nil
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		s := NewPostgresStore(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("entry store ready", "driver", "postgres")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
