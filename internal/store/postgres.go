package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
)

// migrationLockKey serializes schema changes between replicas starting at once.
const migrationLockKey = 72_011_001

// PostgresStore handles entry CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the entries table if it doesn't exist and upgrades tables
// from before entries were owned by a user.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockKey); err != nil {
		return fmt.Errorf("migration lock: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			journal    TEXT,
			intention  TEXT,
			dream      TEXT,
			priorities TEXT,
			reflection TEXT,
			strategy   TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}

	var hasOwner bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = 'entries' AND column_name = 'user_id'
		)`,
	).Scan(&hasOwner); err != nil {
		return fmt.Errorf("inspect entries table: %w", err)
	}
	if !hasOwner {
		if _, err := tx.Exec(ctx, `ALTER TABLE entries ADD COLUMN user_id TEXT`); err != nil {
			return fmt.Errorf("add user_id column: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE entries SET user_id = $1 WHERE user_id IS NULL`, LegacyOwner)
		if err != nil {
			return fmt.Errorf("backfill user_id: %w", err)
		}
		if _, err := tx.Exec(ctx, `ALTER TABLE entries ALTER COLUMN user_id SET NOT NULL`); err != nil {
			return fmt.Errorf("user_id not null: %w", err)
		}
		logger.Info("migrated entries table to per-user ownership", "backfilled", tag.RowsAffected(), "owner", LegacyOwner)
	}

	if _, err := tx.Exec(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_user_date ON entries (user_id, date)`,
	); err != nil {
		return fmt.Errorf("create (user_id, date) index: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Save(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := validateKey(e.UserID, e.Date); err != nil {
		return models.Entry{}, err
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO entries (user_id, date, journal, intention, dream, priorities, reflection, strategy)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, date) DO NOTHING
		 RETURNING id, created_at`,
		e.UserID, e.Date, e.Journal, e.Intention, e.Dream, e.Priorities, e.Reflection, e.Strategy,
	).Scan(&e.ID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Entry{}, apperrors.ErrDuplicateEntry
	}
	if err != nil {
		logger.Error("save entry failed", "user", e.UserID, "date", e.Date, "error", err)
		return models.Entry{}, fmt.Errorf("save entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetByDate(ctx context.Context, userID, date string) (models.Entry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 AND date = $2`, userID, date)
	e, err := scanPostgresEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Entry{}, apperrors.ErrEntryNotFound
	}
	if err != nil {
		logger.Error("get entry failed", "user", userID, "date", date, "error", err)
		return models.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetAll(ctx context.Context, userID string) ([]models.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 ORDER BY date DESC`, userID)
	if err != nil {
		logger.Error("list entries failed", "user", userID, "error", err)
		return []models.Entry{}, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanPostgresEntry(rows)
		if err != nil {
			return []models.Entry{}, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Dates(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT date FROM entries WHERE user_id = $1 ORDER BY date DESC`, userID)
	if err != nil {
		logger.Error("list dates failed", "user", userID, "error", err)
		return []string{}, fmt.Errorf("list dates: %w", err)
	}
	dates, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return []string{}, fmt.Errorf("list dates: %w", err)
	}
	return dates, nil
}

func (s *PostgresStore) Exists(ctx context.Context, userID, date string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entries WHERE user_id = $1 AND date = $2)`, userID, date,
	).Scan(&exists)
	if err != nil {
		logger.Error("entry exists check failed", "user", userID, "date", date, "error", err)
		return false, fmt.Errorf("entry exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		logger.Error("delete entry failed", "user", userID, "id", id, "error", err)
		return false, fmt.Errorf("delete entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) Stats(ctx context.Context, userID string) (models.Stats, error) {
	var (
		count            int
		earliest, latest sql.NullString
	)
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM entries WHERE user_id = $1`, userID,
	).Scan(&count, &earliest, &latest)
	if err != nil {
		logger.Error("entry stats failed", "user", userID, "error", err)
		return models.Stats{}, fmt.Errorf("entry stats: %w", err)
	}
	return statsFrom(count, earliest, latest), nil
}

func (s *PostgresStore) Update(ctx context.Context, userID string, id int64, fields map[string]string) (bool, error) {
	set, args := assignments(fields, func(i int) string { return fmt.Sprintf("$%d", i) })
	if set == "" {
		return false, nil
	}
	args = append(args, userID, id)
	query := fmt.Sprintf(`UPDATE entries SET %s WHERE user_id = $%d AND id = $%d`, set, len(args)-1, len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("update entry failed", "user", userID, "id", id, "error", err)
		return false, fmt.Errorf("update entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanPostgresEntry(row rowScanner) (models.Entry, error) {
	var e models.Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Journal, &e.Intention, &e.Dream,
		&e.Priorities, &e.Reflection, &e.Strategy, &e.CreatedAt)
	return e, err
}
