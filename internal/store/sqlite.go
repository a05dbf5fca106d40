package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
)

// SQLiteStore handles entry CRUD against an embedded SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and migrates it.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection means one writer: requests and the first-run migration
	// serialize here instead of racing on the file.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the entries table if it doesn't exist and upgrades tables
// from before entries were owned by a user.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS entries (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			journal    TEXT,
			intention  TEXT,
			dream      TEXT,
			priorities TEXT,
			reflection TEXT,
			strategy   TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create entries table: %w", err)
	}

	hasOwner, err := s.columnExists(ctx, tx, "entries", "user_id")
	if err != nil {
		return fmt.Errorf("inspect entries table: %w", err)
	}
	if !hasOwner {
		if _, err := tx.ExecContext(ctx, `ALTER TABLE entries ADD COLUMN user_id TEXT`); err != nil {
			return fmt.Errorf("add user_id column: %w", err)
		}
		res, err := tx.ExecContext(ctx, `UPDATE entries SET user_id = ? WHERE user_id IS NULL`, LegacyOwner)
		if err != nil {
			return fmt.Errorf("backfill user_id: %w", err)
		}
		n, _ := res.RowsAffected()
		logger.Info("migrated entries table to per-user ownership", "backfilled", n, "owner", LegacyOwner)
	}

	if _, err := tx.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_user_date ON entries (user_id, date)`,
	); err != nil {
		return fmt.Errorf("create (user_id, date) index: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) columnExists(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := validateKey(e.UserID, e.Date); err != nil {
		return models.Entry{}, err
	}

	e.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (user_id, date, journal, intention, dream, priorities, reflection, strategy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO NOTHING`,
		e.UserID, e.Date, e.Journal, e.Intention, e.Dream, e.Priorities, e.Reflection, e.Strategy,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		logger.Error("save entry failed", "user", e.UserID, "date", e.Date, "error", err)
		return models.Entry{}, fmt.Errorf("save entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Entry{}, apperrors.ErrDuplicateEntry
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return models.Entry{}, fmt.Errorf("save entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) GetByDate(ctx context.Context, userID, date string) (models.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = ? AND date = ?`, userID, date)
	e, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, apperrors.ErrEntryNotFound
	}
	if err != nil {
		logger.Error("get entry failed", "user", userID, "date", date, "error", err)
		return models.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, userID string) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		logger.Error("list entries failed", "user", userID, "error", err)
		return []models.Entry{}, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
		if err != nil {
			return []models.Entry{}, fmt.Errorf("list entries: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Dates(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM entries WHERE user_id = ? ORDER BY date DESC`, userID)
	if err != nil {
		logger.Error("list dates failed", "user", userID, "error", err)
		return []string{}, fmt.Errorf("list dates: %w", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return []string{}, fmt.Errorf("list dates: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *SQLiteStore) Exists(ctx context.Context, userID, date string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE user_id = ? AND date = ?`, userID, date).Scan(&count)
	if err != nil {
		logger.Error("entry exists check failed", "user", userID, "date", date, "error", err)
		return false, fmt.Errorf("entry exists: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		logger.Error("delete entry failed", "user", userID, "id", id, "error", err)
		return false, fmt.Errorf("delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *SQLiteStore) Stats(ctx context.Context, userID string) (models.Stats, error) {
	var (
		count            int
		earliest, latest sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM entries WHERE user_id = ?`, userID,
	).Scan(&count, &earliest, &latest)
	if err != nil {
		logger.Error("entry stats failed", "user", userID, "error", err)
		return models.Stats{}, fmt.Errorf("entry stats: %w", err)
	}
	return statsFrom(count, earliest, latest), nil
}

func (s *SQLiteStore) Update(ctx context.Context, userID string, id int64, fields map[string]string) (bool, error) {
	set, args := assignments(fields, func(int) string { return "?" })
	if set == "" {
		return false, nil
	}
	args = append(args, userID, id)

	res, err := s.db.ExecContext(ctx, `UPDATE entries SET `+set+` WHERE user_id = ? AND id = ?`, args...)
	if err != nil {
		logger.Error("update entry failed", "user", userID, "id", id, "error", err)
		return false, fmt.Errorf("update entry: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanSQLiteEntry(row rowScanner) (models.Entry, error) {
	var (
		e         models.Entry
		createdAt sqliteTime
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Journal, &e.Intention, &e.Dream,
		&e.Priorities, &e.Reflection, &e.Strategy, &createdAt)
	if err != nil {
		return models.Entry{}, err
	}
	e.CreatedAt = time.Time(createdAt)
	return e, nil
}

// sqliteTime accepts created_at in either of the forms found on disk: RFC3339
// written by Save, or CURRENT_TIMESTAMP text from rows inserted elsewhere.
// The driver may already have converted TIMESTAMP columns to time.Time.
type sqliteTime time.Time

var sqliteTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999-07:00"}

func (t *sqliteTime) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case nil:
		*t = sqliteTime{}
		return nil
	case time.Time:
		*t = sqliteTime(v)
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return fmt.Errorf("unsupported created_at type %T", src)
	}
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			*t = sqliteTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("failed to parse created_at %q", text)
}
