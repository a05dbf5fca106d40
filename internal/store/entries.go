package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/models"
)

// LegacyOwner is written into user_id for rows created before entries had owners.
const LegacyOwner = models.DemoUsername

// entryColumns is shared by every SELECT so scanEntry stays in sync. Text
// columns are nullable in older databases, hence the COALESCE.
const entryColumns = `id, user_id, date,
	COALESCE(journal, ''), COALESCE(intention, ''), COALESCE(dream, ''),
	COALESCE(priorities, ''), COALESCE(reflection, ''), COALESCE(strategy, ''),
	created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func validateKey(userID, date string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(date) == "" {
		return apperrors.ErrInvalidEntry
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return apperrors.ErrInvalidDate
	}
	return nil
}

// assignments turns an update request into "col = $n" pairs, keeping only the
// allow-listed columns and ordering them deterministically. placeholder maps
// a 1-based argument index to the driver's placeholder syntax.
func assignments(fields map[string]string, placeholder func(int) string) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, col := range models.UpdatableFields {
		v, ok := fields[col]
		if !ok {
			continue
		}
		args = append(args, v)
		parts = append(parts, fmt.Sprintf("%s = %s", col, placeholder(len(args))))
	}
	return strings.Join(parts, ", "), args
}

func statsFrom(count int, earliest, latest sql.NullString) models.Stats {
	st := models.Stats{Count: count}
	if count > 0 && earliest.Valid {
		st.Earliest = &earliest.String
	}
	if count > 0 && latest.Valid {
		st.Latest = &latest.String
	}
	return st
}
