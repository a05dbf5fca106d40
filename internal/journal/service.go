// Package journal runs the daily reflection pipeline and serves entry history.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/insight"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
	"github.com/ayush/consciousday/backend/internal/store"
)

// EntryStore is the persistence the pipeline needs. Both the SQLite and the
// Postgres stores satisfy it.
type EntryStore interface {
	Save(ctx context.Context, e models.Entry) (models.Entry, error)
	GetByDate(ctx context.Context, userID, date string) (models.Entry, error)
	GetAll(ctx context.Context, userID string) ([]models.Entry, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, date string) (bool, error)
	Delete(ctx context.Context, userID string, id int64) (bool, error)
	Stats(ctx context.Context, userID string) (models.Stats, error)
	Update(ctx context.Context, userID string, id int64, fields map[string]string) (bool, error)
}

// Generator produces insight text for a reflection form.
type Generator interface {
	Generate(ctx context.Context, in insight.Input) (string, error)
	Status() insight.Status
}

// InsightArchive records every generation attempt.
type InsightArchive interface {
	Insert(ctx context.Context, rec *models.InsightRecord) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.InsightRecord, error)
}

// ExportStore keeps rendered Markdown exports.
type ExportStore interface {
	PutExport(ctx context.Context, userID string, day time.Time, markdown []byte) (string, error)
	GetExport(ctx context.Context, userID, key string) ([]byte, error)
	ListExports(ctx context.Context, userID string) ([]store.ExportInfo, error)
}

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// ErrInvalidSort is returned for sort orders other than newest and oldest.
var ErrInvalidSort = errors.New("sort must be newest or oldest")

// Service wires the entry store to the generator. Archive and Exports are
// optional and may be nil.
type Service struct {
	Entries   EntryStore
	Generator Generator
	Archive   InsightArchive
	Exports   ExportStore

	now func() time.Time
}

func NewService(entries EntryStore, gen Generator, archive InsightArchive, exports ExportStore) *Service {
	return &Service{Entries: entries, Generator: gen, Archive: archive, Exports: exports, now: time.Now}
}

// FormatPriorities numbers the three priorities one per line.
func FormatPriorities(p [3]string) string {
	lines := make([]string, len(p))
	for i, v := range p {
		lines[i] = fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(v))
	}
	return strings.Join(lines, "\n")
}

// Submit validates the form, refuses a second entry for the same day before
// spending a model call, generates and splits the insight, then stores the
// entry.
func (s *Service) Submit(ctx context.Context, userID string, req models.CreateEntryRequest) (models.CreateEntryResponse, error) {
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return models.CreateEntryResponse{}, apperrors.ErrInvalidDate
	}

	in, err := insight.Normalize(insight.Input{
		Journal:    req.Journal,
		Intention:  req.Intention,
		Dream:      req.Dream,
		Priorities: FormatPriorities(req.Priorities),
	})
	if err != nil {
		return models.CreateEntryResponse{}, err
	}
	for i, p := range req.Priorities {
		if strings.TrimSpace(p) == "" {
			return models.CreateEntryResponse{}, &insight.ValidationError{Field: fmt.Sprintf("priority %d", i+1)}
		}
	}

	exists, err := s.Entries.Exists(ctx, userID, date)
	if err != nil {
		return models.CreateEntryResponse{}, err
	}
	if exists {
		return models.CreateEntryResponse{}, apperrors.ErrDuplicateEntry
	}

	start := s.now()
	raw, err := s.Generator.Generate(ctx, in)
	s.archive(ctx, userID, date, raw, err, s.now().Sub(start))
	if err != nil {
		return models.CreateEntryResponse{}, err
	}

	reflection, strategy := insight.Split(raw)
	entry, err := s.Entries.Save(ctx, models.Entry{
		UserID:     userID,
		Date:       date,
		Journal:    in.Journal,
		Intention:  in.Intention,
		Dream:      strings.TrimSpace(req.Dream),
		Priorities: in.Priorities,
		Reflection: reflection,
		Strategy:   strategy,
	})
	if err != nil {
		return models.CreateEntryResponse{}, err
	}

	logger.Info("entry created", "user", userID, "date", date, "id", entry.ID)
	return models.CreateEntryResponse{Entry: entry, Insight: raw}, nil
}

func (s *Service) archive(ctx context.Context, userID, date, raw string, genErr error, took time.Duration) {
	if s.Archive == nil {
		return
	}
	st := s.Generator.Status()
	rec := &models.InsightRecord{
		UserID:     userID,
		Date:       date,
		Provider:   st.Provider,
		Model:      st.Model,
		Response:   raw,
		DurationMS: took.Milliseconds(),
	}
	if genErr != nil {
		rec.Error = genErr.Error()
	}
	if err := s.Archive.Insert(ctx, rec); err != nil {
		logger.Warn("insight archive failed", "user", userID, "date", date, "error", err)
	}
}

// List returns the user's entries filtered by a case-insensitive substring of
// journal or intention, ordered by date.
func (s *Service) List(ctx context.Context, userID, query, order string) ([]models.Entry, error) {
	if order == "" {
		order = SortNewest
	}
	if order != SortNewest && order != SortOldest {
		return nil, ErrInvalidSort
	}
	all, err := s.Entries.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Filter(all, query, order), nil
}

// Filter applies the history search and sort to entries.
func Filter(entries []models.Entry, query, order string) []models.Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if q == "" ||
			strings.Contains(strings.ToLower(e.Journal), q) ||
			strings.Contains(strings.ToLower(e.Intention), q) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order == SortOldest {
			return out[i].Date < out[j].Date
		}
		return out[i].Date > out[j].Date
	})
	return out
}

// Export renders every entry of the user as Markdown, oldest first, and
// stores a copy when an export store is configured. The returned name is the
// download file name.
func (s *Service) Export(ctx context.Context, userID string) (name string, markdown []byte, err error) {
	all, err := s.Entries.GetAll(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	day := s.now()
	markdown = RenderMarkdown(userID, Filter(all, "", SortOldest))
	name = "journal-" + day.Format("20060102") + ".md"

	if s.Exports != nil {
		if key, err := s.Exports.PutExport(ctx, userID, day, markdown); err != nil {
			logger.Warn("export upload failed", "user", userID, "error", err)
		} else {
			logger.Info("export stored", "user", userID, "key", key)
		}
	}
	return name, markdown, nil
}

// RenderMarkdown formats entries as one Markdown document.
func RenderMarkdown(userID string, entries []models.Entry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# ConsciousDay journal: %s\n", userID)
	if len(entries) == 0 {
		b.WriteString("\n_No entries yet._\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "\n## %s\n", e.Date)
		section(&b, "Morning Journal", e.Journal)
		section(&b, "Intention", e.Intention)
		section(&b, "Dream", e.Dream)
		section(&b, "Top 3 Priorities", e.Priorities)
		section(&b, "Reflection", e.Reflection)
		section(&b, "Day Strategy", e.Strategy)
	}
	return []byte(b.String())
}

func section(b *strings.Builder, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n%s\n", title, strings.TrimSpace(body))
}
