package store

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/models"
)

// entryStore is the behaviour both backends share.
type entryStore interface {
	Save(ctx context.Context, e models.Entry) (models.Entry, error)
	GetByDate(ctx context.Context, userID, date string) (models.Entry, error)
	GetAll(ctx context.Context, userID string) ([]models.Entry, error)
	Dates(ctx context.Context, userID string) ([]string, error)
	Exists(ctx context.Context, userID, date string) (bool, error)
	Delete(ctx context.Context, userID string, id int64) (bool, error)
	Stats(ctx context.Context, userID string) (models.Stats, error)
	Update(ctx context.Context, userID string, id int64, fields map[string]string) (bool, error)
}

func sampleEntry(user, date string) models.Entry {
	return models.Entry{
		UserID:     user,
		Date:       date,
		Journal:    "Test journal entry",
		Intention:  "Test intention",
		Dream:      "Test dream",
		Priorities: "1. Test priority 1\n2. Test priority 2\n3. Test priority 3",
		Reflection: "Test reflection",
		Strategy:   "Test strategy",
	}
}

var ignoreGenerated = cmpopts.IgnoreFields(models.Entry{}, "ID", "CreatedAt")

func runEntryStoreContract(t *testing.T, newStore func(t *testing.T) entryStore) {
	ctx := context.Background()

	t.Run("save then read back", func(t *testing.T) {
		s := newStore(t)
		in := sampleEntry("test_user", "2024-01-01")

		saved, err := s.Save(ctx, in)
		require.NoError(t, err)
		assert.NotZero(t, saved.ID)
		assert.False(t, saved.CreatedAt.IsZero())

		exists, err := s.Exists(ctx, "test_user", "2024-01-01")
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := s.GetByDate(ctx, "test_user", "2024-01-01")
		require.NoError(t, err)
		if diff := cmp.Diff(in, got, ignoreGenerated); diff != "" {
			t.Errorf("GetByDate mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, saved.ID, got.ID)
	})

	t.Run("missing entry", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetByDate(ctx, "test_user", "2024-01-01")
		assert.ErrorIs(t, err, apperrors.ErrEntryNotFound)

		exists, err := s.Exists(ctx, "test_user", "2024-01-01")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("duplicate rejected and original kept", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, sampleEntry("test_user", "2024-01-01"))
		require.NoError(t, err)

		dup := sampleEntry("test_user", "2024-01-01")
		dup.Journal = "overwritten?"
		_, err = s.Save(ctx, dup)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEntry)

		got, err := s.GetByDate(ctx, "test_user", "2024-01-01")
		require.NoError(t, err)
		assert.Equal(t, "Test journal entry", got.Journal)
	})

	t.Run("validation", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Save(ctx, sampleEntry("", "2024-01-01"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidEntry)
		_, err = s.Save(ctx, sampleEntry("test_user", ""))
		assert.ErrorIs(t, err, apperrors.ErrInvalidEntry)
		_, err = s.Save(ctx, sampleEntry("test_user", "01/02/2024"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
		_, err = s.Save(ctx, sampleEntry("test_user", "2024-02-30"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
	})

	t.Run("get all is newest first and per user", func(t *testing.T) {
		s := newStore(t)
		for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02"} {
			_, err := s.Save(ctx, sampleEntry("alice", d))
			require.NoError(t, err)
		}
		_, err := s.Save(ctx, sampleEntry("bob", "2024-01-02"))
		require.NoError(t, err)

		alice, err := s.GetAll(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, alice, 3)
		assert.Equal(t, "2024-01-03", alice[0].Date)
		assert.Equal(t, "2024-01-01", alice[2].Date)

		bob, err := s.GetAll(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, bob, 1)
		assert.Equal(t, "bob", bob[0].UserID)

		dates, err := s.Dates(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-01-03", "2024-01-02", "2024-01-01"}, dates)

		none, err := s.GetAll(ctx, "carol")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("delete is owner scoped", func(t *testing.T) {
		s := newStore(t)
		saved, err := s.Save(ctx, sampleEntry("alice", "2024-01-01"))
		require.NoError(t, err)

		ok, err := s.Delete(ctx, "mallory", saved.ID)
		require.NoError(t, err)
		assert.False(t, ok)
		exists, _ := s.Exists(ctx, "alice", "2024-01-01")
		assert.True(t, exists)

		ok, err = s.Delete(ctx, "alice", saved.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		exists, _ = s.Exists(ctx, "alice", "2024-01-01")
		assert.False(t, exists)

		ok, err = s.Delete(ctx, "alice", saved.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stats", func(t *testing.T) {
		s := newStore(t)
		st, err := s.Stats(ctx, "test_user")
		require.NoError(t, err)
		assert.Equal(t, models.Stats{Count: 0}, st)

		for _, d := range []string{"2024-01-02", "2024-01-01"} {
			_, err := s.Save(ctx, sampleEntry("test_user", d))
			require.NoError(t, err)
		}
		st, err = s.Stats(ctx, "test_user")
		require.NoError(t, err)
		assert.Equal(t, 2, st.Count)
		require.NotNil(t, st.Earliest)
		require.NotNil(t, st.Latest)
		assert.Equal(t, "2024-01-01", *st.Earliest)
		assert.Equal(t, "2024-01-02", *st.Latest)
	})

	t.Run("update allow-list", func(t *testing.T) {
		s := newStore(t)
		saved, err := s.Save(ctx, sampleEntry("alice", "2024-01-01"))
		require.NoError(t, err)

		ok, err := s.Update(ctx, "alice", saved.ID, map[string]string{
			"reflection": "new reflection",
			"strategy":   "new strategy",
			"user_id":    "mallory",
			"date":       "1999-01-01",
		})
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := s.GetByDate(ctx, "alice", "2024-01-01")
		require.NoError(t, err)
		assert.Equal(t, saved.ID, got.ID)
		assert.Equal(t, "new reflection", got.Reflection)
		assert.Equal(t, "new strategy", got.Strategy)
		assert.Equal(t, "Test journal entry", got.Journal)
		assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))

		ok, err = s.Update(ctx, "alice", saved.ID, map[string]string{"colour": "blue"})
		require.NoError(t, err)
		assert.False(t, ok, "only unknown fields is a no-op")

		ok, err = s.Update(ctx, "mallory", saved.ID, map[string]string{"journal": "hijack"})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Update(ctx, "alice", saved.ID+100, map[string]string{"journal": "x"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
