package journal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/consciousday/backend/internal/auth"
	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/insight"
	"github.com/ayush/consciousday/backend/internal/models"
)

func newRouter(f fixture) http.Handler {
	h := NewHandler(f.svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUsername(r.Context(), r.Header.Get("X-Test-User"))))
		})
	})
	r.Route("/api/entries", h.Routes)
	r.Get("/api/insights", h.Insights)
	r.Get("/api/status", h.Status)
	return r
}

func call(t *testing.T, h http.Handler, user, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Test-User", user)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const createBody = `{"date":"2024-03-01","journal":"Walked by the river","intention":"Be present","dream":"","priorities":["Ship","Gym","Read"]}`

func TestCreateEndpoint(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	rec := call(t, h, "alice", http.MethodPost, "/api/entries", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp models.CreateEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Entry.UserID)
	assert.Equal(t, stubReply, resp.Insight)
	assert.NotZero(t, resp.Entry.ID)

	rec = call(t, h, "alice", http.MethodPost, "/api/entries", createBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	calls := f.gen.calls
	for name, body := range map[string]string{
		"missing fields":  `{"journal":"x"}`,
		"blank priority":  `{"journal":"x","intention":"y","priorities":["a","","c"]}`,
		"whitespace only": `{"journal":"   ","intention":"y","priorities":["a","b","c"]}`,
	} {
		rec = call(t, h, "alice", http.MethodPost, "/api/entries", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		var errBody apperrors.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody), name)
		assert.Equal(t, "VALIDATION_ERROR", errBody.Code, name)
	}
	assert.Equal(t, calls, f.gen.calls, "no provider call for invalid input")

	rec = call(t, h, "alice", http.MethodPost, "/api/entries", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_BODY")
}

func TestCreateEndpointProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.err = &insight.ProviderError{Provider: "OpenRouter", Model: "m", Err: insight.ErrEmptyResponse}
	h := newRouter(f)

	rec := call(t, h, "alice", http.MethodPost, "/api/entries", createBody)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body.Error, insight.FailurePrefix))
	assert.Equal(t, "PROVIDER_ERROR", body.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	for _, d := range []string{"2024-03-01", "2024-03-03", "2024-03-02"} {
		body := strings.Replace(createBody, "2024-03-01", d, 1)
		require.Equal(t, http.StatusCreated, call(t, h, "alice", http.MethodPost, "/api/entries", body).Code)
	}
	require.Equal(t, http.StatusCreated, call(t, h, "bob", http.MethodPost, "/api/entries", createBody).Code)

	rec := call(t, h, "alice", http.MethodGet, "/api/entries/dates", "")
	assert.JSONEq(t, `["2024-03-03","2024-03-02","2024-03-01"]`, rec.Body.String())

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/stats", "")
	assert.JSONEq(t, `{"count":3,"earliest_date":"2024-03-01","latest_date":"2024-03-03"}`, rec.Body.String())

	rec = call(t, h, "carol", http.MethodGet, "/api/entries/stats", "")
	assert.JSONEq(t, `{"count":0,"earliest_date":null,"latest_date":null}`, rec.Body.String())

	rec = call(t, h, "alice", http.MethodGet, "/api/entries?sort=oldest&q=RIVER", "")
	var entries []models.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-03-01", entries[0].Date)

	rec = call(t, h, "alice", http.MethodGet, "/api/entries?sort=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, "carol", http.MethodGet, "/api/entries", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/date/2024-03-02", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/date/2030-01-01", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/date/03-02-2024", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteAreOwnerScoped(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	rec := call(t, h, "alice", http.MethodPost, "/api/entries", createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp models.CreateEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	target := fmt.Sprintf("/api/entries/%d", resp.Entry.ID)

	rec = call(t, h, "bob", http.MethodPatch, target, `{"journal":"hijacked"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, "alice", http.MethodPatch, target, `{"user_id":"bob","created_at":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, "alice", http.MethodPatch, target, `{"journal":"edited","user_id":"bob"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/date/2024-03-01", "")
	var got models.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "edited", got.Journal)
	assert.Equal(t, "alice", got.UserID)

	rec = call(t, h, "alice", http.MethodPatch, "/api/entries/abc", `{"journal":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h, "bob", http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, h, "alice", http.MethodDelete, target, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, "alice", http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportEndpoints(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	require.Equal(t, http.StatusCreated, call(t, h, "alice", http.MethodPost, "/api/entries", createBody).Code)

	rec := call(t, h, "alice", http.MethodGet, "/api/entries/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=journal-20240309.md", rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "## 2024-03-01")

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/exports", "")
	assert.Contains(t, rec.Body.String(), "alice/journal-20240309.md")

	rec = call(t, h, "alice", http.MethodGet, "/api/entries/exports/journal-20240309.md", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Walked by the river")

	rec = call(t, h, "bob", http.MethodGet, "/api/entries/exports/journal-20240309.md", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsightsAndStatus(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)
	require.Equal(t, http.StatusCreated, call(t, h, "alice", http.MethodPost, "/api/entries", createBody).Code)

	rec := call(t, h, "alice", http.MethodGet, "/api/insights?limit=5", "")
	var recs []models.InsightRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "2024-03-01", recs[0].Date)

	rec = call(t, h, "alice", http.MethodGet, "/api/status", "")
	assert.JSONEq(t, `{"status":"active","active":true,"provider":"Stub","model":"stub-1","temperature":0.7}`, rec.Body.String())
}

func TestOptionalBackendsDisabled(t *testing.T) {
	f := newFixture(t)
	f.svc.Archive = nil
	f.svc.Exports = nil
	h := newRouter(f)

	require.Equal(t, http.StatusCreated, call(t, h, "alice", http.MethodPost, "/api/entries", createBody).Code)
	assert.JSONEq(t, `[]`, call(t, h, "alice", http.MethodGet, "/api/insights", "").Body.String())
	assert.JSONEq(t, `[]`, call(t, h, "alice", http.MethodGet, "/api/entries/exports", "").Body.String())
	assert.Equal(t, http.StatusOK, call(t, h, "alice", http.MethodGet, "/api/entries/export", "").Code)
}
