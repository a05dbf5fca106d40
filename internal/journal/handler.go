package journal

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/consciousday/backend/internal/auth"
	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/insight"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
	"github.com/ayush/consciousday/backend/internal/render"
	"github.com/ayush/consciousday/backend/internal/store"
)

const defaultInsightLimit = 20

var (
	errInvalidID       = apperrors.NewHTTPError(http.StatusBadRequest, "id must be a positive integer", "INVALID_ID")
	errNothingToUpdate = apperrors.NewHTTPError(http.StatusBadRequest, "no updatable fields in request", "NO_UPDATABLE_FIELDS")
	errExportNotFound  = apperrors.NewHTTPError(http.StatusNotFound, "export not found", "EXPORT_NOT_FOUND")
)

// Handler holds the entry HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps pipeline errors before falling back to the shared mapping.
func writeError(w http.ResponseWriter, err error) {
	var vErr *insight.ValidationError
	var pErr *insight.ProviderError
	switch {
	case errors.As(err, &vErr):
		render.JSON(w, http.StatusBadRequest, apperrors.ErrorResponse{Error: vErr.Error(), Code: "VALIDATION_ERROR"})
	case errors.As(err, &pErr):
		render.JSON(w, http.StatusBadGateway, apperrors.ErrorResponse{Error: insight.FailureText(err), Code: "PROVIDER_ERROR"})
	case errors.Is(err, ErrInvalidSort):
		render.JSON(w, http.StatusBadRequest, apperrors.ErrorResponse{Error: err.Error(), Code: "INVALID_SORT"})
	default:
		render.Error(w, err)
	}
}

func entryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// Create runs the reflection pipeline for the current user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEntryRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, err)
		return
	}

	resp, err := h.svc.Submit(r.Context(), auth.UsernameFrom(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, http.StatusCreated, resp)
}

// List returns the user's history, optionally searched and sorted.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.svc.List(r.Context(), auth.UsernameFrom(r.Context()), q.Get("q"), q.Get("sort"))
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, entries)
}

func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	dates, err := h.svc.Entries.Dates(r.Context(), auth.UsernameFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, dates)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Entries.Stats(r.Context(), auth.UsernameFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, stats)
}

// GetByDate returns the entry for the date in the path.
func (h *Handler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		writeError(w, apperrors.ErrInvalidDate)
		return
	}
	e, err := h.svc.Entries.GetByDate(r.Context(), auth.UsernameFrom(r.Context()), date)
	if err != nil {
		writeError(w, err)
		return
	}
	render.JSON(w, http.StatusOK, e)
}

// Update changes the updatable text fields of an entry. Other keys are ignored.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, apperrors.NewHTTPError(http.StatusBadRequest, "invalid request body", "INVALID_BODY"))
		return
	}
	if !hasUpdatable(fields) {
		writeError(w, errNothingToUpdate)
		return
	}

	ok, err := h.svc.Entries.Update(r.Context(), auth.UsernameFrom(r.Context()), id, fields)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperrors.ErrEntryNotFound)
		return
	}
	render.Message(w, "updated")
}

func hasUpdatable(fields map[string]string) bool {
	for _, name := range models.UpdatableFields {
		if _, ok := fields[name]; ok {
			return true
		}
	}
	return false
}

// Delete removes one of the user's entries.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := h.svc.Entries.Delete(r.Context(), auth.UsernameFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperrors.ErrEntryNotFound)
		return
	}
	render.Message(w, "deleted")
}

// Export streams the user's journal as a Markdown download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	name, md, err := h.svc.Export(r.Context(), auth.UsernameFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Write(md)
}

// ListExports returns the exports stored for the user.
func (h *Handler) ListExports(w http.ResponseWriter, r *http.Request) {
	if h.svc.Exports == nil {
		render.JSON(w, http.StatusOK, []store.ExportInfo{})
		return
	}
	exports, err := h.svc.Exports.ListExports(r.Context(), auth.UsernameFrom(r.Context()))
	if err != nil {
		logger.Error("list exports failed", "error", err)
		writeError(w, err)
		return
	}
	if exports == nil {
		exports = []store.ExportInfo{}
	}
	render.JSON(w, http.StatusOK, exports)
}

// DownloadExport streams one stored export by file name.
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	if h.svc.Exports == nil {
		writeError(w, errExportNotFound)
		return
	}
	user := auth.UsernameFrom(r.Context())
	name := path.Base(chi.URLParam(r, "name"))
	data, err := h.svc.Exports.GetExport(r.Context(), user, user+"/"+name)
	if err != nil {
		logger.Warn("export download failed", "user", user, "name", name, "error", err)
		writeError(w, errExportNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Write(data)
}

// Insights lists archived generation attempts, newest first.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	if h.svc.Archive == nil {
		render.JSON(w, http.StatusOK, []models.InsightRecord{})
		return
	}
	limit := int64(defaultInsightLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	recs, err := h.svc.Archive.ListByUser(r.Context(), auth.UsernameFrom(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if recs == nil {
		recs = []models.InsightRecord{}
	}
	render.JSON(w, http.StatusOK, recs)
}

// Status reports the active insight provider.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, h.svc.Generator.Status())
}

// Routes mounts the entry handlers on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/dates", h.Dates)
	r.Get("/stats", h.Stats)
	r.Get("/date/{date}", h.GetByDate)
	r.Get("/export", h.Export)
	r.Get("/exports", h.ListExports)
	r.Get("/exports/{name}", h.DownloadExport)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}
