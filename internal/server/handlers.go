package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/jobfeed/internal/bookmark"
	"github.com/maauso/jobfeed/internal/feed"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	feed      *feed.Controller
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctrl *feed.Controller, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		feed:      ctrl,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetFeed handles GET /feed requests. A q parameter sets the query first.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("q") {
		q := r.URL.Query().Get("q")
		if err := h.validator.Var(q, "max=200"); err != nil {
			writeError(w, http.StatusBadRequest, "query is too long", "VALIDATION_ERROR")
			return
		}
		h.feed.SetQuery(q)
	}
	writeJSON(w, http.StatusOK, newFeedResponse(h.feed.State()))
}

// LoadMore handles POST /feed/more requests.
func (h *Handlers) LoadMore(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.LoadMore(r.Context()); err != nil {
		h.writeFeedError(w, r, "load more failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newFeedResponse(h.feed.State()))
}

// Refresh handles POST /feed/refresh requests.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.feed.Refresh(r.Context()); err != nil {
		h.writeFeedError(w, r, "refresh failed", err)
		return
	}
	writeJSON(w, http.StatusOK, newFeedResponse(h.feed.State()))
}

// SetQuery handles PUT /feed/query requests.
func (h *Handlers) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req SetQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	h.feed.SetQuery(req.Query)
	writeJSON(w, http.StatusOK, newFeedResponse(h.feed.State()))
}

// GetJob handles GET /feed/jobs/{id} requests.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	j, err := h.feed.Job(r.Context(), jobID)
	if err != nil {
		h.writeFeedError(w, r, "failed to get job", err)
		return
	}

	writeJSON(w, http.StatusOK, JobDetailResponse{
		Job:        j,
		Bookmarked: h.feed.IsBookmarked(jobID),
		Contact:    j.Contact(),
	})
}

// ToggleBookmark handles POST /feed/jobs/{id}/bookmark requests.
func (h *Handlers) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	on, err := h.feed.ToggleBookmark(r.Context(), jobID)
	if err != nil {
		h.writeFeedError(w, r, "bookmark toggle failed", err)
		return
	}

	writeJSON(w, http.StatusOK, BookmarkToggleResponse{ID: jobID, Bookmarked: on})
}

// ListBookmarks handles GET /bookmarks requests.
func (h *Handlers) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := h.feed.Bookmarks(r.Context())
	if err != nil {
		h.writeFeedError(w, r, "failed to list bookmarks", err)
		return
	}
	if list == nil {
		list = []bookmark.Bookmark{}
	}
	writeJSON(w, http.StatusOK, BookmarksResponse{Count: len(list), Bookmarks: list})
}

// RemoveBookmark handles DELETE /bookmarks/{id} requests.
func (h *Handlers) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	if err := h.feed.RemoveBookmark(r.Context(), jobID); err != nil {
		h.writeFeedError(w, r, "failed to remove bookmark", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeFeedError maps domain errors to a status, a code and the
// user-facing message.
func (h *Handlers) writeFeedError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, feed.ErrNetworkUnavailable), errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, feed.ErrServer):
		status, code = http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, feed.ErrMalformedResponse):
		status, code = http.StatusBadGateway, "UPSTREAM_MALFORMED"
	case errors.Is(err, feed.ErrJobNotFound):
		status, code = http.StatusNotFound, "JOB_NOT_FOUND"
	case errors.Is(err, bookmark.ErrEmptyID):
		status, code = http.StatusBadRequest, "MISSING_JOB_ID"
	case errors.Is(err, bookmark.ErrStoreWrite):
		code = "STORE_WRITE_FAILED"
	case errors.Is(err, bookmark.ErrStoreRead):
		code = "STORE_READ_FAILED"
	}

	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, msg,
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.String("code", code),
		slog.String("error", err.Error()),
	)

	writeError(w, status, feed.UserMessage(err), code)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
