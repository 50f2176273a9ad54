package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lacuna/internal/apperr"
	"github.com/starford/lacuna/internal/exercise"
)

// Handler holds API route handlers.
type Handler struct {
	svc *exercise.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *exercise.Service) *Handler {
	return &Handler{svc: svc}
}

// exercisePath extracts the exercise path from the URL (everything after
// /api/exercises/). Supports encoded slashes from OpenAPI clients
// (e.g. geo%2Fcapitals.md).
func exercisePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListExercises handles GET /api/exercises.
//
//	@Summary		List exercises with optional pagination and filtering
//	@Tags			exercises
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			sort	query		string	false	"Sort field"	Enums(updated_at, title, path)
//	@Success		200		{object}	ExerciseListResponse
//	@Security		BearerAuth
//	@Router			/exercises [get]
func (h *Handler) ListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	sort := q.Get("sort")

	items, total, err := h.svc.ListExercises(r.Context(), limit, offset, tag, sort)
	if err != nil {
		slog.Error("list exercises failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercises": items,
		"total":     total,
	})
}

// GetExercise handles GET /api/exercises/*.
//
//	@Summary		Get a single exercise by path
//	@Tags			exercises
//	@Produce		json
//	@Param			path	path		string	true	"Exercise path"
//	@Success		200		{object}	ExerciseDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exercises/{path} [get]
func (h *Handler) GetExercise(w http.ResponseWriter, r *http.Request) {
	path := exercisePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	ex, err := h.svc.GetExercise(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get exercise failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// CreateExercise handles POST /api/exercises.
//
//	@Summary		Create a new exercise
//	@Tags			exercises
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateExerciseRequest	true	"Exercise to create"
//	@Success		201		{object}	ExerciseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exercises [post]
func (h *Handler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path and content are required"))
		return
	}
	ex, err := h.svc.CreateExercise(r.Context(), req.Path, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("exercise already exists"))
		} else {
			slog.Error("create exercise failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

// UpdateExercise handles PUT /api/exercises/*.
//
//	@Summary		Update an exercise with optimistic concurrency
//	@Tags			exercises
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string					true	"Exercise path"
//	@Param			If-Match	header	string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body	body		UpdateExerciseRequest	true	"Updated content"
//	@Success		200		{object}	ExerciseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exercises/{path} [put]
func (h *Handler) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	path := exercisePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	ex, err := h.svc.UpdateExercise(r.Context(), path, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		default:
			slog.Error("update exercise failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// DeleteExercise handles DELETE /api/exercises/*.
//
//	@Summary		Delete an exercise
//	@Tags			exercises
//	@Param			path	path	string	true	"Exercise path"
//	@Success		204		"Exercise deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exercises/{path} [delete]
func (h *Handler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	path := exercisePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteExercise(r.Context(), path); err != nil {
		slog.Error("delete exercise failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RenderExercise handles GET /api/render/*.
//
//	@Summary		Render an exercise as an interactive content tree
//	@Tags			exercises
//	@Produce		json
//	@Param			path	path		string	true	"Exercise path"
//	@Param			mode	query		string	false	"Override interaction mode"	Enums(type, picker)
//	@Success		200		{object}	RenderResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render/{path} [get]
func (h *Handler) RenderExercise(w http.ResponseWriter, r *http.Request) {
	path := exercisePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.Render(r.Context(), path, r.URL.Query().Get("mode"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("render exercise failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CheckAnswers handles POST /api/exercises/*/check via the check route.
//
//	@Summary		Grade a complete answer set without a session
//	@Tags			exercises
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string				true	"Exercise path"
//	@Param			body	body		CheckAnswersRequest	true	"Answer values in blank order"
//	@Success		200		{object}	CheckAnswersResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/check/{path} [post]
func (h *Handler) CheckAnswers(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	path := exercisePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req struct {
		Values []string `json:"values"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	checks, all, err := h.svc.CheckAnswers(r.Context(), path, req.Values)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("check answers failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"checks":      checks,
		"all_correct": all,
	})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across exercises
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// Completions handles GET /api/completions.
//
//	@Summary		List recorded exercise completions
//	@Tags			progress
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Security		BearerAuth
//	@Router			/completions [get]
func (h *Handler) Completions(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Completions(r.Context())
	if err != nil {
		slog.Error("list completions failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"completions": rows,
	})
}
