package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lacuna/internal/apperr"
	"github.com/starford/lacuna/internal/exercise"
	"github.com/starford/lacuna/internal/session"
)

// SessionHandler holds the interactive session routes. Every mutating route
// re-evaluates completion after the transition, so a successful fill fires the
// completion bridge exactly once per session.
type SessionHandler struct {
	svc      *exercise.Service
	sessions *session.Store
	progress session.ProgressStore

	// onComplete, when set, fires after a session crosses into all-correct.
	onComplete func(path string)
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc *exercise.Service, sessions *session.Store, progress session.ProgressStore, onComplete func(path string)) *SessionHandler {
	return &SessionHandler{
		svc:        svc,
		sessions:   sessions,
		progress:   progress,
		onComplete: onComplete,
	}
}

func (h *SessionHandler) state(sess *session.Session) SessionState {
	return SessionState{
		ID:         sess.ID,
		Path:       sess.ExercisePath,
		Blanks:     sess.Machine.Statuses(),
		Submitted:  sess.Machine.Submitted(),
		AllCorrect: sess.Machine.AllCorrect(),
		Completed:  sess.Completed(),
	}
}

// rebind refreshes a session's blank specs when the exercise content changed
// underneath it (editor save, sync). Stale sessions would otherwise grade
// against answers that no longer exist.
func (h *SessionHandler) rebind(r *http.Request, sess *session.Session) *session.Session {
	specs, key, err := h.svc.Specs(r.Context(), sess.ExercisePath)
	if err != nil {
		return sess
	}
	if key == sess.ContextKey {
		return sess
	}
	rebound, err := h.sessions.Rebind(sess.ID, key, specs)
	if err != nil {
		return sess
	}
	return rebound
}

// CreateSession handles POST /api/sessions.
//
//	@Summary		Start a new session for an exercise
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSessionRequest	true	"Exercise to attempt"
//	@Success		201		{object}	SessionState
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	specs, key, err := h.svc.Specs(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("create session failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	sess := h.sessions.Create(req.Path, key, specs)
	writeJSON(w, http.StatusCreated, h.state(sess))
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get the current state of a session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionState
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [get]
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.rebind(r, sess)
	var st SessionState
	if _, err := h.sessions.Update(sess.ID, func(sess *session.Session) error {
		st = h.state(sess)
		return nil
	}); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Discard a session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session ID"
//	@Success		204	"Session deleted"
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// blankIndex parses and bounds-checks the blank index route param.
func blankIndex(r *http.Request, n int) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

// mutate runs a state transition on a session, re-evaluates completion, and
// writes the resulting state. The transition, the completion latch, and the
// state snapshot all happen inside one Update call, so concurrent requests to
// the same session cannot double-fire the completion event or observe a
// half-applied transition. Only the event callback runs outside the lock.
func (h *SessionHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	h.rebind(r, sess)

	var st SessionState
	var fired bool
	_, err = h.sessions.Update(id, func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		var nerr error
		if fired, nerr = sess.NotifyCompletion(h.progress); nerr != nil {
			slog.Error("record completion failed",
				slog.String("path", sess.ExercisePath),
				slog.String("error", nerr.Error()))
		}
		st = h.state(sess)
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		}
		return
	}
	if fired && h.onComplete != nil {
		h.onComplete(st.Path)
	}
	writeJSON(w, http.StatusOK, st)
}

var errBlankIndex = errors.New("blank index out of range")

// SetValue handles PUT /api/sessions/{id}/blanks/{index}.
//
//	@Summary		Set the typed or picked value of one blank
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session ID"
//	@Param			index	path		int				true	"Blank index"
//	@Param			body	body		SetValueRequest	true	"New value"
//	@Success		200		{object}	SessionState
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/blanks/{index} [put]
func (h *SessionHandler) SetValue(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.mutate(w, r, func(sess *session.Session) error {
		i, ok := blankIndex(r, sess.Machine.Len())
		if !ok {
			return errBlankIndex
		}
		sess.Machine.SetValue(i, req.Value)
		return nil
	})
}

// Blur handles POST /api/sessions/{id}/blanks/{index}/blur.
//
//	@Summary		Mark a blank as blurred, enabling eager feedback on it
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"Blank index"
//	@Success		200		{object}	SessionState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/blanks/{index}/blur [post]
func (h *SessionHandler) Blur(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(sess *session.Session) error {
		i, ok := blankIndex(r, sess.Machine.Len())
		if !ok {
			return errBlankIndex
		}
		sess.Machine.MarkBlurred(i)
		return nil
	})
}

// ToggleHint handles POST /api/sessions/{id}/blanks/{index}/hint.
//
//	@Summary		Toggle the hint for one blank
//	@Tags			sessions
//	@Produce		json
//	@Param			id		path		string	true	"Session ID"
//	@Param			index	path		int		true	"Blank index"
//	@Success		200		{object}	SessionState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/blanks/{index}/hint [post]
func (h *SessionHandler) ToggleHint(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(sess *session.Session) error {
		i, ok := blankIndex(r, sess.Machine.Len())
		if !ok {
			return errBlankIndex
		}
		sess.Machine.ToggleHint(i)
		return nil
	})
}

// Submit handles POST /api/sessions/{id}/submit.
//
//	@Summary		Submit all blanks for grading
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionState
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/submit [post]
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(sess *session.Session) error {
		sess.Machine.SubmitAll()
		return nil
	})
}

// Reveal handles POST /api/sessions/{id}/reveal.
//
//	@Summary		Fill every blank with its answer and submit
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionState
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/reveal [post]
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(sess *session.Session) error {
		sess.Machine.RevealAll()
		return nil
	})
}

// Reset handles POST /api/sessions/{id}/reset.
//
//	@Summary		Clear all input and validation state
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session ID"
//	@Success		200	{object}	SessionState
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/reset [post]
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(sess *session.Session) error {
		sess.Machine.Reset()
		return nil
	})
}
