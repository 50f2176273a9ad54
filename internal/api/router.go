package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lacuna/internal/exercise"
	"github.com/starford/lacuna/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// onComplete, if non-nil, fires when a session completes an exercise.
// vaultRoot is used to resolve the assets directory.
func NewRouter(svc *exercise.Service, sessions *session.Store, progress session.ProgressStore, authEnabled bool, token string, sseHandler http.Handler, onComplete func(path string), vaultRoot string) chi.Router {
	h := NewHandler(svc)
	sh := NewSessionHandler(svc, sessions, progress, onComplete)
	ah := NewAssetHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Exercises CRUD.
	r.Get("/exercises", h.ListExercises)
	r.Post("/exercises", h.CreateExercise)
	r.Get("/exercises/*", h.GetExercise)
	r.Put("/exercises/*", h.UpdateExercise)
	r.Delete("/exercises/*", h.DeleteExercise)

	// Rendering and stateless grading.
	r.Get("/render/*", h.RenderExercise)
	r.Post("/check/*", h.CheckAnswers)

	// Interactive sessions.
	r.Post("/sessions", sh.CreateSession)
	r.Get("/sessions/{id}", sh.GetSession)
	r.Delete("/sessions/{id}", sh.DeleteSession)
	r.Put("/sessions/{id}/blanks/{index}", sh.SetValue)
	r.Post("/sessions/{id}/blanks/{index}/blur", sh.Blur)
	r.Post("/sessions/{id}/blanks/{index}/hint", sh.ToggleHint)
	r.Post("/sessions/{id}/submit", sh.Submit)
	r.Post("/sessions/{id}/reveal", sh.Reveal)
	r.Post("/sessions/{id}/reset", sh.Reset)

	// Search and progress.
	r.Get("/search", h.Search)
	r.Get("/completions", h.Completions)

	// Asset upload (auth-protected).
	r.Post("/assets", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
