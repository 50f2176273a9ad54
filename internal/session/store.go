package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/lacuna/internal/apperr"
	"github.com/starford/lacuna/internal/cloze"
)

// ProgressStore records exercise completion. Implemented by the index.
type ProgressStore interface {
	MarkExerciseComplete(path, contextKey string) error
	IsExerciseComplete(path string) (bool, error)
}

// Session is one live attempt at an exercise.
type Session struct {
	ID           string
	ExercisePath string
	ContextKey   string // content checksum at session start
	Machine      *Machine
	CreatedAt    time.Time

	// notified latches after the completion callback fired; it never resets
	// while the session lives, so correctness flipping true-false-true cannot
	// produce a duplicate completion event.
	notified bool
}

// NotifyCompletion invokes the progress store once per session when every
// blank is correct. It returns whether the event fired on this call. A
// failing store write leaves the latch unset, so notification is retried on
// the next evaluation rather than lost.
func (s *Session) NotifyCompletion(store ProgressStore) (bool, error) {
	if s.notified || store == nil || s.ExercisePath == "" {
		return false, nil
	}
	if !s.Machine.AllCorrect() {
		return false, nil
	}
	if err := store.MarkExerciseComplete(s.ExercisePath, s.ContextKey); err != nil {
		return false, err
	}
	s.notified = true
	return true, nil
}

// Completed reports whether the completion event has fired for this session.
func (s *Session) Completed() bool {
	return s.notified
}

// Store keeps live sessions in memory behind a mutex. In-progress input is
// deliberately not persisted across restarts.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a new session for an exercise and returns it.
func (s *Store) Create(path, contextKey string, specs []cloze.BlankSpec) *Session {
	sess := &Session{
		ID:           uuid.NewString(),
		ExercisePath: path,
		ContextKey:   contextKey,
		Machine:      NewMachine(specs),
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Update runs fn on the session with the given ID under the store lock, so
// state transitions triggered by one event are applied atomically before any
// other event observes them.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Rebind replaces a session's machine when the exercise content changed: a
// new blank count means fresh specs and fully reset runtime state.
func (s *Store) Rebind(id, contextKey string, specs []cloze.BlankSpec) (*Session, error) {
	return s.Update(id, func(sess *Session) error {
		sess.ContextKey = contextKey
		sess.Machine = NewMachine(specs)
		return nil
	})
}
