// Package exercise coordinates storage, parsing, rendering, and the index
// for cloze exercises.
package exercise

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/starford/lacuna/internal/apperr"
	"github.com/starford/lacuna/internal/checksum"
	"github.com/starford/lacuna/internal/cloze"
	"github.com/starford/lacuna/internal/index"
	"github.com/starford/lacuna/internal/markdown"
	"github.com/starford/lacuna/internal/parser"
	"github.com/starford/lacuna/internal/storage"
)

// ExerciseDetail is the full representation of an exercise.
type ExerciseDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Mode        string         `json:"mode"`
	Options     []string       `json:"options,omitempty"`
	Blanks      int            `json:"blanks"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Completed   bool           `json:"completed"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ExerciseListItem is a lightweight item in a list response.
type ExerciseListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Mode      string    `json:"mode"`
	Blanks    int       `json:"blanks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store     storage.Provider
	db        *index.DB
	md        *markdown.Converter
	showHints bool
}

// NewService creates a new exercise service. showHints controls whether hint
// payloads appear in rendered trees.
func NewService(store storage.Provider, db *index.DB, showHints bool) *Service {
	return &Service{
		store:     store,
		db:        db,
		md:        markdown.New(),
		showHints: showHints,
	}
}

// GetExercise reads an exercise from storage, parses it, and enriches it with
// completion state.
func (s *Service) GetExercise(_ context.Context, path string) (*ExerciseDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDetail(path, data)
}

// CreateExercise writes a new exercise and indexes it.
func (s *Service) CreateExercise(_ context.Context, path string, content []byte) (*ExerciseDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// UpdateExercise writes updated content with optimistic concurrency.
func (s *Service) UpdateExercise(_ context.Context, path string, content []byte, ifMatch string) (*ExerciseDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDetail(path, content)
}

// DeleteExercise removes an exercise from storage and index.
func (s *Service) DeleteExercise(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteExercise(path)
}

// ListExercises returns paginated exercises with optional tag filter.
func (s *Service) ListExercises(_ context.Context, limit, offset int, tag, sort string) ([]ExerciseListItem, int, error) {
	rows, total, err := s.db.ListExercises(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ExerciseListItem, len(rows))
	for i, r := range rows {
		items[i] = ExerciseListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			Mode:      r.Mode,
			Blanks:    r.Blanks,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Completions delegates to the index.
func (s *Service) Completions(_ context.Context) ([]index.CompletionRow, error) {
	return s.db.Completions()
}

// IndexFile parses data and upserts it into the index.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := index.ExerciseRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      res.Tags,
		Mode:      res.Mode,
		Blanks:    len(cloze.ParseBlanks(res.Body)),
		UpdatedAt: time.Now(),
	}
	return s.db.UpsertExercise(row, res.Body)
}

func (s *Service) buildDetail(path string, data []byte) (*ExerciseDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	completed, _ := s.db.IsExerciseComplete(path)
	return &ExerciseDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Mode:        res.Mode,
		Options:     res.Options,
		Blanks:      len(cloze.ParseBlanks(res.Body)),
		Frontmatter: res.Frontmatter,
		Completed:   completed,
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
