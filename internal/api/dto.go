package api

import (
	"github.com/starford/lacuna/internal/exercise"
	"github.com/starford/lacuna/internal/session"
)

// CreateExerciseRequest is the request body for creating an exercise.
type CreateExerciseRequest struct {
	Path    string `json:"path" example:"geo/capitals.md" validate:"required"`
	Content string `json:"content" example:"The capital of France is [Paris]." validate:"required"`
}

// UpdateExerciseRequest is the request body for updating an exercise.
type UpdateExerciseRequest struct {
	Content string `json:"content" example:"The capital of Italy is [Rome]." validate:"required"`
}

// ExerciseDetail is the full exercise response type (aliased from the domain layer).
type ExerciseDetail = exercise.ExerciseDetail

// ExerciseListItem is a lightweight item in a list response (aliased from the domain layer).
type ExerciseListItem = exercise.ExerciseListItem

// ExerciseListResponse wraps paginated exercise listings.
type ExerciseListResponse struct {
	Exercises []ExerciseListItem `json:"exercises" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// RenderResponse is the rendered exercise tree (aliased from the domain layer).
type RenderResponse = exercise.RenderResult

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"geo/capitals.md" validate:"required"`
	Title   string `json:"title" example:"European Capitals" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// CreateSessionRequest starts a new attempt at an exercise.
type CreateSessionRequest struct {
	Path string `json:"path" example:"geo/capitals.md" validate:"required"`
}

// SetValueRequest carries typed or selected text for one blank.
type SetValueRequest struct {
	Value string `json:"value" example:"Paris"`
}

// SessionState is the full derived state of a session.
type SessionState struct {
	ID         string           `json:"id" validate:"required"`
	Path       string           `json:"path" validate:"required"`
	Blanks     []session.Status `json:"blanks" validate:"required"`
	Submitted  bool             `json:"submitted"`
	AllCorrect bool             `json:"all_correct"`
	Completed  bool             `json:"completed"`
}

// CheckAnswersRequest grades a complete answer set without a session.
type CheckAnswersRequest struct {
	Values []string `json:"values" validate:"required"`
}

// CheckAnswersResponse wraps stateless grading results.
type CheckAnswersResponse struct {
	Checks     []exercise.AnswerCheck `json:"checks" validate:"required"`
	AllCorrect bool                   `json:"all_correct"`
}

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	Filename string `json:"filename" example:"diagram.png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/assets/diagram.png" validate:"required"`
}
