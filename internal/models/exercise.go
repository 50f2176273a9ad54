// Package models defines the domain types for Lacuna.
package models

import "time"

// Render modes for blanks.
const (
	ModeType   = "type"   // free-text input
	ModePicker = "picker" // closed choice among declared options
)

// Exercise represents a parsed cloze exercise file in the vault.
type Exercise struct {
	Path        string                 `json:"path"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Mode        string                 `json:"mode,omitempty"`
	Options     []string               `json:"options,omitempty"` // global picker choices
	Checksum    string                 `json:"checksum"`
	Blanks      int                    `json:"blanks"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ExerciseMetadata is a lightweight representation returned by list operations.
type ExerciseMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Completion records that an exercise was solved. ContextKey is the content
// checksum at completion time, so re-authoring an exercise starts fresh.
type Completion struct {
	Path        string    `json:"path"`
	ContextKey  string    `json:"context_key"`
	CompletedAt time.Time `json:"completed_at"`
}
