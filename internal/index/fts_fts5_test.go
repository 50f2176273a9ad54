//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM exercises_fts`).Scan(&count); err != nil {
		t.Fatalf("exercises_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := ExerciseRow{
		Path:      "fts.md",
		Title:     "FTS Exercise",
		Checksum:  "f1",
		Tags:      []string{"search"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertExercise(row, "Lacuna provides powerful full-text search over exercises."); err != nil {
		t.Fatalf("UpsertExercise: %v", err)
	}

	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.md" {
		t.Errorf("path = %q", results[0].Path)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeletedExerciseNotSearchable(t *testing.T) {
	db := testDB(t)
	row := ExerciseRow{Path: "gone.md", Title: "Gone", Checksum: "g1", Tags: []string{}, UpdatedAt: time.Now()}
	_ = db.UpsertExercise(row, "ephemeral content here")
	_ = db.DeleteExercise("gone.md")

	results, err := db.Search("ephemeral", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results after delete, got %d", len(results))
	}
}
