package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "lacuna-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM exercises`).Scan(&count); err != nil {
		t.Fatalf("exercises table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM completions`).Scan(&count); err != nil {
		t.Fatalf("completions table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := ExerciseRow{
		Path:      "capitals.md",
		Title:     "European Capitals",
		Checksum:  "abc123",
		Tags:      []string{"geography", "easy"},
		Mode:      "type",
		Blanks:    3,
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertExercise(row, "The capital of France is [Paris]."); err != nil {
		t.Fatalf("UpsertExercise: %v", err)
	}
	cs, err := db.GetChecksum("capitals.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetExercise(t *testing.T) {
	db := testDB(t)
	row := ExerciseRow{
		Path:      "animals.md",
		Title:     "Animals",
		Checksum:  "z9",
		Tags:      []string{"biology"},
		Mode:      "picker",
		Blanks:    2,
		UpdatedAt: time.Now(),
	}
	_ = db.UpsertExercise(row, "A [cat] says meow.")

	got, err := db.GetExercise("animals.md")
	if err != nil {
		t.Fatalf("GetExercise: %v", err)
	}
	if got.Title != "Animals" || got.Mode != "picker" || got.Blanks != 2 {
		t.Errorf("row = %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "biology" {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestDeleteExercise(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertExercise(ExerciseRow{Path: "del.md", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body")
	_ = db.MarkExerciseComplete("del.md", "x")

	if err := db.DeleteExercise("del.md"); err != nil {
		t.Fatalf("DeleteExercise: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted exercise still has checksum %q", cs)
	}
	comps, _ := db.Completions()
	if len(comps) != 0 {
		t.Errorf("expected 0 completions after delete, got %d", len(comps))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertExercise(ExerciseRow{Path: "up.md", Title: "Old", Checksum: "1", Tags: []string{}, Blanks: 1, UpdatedAt: now}, "old body")
	_ = db.UpsertExercise(ExerciseRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, Blanks: 4, UpdatedAt: now}, "new body")

	got, err := db.GetExercise("up.md")
	if err != nil {
		t.Fatalf("GetExercise: %v", err)
	}
	if got.Checksum != "2" || got.Title != "New" || got.Blanks != 4 {
		t.Errorf("row = %+v", got)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListExercises_TagFilterAndSort(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertExercise(ExerciseRow{Path: "b.md", Title: "Bravo", Checksum: "1", Tags: []string{"geo"}, UpdatedAt: now}, "x")
	_ = db.UpsertExercise(ExerciseRow{Path: "a.md", Title: "Alpha", Checksum: "2", Tags: []string{"bio"}, UpdatedAt: now}, "y")

	rows, total, err := db.ListExercises(10, 0, "geo", "path")
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "b.md" {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}

	rows, total, err = db.ListExercises(10, 0, "", "title")
	if err != nil {
		t.Fatalf("ListExercises: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].Title != "Alpha" {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}
}

func TestCompletionLifecycle(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertExercise(ExerciseRow{Path: "c.md", Checksum: "v1", Tags: []string{}, UpdatedAt: time.Now()}, "body")

	done, err := db.IsExerciseComplete("c.md")
	if err != nil {
		t.Fatalf("IsExerciseComplete: %v", err)
	}
	if done {
		t.Error("fresh exercise should not be complete")
	}

	if err := db.MarkExerciseComplete("c.md", "v1"); err != nil {
		t.Fatalf("MarkExerciseComplete: %v", err)
	}
	// Recording again is a no-op, not an error.
	if err := db.MarkExerciseComplete("c.md", "v1"); err != nil {
		t.Fatalf("repeat MarkExerciseComplete: %v", err)
	}

	done, _ = db.IsExerciseComplete("c.md")
	if !done {
		t.Error("exercise should be complete")
	}

	comps, _ := db.Completions()
	if len(comps) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(comps))
	}
}

func TestCompletionInvalidatedByContentChange(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertExercise(ExerciseRow{Path: "c.md", Checksum: "v1", Tags: []string{}, UpdatedAt: time.Now()}, "body")
	_ = db.MarkExerciseComplete("c.md", "v1")

	// Re-authoring changes the checksum; the old completion no longer counts.
	_ = db.UpsertExercise(ExerciseRow{Path: "c.md", Checksum: "v2", Tags: []string{}, UpdatedAt: time.Now()}, "new body")
	done, _ := db.IsExerciseComplete("c.md")
	if done {
		t.Error("completion should be invalidated by content change")
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertExercise(ExerciseRow{Path: "s.md", Title: "Search Me", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}
