package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/lacuna/internal/apperr"
)

// ExerciseRow represents a row in the exercises table.
type ExerciseRow struct {
	Path      string
	Title     string
	Checksum  string
	Tags      []string
	Mode      string
	Blanks    int
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Title   string
	Snippet string
}

// UpsertExercise inserts or replaces an exercise and its FTS entry within a
// transaction.
func (db *DB) UpsertExercise(e ExerciseRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(e.Tags)

	// Upsert exercises table (includes body for fallback search).
	_, err = tx.Exec(`
		INSERT INTO exercises (path, title, checksum, tags, mode, blanks, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			mode       = excluded.mode,
			blanks     = excluded.blanks,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, e.Path, e.Title, e.Checksum, string(tagsJSON), e.Mode, e.Blanks, body, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert exercise: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, e.Path, e.Title, body, e.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteExercise removes an exercise, its FTS entry, and its completion
// records.
func (db *DB) DeleteExercise(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM completions WHERE path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM exercises WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for an exercise, or empty string if
// not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM exercises WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetExercise returns a single exercise row.
func (db *DB) GetExercise(path string) (*ExerciseRow, error) {
	var (
		e        ExerciseRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT path, title, checksum, tags, mode, blanks, updated_at
		FROM exercises WHERE path = ?
	`, path).Scan(&e.Path, &e.Title, &e.Checksum, &tagsJSON, &e.Mode, &e.Blanks, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get exercise: %w", err)
	}
	_ = json.Unmarshal([]byte(tagsJSON), &e.Tags)
	return &e, nil
}

// ListExercises returns a page of exercises with optional tag filter and
// sort field (updated_at, title, path).
func (db *DB) ListExercises(limit, offset int, tag, sort string) ([]ExerciseRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM exercises `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count exercises: %w", err)
	}

	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE ASC"
	case "path":
		order = "path ASC"
	}

	args = append(args, limit, offset)
	rows, err := db.conn.Query(`
		SELECT path, title, checksum, tags, mode, blanks, updated_at
		FROM exercises `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list exercises: %w", err)
	}
	defer rows.Close()

	var out []ExerciseRow
	for rows.Next() {
		var (
			e        ExerciseRow
			tagsJSON string
		)
		if err := rows.Scan(&e.Path, &e.Title, &e.Checksum, &tagsJSON, &e.Mode, &e.Blanks, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &e.Tags)
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed exercise path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM exercises`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed exercise.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM exercises`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
