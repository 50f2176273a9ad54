package index

import (
	"fmt"
	"time"
)

// CompletionRow records one solved exercise. ContextKey is the content
// checksum at completion time: re-authoring an exercise invalidates old
// completions without deleting their history.
type CompletionRow struct {
	Path        string    `json:"path"`
	ContextKey  string    `json:"context_key"`
	CompletedAt time.Time `json:"completed_at"`
}

// MarkExerciseComplete records a completion. Recording the same (path,
// context) twice is a no-op, so repeated notifications cannot duplicate
// history.
func (db *DB) MarkExerciseComplete(path, contextKey string) error {
	_, err := db.conn.Exec(`
		INSERT OR IGNORE INTO completions (path, context_key, completed_at)
		VALUES (?, ?, ?)
	`, path, contextKey, time.Now())
	if err != nil {
		return fmt.Errorf("index: mark complete: %w", err)
	}
	return nil
}

// IsExerciseComplete reports whether the exercise has a completion record for
// its current content checksum.
func (db *DB) IsExerciseComplete(path string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT count(*)
		FROM completions c
		JOIN exercises e ON e.path = c.path AND e.checksum = c.context_key
		WHERE c.path = ?
	`, path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index: is complete: %w", err)
	}
	return n > 0, nil
}

// Completions returns every completion record, most recent first.
func (db *DB) Completions() ([]CompletionRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, context_key, completed_at
		FROM completions
		ORDER BY completed_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: completions: %w", err)
	}
	defer rows.Close()

	var out []CompletionRow
	for rows.Next() {
		var c CompletionRow
		if err := rows.Scan(&c.Path, &c.ContextKey, &c.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
