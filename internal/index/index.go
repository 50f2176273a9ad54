package index

// ExerciseIndex defines the interface for exercise indexing and completion
// tracking. Consumers should depend on this interface rather than the
// concrete *DB type to facilitate testing with mocks.
type ExerciseIndex interface {
	UpsertExercise(e ExerciseRow, body string) error
	DeleteExercise(path string) error
	GetChecksum(path string) (string, error)
	GetExercise(path string) (*ExerciseRow, error)
	ListExercises(limit, offset int, tag, sort string) ([]ExerciseRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	MarkExerciseComplete(path, contextKey string) error
	IsExerciseComplete(path string) (bool, error)
	Completions() ([]CompletionRow, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ExerciseIndex at compile time.
var _ ExerciseIndex = (*DB)(nil)
