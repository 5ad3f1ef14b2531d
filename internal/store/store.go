package store

// Store defines the catalog operations used by the CLI.
// It is satisfied by *DB and can be replaced with a mock for testing.
type Store interface {
	// RecordRun inserts a run, assigning an ID and timestamp if unset.
	RecordRun(run *Run) error

	// GetRun retrieves a run by ID.
	GetRun(id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]Run, error)

	// RecordMetrics stores reconstruction metrics for a run.
	RecordMetrics(m *Metrics) error

	// GetMetrics retrieves the metrics of a run.
	GetMetrics(runID string) (*Metrics, error)

	// Summary aggregates runs per truncate count.
	Summary() ([]TruncateSummary, error)
}

// Compile-time check that *DB satisfies the Store interface.
var _ Store = (*DB)(nil)
