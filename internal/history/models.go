package history

import (
	"errors"
	"time"
)

// Kind distinguishes the two pipeline entry points.
type Kind string

const (
	KindExport    Kind = "export"
	KindMigration Kind = "migration"
)

// Run statuses. Running rows belong to an in-flight or abandoned run.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// ErrNotFound reports a missing run row.
var ErrNotFound = errors.New("run not found")

// Record is one pipeline run, export or migration.
type Record struct {
	ID         int64
	RunID      string
	Kind       Kind
	Status     string
	OutputDir  string
	FileCount  int
	Detail     string
	StartedAt  time.Time
	FinishedAt *time.Time
}
