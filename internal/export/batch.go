package export

import (
	"github.com/google/uuid"
)

// Batch is one export invocation: an ordered task list, the directory the
// assets land in, and optional metadata written as the manifest after all
// tasks succeed. A batch is consumed by exactly one Runner run.
type Batch struct {
	ID        string
	Tasks     []Task
	OutputDir string
	Metadata  map[string]string
}

// NewBatch assembles a batch with a fresh identifier.
func NewBatch(outputDir string, tasks []Task, metadata map[string]string) Batch {
	return Batch{
		ID:        uuid.NewString(),
		Tasks:     tasks,
		OutputDir: outputDir,
		Metadata:  metadata,
	}
}
