package export

import "fmt"

// Status is the terminal resolution of a batch.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Outcome is produced exactly once per batch.
type Outcome struct {
	Status    Status
	Count     int
	OutputDir string
	TaskKind  TaskKind
	Reason    string
}

// Message renders the outcome for the progress sink and logs.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusCompleted:
		return fmt.Sprintf("exported %d files to %s", o.Count, o.OutputDir)
	case StatusCancelled:
		return "export cancelled"
	case StatusFailed:
		if o.TaskKind != "" {
			return fmt.Sprintf("export of %s failed: %s", o.TaskKind, o.Reason)
		}
		return fmt.Sprintf("export failed: %s", o.Reason)
	default:
		return string(o.Status)
	}
}

// Sink receives progress and the terminal outcome of a batch. Both methods
// are called from the runner's background goroutine.
type Sink interface {
	Progress(percent int, message string)
	Terminal(outcome Outcome)
}

// NopSink discards all notifications.
type NopSink struct{}

func (NopSink) Progress(int, string) {}

func (NopSink) Terminal(Outcome) {}
