package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"epasset/internal/argb"
	"epasset/internal/frames"
	"epasset/internal/logging"
	"epasset/internal/services"
	"epasset/internal/services/ffmpeg"
)

// ErrAlreadyRunning is returned by Start while a batch is in flight.
var ErrAlreadyRunning = errors.New("export already running")

// lockFileName is the advisory lock taken inside the output directory for
// the duration of a batch. It extends the single-batch guarantee across
// processes sharing the same output directory.
const lockFileName = ".epasset.lock"

// State is the runner's lifecycle position.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// tempFrameDirName holds intermediate frame images during a video task. It
// lives under the output directory and is removed when the task finishes.
const tempFrameDirName = "temp_frames"

// Extractor is the frame extraction surface the runner drives for video
// tasks.
type Extractor interface {
	Extract(ctx context.Context, params frames.Params, frameDir string, onProgress frames.Progress) (int, error)
}

// Encoder is the external video encoder surface.
type Encoder interface {
	EncodeFrames(ctx context.Context, frameDir string, fps float64, outputPath string) error
}

// Runner owns the background execution context for one in-flight batch.
// Zero or one batch is active at any time; terminal resolution always
// returns the runner to idle.
type Runner struct {
	extractor Extractor
	encoder   Encoder
	logger    *slog.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner constructs an idle runner. encoder may be nil when no external
// encoder binary is available; batches containing video tasks are then
// rejected at Start.
func NewRunner(extractor Extractor, encoder Encoder, logger *slog.Logger) *Runner {
	return &Runner{
		extractor: extractor,
		encoder:   encoder,
		logger:    logging.NewComponentLogger(logger, "export-runner"),
		state:     StateIdle,
	}
}

// State reports the current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start validates the batch, transitions to running, and begins sequential
// task execution on a background goroutine. It returns immediately; the
// sink receives all further signals. Starting while a batch is active
// returns ErrAlreadyRunning and leaves the active batch untouched.
func (r *Runner) Start(ctx context.Context, batch Batch, sink Sink) error {
	if sink == nil {
		sink = NopSink{}
	}
	if len(batch.Tasks) == 0 {
		return services.Wrap(services.ErrValidation, "export-runner", "start", "no tasks supplied", nil)
	}
	for _, task := range batch.Tasks {
		if task.Kind.IsVideo() && r.encoder == nil {
			return services.Wrap(services.ErrConfiguration, "export-runner", "start",
				fmt.Sprintf("task %s requires a video encoder", task.Kind), ffmpeg.ErrUnavailable)
		}
	}

	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.state = StateRunning
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(runCtx, batch, sink)
	return nil
}

// Cancel requests cooperative cancellation. It is idempotent, safe from any
// goroutine, and only sets the flag: an in-flight external encoder process
// still runs to completion.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current batch (if any) has resolved.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, batch Batch, sink Sink) {
	logger := r.logger.With(logging.String("batch", batch.ID))

	outcome := r.execute(ctx, batch, sink, logger)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = nil
	r.state = StateIdle
	r.mu.Unlock()

	switch outcome.Status {
	case StatusCompleted:
		logger.Info("batch completed", logging.Int("files", outcome.Count), logging.String("output_dir", outcome.OutputDir))
	case StatusCancelled:
		logger.Info("batch cancelled")
	case StatusFailed:
		logger.Error("batch failed", logging.String("task", string(outcome.TaskKind)), logging.String("reason", outcome.Reason))
	}
	sink.Terminal(outcome)
	r.wg.Done()
}

func (r *Runner) execute(ctx context.Context, batch Batch, sink Sink, logger *slog.Logger) Outcome {
	if err := os.MkdirAll(batch.OutputDir, 0o755); err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("create output directory: %v", err)}
	}

	lock := flock.New(filepath.Join(batch.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Outcome{Status: StatusFailed, Reason: fmt.Sprintf("lock output directory: %v", err)}
	}
	if !locked {
		return Outcome{Status: StatusFailed, Reason: "output directory is locked by another export"}
	}
	defer func() {
		_ = lock.Unlock()
	}()

	total := len(batch.Tasks)
	completed := 0
	for i, task := range batch.Tasks {
		if ctx.Err() != nil {
			return Outcome{Status: StatusCancelled}
		}

		base := i * 100 / total
		sink.Progress(base, fmt.Sprintf("Exporting %s...", task.OutputPath))
		logger.Info("task started",
			logging.String("task", string(task.Kind)),
			logging.Int("index", i),
			logging.Int("total", total),
		)

		if err := r.executeTask(ctx, batch, task, base, total, sink); err != nil {
			if errors.Is(err, context.Canceled) {
				return Outcome{Status: StatusCancelled}
			}
			return Outcome{Status: StatusFailed, TaskKind: task.Kind, Reason: err.Error()}
		}
		completed++
	}

	if len(batch.Metadata) > 0 {
		if err := writeManifest(batch.OutputDir, batch.Metadata); err != nil {
			// Best-effort: a missing manifest never invalidates the assets.
			logger.Warn("manifest write failed", logging.Error(err))
		}
	}

	sink.Progress(100, "Export complete")
	return Outcome{Status: StatusCompleted, Count: completed, OutputDir: batch.OutputDir}
}

func (r *Runner) executeTask(ctx context.Context, batch Batch, task Task, base, total int, sink Sink) error {
	outputPath := filepath.Join(batch.OutputDir, task.OutputPath)
	if task.Kind.IsVideo() {
		return r.exportVideo(ctx, task, outputPath, batch.OutputDir, base, total, sink)
	}
	return r.exportImage(ctx, task, outputPath)
}

func (r *Runner) exportImage(ctx context.Context, task Task, outputPath string) error {
	if task.Image == nil {
		return fmt.Errorf("task %s has no image payload", task.Kind)
	}
	var (
		packed []byte
		err    error
	)
	if task.Kind == KindLogo {
		packed, err = argb.EncodeLogo(*task.Image)
	} else {
		packed, err = argb.Encode(*task.Image)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(outputPath, packed, 0o644)
}

func (r *Runner) exportVideo(ctx context.Context, task Task, outputPath, outputDir string, base, total int, sink Sink) error {
	if task.Video == nil {
		return fmt.Errorf("task %s has no video params", task.Kind)
	}

	frameDir := filepath.Join(outputDir, tempFrameDirName)
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return fmt.Errorf("create frame directory: %w", err)
	}
	defer func() {
		// Cleanup runs on every exit path, success or failure.
		_ = os.RemoveAll(frameDir)
	}()

	share := 100.0 / float64(total)
	progress := func(frameIndex, totalFrames int) {
		interpolated := base + int(float64(frameIndex)/float64(totalFrames)*share)
		sink.Progress(interpolated, fmt.Sprintf("Processing frame %d/%d...", frameIndex, totalFrames))
	}

	if _, err := r.extractor.Extract(ctx, *task.Video, frameDir, progress); err != nil {
		return err
	}

	sink.Progress(base+int(0.8*share), "Encoding video...")

	// The encoder deliberately ignores cooperative cancellation: killing it
	// mid-write could leave a corrupt asset on disk, so a started encode is
	// always awaited.
	return r.encoder.EncodeFrames(context.WithoutCancel(ctx), frameDir, task.Video.FPS, outputPath)
}
