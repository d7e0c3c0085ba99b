package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"epasset/internal/argb"
	"epasset/internal/export"
	"epasset/internal/frames"
	"epasset/internal/logging"
	"epasset/internal/services"
	"epasset/internal/services/ffmpeg"
)

type recordingSink struct {
	mu       sync.Mutex
	percents []int
	messages []string
	outcome  export.Outcome
	done     chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{done: make(chan struct{})}
}

func (s *recordingSink) Progress(percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.percents = append(s.percents, percent)
	s.messages = append(s.messages, message)
}

func (s *recordingSink) Terminal(outcome export.Outcome) {
	s.mu.Lock()
	s.outcome = outcome
	s.mu.Unlock()
	close(s.done)
}

func (s *recordingSink) wait(t *testing.T) export.Outcome {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not resolve")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

type stubExtractor struct {
	mu        sync.Mutex
	calls     []string
	err       error
	frames    int
	started   chan struct{}
	block     chan struct{}
	onExtract func(ctx context.Context, frameDir string, onProgress frames.Progress)
}

func (s *stubExtractor) Extract(ctx context.Context, params frames.Params, frameDir string, onProgress frames.Progress) (int, error) {
	s.mu.Lock()
	s.calls = append(s.calls, frameDir)
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	s.mu.Unlock()
	if s.block != nil {
		<-s.block
	}
	if s.onExtract != nil {
		s.onExtract(ctx, frameDir, onProgress)
	}
	if s.err != nil {
		return 0, s.err
	}
	return s.frames, nil
}

type stubEncoder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubEncoder) EncodeFrames(ctx context.Context, frameDir string, fps float64, outputPath string) error {
	s.mu.Lock()
	s.calls = append(s.calls, frameDir)
	s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("video"), 0o644)
}

func solidImage(t *testing.T, width, height int) argb.ImageBuffer {
	t.Helper()
	data := make([]byte, width*height*3)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return argb.ImageBuffer{Width: width, Height: height, Channels: 3, Data: data}
}

func imageTask(t *testing.T, kind export.TaskKind) export.Task {
	t.Helper()
	task, err := export.NewImageTask(kind, solidImage(t, 4, 4))
	if err != nil {
		t.Fatalf("NewImageTask: %v", err)
	}
	return task
}

func videoTask(t *testing.T, kind export.TaskKind) export.Task {
	t.Helper()
	task, err := export.NewVideoTask(kind, frames.Params{
		SourcePath: "/media/clip.mp4",
		Crop:       frames.CropBox{X: 0, Y: 0, Width: 100, Height: 100},
		StartFrame: 0,
		EndFrame:   30,
		FPS:        30,
	})
	if err != nil {
		t.Fatalf("NewVideoTask: %v", err)
	}
	return task
}

func newTestRunner(extractor *stubExtractor, encoder export.Encoder) *export.Runner {
	return export.NewRunner(extractor, encoder, logging.NewNop())
}

func TestRunnerExportsImageBatch(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(&stubExtractor{}, nil)
	sink := newRecordingSink()

	tasks := []export.Task{
		imageTask(t, export.KindLogo),
		imageTask(t, export.KindOverlay),
		imageTask(t, export.KindDisplay),
	}
	batch := export.NewBatch(dir, tasks, map[string]string{"name": "Channel One"})
	if err := runner.Start(context.Background(), batch, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}

	outcome := sink.wait(t)
	if outcome.Status != export.StatusCompleted {
		t.Fatalf("status = %s, want completed (reason %q)", outcome.Status, outcome.Reason)
	}
	if outcome.Count != 3 {
		t.Fatalf("count = %d, want 3", outcome.Count)
	}
	for _, name := range []string{"logo.argb", "overlay.argb", "display.argb", export.ManifestName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s on disk: %v", name, err)
		}
	}

	packed, err := os.ReadFile(filepath.Join(dir, "logo.argb"))
	if err != nil {
		t.Fatalf("read logo: %v", err)
	}
	if len(packed) != 4*4*4 {
		t.Errorf("logo size = %d bytes, want %d", len(packed), 4*4*4)
	}
}

func TestRunnerProgressNeverDecreases(t *testing.T) {
	dir := t.TempDir()
	extractor := &stubExtractor{
		frames: 30,
		onExtract: func(_ context.Context, _ string, onProgress frames.Progress) {
			for i := 0; i < 30; i += 10 {
				onProgress(i, 30)
			}
		},
	}
	runner := newTestRunner(extractor, &stubEncoder{})
	sink := newRecordingSink()

	tasks := []export.Task{
		imageTask(t, export.KindLogo),
		videoTask(t, export.KindLoopVideo),
	}
	if err := runner.Start(context.Background(), export.NewBatch(dir, tasks, nil), sink); err != nil {
		t.Fatalf("Start: %v", err)
	}
	outcome := sink.wait(t)
	if outcome.Status != export.StatusCompleted {
		t.Fatalf("status = %s, want completed (reason %q)", outcome.Status, outcome.Reason)
	}

	last := -1
	for i, percent := range sink.percents {
		if percent < last {
			t.Fatalf("progress decreased at index %d: %v", i, sink.percents)
		}
		last = percent
	}
	if last != 100 {
		t.Fatalf("final progress = %d, want 100", last)
	}
}

func TestRunnerRejectsConcurrentBatch(t *testing.T) {
	dir := t.TempDir()
	extractor := &stubExtractor{block: make(chan struct{}), frames: 30}
	runner := newTestRunner(extractor, &stubEncoder{})
	sink := newRecordingSink()

	batch := export.NewBatch(dir, []export.Task{videoTask(t, export.KindLoopVideo)}, nil)
	if err := runner.Start(context.Background(), batch, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}

	second := export.NewBatch(t.TempDir(), []export.Task{imageTask(t, export.KindLogo)}, nil)
	if err := runner.Start(context.Background(), second, newRecordingSink()); !errors.Is(err, export.ErrAlreadyRunning) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRunning", err)
	}
	if got := runner.State(); got != export.StateRunning {
		t.Fatalf("state = %s, want running", got)
	}

	close(extractor.block)
	outcome := sink.wait(t)
	if outcome.Status != export.StatusCompleted {
		t.Fatalf("first batch status = %s, want completed (reason %q)", outcome.Status, outcome.Reason)
	}
	if got := runner.State(); got != export.StateIdle {
		t.Fatalf("state after resolution = %s, want idle", got)
	}

	// The runner accepts a new batch once the previous one resolved.
	third := newRecordingSink()
	if err := runner.Start(context.Background(), export.NewBatch(t.TempDir(), []export.Task{imageTask(t, export.KindLogo)}, nil), third); err != nil {
		t.Fatalf("Start after resolution: %v", err)
	}
	if outcome := third.wait(t); outcome.Status != export.StatusCompleted {
		t.Fatalf("third batch status = %s", outcome.Status)
	}
}

func TestRunnerCancelBeforeFirstTask(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(&stubExtractor{}, nil)
	sink := newRecordingSink()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := export.NewBatch(dir, []export.Task{imageTask(t, export.KindLogo)}, nil)
	if err := runner.Start(ctx, batch, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}

	outcome := sink.wait(t)
	if outcome.Status != export.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", outcome.Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "logo.argb")); !os.IsNotExist(err) {
		t.Fatalf("cancelled batch must not produce files, stat err = %v", err)
	}
}

func TestRunnerCancelMidBatch(t *testing.T) {
	dir := t.TempDir()
	started := make(chan struct{})
	extractor := &stubExtractor{block: make(chan struct{}), frames: 30, started: started}
	runner := newTestRunner(extractor, &stubEncoder{})
	sink := newRecordingSink()

	tasks := []export.Task{
		videoTask(t, export.KindLoopVideo),
		imageTask(t, export.KindLogo),
	}
	if err := runner.Start(context.Background(), export.NewBatch(dir, tasks, nil), sink); err != nil {
		t.Fatalf("Start: %v", err)
	}

	<-started
	runner.Cancel()
	runner.Cancel() // idempotent
	close(extractor.block)

	outcome := sink.wait(t)
	if outcome.Status != export.StatusCancelled {
		t.Fatalf("status = %s, want cancelled (reason %q)", outcome.Status, outcome.Reason)
	}
	// The first task's encode still ran to completion; the second task was
	// never attempted.
	if _, err := os.Stat(filepath.Join(dir, "loop.mp4")); err != nil {
		t.Errorf("expected loop.mp4 from in-flight task: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "logo.argb")); !os.IsNotExist(err) {
		t.Errorf("logo.argb must not exist after cancellation, stat err = %v", err)
	}
}

func TestRunnerFailureStopsBatch(t *testing.T) {
	dir := t.TempDir()
	runner := newTestRunner(&stubExtractor{}, nil)
	sink := newRecordingSink()

	broken := export.Task{Kind: export.KindOverlay, OutputPath: "overlay.argb"}
	tasks := []export.Task{
		imageTask(t, export.KindLogo),
		broken,
		imageTask(t, export.KindDisplay),
	}
	if err := runner.Start(context.Background(), export.NewBatch(dir, tasks, nil), sink); err != nil {
		t.Fatalf("Start: %v", err)
	}

	outcome := sink.wait(t)
	if outcome.Status != export.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if outcome.TaskKind != export.KindOverlay {
		t.Fatalf("failed task = %s, want overlay", outcome.TaskKind)
	}
	if _, err := os.Stat(filepath.Join(dir, "logo.argb")); err != nil {
		t.Errorf("completed task output must remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "display.argb")); !os.IsNotExist(err) {
		t.Errorf("later task must not run after a failure, stat err = %v", err)
	}
}

func TestRunnerCleansFrameDirectory(t *testing.T) {
	dir := t.TempDir()
	extractor := &stubExtractor{
		frames: 30,
		onExtract: func(_ context.Context, frameDir string, _ frames.Progress) {
			if err := os.WriteFile(filepath.Join(frameDir, "frame_000000.png"), []byte("x"), 0o644); err != nil {
				t.Errorf("write frame: %v", err)
			}
		},
	}
	encoder := &stubEncoder{}
	runner := newTestRunner(extractor, encoder)
	sink := newRecordingSink()

	batch := export.NewBatch(dir, []export.Task{videoTask(t, export.KindIntroVideo)}, nil)
	if err := runner.Start(context.Background(), batch, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}
	outcome := sink.wait(t)
	if outcome.Status != export.StatusCompleted {
		t.Fatalf("status = %s, want completed (reason %q)", outcome.Status, outcome.Reason)
	}

	if _, err := os.Stat(filepath.Join(dir, "temp_frames")); !os.IsNotExist(err) {
		t.Errorf("frame directory must be removed, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "intro.mp4")); err != nil {
		t.Errorf("expected intro.mp4: %v", err)
	}
	if len(encoder.calls) != 1 || !strings.HasSuffix(encoder.calls[0], "temp_frames") {
		t.Errorf("encoder calls = %v", encoder.calls)
	}
}

func TestRunnerCleansFrameDirectoryOnExtractFailure(t *testing.T) {
	dir := t.TempDir()
	extractor := &stubExtractor{err: errors.New("decode blew up")}
	runner := newTestRunner(extractor, &stubEncoder{})
	sink := newRecordingSink()

	batch := export.NewBatch(dir, []export.Task{videoTask(t, export.KindLoopVideo)}, nil)
	if err := runner.Start(context.Background(), batch, sink); err != nil {
		t.Fatalf("Start: %v", err)
	}
	outcome := sink.wait(t)
	if outcome.Status != export.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "temp_frames")); !os.IsNotExist(err) {
		t.Errorf("frame directory must be removed after failure, stat err = %v", err)
	}
}

func TestRunnerRejectsEmptyBatch(t *testing.T) {
	runner := newTestRunner(&stubExtractor{}, nil)
	err := runner.Start(context.Background(), export.NewBatch(t.TempDir(), nil, nil), export.NopSink{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestRunnerRejectsVideoTaskWithoutEncoder(t *testing.T) {
	runner := newTestRunner(&stubExtractor{}, nil)
	batch := export.NewBatch(t.TempDir(), []export.Task{videoTask(t, export.KindLoopVideo)}, nil)
	err := runner.Start(context.Background(), batch, export.NopSink{})
	if !errors.Is(err, ffmpeg.ErrUnavailable) {
		t.Fatalf("error = %v, want encoder-unavailable error", err)
	}
}
