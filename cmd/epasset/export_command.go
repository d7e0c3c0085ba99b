package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/kovidgoyal/imaging"
	"github.com/spf13/cobra"

	"epasset/internal/argb"
	"epasset/internal/export"
	"epasset/internal/frames"
	"epasset/internal/history"
	"epasset/internal/logging"
	"epasset/internal/media/ffprobe"
	"epasset/internal/services/ffmpeg"
)

type exportFlags struct {
	outputDir   string
	logoPath    string
	overlayPath string
	displayPath string
	loopPath    string
	introPath   string
	crop        string
	startFrame  int
	endFrame    int
	fps         float64
	name        string
	description string
	meta        []string
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export packed image and video assets into an output folder",
		Long: `Export converts still images into packed .argb assets and video clips
into re-encoded loop/intro videos. Tasks run sequentially in a background
batch; Ctrl-C cancels cooperatively, leaving completed outputs in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, ctx, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "out", "o", "", "Output directory for the asset folder (required)")
	cmd.Flags().StringVar(&flags.logoPath, "logo", "", "Image exported as logo.argb")
	cmd.Flags().StringVar(&flags.overlayPath, "overlay", "", "Image exported as overlay.argb")
	cmd.Flags().StringVar(&flags.displayPath, "display", "", "Image exported as display.argb")
	cmd.Flags().StringVar(&flags.loopPath, "loop", "", "Video clip exported as loop.mp4")
	cmd.Flags().StringVar(&flags.introPath, "intro", "", "Video clip exported as intro.mp4")
	cmd.Flags().StringVar(&flags.crop, "crop", "", "Crop box for video tasks as x,y,width,height (default: full frame)")
	cmd.Flags().IntVar(&flags.startFrame, "start-frame", 0, "First source frame for video tasks")
	cmd.Flags().IntVar(&flags.endFrame, "end-frame", 0, "Frame after the last source frame (default: end of clip)")
	cmd.Flags().Float64Var(&flags.fps, "fps", 0, "Output frame rate (default: source rate)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Asset name written into the manifest")
	cmd.Flags().StringVar(&flags.description, "description", "", "Asset description written into the manifest")
	cmd.Flags().StringArrayVar(&flags.meta, "meta", nil, "Extra manifest entry as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(cmd *cobra.Command, cmdCtx *commandContext, flags *exportFlags) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	logger := cmdCtx.ensureLogger()

	tasks, err := buildTasks(cmd.Context(), cmdCtx, flags)
	if err != nil {
		return err
	}

	metadata, err := buildMetadata(flags)
	if err != nil {
		return err
	}

	hasVideo := false
	for _, task := range tasks {
		if task.Kind.IsVideo() {
			hasVideo = true
		}
	}

	var encoder *ffmpeg.Client
	ffmpegBin := ""
	if hasVideo {
		encoder, err = ffmpeg.NewFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("resolve video encoder: %w", err)
		}
		ffmpegBin = encoder.Binary()
	}
	extractor := frames.New(cfg, ffmpegBin, logger)

	var runnerEncoder export.Encoder
	if encoder != nil {
		runnerEncoder = encoder
	}
	runner := export.NewRunner(extractor, runnerEncoder, logger)
	sink := newConsoleSink(cmd.ErrOrStderr(), stderrIsInteractive())
	batch := export.NewBatch(flags.outputDir, tasks, metadata)

	store := cmdCtx.openHistory()
	if store != nil {
		defer func() { _ = store.Close() }()
		if _, err := store.RecordStart(cmd.Context(), batch.ID, history.KindExport, batch.OutputDir); err != nil {
			logger.Warn("history record failed", logging.Error(err))
			store = nil
		}
	}

	signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Start(signalCtx, batch, sink); err != nil {
		return err
	}

	outcome := sink.wait()
	if store != nil {
		if err := store.RecordFinish(context.Background(), batch.ID, string(outcome.Status), outcome.Count, outcome.Reason); err != nil {
			logger.Warn("history record failed", logging.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	switch outcome.Status {
	case export.StatusCompleted:
		fmt.Fprintln(out, outcome.Message())
		return nil
	case export.StatusCancelled:
		fmt.Fprintln(out, outcome.Message())
		return context.Canceled
	default:
		return errors.New(outcome.Message())
	}
}

// buildTasks assembles the batch in the fixed logo, overlay, display, loop,
// intro order.
func buildTasks(ctx context.Context, cmdCtx *commandContext, flags *exportFlags) ([]export.Task, error) {
	var tasks []export.Task

	imageInputs := []struct {
		kind export.TaskKind
		path string
	}{
		{export.KindLogo, flags.logoPath},
		{export.KindOverlay, flags.overlayPath},
		{export.KindDisplay, flags.displayPath},
	}
	for _, input := range imageInputs {
		if input.path == "" {
			continue
		}
		img, err := imaging.Open(input.path)
		if err != nil {
			return nil, fmt.Errorf("open %s image %s: %w", input.kind, input.path, err)
		}
		task, err := export.NewImageTask(input.kind, argb.FromImage(img))
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	videoInputs := []struct {
		kind export.TaskKind
		path string
	}{
		{export.KindLoopVideo, flags.loopPath},
		{export.KindIntroVideo, flags.introPath},
	}
	for _, input := range videoInputs {
		if input.path == "" {
			continue
		}
		params, err := videoParams(ctx, cmdCtx, flags, input.path)
		if err != nil {
			return nil, fmt.Errorf("prepare %s video %s: %w", input.kind, input.path, err)
		}
		task, err := export.NewVideoTask(input.kind, params)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if len(tasks) == 0 {
		return nil, errors.New("nothing to export: supply at least one of --logo, --overlay, --display, --loop, --intro")
	}
	return tasks, nil
}

// videoParams fills in the flags' gaps from the source's probed metadata:
// missing crop becomes the full frame, missing end frame the clip length,
// missing fps the source rate.
func videoParams(ctx context.Context, cmdCtx *commandContext, flags *exportFlags, path string) (frames.Params, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return frames.Params{}, err
	}

	params := frames.Params{
		SourcePath: path,
		StartFrame: flags.startFrame,
		EndFrame:   flags.endFrame,
		FPS:        flags.fps,
	}
	if flags.crop != "" {
		crop, err := parseCrop(flags.crop)
		if err != nil {
			return frames.Params{}, err
		}
		params.Crop = crop
	}

	if params.Crop.Width == 0 || params.EndFrame == 0 || params.FPS == 0 {
		result, err := ffprobe.Inspect(ctx, cfg.Tools.FFprobe, path)
		if err != nil {
			return frames.Params{}, fmt.Errorf("probe source: %w", err)
		}
		stream, ok := result.VideoStream()
		if !ok {
			return frames.Params{}, fmt.Errorf("no video stream in %s", path)
		}
		if params.Crop.Width == 0 {
			params.Crop = frames.CropBox{X: 0, Y: 0, Width: stream.Width, Height: stream.Height}
		}
		if params.EndFrame == 0 {
			params.EndFrame = int(stream.FrameCount())
		}
		if params.FPS == 0 {
			params.FPS = stream.FrameRate()
		}
	}
	return params, nil
}

func parseCrop(value string) (frames.CropBox, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return frames.CropBox{}, fmt.Errorf("crop %q: want x,y,width,height", value)
	}
	numbers := make([]int, 4)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return frames.CropBox{}, fmt.Errorf("crop %q: %w", value, err)
		}
		numbers[i] = n
	}
	return frames.CropBox{X: numbers[0], Y: numbers[1], Width: numbers[2], Height: numbers[3]}, nil
}

func buildMetadata(flags *exportFlags) (map[string]string, error) {
	metadata := make(map[string]string)
	if flags.name != "" {
		metadata["name"] = flags.name
	}
	if flags.description != "" {
		metadata["description"] = flags.description
	}
	for _, entry := range flags.meta {
		key, value, found := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("meta entry %q: want key=value", entry)
		}
		metadata[key] = value
	}
	if len(metadata) == 0 {
		return nil, nil
	}
	return metadata, nil
}
