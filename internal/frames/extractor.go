package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/kovidgoyal/imaging"

	"epasset/internal/config"
	"epasset/internal/logging"
	"epasset/internal/services"
)

// ErrFrameRead reports an unreadable or unopenable video source.
var ErrFrameRead = errors.New("frame read failure")

// progressInterval is how many source frames pass between progress callbacks.
const progressInterval = 10

// Progress receives periodic extraction updates.
type Progress func(frameIndex, totalFrames int)

// Extractor rasterizes transformed video frames into a directory of
// sequentially numbered still images.
type Extractor struct {
	ffmpegBin  string
	ffprobeBin string
	screenW    int
	screenH    int
	canvasW    int
	frameExt   string
	open       SourceOpener
	logger     *slog.Logger
}

// Option configures the extractor.
type Option func(*Extractor)

// WithSourceOpener injects a custom source opener (primarily for tests).
func WithSourceOpener(open SourceOpener) Option {
	return func(e *Extractor) {
		if open != nil {
			e.open = open
		}
	}
}

// New constructs an extractor from the export configuration. ffmpegBin is
// the already-resolved encoder binary; the same binary decodes frames.
func New(cfg *config.Config, ffmpegBin string, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: cfg.Tools.FFprobe,
		screenW:    cfg.Export.ScreenWidth,
		screenH:    cfg.Export.ScreenHeight,
		canvasW:    cfg.Export.VideoCanvasWidth,
		frameExt:   cfg.Export.FrameImageExt,
		open:       OpenFFmpegSource,
		logger:     logging.NewComponentLogger(logger, "frame-extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads params.FrameCount() frames starting at params.StartFrame,
// transforms each one, and writes it into frameDir. It returns the number of
// frames written. Source exhaustion before the requested count truncates the
// output and is logged, not failed. Cancellation is polled once per frame.
func (e *Extractor) Extract(ctx context.Context, params Params, frameDir string, onProgress Progress) (int, error) {
	if err := params.Validate(); err != nil {
		return 0, services.Wrap(services.ErrValidation, "frame-extractor", "extract", err.Error(), nil)
	}

	total := params.FrameCount()
	source, err := e.open(ctx, e.ffmpegBin, e.ffprobeBin, params.SourcePath, params.StartFrame, total)
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", ErrFrameRead, params.SourcePath, err)
	}
	defer source.Close()

	srcW, srcH := source.Geometry()
	crop := image.Rect(params.Crop.X, params.Crop.Y, params.Crop.X+params.Crop.Width, params.Crop.Y+params.Crop.Height)
	if !crop.In(image.Rect(0, 0, srcW, srcH)) {
		return 0, services.Wrap(services.ErrValidation, "frame-extractor", "extract",
			fmt.Sprintf("crop box %v outside source bounds %dx%d", crop, srcW, srcH), nil)
	}

	written := 0
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		frame, err := source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.logger.Warn("source exhausted before requested frame count",
					logging.String("source", params.SourcePath),
					logging.Int("frames_requested", total),
					logging.Int("frames_read", i),
				)
				break
			}
			return written, fmt.Errorf("%w: frame %d: %w", ErrFrameRead, params.StartFrame+i, err)
		}

		transformed := e.transform(frame, crop)
		framePath := filepath.Join(frameDir, fmt.Sprintf("frame_%06d.%s", i, e.frameExt))
		if err := imaging.Save(transformed, framePath); err != nil {
			return written, fmt.Errorf("write frame %d: %w", i, err)
		}
		written++

		if onProgress != nil && i%progressInterval == 0 {
			onProgress(i, total)
		}
	}
	return written, nil
}

func (e *Extractor) transform(frame *image.NRGBA, crop image.Rectangle) image.Image {
	out := imaging.Crop(frame, crop)
	out = imaging.Rotate180(out)
	out = imaging.Resize(out, e.screenW, e.screenH, imaging.Lanczos)

	if out.Bounds().Dx() >= e.canvasW {
		return out
	}
	// Left padding: the device composites the overlay into the gap.
	canvas := imaging.New(e.canvasW, e.screenH, color.NRGBA{A: 0xff})
	return imaging.Paste(canvas, out, image.Pt(e.canvasW-out.Bounds().Dx(), 0))
}
