package export

import (
	"fmt"

	"epasset/internal/argb"
	"epasset/internal/frames"
)

// TaskKind enumerates the asset types a batch can produce.
type TaskKind string

const (
	KindLogo       TaskKind = "logo"
	KindOverlay    TaskKind = "overlay"
	KindDisplay    TaskKind = "display"
	KindLoopVideo  TaskKind = "loop"
	KindIntroVideo TaskKind = "intro"
)

// OutputName returns the fixed output filename convention for the kind.
func (k TaskKind) OutputName() string {
	switch k {
	case KindLogo:
		return "logo.argb"
	case KindOverlay:
		return "overlay.argb"
	case KindDisplay:
		return "display.argb"
	case KindLoopVideo:
		return "loop.mp4"
	case KindIntroVideo:
		return "intro.mp4"
	default:
		return ""
	}
}

// IsVideo reports whether the kind runs the extract-and-encode strategy
// rather than the image packing strategy.
func (k TaskKind) IsVideo() bool {
	return k == KindLoopVideo || k == KindIntroVideo
}

// Task is one unit of work in a batch. Exactly one payload field is set,
// matching the kind's category. Tasks are immutable once constructed and
// owned by the runner while a batch executes.
type Task struct {
	Kind       TaskKind
	OutputPath string

	Image *argb.ImageBuffer
	Video *frames.Params
}

// NewImageTask builds an image-packing task for logo, overlay, or display.
func NewImageTask(kind TaskKind, img argb.ImageBuffer) (Task, error) {
	if kind.IsVideo() || kind.OutputName() == "" {
		return Task{}, fmt.Errorf("task kind %q does not accept an image payload", kind)
	}
	if err := img.Validate(); err != nil {
		return Task{}, err
	}
	return Task{Kind: kind, OutputPath: kind.OutputName(), Image: &img}, nil
}

// NewVideoTask builds an extract-and-encode task for loop or intro video.
func NewVideoTask(kind TaskKind, params frames.Params) (Task, error) {
	if !kind.IsVideo() {
		return Task{}, fmt.Errorf("task kind %q does not accept video params", kind)
	}
	if err := params.Validate(); err != nil {
		return Task{}, err
	}
	return Task{Kind: kind, OutputPath: kind.OutputName(), Video: &params}, nil
}
