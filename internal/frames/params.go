package frames

import (
	"errors"
	"fmt"
	"strings"
)

// CropBox is a rectangle in source-frame pixel coordinates.
type CropBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Params describes one video export: which frames of which source, how to
// crop them, and the output frame rate.
type Params struct {
	SourcePath string
	Crop       CropBox
	StartFrame int
	EndFrame   int
	FPS        float64
}

// Validate checks the construction-time invariants. Crop bounds are checked
// against the source geometry at extraction time, not here, because the
// source has not been opened yet.
func (p Params) Validate() error {
	if strings.TrimSpace(p.SourcePath) == "" {
		return errors.New("video params: source path required")
	}
	if p.StartFrame < 0 {
		return fmt.Errorf("video params: negative start frame %d", p.StartFrame)
	}
	if p.EndFrame <= p.StartFrame {
		return fmt.Errorf("video params: end frame %d not after start frame %d", p.EndFrame, p.StartFrame)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("video params: invalid frame rate %v", p.FPS)
	}
	if p.Crop.Width <= 0 || p.Crop.Height <= 0 {
		return fmt.Errorf("video params: empty crop box %+v", p.Crop)
	}
	return nil
}

// FrameCount returns the number of frames the params request.
func (p Params) FrameCount() int {
	return p.EndFrame - p.StartFrame
}
