package frames

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"epasset/internal/media/ffprobe"
)

// Source yields decoded frames from a video, starting at the seek position
// it was opened with. Next returns io.EOF when the source is exhausted.
type Source interface {
	Geometry() (width, height int)
	Next() (*image.NRGBA, error)
	Close() error
}

// SourceOpener opens a Source positioned at startFrame, prepared to deliver
// at most frameCount frames.
type SourceOpener func(ctx context.Context, ffmpegBin, ffprobeBin, path string, startFrame, frameCount int) (Source, error)

// OpenFFmpegSource probes the file for its geometry and spawns an ffmpeg
// child process that writes the requested frame range to a raw RGB pipe.
// The select filter keeps seeking frame-accurate at the cost of decoding the
// leading frames.
func OpenFFmpegSource(ctx context.Context, ffmpegBin, ffprobeBin, path string, startFrame, frameCount int) (Source, error) {
	probe, err := ffprobe.Inspect(ctx, ffprobeBin, path)
	if err != nil {
		return nil, err
	}
	stream, ok := probe.VideoStream()
	if !ok {
		return nil, fmt.Errorf("no video stream in %s", path)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return nil, fmt.Errorf("ffprobe reported empty geometry for %s", path)
	}

	if ffmpegBin = strings.TrimSpace(ffmpegBin); ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	args := []string{
		"-v", "error",
		"-i", path,
		"-vf", fmt.Sprintf("select=gte(n\\,%s)", strconv.Itoa(startFrame)),
		"-vsync", "0",
		"-frames:v", strconv.Itoa(frameCount),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}
	cmd := exec.CommandContext(ctx, ffmpegBin, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	return &ffmpegSource{
		cmd:    cmd,
		stdout: stdout,
		width:  stream.Width,
		height: stream.Height,
		buf:    make([]byte, stream.Width*stream.Height*3),
	}, nil
}

type ffmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	width  int
	height int
	buf    []byte
}

func (s *ffmpegSource) Geometry() (int, int) {
	return s.width, s.height
}

func (s *ffmpegSource) Next() (*image.NRGBA, error) {
	if _, err := io.ReadFull(s.stdout, s.buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	si, di := 0, 0
	for p := 0; p < s.width*s.height; p++ {
		img.Pix[di] = s.buf[si]
		img.Pix[di+1] = s.buf[si+1]
		img.Pix[di+2] = s.buf[si+2]
		img.Pix[di+3] = 0xff
		si += 3
		di += 4
	}
	return img, nil
}

func (s *ffmpegSource) Close() error {
	_ = s.stdout.Close()
	// The child exits on its own once the pipe drains or closes; reap it and
	// ignore the broken-pipe status a mid-stream Close produces.
	_ = s.cmd.Wait()
	return nil
}
