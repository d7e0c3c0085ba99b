package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"epasset/internal/config"
	"epasset/internal/services"
)

// FramePattern is the printf-style name scheme the frame extractor writes
// and the encoder consumes. Both sides must agree on it.
const FramePattern = "frame_%06d"

// stderrExcerptLimit bounds how much encoder output travels inside errors.
const stderrExcerptLimit = 200

// ErrUnavailable reports that no ffmpeg binary could be resolved.
var ErrUnavailable = errors.New("ffmpeg binary not found")

// EncodeFailedError carries a bounded excerpt of the encoder's diagnostic
// stream when ffmpeg exits non-zero.
type EncodeFailedError struct {
	Excerpt string
}

func (e *EncodeFailedError) Error() string {
	if e.Excerpt == "" {
		return "ffmpeg encode failed"
	}
	return "ffmpeg encode failed: " + e.Excerpt
}

func (e *EncodeFailedError) Unwrap() error { return services.ErrExternalTool }

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (stdout, stderr []byte, err error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary   string
	codec    string
	bitrate  string
	frameExt string
	exec     Executor
}

// New constructs an ffmpeg client around a resolved binary path.
func New(binary, codec, bitrate, frameExt string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:   binary,
		codec:    codec,
		bitrate:  bitrate,
		frameExt: strings.TrimPrefix(frameExt, "."),
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// NewFromConfig resolves the binary per the configuration and builds a
// client with the configured encoder settings.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	binary, err := FindBinary(cfg.Tools.FFmpeg)
	if err != nil {
		return nil, err
	}
	return New(binary, cfg.Export.VideoCodec, cfg.Export.VideoBitrate, cfg.Export.FrameImageExt, opts...)
}

// FindBinary resolves the ffmpeg executable: an explicit configured path
// wins, otherwise PATH is searched.
func FindBinary(configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured != "" {
		info, err := os.Stat(configured)
		if err != nil || info.IsDir() {
			return "", fmt.Errorf("%w: configured path %q is not a file", ErrUnavailable, configured)
		}
		return configured, nil
	}
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", ErrUnavailable
	}
	return path, nil
}

// Binary returns the resolved executable path.
func (c *Client) Binary() string { return c.binary }

// FrameFile returns the file name of the frame with the given index.
func (c *Client) FrameFile(index int) string {
	return fmt.Sprintf(FramePattern+".%s", index, c.frameExt)
}

// EncodeFrames runs ffmpeg over the numbered frame sequence in frameDir at
// the given frame rate, producing outputPath. The output is overwritten
// unconditionally and carries no audio stream. A non-zero exit surfaces as
// *EncodeFailedError with a bounded stderr excerpt.
func (c *Client) EncodeFrames(ctx context.Context, frameDir string, fps float64, outputPath string) error {
	if strings.TrimSpace(frameDir) == "" {
		return errors.New("frame directory required")
	}
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %v", fps)
	}
	pattern := filepath.Join(frameDir, FramePattern+"."+c.frameExt)
	args := []string{
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", pattern,
		"-vf", "format=nv12",
		"-c:v", c.codec,
		"-b:v", c.bitrate,
		"-an",
		"-y",
		outputPath,
	}

	_, stderr, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &EncodeFailedError{Excerpt: excerpt(stderr)}
	}
	return nil
}

// Version reports the encoder's version banner, for diagnostics.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, _, err := c.exec.Run(ctx, c.binary, []string{"-version"})
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w", err)
	}
	line, _, _ := strings.Cut(string(stdout), "\n")
	return strings.TrimSpace(line), nil
}

func excerpt(stderr []byte) string {
	text := strings.TrimSpace(string(stderr))
	if len(text) > stderrExcerptLimit {
		text = text[:stderrExcerptLimit]
	}
	return text
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
