package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"epasset/internal/media/ffprobe"
	"epasset/internal/services/ffmpeg"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [media-file]",
		Short: "Report encoder availability and inspect a media source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runProbe(cmd, ctx, path)
		},
	}
	return cmd
}

func runProbe(cmd *cobra.Command, cmdCtx *commandContext, path string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	binary, err := ffmpeg.FindBinary(cfg.Tools.FFmpeg)
	switch {
	case errors.Is(err, ffmpeg.ErrUnavailable):
		fmt.Fprintln(out, "encoder: not found (video export unavailable)")
	case err != nil:
		return err
	default:
		fmt.Fprintf(out, "encoder: %s\n", binary)
		client, err := ffmpeg.New(binary, cfg.Export.VideoCodec, cfg.Export.VideoBitrate, cfg.Export.FrameImageExt)
		if err == nil {
			if version, err := client.Version(cmd.Context()); err == nil {
				fmt.Fprintf(out, "version: %s\n", version)
			}
		}
	}

	if path == "" {
		return nil
	}

	result, err := ffprobe.Inspect(cmd.Context(), cfg.Tools.FFprobe, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "container: %s (%s)\n", result.Format.FormatName, result.Format.Duration)

	stream, ok := result.VideoStream()
	if !ok {
		fmt.Fprintln(out, "no video stream")
		return nil
	}
	fmt.Fprintf(out, "video: %s %dx%d, %.3f fps, %d frames\n",
		stream.CodecName, stream.Width, stream.Height, stream.FrameRate(), stream.FrameCount())
	return nil
}
