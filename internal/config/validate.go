package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.VideoCanvasWidth < c.Export.ScreenWidth {
		return fmt.Errorf("export.video_canvas_width (%d) must be at least export.screen_width (%d)",
			c.Export.VideoCanvasWidth, c.Export.ScreenWidth)
	}
	switch c.Export.FrameImageExt {
	case "png", "bmp", "jpg":
	default:
		return fmt.Errorf("export.frame_image_ext: unsupported value %q (png, bmp, or jpg)", c.Export.FrameImageExt)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return errors.New("logging.format must be \"console\" or \"json\"")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
