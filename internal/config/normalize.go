package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryPath) == "" {
		c.Paths.HistoryPath = defaultHistoryPath
	}
	if c.Paths.HistoryPath, err = expandPath(c.Paths.HistoryPath); err != nil {
		return fmt.Errorf("paths.history_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
}

func (c *Config) normalizeExport() {
	if c.Export.ScreenWidth <= 0 {
		c.Export.ScreenWidth = defaultScreenWidth
	}
	if c.Export.ScreenHeight <= 0 {
		c.Export.ScreenHeight = defaultScreenHeight
	}
	if c.Export.VideoCanvasWidth <= 0 {
		c.Export.VideoCanvasWidth = defaultVideoCanvasWidth
	}
	c.Export.VideoCodec = strings.TrimSpace(c.Export.VideoCodec)
	if c.Export.VideoCodec == "" {
		c.Export.VideoCodec = defaultVideoCodec
	}
	c.Export.VideoBitrate = strings.TrimSpace(c.Export.VideoBitrate)
	if c.Export.VideoBitrate == "" {
		c.Export.VideoBitrate = defaultVideoBitrate
	}
	c.Export.FrameImageExt = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Export.FrameImageExt), "."))
	if c.Export.FrameImageExt == "" {
		c.Export.FrameImageExt = defaultFrameImageExt
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
