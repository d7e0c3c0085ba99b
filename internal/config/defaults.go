package config

const (
	defaultLogDir      = "~/.local/share/epasset/logs"
	defaultHistoryPath = "~/.local/share/epasset/history.db"

	defaultScreenWidth      = 360
	defaultScreenHeight     = 640
	defaultVideoCanvasWidth = 480
	defaultVideoCodec       = "libx264"
	defaultVideoBitrate     = "600k"
	defaultFrameImageExt    = "png"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:      defaultLogDir,
			HistoryPath: defaultHistoryPath,
		},
		Export: Export{
			ScreenWidth:      defaultScreenWidth,
			ScreenHeight:     defaultScreenHeight,
			VideoCanvasWidth: defaultVideoCanvasWidth,
			VideoCodec:       defaultVideoCodec,
			VideoBitrate:     defaultVideoBitrate,
			FrameImageExt:    defaultFrameImageExt,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: true,
		},
	}
}
