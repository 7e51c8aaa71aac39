package config

import "os"

const (
	defaultConfigPath         = "~/.config/themereel/config.toml"
	defaultOutputDir          = "~/videos/themereel"
	defaultLogDir             = "~/.local/share/themereel/logs"
	defaultHistoryDB          = "~/.local/share/themereel/history.db"
	defaultFPS                = 30
	defaultWidth              = 1920
	defaultHeight             = 1080
	defaultCodec              = "libx264"
	defaultBitrate            = "5000k"
	defaultAudioCodec         = "aac"
	defaultTargetDuration     = 100.0
	defaultSubtitlePosition   = "bottom"
	defaultSubtitleMargin     = 50
	defaultFadeDuration       = 0.3
	defaultBackgroundVolume   = 0.10
	defaultBackgroundColor    = "#228B22"
	defaultAssetDir           = "~/videos/backgrounds"
	defaultFFmpeg             = "ffmpeg"
	defaultFFprobe            = "ffprobe"
	defaultRenderTimeout      = 300
	defaultMemoryPerRenderMiB = 1536
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			TempDir:   os.TempDir(),
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Video: Video{
			FPS:            defaultFPS,
			Width:          defaultWidth,
			Height:         defaultHeight,
			Codec:          defaultCodec,
			Bitrate:        defaultBitrate,
			AudioCodec:     defaultAudioCodec,
			TargetDuration: defaultTargetDuration,
		},
		Subtitle: Subtitle{
			Position:     defaultSubtitlePosition,
			Margin:       defaultSubtitleMargin,
			FadeDuration: defaultFadeDuration,
		},
		Background: Background{
			Loop:     true,
			Volume:   defaultBackgroundVolume,
			AssetDir: defaultAssetDir,
			Color:    defaultBackgroundColor,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Batch: Batch{
			RenderTimeout:      defaultRenderTimeout,
			MemoryPerRenderMiB: defaultMemoryPerRenderMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
