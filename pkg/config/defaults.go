package config

import "runtime"

const (
	NamingUUID     = "uuid"
	NamingFixed    = "fixed"
	NamingSequence = "sequence"

	defaultOutputDir   = "."
	defaultExtension   = ".mp4"
	defaultPrefix      = "gibs"
	defaultFFmpeg      = "ffmpeg"
	defaultFourCC      = "MJPG"
	defaultFPS         = 30
	defaultFrameWidth  = 500
	defaultFrameHeight = 500
	defaultService     = "wmts"
	defaultProjection  = 4326
	defaultTier        = "best"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with the defaults.
func Default() Config {
	return Config{
		Output: Output{
			Dir:       defaultOutputDir,
			Extension: defaultExtension,
			Naming:    NamingUUID,
			Prefix:    defaultPrefix,
		},
		Encoder: Encoder{
			FFmpeg: defaultFFmpeg,
			FourCC: defaultFourCC,
			FPS:    defaultFPS,
			Color:  true,
		},
		Frames: Frames{
			Width:  defaultFrameWidth,
			Height: defaultFrameHeight,
		},
		Imagery: Imagery{
			Service:    defaultService,
			Projection: defaultProjection,
			Tier:       defaultTier,
		},
		Workers: Workers{
			Parallel: runtime.NumCPU(),
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
