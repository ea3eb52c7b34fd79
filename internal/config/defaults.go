package config

const (
	TargetOgg = "ogg"
	TargetMP3 = "mp3"

	SameFormatReject = "reject"
	SameFormatSkip   = "skip"
	SameFormatAllow  = "allow"
)

const (
	defaultTarget      = TargetOgg
	defaultOggQuality  = 8
	defaultMP3Quality  = 2
	defaultMarker      = "_encoded_"
	defaultMaxAttempts = 100
	defaultSameFormat  = SameFormatSkip
	defaultJobs        = 1
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	minOggQuality = -1
	maxOggQuality = 10
	minMP3Quality = 0
	maxMP3Quality = 9
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Encoder: Encoder{
			Target:     defaultTarget,
			OggQuality: defaultOggQuality,
			MP3Quality: defaultMP3Quality,
		},
		Output: Output{
			Marker:      defaultMarker,
			MaxAttempts: defaultMaxAttempts,
			SameFormat:  defaultSameFormat,
		},
		Tools: defaultTools(),
		Run: Run{
			Jobs: defaultJobs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultTools() Tools {
	return Tools{
		Flac:           "flac",
		Lame:           "lame",
		Oggenc:         "oggenc",
		Oggdec:         "oggdec",
		Mac:            "mac",
		Wvunpack:       "wvunpack",
		Mplayer:        "mplayer",
		Shnsplit:       "shnsplit",
		Cuebreakpoints: "cuebreakpoints",
	}
}
