// Package config loads ambient application settings from the
// environment. Run-specific choices (which recipe, how many servings)
// stay on the command line; everything that describes the machine the
// app runs on lives here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/platewise/cookalong/internal/logger"
)

// Config holds everything the binary reads from the environment.
type Config struct {
	// Logging
	LogLevel string `env:"COOKALONG_LOG_LEVEL" envDefault:"normal"`
	LogFile  string `env:"COOKALONG_LOG_FILE" envDefault:".cookalong/cookalong.log"`

	// Preference persistence
	PrefsDB string `env:"COOKALONG_PREFS_DB" envDefault:".cookalong/prefs.db"`

	// Speech synthesis (disabled unless both key and region are set)
	SpeechKey    string `env:"COOKALONG_SPEECH_KEY"`
	SpeechRegion string `env:"COOKALONG_SPEECH_REGION"`
	SpeechCache  string `env:"COOKALONG_SPEECH_CACHE" envDefault:".cookalong/tts-cache"`
	DiskCache    bool   `env:"COOKALONG_DISK_CACHE" envDefault:"true"`

	// Voice input via local whisper
	WhisperBin   string `env:"COOKALONG_WHISPER_BIN" envDefault:"whisper-cli"`
	WhisperModel string `env:"COOKALONG_WHISPER_MODEL" envDefault:"bin/ggml-small.bin"`
	RecordSecs   int    `env:"COOKALONG_RECORD_SECS" envDefault:"2"`

	// Timer chime
	Chime bool `env:"COOKALONG_CHIME" envDefault:"true"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Level maps the configured log level name to a logger level.
// Unrecognized names fall back to normal.
func (c *Config) Level() logger.Level {
	switch c.LogLevel {
	case "off", "quiet", "none":
		return logger.LevelOff
	case "verbose", "debug":
		return logger.LevelVerbose
	default:
		return logger.LevelNormal
	}
}

// SpeechConfigured reports whether synthesis credentials are present.
func (c *Config) SpeechConfigured() bool {
	return c.SpeechKey != "" && c.SpeechRegion != ""
}
