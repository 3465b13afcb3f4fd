package config

import (
	"os"
	"testing"

	"github.com/platewise/cookalong/internal/logger"
)

// clearEnv unsets a variable for the duration of the test, restoring
// whatever was there before.
func clearEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"COOKALONG_LOG_LEVEL", "COOKALONG_LOG_FILE", "COOKALONG_PREFS_DB",
		"COOKALONG_SPEECH_KEY", "COOKALONG_SPEECH_REGION", "COOKALONG_CHIME",
		"COOKALONG_WHISPER_BIN", "COOKALONG_RECORD_SECS",
	} {
		clearEnv(t, key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "normal" {
		t.Errorf("LogLevel = %q, want normal", cfg.LogLevel)
	}
	if cfg.PrefsDB != ".cookalong/prefs.db" {
		t.Errorf("PrefsDB = %q", cfg.PrefsDB)
	}
	if !cfg.Chime {
		t.Error("Chime should default on")
	}
	if cfg.RecordSecs != 2 {
		t.Errorf("RecordSecs = %d, want 2", cfg.RecordSecs)
	}
	if cfg.SpeechConfigured() {
		t.Error("SpeechConfigured should be false with no credentials")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("COOKALONG_LOG_LEVEL", "verbose")
	t.Setenv("COOKALONG_SPEECH_KEY", "key123")
	t.Setenv("COOKALONG_SPEECH_REGION", "westeurope")
	t.Setenv("COOKALONG_CHIME", "false")
	t.Setenv("COOKALONG_RECORD_SECS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogLevel != "verbose" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !cfg.SpeechConfigured() {
		t.Error("SpeechConfigured should be true")
	}
	if cfg.Chime {
		t.Error("Chime should be off")
	}
	if cfg.RecordSecs != 5 {
		t.Errorf("RecordSecs = %d, want 5", cfg.RecordSecs)
	}
}

func TestLevelMapping(t *testing.T) {
	tests := []struct {
		name string
		want logger.Level
	}{
		{"off", logger.LevelOff},
		{"quiet", logger.LevelOff},
		{"normal", logger.LevelNormal},
		{"verbose", logger.LevelVerbose},
		{"debug", logger.LevelVerbose},
		{"garbage", logger.LevelNormal},
		{"", logger.LevelNormal},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.name}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
