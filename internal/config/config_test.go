package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("GEMINI_MODEL", "")
	os.Setenv("SESSION_STORE", "")
	os.Setenv("DEFAULT_VOICE_ID", "")
	cfg := Load()
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.GeminiModel == "" {
		t.Fatalf("expected default gemini model")
	}
	if cfg.StoreDriver != "file" {
		t.Fatalf("expected file store driver default, got %q", cfg.StoreDriver)
	}
	if cfg.DefaultVoiceID == "" {
		t.Fatalf("expected default voice id")
	}
	if cfg.PipelineTimeout <= 0 {
		t.Fatalf("expected positive pipeline timeout")
	}
}

func TestLoad_VoiceSpeedParsing(t *testing.T) {
	os.Setenv("VOICE_SPEED", "1.25")
	defer os.Unsetenv("VOICE_SPEED")
	cfg := Load()
	if cfg.VoiceSpeed != 1.25 {
		t.Fatalf("expected voice speed 1.25, got %v", cfg.VoiceSpeed)
	}
	os.Setenv("VOICE_SPEED", "not-a-number")
	cfg = Load()
	if cfg.VoiceSpeed != 1.0 {
		t.Fatalf("expected fallback speed 1.0, got %v", cfg.VoiceSpeed)
	}
}
