package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, name := range []string{"ROBOT_IP", "REACHY_ACTION_RATE_LIMIT",
		"REACHY_SPEAK_CONFIRM_THRESHOLD", "REACHY_QUEUE_CAPACITY", "REACHY_FEEDBACK_ENABLED"} {
		t.Setenv(name, "")
	}

	cfg := FromEnv()

	if cfg.RobotIP != DefaultRobotIP {
		t.Errorf("RobotIP: got %q", cfg.RobotIP)
	}
	if cfg.RateLimitInterval != DefaultRateLimitInterval {
		t.Errorf("RateLimitInterval: got %v", cfg.RateLimitInterval)
	}
	if cfg.SpeakConfirmThreshold != DefaultSpeakConfirmThreshold {
		t.Errorf("SpeakConfirmThreshold: got %d", cfg.SpeakConfirmThreshold)
	}
	if cfg.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("QueueCapacity: got %d", cfg.QueueCapacity)
	}
	if !cfg.FeedbackEnabled {
		t.Error("FeedbackEnabled should default on")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ROBOT_IP", "192.168.68.80")
	t.Setenv("REACHY_ACTION_RATE_LIMIT", "2.5")
	t.Setenv("REACHY_SPEAK_CONFIRM_THRESHOLD", "120")
	t.Setenv("REACHY_FEEDBACK_ENABLED", "off")

	cfg := FromEnv()
	if cfg.RobotIP != "192.168.68.80" {
		t.Errorf("RobotIP: got %q", cfg.RobotIP)
	}
	if cfg.RateLimitInterval != 2500*time.Millisecond {
		t.Errorf("RateLimitInterval: got %v", cfg.RateLimitInterval)
	}
	if cfg.SpeakConfirmThreshold != 120 {
		t.Errorf("SpeakConfirmThreshold: got %d", cfg.SpeakConfirmThreshold)
	}
	if cfg.FeedbackEnabled {
		t.Error("FeedbackEnabled should be off")
	}
}

func TestFromEnv_RejectsMalformedValues(t *testing.T) {
	t.Setenv("REACHY_ACTION_RATE_LIMIT", "fast")
	t.Setenv("REACHY_QUEUE_CAPACITY", "many")

	cfg := FromEnv()
	if cfg.RateLimitInterval != DefaultRateLimitInterval {
		t.Errorf("RateLimitInterval: got %v, want default", cfg.RateLimitInterval)
	}
	if cfg.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("QueueCapacity: got %d, want default", cfg.QueueCapacity)
	}
}

func TestRobotAPIURL(t *testing.T) {
	cfg := Config{RobotIP: "10.0.0.5", RobotPort: "8000"}
	if got := cfg.RobotAPIURL(); got != "http://10.0.0.5:8000" {
		t.Errorf("RobotAPIURL: got %q", got)
	}
}
