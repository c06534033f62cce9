// Package config provides environment-driven configuration for reachy-runtime.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the runtime core.
const (
	DefaultRobotIP               = "127.0.0.1"
	DefaultRobotPort             = "8000"
	DefaultWebPort               = "8001"
	DefaultRateLimitInterval     = 1 * time.Second
	DefaultSpeakConfirmThreshold = 80
	DefaultQueueCapacity         = 200
	DefaultEnqueueTimeout        = 200 * time.Millisecond
	DefaultObserveInterval       = 600 * time.Second
	DefaultStatusPollInterval    = 2 * time.Second
)

// Config holds all configuration for the runtime daemon.
// Flag parsing happens in cmd/reachyd; this struct is data only.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// RobotIP is the address of the Reachy Mini daemon.
	RobotIP string
	// RobotPort is the daemon HTTP port.
	RobotPort string

	// WebPort is the port the runtime API listens on.
	WebPort string

	// RateLimitInterval is the minimum spacing between accepted
	// actions of the same name.
	RateLimitInterval time.Duration

	// SpeakConfirmThreshold is the text length at or above which a
	// speak action requires confirm=true.
	SpeakConfirmThreshold int

	// QueueCapacity bounds the control action queue.
	QueueCapacity int

	// EnqueueTimeout bounds how long the gateway waits for queue space.
	EnqueueTimeout time.Duration

	// ObserveInterval is the spacing between observer snapshots.
	ObserveInterval time.Duration

	// StatusPollInterval is the spacing between status re-evaluations.
	StatusPollInterval time.Duration

	// AuditDBPath is the sqlite file for action records. Empty disables
	// persistence (records are still logged).
	AuditDBPath string

	// MemoryIndexURL is the external memory index endpoint for
	// observations. Empty disables delivery.
	MemoryIndexURL string

	// FeedbackEnabled controls whether worker failures trigger antenna
	// feedback on the robot.
	FeedbackEnabled bool
}

// FromEnv builds a Config from environment variables, applying defaults
// for anything unset.
func FromEnv() Config {
	return Config{
		LogLevel:              getStr("REACHY_LOG_LEVEL", "info"),
		RobotIP:               getStr("ROBOT_IP", DefaultRobotIP),
		RobotPort:             getStr("ROBOT_PORT", DefaultRobotPort),
		WebPort:               getStr("REACHY_WEB_PORT", DefaultWebPort),
		RateLimitInterval:     getSeconds("REACHY_ACTION_RATE_LIMIT", DefaultRateLimitInterval),
		SpeakConfirmThreshold: getInt("REACHY_SPEAK_CONFIRM_THRESHOLD", DefaultSpeakConfirmThreshold),
		QueueCapacity:         getInt("REACHY_QUEUE_CAPACITY", DefaultQueueCapacity),
		EnqueueTimeout:        DefaultEnqueueTimeout,
		ObserveInterval:       getSeconds("REACHY_OBSERVE_INTERVAL", DefaultObserveInterval),
		StatusPollInterval:    DefaultStatusPollInterval,
		AuditDBPath:           getStr("REACHY_AUDIT_DB", ""),
		MemoryIndexURL:        getStr("REACHY_MEMORY_INDEX_URL", ""),
		FeedbackEnabled:       getBool("REACHY_FEEDBACK_ENABLED", true),
	}
}

// RobotAPIURL returns the daemon HTTP base URL.
func (c Config) RobotAPIURL() string {
	return "http://" + c.RobotIP + ":" + c.RobotPort
}

func getStr(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func getInt(name string, def int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func getBool(name string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// getSeconds reads a float number of seconds, e.g. "1.5".
func getSeconds(name string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs < 0 {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}
