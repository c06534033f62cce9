package movement

import (
	"math"
	"strings"
	"time"
)

// ============================================================
// GotoPoseMove - holds a named head direction for a duration
// ============================================================

// lookAtByDirection maps head direction names to world look-at points.
var lookAtByDirection = map[string]Vec3{
	"front": {X: 0.35, Y: 0.0, Z: 0.1},
	"left":  {X: 0.35, Y: 0.25, Z: 0.1},
	"right": {X: 0.35, Y: -0.25, Z: 0.1},
	"up":    {X: 0.35, Y: 0.0, Z: 0.25},
	"down":  {X: 0.35, Y: 0.0, Z: -0.05},
}

// GotoPoseMove steers the head to a fixed direction until its duration
// elapses. Unknown directions fall back to front.
type GotoPoseMove struct {
	direction string
	duration  time.Duration
}

// NewGotoPoseMove creates a head-direction move.
func NewGotoPoseMove(direction string, duration time.Duration) *GotoPoseMove {
	return &GotoPoseMove{
		direction: strings.ToLower(direction),
		duration:  duration,
	}
}

// Name returns "goto_<direction>".
func (m *GotoPoseMove) Name() string {
	return "goto_" + m.direction
}

// Sample returns the fixed look-at point until the duration elapses.
func (m *GotoPoseMove) Sample(elapsed time.Duration) (PoseState, bool) {
	if elapsed >= m.duration {
		return PoseState{}, false
	}
	target, found := lookAtByDirection[m.direction]
	if !found {
		target = lookAtByDirection["front"]
	}
	return PoseState{LookAt: &target}, true
}

// ============================================================
// BreathingMove - idle antenna oscillation, never self-terminates
// ============================================================

// BreathingMove sways the antennas sinusoidally while the robot is idle.
// It runs until displaced by a new queue entry.
type BreathingMove struct {
	period    time.Duration
	amplitude float64
}

// NewBreathingMove creates a breathing animation with the default
// 2 second period and 0.08 rad amplitude.
func NewBreathingMove() *BreathingMove {
	return &BreathingMove{period: 2 * time.Second, amplitude: 0.08}
}

// NewBreathingMoveWith creates a breathing animation with explicit
// period and amplitude.
func NewBreathingMoveWith(period time.Duration, amplitude float64) *BreathingMove {
	return &BreathingMove{period: period, amplitude: amplitude}
}

// Name returns "breathing".
func (m *BreathingMove) Name() string {
	return "breathing"
}

// Sample returns opposing antenna sway, no look-at target.
func (m *BreathingMove) Sample(elapsed time.Duration) (PoseState, bool) {
	phase := elapsed.Seconds() / m.period.Seconds() * 2 * math.Pi
	a := m.amplitude * math.Sin(phase)
	return PoseState{AntennaPos: [2]float64{a, -a}}, true
}

// ============================================================
// DanceMove - triggers a recorded dance, occupies the slot for a duration
// ============================================================

// DanceMove starts a recorded dance clip and then holds an empty pose
// until its duration elapses. Playback runs on the robot daemon; the move
// only reserves the primary slot for it.
type DanceMove struct {
	player   MotionPlayer
	moveName string
	duration time.Duration
	played   bool
}

// NewDanceMove creates a dance move. duration should cover the clip length.
func NewDanceMove(player MotionPlayer, name string, duration time.Duration) *DanceMove {
	return &DanceMove{player: player, moveName: name, duration: duration}
}

// Name returns "dance_<name>".
func (m *DanceMove) Name() string {
	return "dance_" + m.moveName
}

// Sample tries to trigger the clip until it starts, at most once per tick,
// and returns an empty pose until the duration elapses.
func (m *DanceMove) Sample(elapsed time.Duration) (PoseState, bool) {
	if !m.played && m.player != nil {
		if m.player.PlayBuiltinMotion([]string{strings.ToLower(m.moveName)}, 0.25) {
			m.played = true
		}
	}
	if elapsed >= m.duration {
		return PoseState{}, false
	}
	return PoseState{}, true
}

// ============================================================
// EmotionMove - triggers a recorded emotion clip with fallbacks
// ============================================================

// EmotionMove starts a recorded emotion clip, falling back through
// common clip names when the requested one is missing.
type EmotionMove struct {
	player      MotionPlayer
	emotionName string
	duration    time.Duration
	played      bool
}

// NewEmotionMove creates an emotion move.
func NewEmotionMove(player MotionPlayer, name string, duration time.Duration) *EmotionMove {
	return &EmotionMove{player: player, emotionName: name, duration: duration}
}

// Name returns "emotion_<name>".
func (m *EmotionMove) Name() string {
	return "emotion_" + m.emotionName
}

// Sample tries to trigger the clip until it starts, at most once per tick,
// and returns an empty pose until the duration elapses.
func (m *EmotionMove) Sample(elapsed time.Duration) (PoseState, bool) {
	if !m.played && m.player != nil {
		candidates := []string{
			strings.ToLower(m.emotionName),
			"neutral",
			"happy",
			"sad",
			"curious",
		}
		if m.player.PlayBuiltinMotion(candidates, 0.2) {
			m.played = true
		}
	}
	if elapsed >= m.duration {
		return PoseState{}, false
	}
	return PoseState{}, true
}
