// Package movement provides the motion scheduling core for the Reachy Mini.
// It implements a primary/secondary architecture where:
//   - Primary moves (goto poses, dances, emotions, breathing) are queued and
//     played one at a time
//   - Secondary offsets (head tracking, speech wobble) are continuously
//     composed on top
//   - The Manager fuses them into a single hardware command at 100Hz
package movement

import "time"

// Control loop cadence.
const (
	ControlHz    = 100
	TickInterval = time.Second / ControlHz

	// IdleTimeout is how long the primary queue must stay empty before
	// breathing is synthesized.
	IdleTimeout = 8 * time.Second
)

// forwardPoint is the neutral look-at target in world coordinates.
// Head-tracking offsets are applied relative to this point.
var forwardPoint = Vec3{X: 0.35, Y: 0.0, Z: 0.1}

// Vec3 is a point or offset in world coordinates (meters).
type Vec3 struct {
	X, Y, Z float64
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Add returns v translated by other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// PoseState is the head and antenna target for one timestep.
type PoseState struct {
	// AntennaPos is the left/right antenna joint target in radians.
	AntennaPos [2]float64

	// LookAt is the world-space gaze target, or nil when the move does
	// not steer the head.
	LookAt *Vec3

	// Head holds joint-space targets by joint name. Reserved; no move
	// variant populates it yet.
	Head map[string]float64
}

// Move is one item in the primary queue, sampled over time by the Manager.
type Move interface {
	// Name identifies the move for logging.
	Name() string

	// Sample returns the pose at elapsed time since the move started.
	// ok=false means the move has finished and must be discarded.
	Sample(elapsed time.Duration) (pose PoseState, ok bool)
}

// MotionPlayer triggers built-in recorded motions on the robot.
// Dance and emotion moves use it to fire their clip exactly once.
type MotionPlayer interface {
	// PlayBuiltinMotion tries each candidate name in order against the
	// robot's recorded-motion catalogs and plays the first match.
	// Returns true if a motion was started.
	PlayBuiltinMotion(candidates []string, initialGotoDuration float64) bool
}
