// Package robot provides the hardware adapter and the safety-gated
// controller for the Reachy Mini.
//
// The Mini interface is the boundary to the excluded hardware collaborator
// (the robot daemon). Controller layers connection-health tracking and
// built-in-motion resolution on top of it.
package robot

import (
	"errors"
	"strings"
)

// Mini is the hardware handle the controller drives.
type Mini interface {
	// LookAtWorld points the head at a world-space target over duration
	// seconds.
	LookAtWorld(x, y, z, duration float64) error

	// SetTargetAntennaJointPositions sets the left/right antenna joint
	// targets in radians.
	SetTargetAntennaJointPositions(positions [2]float64) error

	// ListMoves returns the recorded-motion catalogs: catalog name to
	// motion names.
	ListMoves() (map[string][]string, error)

	// PlayMove plays a recorded motion from a catalog, transitioning to
	// its first frame over initialGotoDuration seconds.
	PlayMove(catalog, name string, initialGotoDuration float64) error
}

// ErrConnectionLost marks a hardware error as a connection loss. Adapters
// should wrap transport-level disconnects with it.
var ErrConnectionLost = errors.New("lost connection to robot")

// connLossFragments are matched case-insensitively against error text from
// adapters that cannot wrap ErrConnectionLost themselves.
var connLossFragments = []string{
	"lost connection",
	"connection error",
	"connection refused",
	"connection reset",
}

// IsConnectionLoss reports whether err indicates the robot link is gone
// rather than a transient command failure.
func IsConnectionLoss(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectionLost) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range connLossFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
