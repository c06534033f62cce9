// Package wobble derives a speech-reactive head offset from raw audio
// energy. The offset feeds the movement manager's speech wobble channel as
// a secondary motion source.
package wobble

import (
	"encoding/binary"
	"math"
)

// Defaults: small wobble amplitude in world coordinates, slow energy decay.
const (
	DefaultAmplitude = 0.02
	DefaultDecay     = 0.92
)

// OffsetFunc receives the computed (dx, dy, dz) offset.
type OffsetFunc func(dx, dy, dz float64)

// HeadWobbler consumes raw PCM chunks (int16 little-endian, e.g. 24kHz),
// tracks a smoothed energy level, and emits a wobble offset per chunk.
//
// PushAudio is expected to be called from a single producer goroutine (the
// realtime audio bridge); the wobbler keeps no shared state beyond that.
type HeadWobbler struct {
	onOffset  OffsetFunc
	amplitude float64
	decay     float64
	energy    float64
}

// New creates a wobbler with default amplitude and decay.
func New(onOffset OffsetFunc) *HeadWobbler {
	return NewWith(onOffset, DefaultAmplitude, DefaultDecay)
}

// NewWith creates a wobbler with explicit amplitude and decay.
func NewWith(onOffset OffsetFunc, amplitude, decay float64) *HeadWobbler {
	return &HeadWobbler{onOffset: onOffset, amplitude: amplitude, decay: decay}
}

// PushAudio updates the energy estimate from one PCM chunk and emits the
// resulting wobble offset. Chunks shorter than one sample are ignored.
func (w *HeadWobbler) PushAudio(pcm []byte) {
	if len(pcm) < 2 {
		return
	}

	// RMS over the chunk.
	var total float64
	n := 0
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		total += float64(sample) * float64(sample)
		n++
	}
	if n == 0 {
		return
	}
	rms := math.Sqrt(total/float64(n)) / 32768.0

	w.energy = w.energy*w.decay + rms*(1.0-w.decay)

	// Wobble in z (nod) and slightly in y (shake).
	dz := w.amplitude * math.Sin(w.energy*20) * w.energy
	dy := w.amplitude * 0.3 * math.Cos(w.energy*17) * w.energy
	w.onOffset(0.0, dy, dz)
}

// Energy returns the current smoothed energy level.
func (w *HeadWobbler) Energy() float64 {
	return w.energy
}
