package wobble

import (
	"encoding/binary"
	"math"
	"testing"
)

func pcmChunk(amplitude int16, samples int) []byte {
	buf := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := amplitude
		if i%2 == 1 {
			v = -amplitude
		}
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func TestHeadWobbler_SilenceProducesNoOffset(t *testing.T) {
	var dy, dz float64
	w := New(func(x, y, z float64) { dy, dz = y, z })

	w.PushAudio(pcmChunk(0, 480))

	if dy != 0 || dz != 0 {
		t.Errorf("silent offset: got (%v, %v), want (0, 0)", dy, dz)
	}
	if w.Energy() != 0 {
		t.Errorf("energy: got %v, want 0", w.Energy())
	}
}

func TestHeadWobbler_LoudAudioProducesOffset(t *testing.T) {
	var dz float64
	w := New(func(x, y, z float64) { dz = z })

	for i := 0; i < 20; i++ {
		w.PushAudio(pcmChunk(16000, 480))
	}

	if w.Energy() <= 0 {
		t.Fatal("expected energy to accumulate")
	}
	if math.Abs(dz) == 0 {
		t.Error("expected a non-zero wobble offset")
	}
	if math.Abs(dz) > DefaultAmplitude {
		t.Errorf("offset exceeds amplitude bound: %v", dz)
	}
}

func TestHeadWobbler_EnergyDecaysTowardSilence(t *testing.T) {
	w := New(func(x, y, z float64) {})

	for i := 0; i < 20; i++ {
		w.PushAudio(pcmChunk(16000, 480))
	}
	loud := w.Energy()

	for i := 0; i < 50; i++ {
		w.PushAudio(pcmChunk(0, 480))
	}
	if w.Energy() >= loud {
		t.Errorf("energy did not decay: %v -> %v", loud, w.Energy())
	}
}

func TestHeadWobbler_IgnoresShortChunks(t *testing.T) {
	called := false
	w := New(func(x, y, z float64) { called = true })

	w.PushAudio(nil)
	w.PushAudio([]byte{0x01})

	if called {
		t.Error("short chunks must not emit offsets")
	}
}
