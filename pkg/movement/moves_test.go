package movement

import (
	"testing"
	"time"
)

func TestGotoPoseMove_UnknownDirectionFallsBackToFront(t *testing.T) {
	m := NewGotoPoseMove("sideways", time.Second)

	pose, ok := m.Sample(100 * time.Millisecond)
	if !ok {
		t.Fatal("expected move to still be running")
	}
	if pose.LookAt == nil {
		t.Fatal("expected a look-at target")
	}
	front := lookAtByDirection["front"]
	if *pose.LookAt != front {
		t.Errorf("target: got %+v, want %+v", *pose.LookAt, front)
	}
}

func TestGotoPoseMove_FinishesAfterDuration(t *testing.T) {
	m := NewGotoPoseMove("up", 500*time.Millisecond)

	if _, ok := m.Sample(499 * time.Millisecond); !ok {
		t.Error("expected the move to run until its duration")
	}
	if _, ok := m.Sample(500 * time.Millisecond); ok {
		t.Error("expected the move to finish at its duration")
	}
}

func TestBreathingMove_NeverSelfTerminates(t *testing.T) {
	m := NewBreathingMove()

	for _, elapsed := range []time.Duration{0, time.Second, time.Hour} {
		if _, ok := m.Sample(elapsed); !ok {
			t.Errorf("breathing finished at %v", elapsed)
		}
	}
}

func TestBreathingMove_AntennasOppose(t *testing.T) {
	m := NewBreathingMoveWith(2*time.Second, 0.08)

	pose, _ := m.Sample(500 * time.Millisecond) // quarter period, peak sway
	if !floatEquals(pose.AntennaPos[0], 0.08) {
		t.Errorf("left antenna: got %v, want 0.08", pose.AntennaPos[0])
	}
	if !floatEquals(pose.AntennaPos[1], -0.08) {
		t.Errorf("right antenna: got %v, want -0.08", pose.AntennaPos[1])
	}
}

func TestDanceMove_FiresClipOnce(t *testing.T) {
	player := &mockPlayer{result: true}
	m := NewDanceMove(player, "Tango", 2*time.Second)

	m.Sample(0)
	m.Sample(10 * time.Millisecond)
	m.Sample(20 * time.Millisecond)

	if player.callCount() != 1 {
		t.Fatalf("play calls: got %d, want 1", player.callCount())
	}
	player.mu.Lock()
	got := player.calls[0]
	player.mu.Unlock()
	if len(got) != 1 || got[0] != "tango" {
		t.Errorf("candidates: got %v, want [tango]", got)
	}
}

func TestDanceMove_RetriesFailedClipUntilItStarts(t *testing.T) {
	player := &mockPlayer{result: false}
	m := NewDanceMove(player, "tango", 2*time.Second)

	m.Sample(0)
	m.Sample(10 * time.Millisecond)
	if player.callCount() != 2 {
		t.Fatalf("play calls while failing: got %d, want 2", player.callCount())
	}

	// Once the clip starts, no further attempts.
	player.mu.Lock()
	player.result = true
	player.mu.Unlock()
	m.Sample(20 * time.Millisecond)
	m.Sample(30 * time.Millisecond)
	if player.callCount() != 3 {
		t.Errorf("play calls after success: got %d, want 3", player.callCount())
	}
}

func TestEmotionMove_RetriesFailedClipUntilItStarts(t *testing.T) {
	player := &mockPlayer{result: false}
	m := NewEmotionMove(player, "happy", time.Second)

	m.Sample(0)
	m.Sample(10 * time.Millisecond)
	if player.callCount() != 2 {
		t.Errorf("play calls while failing: got %d, want 2", player.callCount())
	}
}

func TestEmotionMove_FallbackCandidates(t *testing.T) {
	player := &mockPlayer{result: true}
	m := NewEmotionMove(player, "Excited", time.Second)

	m.Sample(0)

	player.mu.Lock()
	got := player.calls[0]
	player.mu.Unlock()
	want := []string{"excited", "neutral", "happy", "sad", "curious"}
	if len(got) != len(want) {
		t.Fatalf("candidates: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEmotionMove_OccupiesSlotForDuration(t *testing.T) {
	m := NewEmotionMove(&mockPlayer{result: true}, "happy", time.Second)

	if _, ok := m.Sample(999 * time.Millisecond); !ok {
		t.Error("expected the move to hold the slot for its duration")
	}
	if _, ok := m.Sample(time.Second); ok {
		t.Error("expected the move to finish at its duration")
	}
}
