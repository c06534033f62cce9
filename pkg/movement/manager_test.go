package movement

import (
	"math"
	"sync"
	"testing"
	"time"
)

const floatTolerance = 1e-9

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// mockHardware records all commands for testing
type mockHardware struct {
	mu        sync.Mutex
	connected bool
	lookCalls []struct{ x, y, z, duration float64 }
	antCalls  [][2]float64
}

func newMockHardware() *mockHardware {
	return &mockHardware{connected: true}
}

func (m *mockHardware) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockHardware) LookAt(x, y, z, duration float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookCalls = append(m.lookCalls, struct{ x, y, z, duration float64 }{x, y, z, duration})
	return nil
}

func (m *mockHardware) SetTargetAntenna(positions [2]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.antCalls = append(m.antCalls, positions)
	return nil
}

func (m *mockHardware) lastLook() (x, y, z float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.lookCalls) == 0 {
		return 0, 0, 0, false
	}
	last := m.lookCalls[len(m.lookCalls)-1]
	return last.x, last.y, last.z, true
}

func (m *mockHardware) antennaCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.antCalls)
}

// mockPlayer records built-in motion requests
type mockPlayer struct {
	mu     sync.Mutex
	calls  [][]string
	result bool
}

func (p *mockPlayer) PlayBuiltinMotion(candidates []string, initialGotoDuration float64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, candidates)
	return p.result
}

func (p *mockPlayer) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestManager_QueueSequencing(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})

	m.QueueHeadDirection("left", 500*time.Millisecond)
	m.QueueHeadDirection("right", 500*time.Millisecond)

	// First tick: the left move owns the slot.
	m.step(100 * time.Millisecond)
	x, y, _, ok := mock.lastLook()
	if !ok {
		t.Fatal("expected a look_at command after the first tick")
	}
	if !floatEquals(x, 0.35) || !floatEquals(y, 0.25) {
		t.Errorf("left pose: got (%v, %v), want (0.35, 0.25)", x, y)
	}

	// After the left move's duration elapses, the right move starts on the
	// same tick.
	m.step(600 * time.Millisecond)
	_, y, _, _ = mock.lastLook()
	if !floatEquals(y, -0.25) {
		t.Errorf("right pose: got y=%v, want -0.25", y)
	}
	if got := m.QueueLen(); got != 0 {
		t.Errorf("queue length: got %d, want 0", got)
	}
}

func TestManager_IdleSynthesizesBreathing(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})
	m.lastActivity = time.Now().Add(-10 * time.Second)

	m.step(100 * time.Millisecond)

	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil || current.Name() != "breathing" {
		t.Fatalf("expected breathing move to own the slot, got %v", current)
	}
	// Breathing is sampled on the same tick it is synthesized.
	if mock.antennaCallCount() != 1 {
		t.Errorf("antenna calls: got %d, want 1", mock.antennaCallCount())
	}
}

func TestManager_QueuedMoveDefersBreathing(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})
	m.lastActivity = time.Now().Add(-10 * time.Second)
	m.QueueHeadDirection("up", time.Second)

	m.step(10 * time.Millisecond)

	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil || current.Name() != "goto_up" {
		t.Fatalf("expected queued move to win over breathing, got %v", current)
	}
}

func TestManager_QueuedMoveDisplacesBreathing(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})
	m.lastActivity = time.Now().Add(-10 * time.Second)

	m.step(100 * time.Millisecond)
	m.mu.Lock()
	current := m.current
	m.mu.Unlock()
	if current == nil || current.Name() != "breathing" {
		t.Fatalf("expected breathing before the queue refills, got %v", current)
	}

	m.QueueHeadDirection("left", time.Second)
	m.step(110 * time.Millisecond)

	m.mu.Lock()
	current = m.current
	m.mu.Unlock()
	if current == nil || current.Name() != "goto_left" {
		t.Fatalf("expected queued move to displace breathing, got %v", current)
	}
	x, y, _, ok := mock.lastLook()
	if !ok {
		t.Fatal("expected a look_at for the queued move")
	}
	if !floatEquals(x, 0.35) || !floatEquals(y, 0.25) {
		t.Errorf("left pose: got (%v, %v), want (0.35, 0.25)", x, y)
	}
}

func TestManager_TrackingAppliesWithoutPrimaryMove(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})

	m.SetHeadTrackingEnabled(true)
	m.SetHeadTrackingOffset(0.1, 0, 0)
	m.step(100 * time.Millisecond) // queue empty, idle not elapsed

	x, y, z, ok := mock.lastLook()
	if !ok {
		t.Fatal("expected a tracking look_at with an empty queue")
	}
	if !floatEquals(x, 0.45) || !floatEquals(y, 0) || !floatEquals(z, 0.1) {
		t.Errorf("tracking gaze: got (%v, %v, %v), want (0.45, 0, 0.1)", x, y, z)
	}
	// The empty primary pose still zeroes the antennas.
	if mock.antennaCallCount() != 1 {
		t.Errorf("antenna calls: got %d, want 1", mock.antennaCallCount())
	}
	if got := mock.antCalls[0]; got != [2]float64{0, 0} {
		t.Errorf("antenna target: got %v, want [0 0]", got)
	}
}

func TestManager_ClearDanceQueuePreservesOrder(t *testing.T) {
	m := NewManager(newMockHardware(), &mockPlayer{})

	m.QueueHeadDirection("left", time.Second)
	m.QueueDance("tango", 5*time.Second)
	m.QueueEmotion("happy", 2*time.Second)
	m.QueueDance("waltz", 5*time.Second)

	if removed := m.ClearDanceQueue(); removed != 2 {
		t.Fatalf("removed: got %d, want 2", removed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) != 2 {
		t.Fatalf("queue length: got %d, want 2", len(m.queue))
	}
	if m.queue[0].Name() != "goto_left" || m.queue[1].Name() != "emotion_happy" {
		t.Errorf("queue order: got [%s, %s], want [goto_left, emotion_happy]",
			m.queue[0].Name(), m.queue[1].Name())
	}
}

func TestManager_ClearEmotionQueue(t *testing.T) {
	m := NewManager(newMockHardware(), &mockPlayer{})
	m.QueueEmotion("happy", time.Second)
	m.QueueEmotion("sad", time.Second)
	m.QueueDance("tango", time.Second)

	if removed := m.ClearEmotionQueue(); removed != 2 {
		t.Fatalf("removed: got %d, want 2", removed)
	}
	if got := m.QueueLen(); got != 1 {
		t.Errorf("queue length: got %d, want 1", got)
	}
}

func TestManager_TrackingOverridesPrimaryGaze(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})

	m.QueueHeadDirection("left", time.Second)
	m.SetHeadTrackingEnabled(true)
	m.SetHeadTrackingOffset(0.0, 0.1, 0.05)
	m.SetSpeechWobbleOffset(0, 0.5, 0.5) // must be ignored while tracking

	m.step(100 * time.Millisecond)

	x, y, z, ok := mock.lastLook()
	if !ok {
		t.Fatal("expected a look_at command")
	}
	if !floatEquals(x, 0.35) || !floatEquals(y, 0.1) || !floatEquals(z, 0.15) {
		t.Errorf("tracking gaze: got (%v, %v, %v), want (0.35, 0.1, 0.15)", x, y, z)
	}
}

func TestManager_WobbleAddsToPrimaryGaze(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})

	m.QueueHeadDirection("front", time.Second)
	m.SetSpeechWobbleOffset(0, 0.01, 0.02)

	m.step(100 * time.Millisecond)

	x, y, z, ok := mock.lastLook()
	if !ok {
		t.Fatal("expected a look_at command")
	}
	if !floatEquals(x, 0.35) || !floatEquals(y, 0.01) || !floatEquals(z, 0.12) {
		t.Errorf("wobbled gaze: got (%v, %v, %v), want (0.35, 0.01, 0.12)", x, y, z)
	}
}

func TestManager_TrackingDisableZeroesOffset(t *testing.T) {
	m := NewManager(newMockHardware(), &mockPlayer{})
	m.SetHeadTrackingEnabled(true)
	m.SetHeadTrackingOffset(0.1, 0.2, 0.3)
	m.SetHeadTrackingEnabled(false)

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.headTrackingOffset.IsZero() {
		t.Errorf("offset after disable: got %+v, want zero", m.headTrackingOffset)
	}
}

func TestManager_ListeningSuppressesAntennaWrites(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})

	m.SetListeningMode(true)
	m.QueueMove(NewBreathingMove())
	m.step(500 * time.Millisecond)

	if mock.antennaCallCount() != 0 {
		t.Errorf("antenna calls while listening: got %d, want 0", mock.antennaCallCount())
	}

	m.SetListeningMode(false)
	m.step(600 * time.Millisecond)
	if mock.antennaCallCount() != 1 {
		t.Errorf("antenna calls after listening: got %d, want 1", mock.antennaCallCount())
	}
}

func TestManager_SkipsHardwareWhenDisconnected(t *testing.T) {
	mock := newMockHardware()
	mock.connected = false
	m := NewManager(mock, &mockPlayer{})

	m.QueueHeadDirection("left", time.Second)
	m.step(100 * time.Millisecond)

	if _, _, _, ok := mock.lastLook(); ok {
		t.Error("expected no hardware commands while disconnected")
	}
}

func TestManager_StartStop(t *testing.T) {
	mock := newMockHardware()
	m := NewManager(mock, &mockPlayer{})

	m.Start()
	m.Start() // idempotent
	m.QueueHeadDirection("front", 200*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	m.Stop()
	m.Stop() // idempotent

	if _, _, _, ok := mock.lastLook(); !ok {
		t.Error("expected the loop to issue at least one look_at")
	}
}
