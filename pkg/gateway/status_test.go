package gateway

import (
	"sync"
	"testing"
	"time"
)

// mockStatusSource is a StatusSource with swappable fields
type mockStatusSource struct {
	mu        sync.Mutex
	state     string
	connected bool
	alive     bool
}

func (s *mockStatusSource) RunState() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *mockStatusSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *mockStatusSource) WorkerAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *mockStatusSource) set(state string, connected, alive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.connected, s.alive = state, connected, alive
}

func TestStatus_EquivalentIgnoresTimestamp(t *testing.T) {
	a := Status{RunState: "RUNNING", Connected: true, WorkerAlive: true, TS: time.Now()}
	b := a
	b.TS = a.TS.Add(time.Hour)
	if !a.equivalent(b) {
		t.Error("timestamp must not affect equivalence")
	}
	b.Connected = false
	if a.equivalent(b) {
		t.Error("field change must break equivalence")
	}
}

func TestStatusPoller_Snapshot(t *testing.T) {
	src := &mockStatusSource{state: "RUNNING", connected: true, alive: true}
	p := NewStatusPoller(src, nil, time.Second)

	s := p.Snapshot()
	if s.RunState != "RUNNING" || !s.Connected || !s.WorkerAlive {
		t.Errorf("snapshot: got %+v", s)
	}
	if s.TS.IsZero() {
		t.Error("snapshot must carry a timestamp")
	}
}

func TestStatusPoller_EdgeTriggeredPublish(t *testing.T) {
	src := &mockStatusSource{state: "RUNNING", connected: true, alive: true}
	sink := &mockSink{}
	p := NewStatusPoller(src, sink, 10*time.Millisecond)

	p.Start()
	defer p.Stop()

	// Unchanged status publishes exactly once.
	waitFor(t, time.Second, func() bool { return sink.count() == 1 })
	time.Sleep(50 * time.Millisecond)
	if sink.count() != 1 {
		t.Fatalf("publishes without change: got %d, want 1", sink.count())
	}

	// A field change triggers exactly one more publish.
	src.set("RUNNING", false, true)
	waitFor(t, time.Second, func() bool { return sink.count() == 2 })
	time.Sleep(50 * time.Millisecond)
	if sink.count() != 2 {
		t.Errorf("publishes after one change: got %d, want 2", sink.count())
	}
}
