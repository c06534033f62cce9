package gateway

import (
	"time"
)

// Status is the gateway's view of runtime health.
type Status struct {
	RunState    string    `json:"run_state"`
	Connected   bool      `json:"robot_connected"`
	WorkerAlive bool      `json:"thread_alive"`
	TS          time.Time `json:"ts"`
}

// equivalent ignores the timestamp; the poller is edge-triggered on the
// remaining fields.
func (s Status) equivalent(other Status) bool {
	return s.RunState == other.RunState &&
		s.Connected == other.Connected &&
		s.WorkerAlive == other.WorkerAlive
}

// StatusSource supplies the fields of a Status snapshot.
type StatusSource interface {
	RunState() string
	Connected() bool
	WorkerAlive() bool
}

// StatusPoller re-evaluates the status on a fixed interval and publishes
// an event only when a field changed since the last emitted snapshot.
type StatusPoller struct {
	source   StatusSource
	events   EventSink
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewStatusPoller creates a poller over the given source.
func NewStatusPoller(source StatusSource, events EventSink, interval time.Duration) *StatusPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &StatusPoller{source: source, events: events, interval: interval}
}

// Snapshot builds the current status.
func (p *StatusPoller) Snapshot() Status {
	return Status{
		RunState:    p.source.RunState(),
		Connected:   p.source.Connected(),
		WorkerAlive: p.source.WorkerAlive(),
		TS:          time.Now().UTC(),
	}
}

// Start launches the poll loop.
func (p *StatusPoller) Start() {
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run()
}

// Stop signals the loop; it exits within one poll interval.
func (p *StatusPoller) Stop() {
	if p.stop == nil {
		return
	}
	close(p.stop)
	<-p.done
	p.stop = nil
}

func (p *StatusPoller) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last Status
	var emitted bool
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			current := p.Snapshot()
			if emitted && current.equivalent(last) {
				continue
			}
			last = current
			emitted = true
			p.publish(current)
		}
	}
}

func (p *StatusPoller) publish(s Status) {
	if p.events == nil {
		return
	}
	p.events.Publish("robot.status", map[string]any{
		"run_state":       s.RunState,
		"robot_connected": s.Connected,
		"thread_alive":    s.WorkerAlive,
		"ts":              s.TS.Format(time.RFC3339Nano),
	})
}
