// Package observer produces compact environment snapshots on a fixed
// schedule and delivers them to an external memory store.
package observer

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinInterval is the floor for the observation interval.
const MinInterval = 5 * time.Second

// ObservationEvent is one emitted snapshot.
type ObservationEvent struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
}

// NewObservationEvent builds an event for a summary.
func NewObservationEvent(summary string) ObservationEvent {
	return ObservationEvent{
		ID:        "obs-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		CreatedAt: time.Now().UTC(),
		Summary:   strings.TrimSpace(summary),
		Source:    "reachy_observer",
	}
}

// CaptureFunc returns a free-text summary of the current environment.
// An empty result means there is nothing to report.
type CaptureFunc func() string

// Observer runs the periodic snapshot loop. Consecutive byte-identical
// summaries are suppressed.
type Observer struct {
	interval    time.Duration
	capture     CaptureFunc
	lastSummary string
}

// New creates an observer. Intervals below the floor are raised to it.
func New(interval time.Duration, capture CaptureFunc) *Observer {
	if interval < MinInterval {
		interval = MinInterval
	}
	return &Observer{interval: interval, capture: capture}
}

// Run emits one observation immediately, then one per interval, until the
// stop channel closes. onEvent receives every accepted observation.
func (o *Observer) Run(stop <-chan struct{}, onEvent func(ObservationEvent)) {
	o.emitOnce(onEvent)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.emitOnce(onEvent)
		}
	}
}

func (o *Observer) emitOnce(onEvent func(ObservationEvent)) {
	summary := strings.TrimSpace(o.capture())
	if summary == "" {
		return
	}
	// Exact-match dedup against periodic observer noise.
	if summary == o.lastSummary {
		return
	}
	o.lastSummary = summary
	onEvent(NewObservationEvent(summary))
}
