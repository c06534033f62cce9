package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grumpylabs/reachy-runtime/internal/log"
	"github.com/grumpylabs/reachy-runtime/pkg/audit"
)

// EventSink receives gateway and status events for the external streaming
// layer. Implementations must not block.
type EventSink interface {
	Publish(event string, data map[string]any)
}

// Result is the synchronous answer to an action request.
type Result struct {
	Accepted bool   `json:"accepted"`
	ActionID string `json:"action_id"`
	Reason   string `json:"reason"`
}

// Config tunes the gateway's gates.
type Config struct {
	// RateLimitInterval is the minimum spacing between attempts of the
	// same action name.
	RateLimitInterval time.Duration

	// SpeakConfirmThreshold is the text length at or above which speak
	// requires confirm=true.
	SpeakConfirmThreshold int

	// EnqueueTimeout bounds the wait for queue space.
	EnqueueTimeout time.Duration
}

// Gateway validates, rate-limits, and confirm-gates action requests, then
// forwards accepted ones to the control queue. Every decision is persisted
// and published, accepted or not.
type Gateway struct {
	queue  *ActionQueue
	store  audit.Store
	events EventSink
	cfg    Config

	mu         sync.Mutex
	lastAction map[string]time.Time

	// now is swappable for tests; time.Time carries a monotonic reading.
	now func() time.Time
}

// New creates a gateway in front of the given queue.
func New(queue *ActionQueue, store audit.Store, events EventSink, cfg Config) *Gateway {
	if cfg.RateLimitInterval < 0 {
		cfg.RateLimitInterval = 0
	}
	if cfg.SpeakConfirmThreshold <= 0 {
		cfg.SpeakConfirmThreshold = 80
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = 200 * time.Millisecond
	}
	if store == nil {
		store = audit.NopStore{}
	}
	return &Gateway{
		queue:      queue,
		store:      store,
		events:     events,
		cfg:        cfg,
		lastAction: make(map[string]time.Time),
		now:        time.Now,
	}
}

// EnqueueAction runs the gate sequence for one request and returns the
// decision. It never returns an error to the caller; rejections carry a
// human-readable reason.
func (g *Gateway) EnqueueAction(payload map[string]any) Result {
	name := strFrom(payload, "action", "")
	actionID := uuid.NewString()

	if !knownAction(name) {
		return g.decide(actionID, name, payload, false, fmt.Sprintf("unsupported action: %s", name))
	}

	// The timestamp is recorded before the remaining gates so concurrent
	// duplicates are throttled even when this request is later rejected.
	if !g.takeRateSlot(name) {
		return g.decide(actionID, name, payload, false, "action rate limited")
	}

	if name == ActionLookAt && !boolFrom(payload, "confirm") {
		return g.decide(actionID, name, payload, false, "look_at requires confirm=true")
	}
	if name == ActionSpeak {
		text := strFrom(payload, "text", "")
		if len(text) >= g.cfg.SpeakConfirmThreshold && !boolFrom(payload, "confirm") {
			return g.decide(actionID, name, payload, false, "long speak requires confirm=true")
		}
	}

	action := translate(name, payload)
	if !g.queue.Enqueue(action, g.cfg.EnqueueTimeout) {
		return g.decide(actionID, name, payload, false, "robot runtime unavailable")
	}
	return g.decide(actionID, name, payload, true, "")
}

// takeRateSlot claims the rate-limit slot for an action name. Returns
// false when the previous attempt was too recent.
func (g *Gateway) takeRateSlot(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, seen := g.lastAction[name]; seen && now.Sub(last) < g.cfg.RateLimitInterval {
		return false
	}
	g.lastAction[name] = now
	return true
}

// decide persists the audit record, publishes the event, and builds the
// caller's result. Runs for every request, accepted or rejected.
func (g *Gateway) decide(actionID, name string, payload map[string]any, accepted bool, reason string) Result {
	level := "INFO"
	if !accepted {
		level = "WARNING"
	}
	createdAt := time.Now().UTC()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		payloadJSON = []byte("{}")
	}
	rec := audit.Record{
		ID:          actionID,
		Source:      "robot",
		Level:       level,
		Action:      name,
		PayloadJSON: string(payloadJSON),
		Accepted:    accepted,
		Reason:      reason,
		CreatedAt:   createdAt,
	}
	if err := g.store.Record(rec); err != nil {
		log.Error("audit record write failed", "action_id", actionID, "err", err)
	}

	if g.events != nil {
		g.events.Publish("robot.action", map[string]any{
			"action_id": actionID,
			"action":    name,
			"accepted":  accepted,
			"level":     level,
			"reason":    reason,
			"ts":        createdAt.Format(time.RFC3339Nano),
		})
	}

	if !accepted {
		log.Warn("action rejected", "action", name, "action_id", actionID, "reason", reason)
	} else {
		log.Info("action accepted", "action", name, "action_id", actionID)
	}
	return Result{Accepted: accepted, ActionID: actionID, Reason: reason}
}
