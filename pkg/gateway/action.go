// Package gateway validates inbound action requests and hands them to the
// control worker through a bounded queue. Every decision is audited and
// streamed as an event, accepted or not.
package gateway

import "strconv"

// Action names accepted by the gateway.
const (
	ActionNod             = "nod"
	ActionLookAt          = "look_at"
	ActionAntennaFeedback = "antenna_feedback"
	ActionSpeak           = "speak"
)

// Defaults applied when request fields are missing or malformed.
const (
	DefaultLookAtX        = 0.35
	DefaultLookAtY        = 0.0
	DefaultLookAtZ        = 0.1
	DefaultLookAtDuration = 1.0
	DefaultAntennaState   = "attention"
)

// ControlAction is a validated request bound for the control worker.
// Created by the gateway, consumed exactly once, never mutated.
type ControlAction struct {
	Name    string
	Payload map[string]any
}

func knownAction(name string) bool {
	switch name {
	case ActionNod, ActionLookAt, ActionAntennaFeedback, ActionSpeak:
		return true
	}
	return false
}

// translate builds a ControlAction from a raw request payload, applying
// action-specific defaults. The action name must already be validated.
func translate(name string, payload map[string]any) ControlAction {
	switch name {
	case ActionLookAt:
		return ControlAction{Name: name, Payload: map[string]any{
			"x":        floatFrom(payload, "x", DefaultLookAtX),
			"y":        floatFrom(payload, "y", DefaultLookAtY),
			"z":        floatFrom(payload, "z", DefaultLookAtZ),
			"duration": floatFrom(payload, "duration", DefaultLookAtDuration),
		}}
	case ActionAntennaFeedback:
		return ControlAction{Name: name, Payload: map[string]any{
			"state": strFrom(payload, "state", DefaultAntennaState),
		}}
	case ActionSpeak:
		return ControlAction{Name: name, Payload: map[string]any{
			"text": strFrom(payload, "text", ""),
		}}
	default:
		return ControlAction{Name: name, Payload: map[string]any{}}
	}
}

// floatFrom reads a numeric field, tolerating JSON decoding variants.
// Anything unusable falls back to the default.
func floatFrom(payload map[string]any, key string, def float64) float64 {
	raw, found := payload[key]
	if !found || raw == nil {
		return def
	}
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func strFrom(payload map[string]any, key, def string) string {
	if v, found := payload[key].(string); found && v != "" {
		return v
	}
	return def
}

func boolFrom(payload map[string]any, key string) bool {
	v, _ := payload[key].(bool)
	return v
}
