package robot

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/log"
)

// connLossLogInterval throttles connection-loss logging on the
// high-frequency antenna path so a 100Hz caller cannot flood the log.
const connLossLogInterval = 10 * time.Second

// Antenna joint patterns used when no recorded motion matches.
var antennaPatterns = map[string][2]float64{
	"attention": {0.15, -0.15},
	"success":   {0.4, -0.4},
	"error":     {-0.25, 0.25},
	"neutral":   {0.0, 0.0},
}

// Recorded-motion name candidates per semantic action, in preference order.
var motionCandidates = map[string][]string{
	"nod":       {"nod", "yes"},
	"attention": {"attention", "curious", "listening"},
	"success":   {"success", "happy", "celebrate"},
	"error":     {"error", "sad", "confused"},
	"neutral":   {"neutral", "idle"},
}

// Controller wraps a hardware handle with guarded operations.
//
// Once a connection loss is detected the controller goes quiet: every
// hardware-touching call becomes a no-op until the controller is replaced.
type Controller struct {
	mini Mini

	connectionLost atomic.Bool

	// Catalog cache. A failed load is cached too, so a missing daemon
	// endpoint is not retried on every dance.
	catalogMu        sync.Mutex
	catalogAttempted bool
	catalogs         map[string][]string

	lossLogMu   sync.Mutex
	lastLossLog time.Time
}

// NewController creates a controller over the given hardware handle.
// mini may be nil for no-robot deployments; all operations then no-op.
func NewController(mini Mini) *Controller {
	return &Controller{mini: mini}
}

// Connected reports whether the handle is present and no connection loss
// has been observed.
func (c *Controller) Connected() bool {
	return c.mini != nil && !c.connectionLost.Load()
}

// LookAt points the head at a world-space target.
func (c *Controller) LookAt(x, y, z, duration float64) error {
	if !c.Connected() {
		log.Debug("look_at skipped (robot not connected)", "x", x, "y", y, "z", z)
		return nil
	}
	if err := c.mini.LookAtWorld(x, y, z, duration); err != nil {
		return c.classify("look_at", err)
	}
	return nil
}

// Nod plays a recorded nod when available, else a procedural 3-step
// look-at sequence.
func (c *Controller) Nod() error {
	if !c.Connected() {
		log.Debug("nod skipped (robot not connected)")
		return nil
	}
	if c.PlayBuiltinMotion(motionCandidates["nod"], 0.25) {
		return nil
	}
	steps := [][3]float64{
		{0.35, 0.0, -0.05},
		{0.35, 0.0, 0.15},
		{0.35, 0.0, 0.05},
	}
	for _, s := range steps {
		if err := c.LookAt(s[0], s[1], s[2], 0.25); err != nil {
			return err
		}
		if !c.Connected() {
			return nil
		}
	}
	return nil
}

// AntennaFeedback expresses a semantic state (attention, success, error,
// neutral) through a recorded motion, falling back to a fixed antenna
// pattern. Unknown states map to neutral.
func (c *Controller) AntennaFeedback(state string) error {
	if !c.Connected() {
		log.Debug("antenna_feedback skipped (robot not connected)", "state", state)
		return nil
	}
	pattern, known := antennaPatterns[state]
	if !known {
		pattern = antennaPatterns["neutral"]
	}
	if candidates, found := motionCandidates[state]; found {
		if c.PlayBuiltinMotion(candidates, 0.25) {
			return nil
		}
	}
	if err := c.mini.SetTargetAntennaJointPositions(pattern); err != nil {
		return c.classify("antenna_feedback", err)
	}
	return nil
}

// Speak voices text. The Reachy Mini text-to-speech backend varies by
// deployment, so the core only logs the utterance.
func (c *Controller) Speak(text string) error {
	log.Info("speak", "text", text)
	return nil
}

// SetTargetAntenna sets antenna joint targets. This is the 100Hz path, so
// repeated connection-loss errors are logged at most once per 10 seconds.
func (c *Controller) SetTargetAntenna(positions [2]float64) error {
	if !c.Connected() {
		return nil
	}
	err := c.mini.SetTargetAntennaJointPositions(positions)
	if err == nil {
		return nil
	}
	if IsConnectionLoss(err) {
		c.markConnectionLost("set_target_antenna", err, true)
		return nil
	}
	log.Debug("set_target_antenna failed", "err", err)
	return err
}

// NeutralPose returns the antennas to rest.
func (c *Controller) NeutralPose() error {
	return c.AntennaFeedback("neutral")
}

// PlayBuiltinMotion resolves candidate names against the recorded-motion
// catalogs and plays the first match with a short initial transition.
// Returns false when there is no catalog, no match, or playback fails;
// callers fall back to procedural motion.
func (c *Controller) PlayBuiltinMotion(candidates []string, initialGotoDuration float64) bool {
	if !c.Connected() {
		return false
	}
	catalogs := c.loadCatalogs()
	if len(catalogs) == 0 {
		return false
	}

	catalog, name, found := resolveMotion(catalogs, candidates)
	if !found {
		return false
	}

	if err := c.mini.PlayMove(catalog, name, initialGotoDuration); err != nil {
		_ = c.classify("play_move", err)
		return false
	}
	log.Debug("built-in motion playing", "catalog", catalog, "name", name)
	return true
}

// loadCatalogs fetches the recorded-motion catalogs once per controller
// lifetime. Load failure is cached and not retried.
func (c *Controller) loadCatalogs() map[string][]string {
	c.catalogMu.Lock()
	defer c.catalogMu.Unlock()

	if c.catalogAttempted {
		return c.catalogs
	}
	c.catalogAttempted = true

	moves, err := c.mini.ListMoves()
	if err != nil {
		log.Warn("recorded-motion catalog load failed; using procedural fallbacks", "err", err)
		if IsConnectionLoss(err) {
			c.markConnectionLost("list_moves", err, false)
		}
		return nil
	}
	c.catalogs = moves
	total := 0
	for _, names := range moves {
		total += len(names)
	}
	log.Info("recorded-motion catalogs loaded", "catalogs", len(moves), "motions", total)
	return c.catalogs
}

// classify routes a hardware error: connection losses flip the sticky flag
// and are silenced afterwards; anything else is a transient failure.
func (c *Controller) classify(op string, err error) error {
	if IsConnectionLoss(err) {
		c.markConnectionLost(op, err, false)
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// markConnectionLost flips the sticky flag. throttled suppresses repeat
// logging for high-frequency callers.
func (c *Controller) markConnectionLost(op string, err error, throttled bool) {
	first := c.connectionLost.CompareAndSwap(false, true)
	if first {
		log.Warn("robot connection lost; further hardware calls disabled", "op", op, "err", err)
		return
	}
	if !throttled {
		return
	}
	c.lossLogMu.Lock()
	defer c.lossLogMu.Unlock()
	if time.Since(c.lastLossLog) >= connLossLogInterval {
		c.lastLossLog = time.Now()
		log.Debug("robot still disconnected", "op", op)
	}
}

// resolveMotion searches catalogs for the candidates: exact
// case-insensitive match first, then substring, in candidate order.
// Catalogs are scanned in sorted name order so resolution is stable.
func resolveMotion(catalogs map[string][]string, candidates []string) (catalog, name string, found bool) {
	cats := make([]string, 0, len(catalogs))
	for cat := range catalogs {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		for _, cat := range cats {
			for _, n := range catalogs[cat] {
				if strings.ToLower(n) == lower {
					return cat, n, true
				}
			}
		}
		for _, cat := range cats {
			for _, n := range catalogs[cat] {
				if strings.Contains(strings.ToLower(n), lower) {
					return cat, n, true
				}
			}
		}
	}
	return "", "", false
}
