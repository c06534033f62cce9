package movement

import (
	"sync"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/log"
)

// maxPullsPerTick bounds how many finished moves a single tick may consume
// when pulling the next move from the queue. Guards against a queue of
// zero-duration moves monopolizing a tick.
const maxPullsPerTick = 8

// HardwareController is the subset of robot control the Manager needs.
type HardwareController interface {
	Connected() bool
	LookAt(x, y, z, duration float64) error
	SetTargetAntenna(positions [2]float64) error
}

// Manager runs the fixed-rate control loop. It owns the primary move queue
// and the secondary offset channels, fuses a pose each tick, and pushes it
// to the hardware controller.
type Manager struct {
	robot  HardwareController
	player MotionPlayer

	mu           sync.Mutex
	queue        []Move
	current      Move
	currentStart time.Duration
	lastActivity time.Time

	headTrackingEnabled bool
	headTrackingOffset  Vec3
	speechWobbleOffset  Vec3
	listening           bool

	tick    time.Duration
	idle    time.Duration
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewManager creates a MovementManager driving the given controller at 100Hz.
// player resolves named builtin clips for dance and emotion moves; it may be
// the same value as robot.
func NewManager(robot HardwareController, player MotionPlayer) *Manager {
	return &Manager{
		robot:        robot,
		player:       player,
		tick:         TickInterval,
		idle:         IdleTimeout,
		lastActivity: time.Now(),
	}
}

// Start launches the control loop goroutine. Idempotent while running.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go m.run(stop, done)
	log.Info("movement manager started", "hz", ControlHz)
}

// Stop signals the loop and waits up to 2 seconds for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	log.Info("movement manager stopped")
}

func (m *Manager) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	t0 := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.step(time.Since(t0))
		}
	}
}

// step executes one control cycle at loop time t. Fusion runs every tick:
// secondary offsets apply even when no primary move is active.
func (m *Manager) step(t time.Duration) {
	m.mu.Lock()
	primary := m.resolvePrimaryLocked(t)
	trackOn := m.headTrackingEnabled
	tracking := m.headTrackingOffset
	wobble := m.speechWobbleOffset
	listening := m.listening
	m.mu.Unlock()

	m.dispatch(primary, trackOn, tracking, wobble, listening)
}

// resolvePrimaryLocked returns the primary pose for loop time t, or an
// empty pose when nothing is active. A finished move immediately pulls the
// next one on the same tick, bounded by maxPullsPerTick. Breathing never
// finishes on its own; a new queue entry displaces it. Caller holds m.mu.
func (m *Manager) resolvePrimaryLocked(t time.Duration) PoseState {
	for pulls := 0; pulls < maxPullsPerTick; pulls++ {
		if _, breathing := m.current.(*BreathingMove); breathing && len(m.queue) > 0 {
			log.Debug("breathing displaced by queued move")
			m.current = nil
		}

		if m.current == nil {
			switch {
			case len(m.queue) > 0:
				m.current = m.queue[0]
				m.queue = m.queue[1:]
				m.currentStart = t
				log.Debug("primary move started", "move", m.current.Name())
			case time.Since(m.lastActivity) > m.idle:
				m.current = NewBreathingMove()
				m.currentStart = t
			default:
				return PoseState{}
			}
		}

		pose, ok := m.current.Sample(t - m.currentStart)
		if ok {
			return pose
		}
		log.Debug("primary move finished", "move", m.current.Name())
		m.current = nil
	}
	return PoseState{}
}

// dispatch fuses the primary pose with secondary offsets and writes the
// result to the hardware. Writes are fire-and-forget; the controller owns
// error classification and throttled logging.
func (m *Manager) dispatch(primary PoseState, trackOn bool, tracking, wobble Vec3, listening bool) {
	if m.robot == nil || !m.robot.Connected() {
		return
	}

	var lookAt *Vec3
	if primary.LookAt != nil {
		v := *primary.LookAt
		lookAt = &v
	}

	if trackOn && !tracking.IsZero() {
		// Tracking overrides the primary gaze while active.
		v := forwardPoint.Add(tracking)
		lookAt = &v
	} else if lookAt != nil {
		v := lookAt.Add(wobble)
		lookAt = &v
	}

	if lookAt != nil {
		_ = m.robot.LookAt(lookAt.X, lookAt.Y, lookAt.Z, 2*m.tick.Seconds())
	}
	if !listening {
		_ = m.robot.SetTargetAntenna(primary.AntennaPos)
	}
}

// ============================================================
// Primary queue API
// ============================================================

// QueueMove appends a move to the primary queue.
func (m *Manager) QueueMove(move Move) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, move)
	m.lastActivity = time.Now()
}

// QueueHeadDirection queues a goto-pose move for a named direction.
func (m *Manager) QueueHeadDirection(direction string, duration time.Duration) {
	m.QueueMove(NewGotoPoseMove(direction, duration))
}

// QueueDance queues a dance clip by name.
func (m *Manager) QueueDance(name string, duration time.Duration) {
	m.QueueMove(NewDanceMove(m.player, name, duration))
}

// QueueEmotion queues an emotion clip by name.
func (m *Manager) QueueEmotion(name string, duration time.Duration) {
	m.QueueMove(NewEmotionMove(m.player, name, duration))
}

// ClearDanceQueue removes every queued DanceMove, preserving the relative
// order of all other entries. Returns how many were removed.
func (m *Manager) ClearDanceQueue() int {
	return m.clearQueue(func(mv Move) bool {
		_, isDance := mv.(*DanceMove)
		return isDance
	})
}

// ClearEmotionQueue removes every queued EmotionMove, preserving the
// relative order of all other entries. Returns how many were removed.
func (m *Manager) ClearEmotionQueue() int {
	return m.clearQueue(func(mv Move) bool {
		_, isEmotion := mv.(*EmotionMove)
		return isEmotion
	})
}

func (m *Manager) clearQueue(drop func(Move) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.queue[:0]
	cleared := 0
	for _, mv := range m.queue {
		if drop(mv) {
			cleared++
			continue
		}
		kept = append(kept, mv)
	}
	m.queue = kept
	if cleared > 0 {
		log.Debug("cleared queued moves", "count", cleared)
	}
	return cleared
}

// QueueLen returns the number of pending primary moves.
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// ============================================================
// Secondary offset API - safe to call from any goroutine
// ============================================================

// SetHeadTrackingEnabled toggles tracking. Disabling zeroes the offset so
// a stale vector cannot keep overriding the primary gaze.
func (m *Manager) SetHeadTrackingEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headTrackingEnabled = enabled
	if !enabled {
		m.headTrackingOffset = Vec3{}
	}
}

// SetHeadTrackingOffset updates the tracking offset vector.
func (m *Manager) SetHeadTrackingOffset(dx, dy, dz float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headTrackingOffset = Vec3{X: dx, Y: dy, Z: dz}
}

// SetSpeechWobbleOffset updates the speech wobble offset vector.
func (m *Manager) SetSpeechWobbleOffset(dx, dy, dz float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speechWobbleOffset = Vec3{X: dx, Y: dy, Z: dz}
}

// SetListeningMode toggles antenna suppression while the user is speaking.
func (m *Manager) SetListeningMode(listening bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listening = listening
}
