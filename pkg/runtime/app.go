// Package runtime owns the robot runtime lifecycle: it wires the
// controller, control queue, movement manager, observer, and status poller
// together and supervises their shutdown.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/config"
	"github.com/grumpylabs/reachy-runtime/internal/log"
	"github.com/grumpylabs/reachy-runtime/pkg/audit"
	"github.com/grumpylabs/reachy-runtime/pkg/gateway"
	"github.com/grumpylabs/reachy-runtime/pkg/movement"
	"github.com/grumpylabs/reachy-runtime/pkg/observer"
	"github.com/grumpylabs/reachy-runtime/pkg/robot"
)

// RunState describes the app lifecycle.
type RunState string

// Lifecycle states.
const (
	StateStarting RunState = "STARTING"
	StateRunning  RunState = "RUNNING"
	StateStopping RunState = "STOPPING"
	StateStopped  RunState = "STOPPED"
	StateError    RunState = "ERROR"
)

// App is the runtime supervisor.
type App struct {
	cfg config.Config

	controller *robot.Controller
	queue      *gateway.ActionQueue
	worker     *gateway.Worker
	gateway    *gateway.Gateway
	manager    *movement.Manager
	observer   *observer.Observer
	memory     observer.MemoryStore
	poller     *gateway.StatusPoller
	events     gateway.EventSink

	mu    sync.Mutex
	state RunState

	stopOnce     sync.Once
	stop         chan struct{}
	observerDone chan struct{}
}

// New wires an App. mini may be nil for no-robot deployments; store and
// events may be nil to disable persistence and streaming respectively.
func New(cfg config.Config, mini robot.Mini, store audit.Store, events gateway.EventSink) *App {
	app := &App{
		cfg:    cfg,
		state:  StateStarting,
		events: events,
		stop:   make(chan struct{}),
	}

	app.controller = robot.NewController(mini)
	app.queue = gateway.NewActionQueue(cfg.QueueCapacity)
	app.worker = gateway.NewWorker(app.queue, app.controller)
	app.gateway = gateway.New(app.queue, store, events, gateway.Config{
		RateLimitInterval:     cfg.RateLimitInterval,
		SpeakConfirmThreshold: cfg.SpeakConfirmThreshold,
		EnqueueTimeout:        cfg.EnqueueTimeout,
	})
	if cfg.FeedbackEnabled {
		app.worker.OnFailure(func(action gateway.ControlAction, err error) {
			// antenna_feedback failures must not feed back into themselves.
			if action.Name == gateway.ActionAntennaFeedback {
				return
			}
			if err := app.controller.AntennaFeedback("error"); err != nil {
				log.Debug("error feedback failed", "err", err)
			}
		})
	}
	app.manager = movement.NewManager(app.controller, app.controller)
	app.observer = observer.New(cfg.ObserveInterval, app.captureSummary)
	app.poller = gateway.NewStatusPoller(app, events, cfg.StatusPollInterval)

	if cfg.MemoryIndexURL != "" {
		app.memory = observer.NewMemoryBridge(cfg.MemoryIndexURL)
	} else {
		app.memory = observer.NopMemory{}
	}
	return app
}

// Gateway returns the action gateway.
func (a *App) Gateway() *gateway.Gateway { return a.gateway }

// Manager returns the movement manager.
func (a *App) Manager() *movement.Manager { return a.manager }

// Controller returns the robot controller.
func (a *App) Controller() *robot.Controller { return a.controller }

// Run starts all loops and blocks until ctx is cancelled or Stop is
// called, then shuts everything down best-effort.
func (a *App) Run(ctx context.Context) error {
	a.setState(StateStarting)

	a.worker.Start()
	a.manager.Start()
	a.poller.Start()

	a.observerDone = make(chan struct{})
	go func() {
		defer close(a.observerDone)
		a.observer.Run(a.stop, a.onObservation)
	}()

	a.setState(StateRunning)
	log.Info("reachy runtime running",
		"robot_connected", a.controller.Connected(),
		"queue_capacity", a.cfg.QueueCapacity)

	// Announce startup on the robot.
	a.queue.Enqueue(gateway.ControlAction{
		Name:    gateway.ActionAntennaFeedback,
		Payload: map[string]any{"state": "attention"},
	}, a.cfg.EnqueueTimeout)

	select {
	case <-ctx.Done():
	case <-a.stop:
	}

	a.shutdown()
	return nil
}

// Stop requests shutdown. Fire-and-forget; Run performs the cleanup.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Fail records a fatal supervised failure and requests shutdown. The ERROR
// state survives the shutdown transitions so status consumers can see it.
func (a *App) Fail(err error) {
	log.Error("runtime failure", "err", err)
	a.setState(StateError)
	a.Stop()
}

func (a *App) shutdown() {
	a.transition(StateStopping)
	a.Stop()

	a.poller.Stop()
	a.manager.Stop()
	a.worker.Stop()
	if a.observerDone != nil {
		select {
		case <-a.observerDone:
		case <-time.After(2 * time.Second):
		}
	}

	// Best-effort: hung hardware calls are not waited on.
	if err := a.controller.NeutralPose(); err != nil {
		log.Warn("failed to restore neutral pose", "err", err)
	}

	a.transition(StateStopped)
	log.Info("reachy runtime stopped")
}

func (a *App) setState(s RunState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// transition moves to s unless a failure already latched ERROR.
func (a *App) transition(s RunState) {
	a.mu.Lock()
	if a.state != StateError {
		a.state = s
	}
	a.mu.Unlock()
}

// RunState implements gateway.StatusSource.
func (a *App) RunState() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(a.state)
}

// Connected implements gateway.StatusSource.
func (a *App) Connected() bool {
	return a.controller.Connected()
}

// WorkerAlive implements gateway.StatusSource.
func (a *App) WorkerAlive() bool {
	return a.worker.Alive()
}

// Status returns the current runtime status snapshot.
func (a *App) Status() gateway.Status {
	return a.poller.Snapshot()
}

// captureSummary produces the observer's environment heartbeat text.
func (a *App) captureSummary() string {
	robotState := "disconnected"
	if a.controller.Connected() {
		robotState = "connected"
	}
	workerState := "stopped"
	if a.worker.Alive() {
		workerState = "running"
	}
	return fmt.Sprintf(
		"Environment heartbeat snapshot. Robot=%s. Worker=%s. PendingActions=%d. QueuedMoves=%d.",
		robotState, workerState, a.queue.Len(), a.manager.QueueLen(),
	)
}

// onObservation stores an accepted observation and streams it. Store
// failures are logged and do not stop the loop.
func (a *App) onObservation(event observer.ObservationEvent) {
	chunks, err := a.memory.StoreObservation(event)
	if err != nil {
		log.Error("failed to store observation", "id", event.ID, "err", err)
	} else {
		log.Info("observation stored", "id", event.ID, "chunks", chunks)
	}

	if a.events != nil {
		a.events.Publish("robot.observation", map[string]any{
			"id":      event.ID,
			"summary": event.Summary,
			"source":  event.Source,
			"ts":      event.CreatedAt.Format(time.RFC3339Nano),
		})
	}
}
