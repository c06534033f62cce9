package gateway

import (
	"sync/atomic"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/log"
)

// workerPoll bounds how long the worker waits before re-checking the stop
// signal.
const workerPoll = 200 * time.Millisecond

// ActionQueue is the bounded FIFO between the gateway and the worker.
type ActionQueue struct {
	ch chan ControlAction
}

// NewActionQueue creates a queue with the given capacity.
func NewActionQueue(capacity int) *ActionQueue {
	if capacity <= 0 {
		capacity = 200
	}
	return &ActionQueue{ch: make(chan ControlAction, capacity)}
}

// Enqueue offers an action, waiting at most timeout for space.
// Returns false when the queue stayed full; the action is dropped.
func (q *ActionQueue) Enqueue(action ControlAction, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- action:
		return true
	case <-timer.C:
		log.Warn("control queue full; dropping action", "action", action.Name)
		return false
	}
}

// Len returns the number of queued actions.
func (q *ActionQueue) Len() int {
	return len(q.ch)
}

// Executor is the subset of robot control the worker drives.
type Executor interface {
	LookAt(x, y, z, duration float64) error
	Nod() error
	AntennaFeedback(state string) error
	Speak(text string) error
}

// Worker is the queue's single consumer. It executes one action at a time
// and survives any execution failure.
type Worker struct {
	queue *ActionQueue
	exec  Executor

	// onFailure, when set, is invoked after a failed execution.
	onFailure func(action ControlAction, err error)

	alive atomic.Bool
	stop  chan struct{}
	done  chan struct{}
}

// NewWorker creates a worker for the queue.
func NewWorker(queue *ActionQueue, exec Executor) *Worker {
	return &Worker{queue: queue, exec: exec}
}

// OnFailure registers a hook called after a failed execution. Must be set
// before Start.
func (w *Worker) OnFailure(fn func(action ControlAction, err error)) {
	w.onFailure = fn
}

// Start launches the consumer goroutine.
func (w *Worker) Start() {
	if w.alive.Load() {
		return
	}
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.alive.Store(true)
	go w.run()
}

// Stop signals the worker and waits up to 2 seconds for it to drain out.
func (w *Worker) Stop() {
	if !w.alive.Load() {
		return
	}
	close(w.stop)
	select {
	case <-w.done:
	case <-time.After(2 * time.Second):
	}
}

// Alive reports whether the consumer goroutine is running.
func (w *Worker) Alive() bool {
	return w.alive.Load()
}

func (w *Worker) run() {
	defer func() {
		w.alive.Store(false)
		close(w.done)
	}()

	timer := time.NewTimer(workerPoll)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(workerPoll)

		select {
		case <-w.stop:
			return
		case action := <-w.queue.ch:
			if err := w.execute(action); err != nil {
				log.Error("control action failed", "action", action.Name, "err", err)
				if w.onFailure != nil {
					w.onFailure(action, err)
				}
			}
		case <-timer.C:
			// Re-check the stop signal on an idle queue.
		}
	}
}

func (w *Worker) execute(action ControlAction) error {
	payload := action.Payload
	switch action.Name {
	case ActionLookAt:
		return w.exec.LookAt(
			floatFrom(payload, "x", DefaultLookAtX),
			floatFrom(payload, "y", DefaultLookAtY),
			floatFrom(payload, "z", DefaultLookAtZ),
			floatFrom(payload, "duration", DefaultLookAtDuration),
		)
	case ActionNod:
		return w.exec.Nod()
	case ActionAntennaFeedback:
		return w.exec.AntennaFeedback(strFrom(payload, "state", DefaultAntennaState))
	case ActionSpeak:
		return w.exec.Speak(strFrom(payload, "text", ""))
	}
	log.Debug("unknown action ignored", "action", action.Name)
	return nil
}
