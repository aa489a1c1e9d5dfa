package notify

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Worker drains a buffered job queue in the background so the variable-latency
// mail step never runs on the request path and never holds a lock on the bug
// store. Delivery stays fire-and-forget: a full queue drops the job.
type Worker struct {
	dispatcher *Dispatcher
	queue      chan Job

	mu        sync.Mutex
	running   bool
	processed int64
	dropped   int64
	stopChan  chan struct{}
}

func NewWorker(dispatcher *Dispatcher, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Worker{
		dispatcher: dispatcher,
		queue:      make(chan Job, queueSize),
		stopChan:   make(chan struct{}),
	}
}

// Enqueue hands a job to the worker without blocking. Returns false if the
// queue is full and the job was dropped.
func (w *Worker) Enqueue(job Job) bool {
	select {
	case w.queue <- job:
		return true
	default:
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		log.
			WithField("bug_id", job.BugID).
			WithField("event", job.Event).
			Warn("notify: queue full, dropping job")
		return false
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	log.Info("notify: worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("notify: context cancelled, stopping worker")
			return
		case <-w.stopChan:
			log.Info("notify: stop signal received")
			return
		case job := <-w.queue:
			w.dispatcher.Dispatch(ctx, job)
			w.mu.Lock()
			w.processed++
			w.mu.Unlock()
		}
	}
}

func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		close(w.stopChan)
		w.running = false
		log.Info("notify: worker stopped")
	}
}

// GetStatus returns current worker status
func (w *Worker) GetStatus() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return map[string]interface{}{
		"running":   w.running,
		"queued":    len(w.queue),
		"processed": w.processed,
		"dropped":   w.dropped,
	}
}
