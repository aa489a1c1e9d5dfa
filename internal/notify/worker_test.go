package notify

import (
	"context"
	"testing"
	"time"
)

func TestWorkerProcessesQueuedJobs(t *testing.T) {
	transport := &fakeTransport{}
	w := NewWorker(NewDispatcher(transport, nil, time.Second), 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	defer w.Stop()

	if !w.Enqueue(testJob("a@example.com")) {
		t.Fatal("enqueue rejected")
	}

	deadline := time.After(2 * time.Second)
	for len(transport.sentTo()) == 0 {
		select {
		case <-deadline:
			t.Fatal("job not processed before deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}

	sent := transport.sentTo()
	if len(sent) != 1 || sent[0] != "a@example.com" {
		t.Errorf("sent = %v", sent)
	}

	status := w.GetStatus()
	if status["running"] != true {
		t.Errorf("running = %v, want true", status["running"])
	}
}

func TestWorkerDropsWhenQueueFull(t *testing.T) {
	transport := &fakeTransport{}
	// Worker never started: the queue fills up
	w := NewWorker(NewDispatcher(transport, nil, time.Second), 1)

	if !w.Enqueue(testJob("a@example.com")) {
		t.Fatal("first enqueue rejected")
	}
	if w.Enqueue(testJob("b@example.com")) {
		t.Error("second enqueue accepted, want drop")
	}

	status := w.GetStatus()
	if status["dropped"] != int64(1) {
		t.Errorf("dropped = %v, want 1", status["dropped"])
	}
	if status["queued"] != 1 {
		t.Errorf("queued = %v, want 1", status["queued"])
	}
}

func TestWorkerStop(t *testing.T) {
	transport := &fakeTransport{}
	w := NewWorker(NewDispatcher(transport, nil, time.Second), 8)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	// Give the worker a moment to flip into running
	time.Sleep(20 * time.Millisecond)
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	if w.GetStatus()["running"] != false {
		t.Error("running after stop")
	}
}
