package main

import (
	"context"
	"time"
)

type stopper interface {
	Stop()
}

// awaitShutdown stops w and waits up to timeout for its loop to exit so an
// in-flight assignment call can finish and its head be popped. Only when the
// deadline passes is cancel called, which aborts that call; the head then
// stays queued. It reports whether the loop exited within the deadline.
func awaitShutdown(w stopper, done <-chan struct{}, timeout time.Duration, cancel context.CancelFunc) bool {
	w.Stop()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-done:
		return true
	case <-t.C:
		cancel()
		<-done
		return false
	}
}
