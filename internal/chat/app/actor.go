package app

import (
	"context"
	"sync"
)

// owner single goroutine that owns the presentation state,
// every read or write of the state goes through cmds
type owner struct {
	cmds    chan func()
	changes chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

func newOwner() owner {
	return owner{
		cmds:    make(chan func()),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// begin mark the owner started, false when already started or stopped
func (o *owner) begin(cancel context.CancelFunc) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.stopped {
		return false
	}
	o.started = true
	o.cancel = cancel
	return true
}

// do run fn on the owner goroutine and wait for it
func (o *owner) do(ctx context.Context, fn func()) error {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	finished := make(chan struct{})
	select {
	case o.cmds <- func() { fn(); close(finished) }:
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// notify coalesce change signals, readers take a snapshot after each one
func (o *owner) notify() {
	select {
	case o.changes <- struct{}{}:
	default:
	}
}

// stop cancel the loop and wait for it to exit
func (o *owner) stop() {
	o.mu.Lock()
	started, cancel := o.started, o.cancel
	o.stopped = true
	o.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-o.done
}
