// Copyright © 2024 The ELPS authors

package lisp

import (
	"context"
	"errors"
	"fmt"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// FutureStatus is the state of a Future.
type FutureStatus uint8

const (
	FuturePending FutureStatus = iota
	FutureCompleted
	FutureFailed
	FutureCancelled
)

var futureStatusStrings = [...]string{
	FuturePending:   "pending",
	FutureCompleted: "completed",
	FutureFailed:    "failed",
	FutureCancelled: "cancelled",
}

func (s FutureStatus) String() string {
	if int(s) < len(futureStatusStrings) {
		return futureStatusStrings[s]
	}
	return fmt.Sprintf("FutureStatus(%d)", uint8(s))
}

// Future is the result of a call running on its own goroutine.
type Future struct {
	header
	id     uint
	cancel context.CancelFunc
	done   chan struct{}

	mu     deadlock.Mutex
	status FutureStatus
	val    Value
	err    error
}

// Spawn calls f with args on a new goroutine using thread t and returns a
// future for the result.  t must not be owned by another goroutine; it is
// typically the Fork of the spawning thread.  A nil t spawns with no dynamic
// bindings.  The call observes cancellation of ctx or of the future at each
// invocation it makes.
func (rt *Runtime) Spawn(ctx context.Context, t *Thread, f Value, args ...Value) *Future {
	if t == nil {
		t = rt.NewThread()
	}
	ctx, cancel := context.WithCancel(ctx)
	t.ctx = ctx
	fut := &Future{
		id:     rt.numfuture.Add(1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	log := rt.Logger.WithFields(logrus.Fields{
		"future": fut.id,
		"thread": t.id,
	})
	log.Debug("future spawned")
	go func() {
		defer cancel()
		status := fut.complete(fut.run(t, f, args))
		log.WithField("status", status).Debug("future done")
		close(fut.done)
	}()
	return fut
}

func (fut *Future) run(t *Thread, f Value, args []Value) (val Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("future %d panicked: %v", fut.id, r)
		}
	}()
	return DynamicCall(t, f, args...)
}

func (fut *Future) complete(val Value, err error) FutureStatus {
	fut.mu.Lock()
	defer fut.mu.Unlock()
	var cancelled *CancelledError
	switch {
	case errors.As(err, &cancelled):
		fut.status = FutureCancelled
	case err != nil:
		fut.status = FutureFailed
	default:
		fut.status = FutureCompleted
	}
	fut.val, fut.err = val, err
	return fut.status
}

func (*Future) Kind() Kind { return KindFuture }

// Cancel requests cancellation of fut and reports whether fut was still
// pending.  The running call stops at its next invocation.
func (fut *Future) Cancel() bool {
	fut.mu.Lock()
	pending := fut.status == FuturePending
	fut.mu.Unlock()
	fut.cancel()
	return pending
}

// Status returns the current state of fut.
func (fut *Future) Status() FutureStatus {
	fut.mu.Lock()
	defer fut.mu.Unlock()
	return fut.status
}

// Done returns a channel closed once fut has finished.
func (fut *Future) Done() <-chan struct{} { return fut.done }

// Await blocks until fut finishes or ctx is done.
func (fut *Future) Await(ctx context.Context) (Value, error) {
	select {
	case <-fut.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	fut.mu.Lock()
	defer fut.mu.Unlock()
	return fut.val, fut.err
}

// Deref waits for the result of fut, giving up when the context of t is
// done.
func (fut *Future) Deref(t *Thread) (Value, error) {
	return fut.Await(t.Context())
}

var _ Derefable = (*Future)(nil)
