package profiler

import (
	"context"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/sasha-s/go-deadlock"
)

// threadContexts tracks the innermost profiling context of each thread.  A
// thread which has not entered a traced function uses the parent context, or
// its own context when there is no parent.
type threadContexts struct {
	mu     deadlock.Mutex
	parent context.Context
	byID   map[uint]context.Context
}

func newThreadContexts(parent context.Context) *threadContexts {
	return &threadContexts{
		parent: parent,
		byID:   make(map[uint]context.Context),
	}
}

func (c *threadContexts) current(t *lisp.Thread) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx, ok := c.byID[t.ID()]; ok {
		return ctx
	}
	if c.parent != nil {
		return c.parent
	}
	return t.Context()
}

// push makes ctx the current context of t and returns a function restoring
// the previous one.
func (c *threadContexts) push(t *lisp.Thread, ctx context.Context) func() {
	id := t.ID()
	c.mu.Lock()
	old, had := c.byID[id]
	c.byID[id] = ctx
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if had {
			c.byID[id] = old
		} else {
			delete(c.byID, id)
		}
	}
}

// active returns the number of threads inside a traced function.
func (c *threadContexts) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}
