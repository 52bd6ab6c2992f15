// Copyright © 2024 The ELPS authors

package lisp

import (
	"errors"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
)

// Derefable is implemented by reference kinds whose current value can be
// read on behalf of a thread.
type Derefable interface {
	Value
	Deref(t *Thread) (Value, error)
}

type valueBox struct {
	v Value
}

// Atom is a shared, synchronously and atomically updated reference.
type Atom struct {
	header
	state atomic.Pointer[valueBox]
}

// NewAtom returns an atom holding v.
func NewAtom(v Value) *Atom {
	a := &Atom{}
	a.state.Store(&valueBox{orNil(v)})
	return a
}

func (*Atom) Kind() Kind { return KindAtom }

// Deref returns the current value of a.
func (a *Atom) Deref(*Thread) (Value, error) {
	return a.state.Load().v, nil
}

// Reset sets the value of a to v without regard for its current value.
func (a *Atom) Reset(v Value) Value {
	v = orNil(v)
	a.state.Store(&valueBox{v})
	return v
}

// CompareAndSet sets the value of a to v iff the current value is identical
// to old.
func (a *Atom) CompareAndSet(old, v Value) bool {
	cur := a.state.Load()
	if cur.v != old {
		return false
	}
	return a.state.CompareAndSwap(cur, &valueBox{orNil(v)})
}

// Swap atomically replaces the value of a with (f current args...).  f may be
// called more than once if other threads update a concurrently, so it
// should be free of side effects.
func (a *Atom) Swap(t *Thread, f Value, args ...Value) (Value, error) {
	for {
		cur := a.state.Load()
		callArgs := make([]Value, 0, len(args)+1)
		callArgs = append(callArgs, cur.v)
		v, err := DynamicCall(t, f, append(callArgs, args...)...)
		if err != nil {
			return nil, err
		}
		if v = orNil(v); a.state.CompareAndSwap(cur, &valueBox{v}) {
			return v, nil
		}
	}
}

// Volatile is a mutable reference without atomicity guarantees for compound
// updates.  It is meant for state local to one thread.
type Volatile struct {
	header
	v atomic.Pointer[valueBox]
}

// NewVolatile returns a volatile holding v.
func NewVolatile(v Value) *Volatile {
	vol := &Volatile{}
	vol.v.Store(&valueBox{orNil(v)})
	return vol
}

func (*Volatile) Kind() Kind { return KindVolatile }

// Deref returns the current value of vol.
func (vol *Volatile) Deref(*Thread) (Value, error) {
	return vol.v.Load().v, nil
}

// Reset sets the value of vol to v.
func (vol *Volatile) Reset(v Value) Value {
	v = orNil(v)
	vol.v.Store(&valueBox{v})
	return v
}

// Swap sets the value of vol to (f current args...).  Unlike Atom.Swap the
// read and write are not atomic with respect to other threads.
func (vol *Volatile) Swap(t *Thread, f Value, args ...Value) (Value, error) {
	callArgs := append([]Value{vol.v.Load().v}, args...)
	v, err := DynamicCall(t, f, callArgs...)
	if err != nil {
		return nil, err
	}
	return vol.Reset(v), nil
}

// Reduced wraps the value which terminates a reduction early.
type Reduced struct {
	header
	Val Value
}

// NewReduced wraps v.
func NewReduced(v Value) *Reduced {
	return &Reduced{Val: v}
}

func (*Reduced) Kind() Kind { return KindReduced }

// Deref returns the wrapped value.
func (r *Reduced) Deref(*Thread) (Value, error) {
	return r.Val, nil
}

// IsReduced returns true if v is a Reduced value.
func IsReduced(v Value) bool {
	_, ok := v.(*Reduced)
	return ok
}

// Delay memoizes the result of calling a zero-argument function.
type Delay struct {
	header
	mu       deadlock.Mutex
	fn       Value
	realized bool
	val      Value
	err      error
}

// NewDelay returns a delay which will call fn with no arguments on first
// deref.
func NewDelay(fn Value) *Delay {
	return &Delay{fn: fn}
}

func (*Delay) Kind() Kind { return KindDelay }

// Realized reports whether d has been forced.
func (d *Delay) Realized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.realized
}

// Deref forces d on behalf of t.  The function runs to completion at most
// once; its value or error is cached.  A call abandoned because t was
// cancelled is not cached and a later Deref runs the function again.
func (d *Delay) Deref(t *Thread) (Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.realized {
		val, err := DynamicCall(t, d.fn)
		var cancelled *CancelledError
		if errors.As(err, &cancelled) {
			return nil, err
		}
		d.val, d.err = val, err
		d.realized = true
		d.fn = nil
	}
	return d.val, d.err
}

// TaggedLiteral is a reader tagged literal whose tag had no registered
// reader function.
type TaggedLiteral struct {
	header
	Tag  *Symbol
	Form Value
}

// NewTaggedLiteral returns the tagged literal #tag form.
func NewTaggedLiteral(tag *Symbol, form Value) *TaggedLiteral {
	return &TaggedLiteral{Tag: tag, Form: form}
}

func (*TaggedLiteral) Kind() Kind { return KindTaggedLiteral }

var (
	_ Derefable = (*Atom)(nil)
	_ Derefable = (*Volatile)(nil)
	_ Derefable = (*Reduced)(nil)
	_ Derefable = (*Delay)(nil)
)
