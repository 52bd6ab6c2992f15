// Copyright © 2024 The ELPS authors

package lisp

import (
	"context"
	"log"
	"sort"
	"sync/atomic"

	"github.com/petermattis/goid"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Bindings maps dynamic Vars to the values they are bound to.
type Bindings map[*Var]Value

type bindingFrame map[*Var]*VarThreadBinding

// Thread is the dynamic binding state of one goroutine.  The first goroutine
// to use a Thread owns it and using it from any other goroutine panics.  A
// goroutine started on behalf of a thread receives its dynamic bindings only
// through an explicit Fork.
type Thread struct {
	rt     *Runtime
	id     uint
	ctx    context.Context
	owner  atomic.Int64
	frames []bindingFrame
}

// NewThread returns a thread with no dynamic bindings.
func (rt *Runtime) NewThread() *Thread {
	return &Thread{
		rt:  rt,
		id:  rt.numthread.Add(1),
		ctx: context.Background(),
	}
}

// ID returns the runtime unique identifier of t.
func (t *Thread) ID() uint { return t.id }

// Runtime returns the runtime t belongs to.
func (t *Thread) Runtime() *Runtime { return t.rt }

// Context returns the context observed by calls made on t.
func (t *Thread) Context() context.Context { return t.ctx }

func (t *Thread) claim() {
	g := goid.Get()
	if t.owner.CompareAndSwap(0, g) {
		return
	}
	if owner := t.owner.Load(); owner != g {
		log.Panicf("thread %d owned by goroutine %d used from goroutine %d", t.id, owner, g)
	}
}

func (t *Thread) checkCancelled() error {
	if err := t.ctx.Err(); err != nil {
		return &CancelledError{Err: err}
	}
	return nil
}

func (t *Thread) logger() *logrus.Entry {
	return t.rt.Logger.WithField("thread", t.id)
}

func (t *Thread) top() bindingFrame {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

// Deref returns the value of v visible to t: its binding in the innermost
// frame of t, else its root value.
func (t *Thread) Deref(v *Var) (Value, error) {
	t.claim()
	if v.IsThreadBound() {
		if b, ok := t.top()[v]; ok {
			return b.val, nil
		}
	}
	root := v.Root()
	if _, unbound := root.(*VarUnboundRoot); unbound {
		return nil, &UnboundVarError{Var: v.QualifiedName()}
	}
	return root, nil
}

// Binding returns the binding of v in the innermost frame of t.
func (t *Thread) Binding(v *Var) (*VarThreadBinding, bool) {
	t.claim()
	b, ok := t.top()[v]
	return b, ok
}

// PushBindings pushes a frame binding each Var in b to its value on top of
// the bindings already visible to t.  Every Var in b must be dynamic; when
// any is not no frame is pushed and the error reports all of them.  Pushing
// empty bindings duplicates the current frame, if there is one, so that every
// push is balanced by exactly one pop.
func (t *Thread) PushBindings(b Bindings) error {
	t.claim()
	var offenders []*Var
	for v := range b {
		if !v.IsDynamic() {
			offenders = append(offenders, v)
		}
	}
	if len(offenders) > 0 {
		sort.Slice(offenders, func(i, j int) bool {
			return offenders[i].QualifiedName() < offenders[j].QualifiedName()
		})
		var err error
		for _, v := range offenders {
			err = multierr.Append(err, &BindingError{Var: v.QualifiedName(), Err: ErrNonDynamicBinding})
			t.logger().WithField("var", v.QualifiedName()).Warn("attempt to bind non-dynamic var")
		}
		return err
	}
	top := t.top()
	if len(b) == 0 && top == nil {
		return nil
	}
	frame := make(bindingFrame, len(top)+len(b))
	for v, binding := range top {
		frame[v] = binding
	}
	for v, val := range b {
		v.markThreadBound(t)
		frame[v] = &VarThreadBinding{Var: v, val: orNil(val), thread: t}
	}
	t.frames = append(t.frames, frame)
	return nil
}

// PopBindings removes the innermost frame of t.
func (t *Thread) PopBindings() error {
	t.claim()
	if len(t.frames) == 0 {
		t.logger().Warn("binding pop without push")
		return &BindingError{Err: ErrMismatchedPop}
	}
	t.frames[len(t.frames)-1] = nil
	t.frames = t.frames[:len(t.frames)-1]
	return nil
}

// Depth returns the number of frames pushed on t.
func (t *Thread) Depth() int {
	t.claim()
	return len(t.frames)
}

// Bindings returns a copy of the bindings in the innermost frame of t.
func (t *Thread) Bindings() Bindings {
	t.claim()
	top := t.top()
	b := make(Bindings, len(top))
	for v, binding := range top {
		b[v] = binding.val
	}
	return b
}

// WithBindings calls fn with b pushed and pops b when fn returns or panics.
// An error from fn, including a Signal, is returned unchanged.
func (t *Thread) WithBindings(b Bindings, fn func() error) (err error) {
	if err := t.PushBindings(b); err != nil {
		return err
	}
	defer func() {
		if perr := t.PopBindings(); perr != nil && err == nil {
			err = perr
		}
	}()
	return fn()
}

// Set changes the value of the innermost binding of v on t.  Frames pushed
// before the one which bound v share the change.
func (t *Thread) Set(v *Var, val Value) error {
	t.claim()
	b, ok := t.top()[v]
	if !ok {
		return &BindingError{Var: v.QualifiedName(), Err: ErrNotThreadBound}
	}
	b.val = orNil(val)
	return nil
}

// Fork returns a new unowned thread whose frames are copies of the frames of
// t.  Later changes to either thread's bindings are not visible to the
// other.
func (t *Thread) Fork() *Thread {
	t.claim()
	child := t.rt.NewThread()
	child.ctx = t.ctx
	copies := make(map[*VarThreadBinding]*VarThreadBinding)
	child.frames = make([]bindingFrame, len(t.frames))
	for i, frame := range t.frames {
		cp := make(bindingFrame, len(frame))
		for v, b := range frame {
			nb, ok := copies[b]
			if !ok {
				nb = &VarThreadBinding{Var: v, val: b.val, thread: child}
				copies[b] = nb
			}
			cp[v] = nb
		}
		child.frames[i] = cp
	}
	t.logger().WithField("child", child.id).Debug("thread forked")
	return child
}

// CurrentNamespace returns the value of *ns* visible to t.
func (t *Thread) CurrentNamespace() (*Namespace, error) {
	v, err := t.Deref(t.rt.nsVar)
	if err != nil {
		return nil, err
	}
	ns, ok := v.(*Namespace)
	if !ok {
		log.Panicf("%s bound to %s", t.rt.nsVar.QualifiedName(), v.Kind())
	}
	return ns, nil
}

// WithLoadScope calls fn with *ns* bound to ns and *file* bound to file.
// Both bindings are removed when fn returns.
func (t *Thread) WithLoadScope(ns *Namespace, file string, fn func() error) error {
	return t.WithBindings(Bindings{
		t.rt.nsVar:   ns,
		t.rt.fileVar: String(file),
	}, fn)
}
