// Copyright © 2024 The ELPS authors

package lisp

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Metadata keys understood by Var.
var (
	MetaMacro   = Kw("macro")
	MetaDynamic = Kw("dynamic")
	MetaDoc     = Kw("doc")
)

// Var is a named reference interned in a namespace.  Its root value is shared
// by all threads.  A dynamic Var may additionally be overridden per thread
// with Thread.PushBindings.
type Var struct {
	header
	ns   *Namespace
	name string

	// root holds the root value, or the Var's VarUnboundRoot when unbound.
	root        atomic.Pointer[valueBox]
	unbound     *VarUnboundRoot
	dynamic     atomic.Bool
	threadBound atomic.Bool
	meta        atomic.Pointer[valueBox]
}

func newVar(ns *Namespace, name string) *Var {
	v := &Var{ns: ns, name: name}
	v.unbound = &VarUnboundRoot{Var: v}
	v.root.Store(&valueBox{v.unbound})
	empty, _ := NewArrayMap()
	v.meta.Store(&valueBox{empty})
	return v
}

func (*Var) Kind() Kind { return KindVar }

// Namespace returns the namespace owning v.
func (v *Var) Namespace() *Namespace { return v.ns }

// Name returns the unqualified name of v.
func (v *Var) Name() string { return v.name }

// QualifiedName returns the namespace qualified name of v.
func (v *Var) QualifiedName() string {
	return v.ns.Name + "/" + v.name
}

func (v *Var) logger() *logrus.Entry {
	return v.ns.rt.Logger.WithFields(logrus.Fields{
		"var": v.QualifiedName(),
	})
}

// BindRoot sets the root value of v for all threads.  A Go nil val binds
// Nil().
func (v *Var) BindRoot(val Value) *Var {
	v.root.Store(&valueBox{orNil(val)})
	v.logger().Debug("root bound")
	return v
}

// Unbind removes the root value of v.
func (v *Var) Unbind() {
	v.root.Store(&valueBox{v.unbound})
	v.logger().Debug("root unbound")
}

// IsBound reports whether v has a root value.
func (v *Var) IsBound() bool {
	_, unbound := v.root.Load().v.(*VarUnboundRoot)
	return !unbound
}

// Root returns the root value of v, which is v's VarUnboundRoot if v is
// unbound.
func (v *Var) Root() Value {
	return v.root.Load().v
}

// AlterRoot atomically sets the root of v to (f root args...).  f may run
// more than once when other threads rebind v concurrently.
func (v *Var) AlterRoot(t *Thread, f Value, args ...Value) (Value, error) {
	for {
		cur := v.root.Load()
		if _, unbound := cur.v.(*VarUnboundRoot); unbound {
			return nil, &UnboundVarError{Var: v.QualifiedName()}
		}
		callArgs := append([]Value{cur.v}, args...)
		val, err := DynamicCall(t, f, callArgs...)
		if err != nil {
			return nil, err
		}
		if v.root.CompareAndSwap(cur, &valueBox{val}) {
			v.logger().Debug("root altered")
			return val, nil
		}
	}
}

// IsDynamic reports whether v may be bound per thread.
func (v *Var) IsDynamic() bool { return v.dynamic.Load() }

// SetDynamic controls whether v may be bound per thread.
func (v *Var) SetDynamic(dynamic bool) *Var {
	v.dynamic.Store(dynamic)
	return v
}

// IsThreadBound reports whether any thread has ever bound v.  Once set the
// flag is never cleared.
func (v *Var) IsThreadBound() bool { return v.threadBound.Load() }

func (v *Var) markThreadBound(t *Thread) {
	if v.threadBound.CompareAndSwap(false, true) {
		v.logger().WithField("thread", t.id).Debug("first thread binding")
	}
}

// Meta returns the metadata map of v.
func (v *Var) Meta() MapLike {
	return v.meta.Load().v.(MapLike)
}

// ResetMeta replaces the metadata map of v.
func (v *Var) ResetMeta(m MapLike) {
	v.meta.Store(&valueBox{m})
}

// AlterMeta atomically sets the metadata of v to (f meta args...).
func (v *Var) AlterMeta(t *Thread, f Value, args ...Value) (MapLike, error) {
	for {
		cur := v.meta.Load()
		callArgs := append([]Value{cur.v}, args...)
		val, err := DynamicCall(t, f, callArgs...)
		if err != nil {
			return nil, err
		}
		m, ok := val.(MapLike)
		if !ok {
			return nil, newCapabilityError(CapMapLike, val)
		}
		if v.meta.CompareAndSwap(cur, &valueBox{m}) {
			return m, nil
		}
	}
}

func (v *Var) assocMeta(k, val Value) {
	for {
		cur := v.meta.Load()
		m, err := cur.v.(MapLike).Assoc(k, val)
		if err != nil {
			return
		}
		if v.meta.CompareAndSwap(cur, &valueBox{m}) {
			return
		}
	}
}

// IsMacro reports whether v is marked as a macro in its metadata.
func (v *Var) IsMacro() bool {
	m, ok := v.Meta().Get(MetaMacro)
	return ok && Truthy(m)
}

// SetMacro marks v as a macro.
func (v *Var) SetMacro() *Var {
	v.assocMeta(MetaMacro, Bool(true))
	return v
}

// Doc returns the documentation string in the metadata of v.
func (v *Var) Doc() string {
	if d, ok := v.Meta().Get(MetaDoc); ok {
		if s, ok := d.(*PersistentString); ok {
			return s.S
		}
	}
	return ""
}

// SetDoc stores documentation in the metadata of v.
func (v *Var) SetDoc(doc string) *Var {
	v.assocMeta(MetaDoc, String(doc))
	return v
}

// Deref returns the value of v visible to t.
func (v *Var) Deref(t *Thread) (Value, error) {
	return t.Deref(v)
}

// VarThreadBinding is a thread's override of a dynamic Var.  Bindings are
// only touched by their owning thread.
type VarThreadBinding struct {
	header
	Var    *Var
	val    Value
	thread *Thread
}

func (*VarThreadBinding) Kind() Kind { return KindVarThreadBinding }

// Value returns the bound value.
func (b *VarThreadBinding) Value() Value { return b.val }

// VarUnboundRoot is the root of a Var with no root value.
type VarUnboundRoot struct {
	header
	Var *Var
}

func (*VarUnboundRoot) Kind() Kind { return KindVarUnboundRoot }

var (
	_ Derefable = (*Var)(nil)
)
