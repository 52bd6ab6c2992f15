// Copyright © 2018 The ELPS authors

package lisp

import (
	"sort"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Namespace is a named table of Vars.  A Var interned into a namespace lives
// as long as the namespace unless it is explicitly unmapped.
type Namespace struct {
	header
	Name string
	rt   *Runtime

	mu   deadlock.RWMutex
	vars map[string]*Var
}

func newNamespace(rt *Runtime, name string) *Namespace {
	return &Namespace{
		Name: name,
		rt:   rt,
		vars: make(map[string]*Var),
	}
}

func (*Namespace) Kind() Kind { return KindNamespace }

// Runtime returns the runtime holding ns.
func (ns *Namespace) Runtime() *Runtime { return ns.rt }

// Intern returns the Var named name in ns, creating an unbound Var if none
// exists.
func (ns *Namespace) Intern(name string) *Var {
	ns.mu.RLock()
	v, ok := ns.vars[name]
	ns.mu.RUnlock()
	if ok {
		return v
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if v, ok := ns.vars[name]; ok {
		return v
	}
	v = newVar(ns, name)
	ns.vars[name] = v
	ns.rt.Logger.WithFields(logrus.Fields{
		"ns":  ns.Name,
		"var": name,
	}).Debug("var interned")
	return v
}

// FindVar returns the Var named name in ns.
func (ns *Namespace) FindVar(name string) (*Var, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	v, ok := ns.vars[name]
	return v, ok
}

// Unmap removes name from ns and reports whether it was present.  Holders of
// the unmapped Var may continue to use it.
func (ns *Namespace) Unmap(name string) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	_, ok := ns.vars[name]
	delete(ns.vars, name)
	return ok
}

// Vars returns the Vars interned in ns sorted by name.
func (ns *Namespace) Vars() []*Var {
	ns.mu.RLock()
	vars := make([]*Var, 0, len(ns.vars))
	for _, v := range ns.vars {
		vars = append(vars, v)
	}
	ns.mu.RUnlock()
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	return vars
}
