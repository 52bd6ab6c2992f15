// Copyright © 2018 The ELPS authors

package lisp

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

// Runtime holds the state shared by every thread: the namespace registry,
// the Vars the runtime itself depends on, and diagnostic outputs.
type Runtime struct {
	Logger   *logrus.Logger
	Profiler Profiler
	Stderr   io.Writer

	mu         deadlock.RWMutex
	namespaces map[string]*Namespace
	langNS     string
	userNS     string
	nsVar      *Var
	fileVar    *Var

	numthread atomicCounter
	numfuture atomicCounter
}

// NewRuntime returns a runtime configured by config.  The language namespace
// holds the dynamic Vars *ns*, rooted at the user namespace, and *file*,
// rooted at the empty string.
func NewRuntime(config ...Config) (*Runtime, error) {
	rt := &Runtime{
		Stderr:     os.Stderr,
		namespaces: make(map[string]*Namespace),
		langNS:     DefaultLangNamespace,
		userNS:     DefaultUserNamespace,
	}
	for _, fn := range config {
		if err := fn(rt); err != nil {
			return nil, err
		}
	}
	if rt.Logger == nil {
		rt.Logger = logrus.New()
		rt.Logger.SetOutput(rt.Stderr)
		rt.Logger.SetLevel(logrus.WarnLevel)
	}
	user := rt.FindOrCreateNamespace(rt.userNS)
	rt.nsVar = rt.InternVar(rt.langNS, NSVarName).SetDynamic(true).BindRoot(user)
	rt.fileVar = rt.InternVar(rt.langNS, FileVarName).SetDynamic(true).BindRoot(String(""))
	return rt, nil
}

// StandardRuntime returns a runtime with the default configuration.
func StandardRuntime() *Runtime {
	rt, err := NewRuntime()
	if err != nil {
		panic(err)
	}
	return rt
}

// NSVar returns the dynamic Var holding the current namespace.
func (rt *Runtime) NSVar() *Var { return rt.nsVar }

// FileVar returns the dynamic Var holding the file being loaded.
func (rt *Runtime) FileVar() *Var { return rt.fileVar }

// LangNamespace returns the namespace holding the runtime's own Vars.
func (rt *Runtime) LangNamespace() *Namespace {
	return rt.FindOrCreateNamespace(rt.langNS)
}

// UserNamespace returns the namespace *ns* is rooted at.
func (rt *Runtime) UserNamespace() *Namespace {
	return rt.FindOrCreateNamespace(rt.userNS)
}

// FindNamespace returns the namespace called name.
func (rt *Runtime) FindNamespace(name string) (*Namespace, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	ns, ok := rt.namespaces[name]
	return ns, ok
}

// FindOrCreateNamespace returns the namespace called name, creating it if
// it does not exist.
func (rt *Runtime) FindOrCreateNamespace(name string) *Namespace {
	if ns, ok := rt.FindNamespace(name); ok {
		return ns
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if ns, ok := rt.namespaces[name]; ok {
		return ns
	}
	ns := newNamespace(rt, name)
	rt.namespaces[name] = ns
	if rt.Logger != nil {
		rt.Logger.WithField("ns", name).Debug("namespace created")
	}
	return ns
}

// RemoveNamespace removes the namespace called name from the registry.  The
// language namespace cannot be removed.
func (rt *Runtime) RemoveNamespace(name string) bool {
	if name == rt.langNS {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	_, ok := rt.namespaces[name]
	delete(rt.namespaces, name)
	return ok
}

// Namespaces returns all registered namespaces sorted by name.
func (rt *Runtime) Namespaces() []*Namespace {
	rt.mu.RLock()
	all := make([]*Namespace, 0, len(rt.namespaces))
	for _, ns := range rt.namespaces {
		all = append(all, ns)
	}
	rt.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// InternVar returns the Var called name in namespace ns, creating the
// namespace and the Var as needed.
func (rt *Runtime) InternVar(ns, name string) *Var {
	return rt.FindOrCreateNamespace(ns).Intern(name)
}

// FindVar returns the Var with the qualified name "ns/name".
func (rt *Runtime) FindVar(qualified string) (*Var, bool) {
	i := strings.LastIndex(qualified, "/")
	if i <= 0 || i == len(qualified)-1 {
		return nil, false
	}
	ns, ok := rt.FindNamespace(qualified[:i])
	if !ok {
		return nil, false
	}
	return ns.FindVar(qualified[i+1:])
}

type atomicCounter uint64

func (c *atomicCounter) Add(n uint) uint {
	return uint(atomic.AddUint64((*uint64)(c), uint64(n)))
}
