// Copyright © 2024 The ELPS authors

package lisp

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/sasha-s/go-deadlock"
)

// Entry is a fixed-arity entry point.  The length of args always equals the
// index of the entry in its callable.  Entries attached to a rest parameter
// receive the rest sequence (or Nil()) as their final argument.
type Entry func(t *Thread, args []Value) (Value, error)

// Callable is implemented by values which may be invoked.  Entry returns the
// entry point receiving n values, or nil if there is none.
type Callable interface {
	Value
	Arity() ArityFlags
	Entry(n int) Entry
}

// FunInfo names a function for diagnostics and profiling.
type FunInfo struct {
	NS   string
	Name string
	Doc  string
}

// QualifiedName returns the namespace qualified function name.
func (fi *FunInfo) QualifiedName() string {
	if fi.NS == "" {
		return fi.Name
	}
	return fi.NS + "/" + fi.Name
}

// Docstring returns the function documentation.
func (fi *FunInfo) Docstring() string { return fi.Doc }

// FunArity is one clause of a function definition.  A variadic clause
// receives Required positional arguments followed by a rest sequence.
type FunArity struct {
	Required int
	Variadic bool
	Fn       Entry
}

type entryTable [MaxFixedArity + 2]Entry

func (tab *entryTable) get(n int) Entry {
	if n < 0 || n >= len(tab) {
		return nil
	}
	return tab[n]
}

// NativeFunction is a callable implemented by Go entry points.
type NativeFunction struct {
	header
	FunInfo
	flags   ArityFlags
	entries entryTable
}

// NewFunction builds a function from its clauses.  At most one clause may be
// variadic, no fixed clause may require more arguments than the variadic
// clause and no two fixed clauses may take the same number of arguments.
func NewFunction(name string, clauses ...FunArity) (*NativeFunction, error) {
	if len(clauses) == 0 {
		return nil, fmt.Errorf("function %s has no clauses", name)
	}
	ns, short := splitQualified(name)
	fun := &NativeFunction{FunInfo: FunInfo{NS: ns, Name: short}}
	maxFixed := -1
	variadic := -1
	for _, c := range clauses {
		if c.Fn == nil {
			return nil, fmt.Errorf("function %s: nil entry for arity %d", name, c.Required)
		}
		if c.Required < 0 || c.Required > MaxFixedArity {
			return nil, fmt.Errorf("function %s: cannot take %d positional arguments", name, c.Required)
		}
		if c.Variadic {
			if variadic >= 0 {
				return nil, fmt.Errorf("function %s: more than one variadic clause", name)
			}
			variadic = c.Required
			fun.entries[c.Required+1] = c.Fn
			continue
		}
		if fun.entries[c.Required] != nil {
			return nil, fmt.Errorf("function %s: duplicate clause for arity %d", name, c.Required)
		}
		fun.entries[c.Required] = c.Fn
		if c.Required > maxFixed {
			maxFixed = c.Required
		}
	}
	if variadic < 0 {
		fun.flags = NewArityFlags(maxFixed, false, false)
		return fun, nil
	}
	if maxFixed > variadic {
		return nil, fmt.Errorf("function %s: fixed arity %d exceeds variadic arity %d", name, maxFixed, variadic)
	}
	fun.flags = NewArityFlags(variadic, true, maxFixed == variadic)
	return fun, nil
}

// MustFunction is like NewFunction but panics if the clauses are invalid.
// It is meant for functions defined at package initialization.
func MustFunction(name string, clauses ...FunArity) *NativeFunction {
	fun, err := NewFunction(name, clauses...)
	if err != nil {
		log.Panicf("%v", err)
	}
	return fun
}

func (*NativeFunction) Kind() Kind          { return KindNativeFunction }
func (f *NativeFunction) Arity() ArityFlags { return f.flags }
func (f *NativeFunction) Entry(n int) Entry { return f.entries.get(n) }

// CompiledFunction is a callable whose entry points were produced by a code
// generator.  The generator supplies the arity flags along with the entries
// indexed by the number of values each receives.
type CompiledFunction struct {
	header
	FunInfo
	flags   ArityFlags
	entries entryTable
}

// NewCompiledFunction returns a function using the given entries.  The
// entries must agree with flags: a variadic callable needs an entry at slot
// F+1 and no entry may be indexed above it.
func NewCompiledFunction(name string, flags ArityFlags, entries map[int]Entry) (*CompiledFunction, error) {
	ns, short := splitQualified(name)
	fun := &CompiledFunction{FunInfo: FunInfo{NS: ns, Name: short}, flags: flags}
	top := flags.Fixed()
	if flags.Variadic() {
		top++
		if entries[top] == nil {
			return nil, fmt.Errorf("compiled function %s: missing variadic entry %d", name, top)
		}
	}
	for n, e := range entries {
		if n < 0 || n > top {
			return nil, fmt.Errorf("compiled function %s: entry %d inconsistent with arity %v", name, n, flags)
		}
		fun.entries[n] = e
	}
	return fun, nil
}

func (*CompiledFunction) Kind() Kind          { return KindCompiledFunction }
func (f *CompiledFunction) Arity() ArityFlags { return f.flags }
func (f *CompiledFunction) Entry(n int) Entry { return f.entries.get(n) }

// DefaultDispatch is the dispatch value selecting a multimethod's fallback
// method.
var DefaultDispatch = Kw("default")

// ErrNoMethod is wrapped by errors returned when a multimethod has no method
// for a dispatch value.
var ErrNoMethod = errors.New("no method")

type multiMethod struct {
	key Value
	fn  Value
}

// MultiFunction applies its arguments to a dispatch function and invokes the
// method registered for the resulting dispatch value.
type MultiFunction struct {
	header
	FunInfo
	dispatch Value

	mu      deadlock.RWMutex
	methods []multiMethod
}

// NewMultiFunction returns a multimethod without methods.
func NewMultiFunction(name string, dispatch Value) *MultiFunction {
	ns, short := splitQualified(name)
	return &MultiFunction{FunInfo: FunInfo{NS: ns, Name: short}, dispatch: dispatch}
}

func (*MultiFunction) Kind() Kind { return KindMultiFunction }

// AddMethod registers fn for dispatch values Equal to key, replacing any
// existing method.
func (m *MultiFunction) AddMethod(key, fn Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.methods {
		if Equal(m.methods[i].key, key) {
			m.methods[i].fn = fn
			return
		}
	}
	m.methods = append(m.methods, multiMethod{key, fn})
}

// RemoveMethod removes the method for key and reports whether one existed.
func (m *MultiFunction) RemoveMethod(key Value) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.methods {
		if Equal(m.methods[i].key, key) {
			m.methods = append(m.methods[:i], m.methods[i+1:]...)
			return true
		}
	}
	return false
}

// Method returns the method registered for key, falling back to the method
// for DefaultDispatch.
func (m *MultiFunction) Method(key Value) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var fallback Value
	for _, mm := range m.methods {
		if Equal(mm.key, key) {
			return mm.fn, true
		}
		if Equal(mm.key, DefaultDispatch) {
			fallback = mm.fn
		}
	}
	return fallback, fallback != nil
}

// DispatchValues returns the keys of all registered methods in printed
// order.
func (m *MultiFunction) DispatchValues() []Value {
	m.mu.RLock()
	keys := make([]Value, len(m.methods))
	for i, mm := range m.methods {
		keys[i] = mm.key
	}
	m.mu.RUnlock()
	sort.SliceStable(keys, func(i, j int) bool { return Print(keys[i]) < Print(keys[j]) })
	return keys
}

// A multimethod takes any number of arguments: all of them arrive packed.
var multiArity = NewArityFlags(0, true, false)

func (m *MultiFunction) Arity() ArityFlags { return multiArity }

func (m *MultiFunction) Entry(n int) Entry {
	if n != 1 {
		return nil
	}
	return m.invoke
}

func (m *MultiFunction) invoke(t *Thread, args []Value) (Value, error) {
	rest := args[0]
	key, err := Apply(t, m.dispatch, rest)
	if err != nil {
		return nil, err
	}
	fn, ok := m.Method(key)
	if !ok {
		return nil, fmt.Errorf("%w in multimethod %s for dispatch value %s", ErrNoMethod, m.QualifiedName(), Print(key))
	}
	return Apply(t, fn, rest)
}

// lookupArity describes (coll key) and (coll key default) lookups.
var lookupArity = NewArityFlags(2, false, false)

func (*Keyword) Arity() ArityFlags { return lookupArity }

// Entry implements keyword invocation: (:k m) looks :k up in m.
func (k *Keyword) Entry(n int) Entry {
	get := func(coll, _ Value) (Value, bool) {
		m, ok := coll.(MapLike)
		if !ok {
			return nil, false
		}
		return m.Get(k)
	}
	switch n {
	case 1:
		return func(_ *Thread, args []Value) (Value, error) {
			if v, ok := get(args[0], nil); ok {
				return v, nil
			}
			return Nil(), nil
		}
	case 2:
		return func(_ *Thread, args []Value) (Value, error) {
			if v, ok := get(args[0], nil); ok {
				return v, nil
			}
			return args[1], nil
		}
	}
	return nil
}

func mapEntryPoint(m MapLike, n int) Entry {
	switch n {
	case 1:
		return func(_ *Thread, args []Value) (Value, error) {
			if v, ok := m.Get(args[0]); ok {
				return v, nil
			}
			return Nil(), nil
		}
	case 2:
		return func(_ *Thread, args []Value) (Value, error) {
			if v, ok := m.Get(args[0]); ok {
				return v, nil
			}
			return args[1], nil
		}
	}
	return nil
}

func (*ArrayMap) Arity() ArityFlags    { return lookupArity }
func (m *ArrayMap) Entry(n int) Entry  { return mapEntryPoint(m, n) }
func (*HashMap) Arity() ArityFlags     { return lookupArity }
func (m *HashMap) Entry(n int) Entry   { return mapEntryPoint(m, n) }
func (*SortedMap) Arity() ArityFlags   { return lookupArity }
func (m *SortedMap) Entry(n int) Entry { return mapEntryPoint(m, n) }

var (
	_ Callable = (*NativeFunction)(nil)
	_ Callable = (*CompiledFunction)(nil)
	_ Callable = (*MultiFunction)(nil)
	_ Callable = (*Keyword)(nil)
	_ Callable = (*ArrayMap)(nil)
	_ Callable = (*HashMap)(nil)
	_ Callable = (*SortedMap)(nil)
)
