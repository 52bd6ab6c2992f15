// Copyright © 2018 The ELPS authors

package lisptest

import (
	"testing"

	"github.com/luthersystems/corelisp/lisp"
)

// CallSequence is a sequence of calls made in order on one thread.
type CallSequence []struct {
	Fn     string       // qualified name of the Var holding the callee
	Args   []lisp.Value // arguments
	Result string       // printed result, when Cond is empty
	Cond   string       // condition of the expected error
}

// CallSuite is a set of named CallSequences.  Defs gives the root values of
// Vars interned before the sequence runs.
type CallSuite []struct {
	Name string
	Defs map[string]lisp.Value
	CallSequence
}

// RunCallSuite runs each CallSequence in tests on an isolated runtime.
func RunCallSuite(t *testing.T, tests CallSuite) {
	for i, test := range tests {
		rt := NewRuntime(t)
		for name, val := range test.Defs {
			ns, short := splitName(name)
			rt.InternVar(ns, short).BindRoot(val)
		}
		th := rt.NewThread()
		for j, call := range test.CallSequence {
			fn, ok := rt.FindVar(call.Fn)
			if !ok {
				t.Errorf("test %d %q: call %d: no var %s", i, test.Name, j, call.Fn)
				continue
			}
			v, err := lisp.DynamicCall(th, fn, call.Args...)
			if call.Cond != "" {
				if err == nil {
					t.Errorf("test %d %q: call %d: expected %s condition (got %s)", i, test.Name, j, call.Cond, lisp.Print(v))
				} else if cond := lisp.Condition(err); cond != call.Cond {
					t.Errorf("test %d %q: call %d: expected %s condition (got %s: %v)", i, test.Name, j, call.Cond, cond, err)
				}
				continue
			}
			if err != nil {
				t.Errorf("test %d %q: call %d: %v", i, test.Name, j, err)
				continue
			}
			if result := lisp.Print(v); result != call.Result {
				t.Errorf("test %d %q: call %d: expected result %s (got %s)", i, test.Name, j, call.Result, result)
			}
		}
	}
}

func splitName(name string) (string, string) {
	for i := len(name) - 1; i > 0; i-- {
		if name[i] == '/' {
			return name[:i], name[i+1:]
		}
	}
	return lisp.DefaultUserNamespace, name
}
