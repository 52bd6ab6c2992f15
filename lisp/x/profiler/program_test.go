package profiler_test

import (
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/stretchr/testify/require"
)

func intArg(v lisp.Value) int64 {
	return v.(*lisp.Integer).I
}

// defun interns a function under user/name with the given doc string.
func defun(rt *lisp.Runtime, name, doc string, clause lisp.FunArity) *lisp.Var {
	fun := lisp.MustFunction("user/"+name, clause)
	fun.Doc = doc
	return rt.InternVar("user", name).BindRoot(fun).SetDoc(doc)
}

// newProgram defines a small set of mutually calling functions and returns
// the var holding the zero argument entry point.  A call to main makes seven
// function calls, three of which are documented for tracing, and one keyword
// lookup.
func newProgram(t *testing.T, rt *lisp.Runtime) *lisp.Var {
	t.Helper()
	addIt := defun(rt, "add-it", "Adds things. @trace{ Add It }", lisp.FunArity{Required: 2, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		return lisp.Int(intArg(args[0]) + intArg(args[1])), nil
	}})
	addItAgain := defun(rt, "add-it-again", "@trace{ Add It Again }", lisp.FunArity{Required: 2, Fn: func(t *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		return lisp.DynamicCall(t, addIt, args...)
	}})
	var recurseIt *lisp.Var
	recurseIt = defun(rt, "recurse-it", "", lisp.FunArity{Required: 1, Fn: func(t *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		x := intArg(args[0])
		if x < 4 {
			return lisp.DynamicCall(t, addIt, args[0], lisp.Int(3))
		}
		return lisp.DynamicCall(t, recurseIt, lisp.Int(x-1))
	}})
	config, err := lisp.NewArrayMap(lisp.Kw("offset"), lisp.Int(8))
	require.NoError(t, err)
	return defun(rt, "main", "", lisp.FunArity{Fn: func(t *lisp.Thread, _ []lisp.Value) (lisp.Value, error) {
		offset, err := lisp.DynamicCall(t, lisp.Kw("offset"), config)
		if err != nil {
			return nil, err
		}
		x, err := lisp.DynamicCall(t, recurseIt, lisp.Int(5))
		if err != nil {
			return nil, err
		}
		return lisp.DynamicCall(t, addItAgain, x, offset)
	}})
}

// runProgram calls main on a new thread and checks its result.
func runProgram(t *testing.T, rt *lisp.Runtime, main *lisp.Var) {
	t.Helper()
	v, err := lisp.DynamicCall(rt.NewThread(), main)
	require.NoError(t, err)
	require.Equal(t, "14", lisp.Print(v))
}
