// Copyright © 2024 The ELPS authors

package lisptest

import (
	"testing"

	"github.com/luthersystems/corelisp/lisp"
)

// Call is one invocation observed by a Recorder.  Slot is the index of the
// entry invoked and Args the values delivered to it.
type Call struct {
	Slot int
	Args []lisp.Value
}

// Recorder is a function whose entries record the values delivered to them.
// Every entry returns a vector of its arguments.
type Recorder struct {
	Fun   *lisp.NativeFunction
	Calls []Call
}

// NewRecorder returns a recorder with the arities of clauses.  The Fn of
// each clause is ignored.
func NewRecorder(t testing.TB, name string, clauses ...lisp.FunArity) *Recorder {
	t.Helper()
	r := &Recorder{}
	for i := range clauses {
		slot := clauses[i].Required
		if clauses[i].Variadic {
			slot++
		}
		clauses[i].Fn = r.entry(slot)
	}
	fun, err := lisp.NewFunction(name, clauses...)
	if err != nil {
		t.Fatalf("invalid recorder %s: %v", name, err)
	}
	r.Fun = fun
	return r
}

func (r *Recorder) entry(slot int) lisp.Entry {
	return func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		r.Calls = append(r.Calls, Call{Slot: slot, Args: append([]lisp.Value(nil), args...)})
		return lisp.NewVector(args...), nil
	}
}

// Last returns the most recent call.  It fails t if there were no calls.
func (r *Recorder) Last(t testing.TB) Call {
	t.Helper()
	if len(r.Calls) == 0 {
		t.Fatalf("%s was not called", lisp.Print(r.Fun))
	}
	return r.Calls[len(r.Calls)-1]
}
