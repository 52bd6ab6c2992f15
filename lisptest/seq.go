// Copyright © 2024 The ELPS authors

package lisptest

import (
	"sync/atomic"

	"github.com/luthersystems/corelisp/lisp"
)

// CountingSeq returns the infinite lazy sequence 0, 1, 2, ... along with a
// function reporting how many of its elements have been realized.
func CountingSeq() (lisp.Value, func() int) {
	var n atomic.Int64
	return countFrom(0, &n), func() int { return int(n.Load()) }
}

func countFrom(i int64, n *atomic.Int64) *lisp.LazySeq {
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		n.Add(1)
		return lisp.NewCons(lisp.Int(i), countFrom(i+1, n)), nil
	})
}

// Ints returns a list of the given integers.
func Ints(xs ...int64) *lisp.List {
	vals := make([]lisp.Value, len(xs))
	for i, x := range xs {
		vals[i] = lisp.Int(x)
	}
	return lisp.NewList(vals...)
}

// IntArgs returns the integers 1 through n as argument values.
func IntArgs(n int) []lisp.Value {
	args := make([]lisp.Value, n)
	for i := range args {
		args[i] = lisp.Int(int64(i + 1))
	}
	return args
}
