// Copyright © 2018 The ELPS authors

package lisptest

import (
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/stretchr/testify/assert"
)

// AssertMapLike runs tests to ensure that m satisfies constraints required
// for maps.  The following properties are tested by AssertMapLike:
//
//		The sequence of entries has m.Count() elements, each a [key value]
//		vector
//
//		Repeated traversals of m produce equal sequences
//
//		Calling m.Get() with a key from an entry returns the entry's value
//
// AssertMapLike does not test the order of entries beyond it being fixed.
func AssertMapLike(t *testing.T, m lisp.MapLike) bool {
	t.Helper()
	if !assert.NotEqual(t, 0, m.Count(), "Cannot test an empty map") {
		return false
	}
	entries, err := lisp.ToSlice(m)
	if !assert.NoError(t, err) {
		return false
	}
	if !assert.Len(t, entries, m.Count()) {
		return false
	}
	if !testFixed(t, 3, m, lisp.NewList(entries...)) {
		return false
	}
	for i, e := range entries {
		pair, ok := e.(*lisp.Vector)
		if !assert.True(t, ok, "entry %d is not a vector: %s", i, lisp.Print(e)) {
			return false
		}
		key, _ := pair.Nth(0)
		val, _ := pair.Nth(1)
		v, ok := m.Get(key)
		if !assert.True(t, ok, "entry %d was not found in map: %s", i, lisp.Print(key)) {
			return false
		}
		if !assert.True(t, lisp.Equal(val, v), "entry for key %s not consistent at index %d -- expected: %s got: %s", lisp.Print(key), i, lisp.Print(val), lisp.Print(v)) {
			return false
		}
	}
	return true
}

// AssertSetLike runs tests to ensure that s has s.Count() distinct members,
// each of which it contains, and that traversal order is fixed.
func AssertSetLike(t *testing.T, s lisp.SetLike) bool {
	t.Helper()
	members, err := lisp.ToSlice(s)
	if !assert.NoError(t, err) {
		return false
	}
	if !assert.Len(t, members, s.Count()) {
		return false
	}
	if !testFixed(t, 3, s, lisp.NewList(members...)) {
		return false
	}
	for i, x := range members {
		if !assert.True(t, s.Contains(x), "member %d not contained: %s", i, lisp.Print(x)) {
			return false
		}
		for j := i + 1; j < len(members); j++ {
			if !assert.False(t, lisp.Equal(x, members[j]), "members %d and %d are equal", i, j) {
				return false
			}
		}
	}
	return true
}

func testFixed(t *testing.T, n int, coll lisp.Value, expect lisp.Value) bool {
	t.Helper()
	for i := 0; i < n; i++ {
		vals, err := lisp.ToSlice(coll)
		if !assert.NoError(t, err) {
			return false
		}
		got := lisp.NewList(vals...)
		if !assert.True(t, lisp.VeryEqual(expect, got), "traversal %d got: %s expected: %s", i, lisp.Print(got), lisp.Print(expect)) {
			return false
		}
	}
	return true
}
