// Copyright © 2024 The ELPS authors

package lisp_test

import (
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/luthersystems/corelisp/lisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapLike(t *testing.T) {
	kvs := []lisp.Value{
		lisp.Kw("a"), lisp.Int(1),
		lisp.String("b"), lisp.Int(2),
		lisp.Int(3), lisp.Kw("c"),
	}
	for _, test := range []struct {
		name string
		new  func(...lisp.Value) (lisp.MapLike, error)
	}{
		{"array-map", lisp.NewArrayMap},
		{"hash-map", lisp.NewHashMap},
	} {
		t.Run(test.name, func(t *testing.T) {
			m, err := test.new(kvs...)
			require.NoError(t, err)
			lisptest.AssertMapLike(t, m)
			assert.Equal(t, "{:a 1, \"b\" 2, 3 :c}", lisp.Print(m))

			v, ok := m.Get(lisp.Int(3))
			assert.True(t, ok)
			assert.Equal(t, ":c", lisp.Print(v))
			_, ok = m.Get(lisp.Kw("missing"))
			assert.False(t, ok)

			m2, err := m.Assoc(lisp.Kw("a"), lisp.Int(10))
			require.NoError(t, err)
			assert.Equal(t, 3, m2.Count())
			v, _ = m.Get(lisp.Kw("a"))
			assert.Equal(t, "1", lisp.Print(v), "assoc does not modify the original")
			v, _ = m2.Get(lisp.Kw("a"))
			assert.Equal(t, "10", lisp.Print(v))

			m3, err := m2.Dissoc(lisp.String("b"))
			require.NoError(t, err)
			assert.Equal(t, 2, m3.Count())
			lisptest.AssertMapLike(t, m3)
		})
	}

	_, err := lisp.NewHashMap(lisp.Kw("odd"))
	assert.Error(t, err)
}

func TestArrayMapPromotion(t *testing.T) {
	m, err := lisp.NewArrayMap()
	require.NoError(t, err)
	for i := int64(0); i < 8; i++ {
		m, err = m.Assoc(lisp.Int(i), lisp.Int(i*i))
		require.NoError(t, err)
	}
	assert.Equal(t, lisp.KindArrayMap, m.Kind())
	m, err = m.Assoc(lisp.Int(3), lisp.Int(0))
	require.NoError(t, err)
	assert.Equal(t, lisp.KindArrayMap, m.Kind(), "replacing a key keeps the small representation")
	m, err = m.Assoc(lisp.Int(8), lisp.Int(64))
	require.NoError(t, err)
	assert.Equal(t, lisp.KindHashMap, m.Kind())
	assert.Equal(t, 9, m.Count())
	lisptest.AssertMapLike(t, m)
}

func TestSortedMap(t *testing.T) {
	m, err := lisp.NewSortedMap(
		lisp.Int(3), lisp.Kw("c"),
		lisp.Int(1), lisp.Kw("a"),
		lisp.Int(2), lisp.Kw("b"),
	)
	require.NoError(t, err)
	lisptest.AssertMapLike(t, m)
	assert.Equal(t, "{1 :a, 2 :b, 3 :c}", lisp.Print(m))

	m, err = m.Assoc(lisp.Int(2), lisp.Kw("two"))
	require.NoError(t, err)
	assert.Equal(t, "{1 :a, 2 :two, 3 :c}", lisp.Print(m))
	m, err = m.Dissoc(lisp.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "{2 :two, 3 :c}", lisp.Print(m))

	_, err = m.Assoc(lisp.Kw("x"), lisp.Int(1))
	assert.Error(t, err, "keywords do not compare with integers")
}

func TestSetLike(t *testing.T) {
	hs := lisp.NewHashSet(lisp.Int(1), lisp.Kw("a"), lisp.Int(1), lisp.String("s"))
	lisptest.AssertSetLike(t, hs)
	assert.Equal(t, 3, hs.Count())
	assert.Equal(t, `#{1 :a "s"}`, lisp.Print(hs))

	s, err := hs.Disj(lisp.Kw("a"))
	require.NoError(t, err)
	assert.False(t, s.Contains(lisp.Kw("a")))
	assert.True(t, hs.Contains(lisp.Kw("a")))

	ss, err := lisp.NewSortedSet(lisp.Int(5), lisp.Int(1), lisp.Int(3), lisp.Int(1))
	require.NoError(t, err)
	lisptest.AssertSetLike(t, ss)
	assert.Equal(t, "#{1 3 5}", lisp.Print(ss))
	ss, err = ss.Conj(lisp.Int(4))
	require.NoError(t, err)
	assert.Equal(t, "#{1 3 4 5}", lisp.Print(ss))
	ss, err = ss.Disj(lisp.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "#{3 4 5}", lisp.Print(ss))
}

func TestCount(t *testing.T) {
	for _, test := range []struct {
		v lisp.Value
		n int
	}{
		{lisp.Nil(), 0},
		{lisptest.Ints(1, 2, 3), 3},
		{lisp.NewVector(lisp.Int(1)), 1},
		{lisp.String("héllo"), 5},
		{lisp.NewRepeat(lisp.Int(0), 4), 4},
		{lisp.NewCons(lisp.Int(0), lisptest.Ints(1, 2)), 3},
	} {
		n, err := lisp.Count(test.v)
		if assert.NoError(t, err, lisp.Print(test.v)) {
			assert.Equal(t, test.n, n, lisp.Print(test.v))
		}
	}
	_, err := lisp.Count(lisp.Int(1))
	var cerr *lisp.CapabilityError
	assert.ErrorAs(t, err, &cerr)
}
