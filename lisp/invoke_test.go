// Copyright © 2024 The ELPS authors

package lisp_test

import (
	"errors"
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/luthersystems/corelisp/lisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallExactUnambiguous(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 2, Variadic: true})
	a, b := lisp.Int(1), lisp.Int(2)
	_, err := lisp.DynamicCall(th, rec.Fun, a, b)
	require.NoError(t, err)
	call := rec.Last(t)
	assert.Equal(t, 3, call.Slot)
	require.Len(t, call.Args, 3)
	assert.Same(t, a, call.Args[0])
	assert.Same(t, b, call.Args[1])
	assert.True(t, lisp.IsNil(call.Args[2]), "rest is %s", lisp.Print(call.Args[2]))
}

func TestCallPacking(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 2, Variadic: true})
	a, b, c := lisp.Int(1), lisp.Int(2), lisp.Int(3)
	_, err := lisp.DynamicCall(th, rec.Fun, a, b, c)
	require.NoError(t, err)
	call := rec.Last(t)
	assert.Equal(t, 3, call.Slot)
	require.Len(t, call.Args, 3)
	assert.Same(t, a, call.Args[0])
	assert.Same(t, b, call.Args[1])
	assert.Equal(t, lisp.KindArraySeq, call.Args[2].Kind())
	assert.True(t, lisp.Equal(lisp.NewVector(c), call.Args[2]))
}

func TestCallDirect(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 3})
	args := lisptest.IntArgs(3)
	_, err := lisp.DynamicCall(th, rec.Fun, args...)
	require.NoError(t, err)
	call := rec.Last(t)
	assert.Equal(t, 3, call.Slot)
	assert.Equal(t, args, call.Args)

	_, err = lisp.DynamicCall(th, rec.Fun, lisptest.IntArgs(4)...)
	var aerr *lisp.ArityError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 4, aerr.N)
	assert.Equal(t, "#<native-function f>", aerr.Form)
	assert.Equal(t, lisp.CondArity, lisp.Condition(err))
	assert.Len(t, rec.Calls, 1)
}

func TestCallAmbiguous(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f",
		lisp.FunArity{Required: 1},
		lisp.FunArity{Required: 1, Variadic: true})

	_, err := lisp.DynamicCall(th, rec.Fun, lisp.Int(1))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Last(t).Slot)

	_, err = lisp.DynamicCall(th, rec.Fun, lisp.Int(1), lisp.Int(2))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Last(t).Slot)

	_, err = lisp.DynamicCall(th, rec.Fun)
	assert.Error(t, err)
}

func TestCallMissingLowerArity(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 0}, lisp.FunArity{Required: 2})
	_, err := lisp.DynamicCall(th, rec.Fun, lisp.Int(1))
	var aerr *lisp.ArityError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.N)
}

func TestCallBeyondMaxArity(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 3, Variadic: true})
	args := lisptest.IntArgs(13)
	_, err := lisp.DynamicCall(th, rec.Fun, args...)
	require.NoError(t, err)
	call := rec.Last(t)
	assert.Equal(t, 4, call.Slot)
	require.Len(t, call.Args, 4)
	assert.Equal(t, args[:3], call.Args[:3])
	rest, err := lisp.ToSlice(call.Args[3])
	require.NoError(t, err)
	assert.Equal(t, args[3:], rest)

	fixed := lisptest.NewRecorder(t, "g", lisp.FunArity{Required: 10})
	_, err = lisp.DynamicCall(th, fixed.Fun, args...)
	var aerr *lisp.ArityError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 13, aerr.N)
	assert.False(t, aerr.AtLeast)
}

func TestCallWithRestLazy(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 10, Variadic: true})
	var positional [lisp.MaxFixedArity]lisp.Value
	copy(positional[:], lisptest.IntArgs(lisp.MaxFixedArity))
	rest, realized := lisptest.CountingSeq()
	_, err := lisp.CallWithRest(th, rec.Fun, positional, rest)
	require.NoError(t, err)
	assert.Equal(t, 1, realized())
	call := rec.Last(t)
	assert.Equal(t, 11, call.Slot)
	prefix, err := lisp.Take(call.Args[10], 3)
	require.NoError(t, err)
	assert.True(t, lisp.Equal(lisptest.Ints(0, 1, 2), lisp.NewList(prefix...)))

	// Positional arguments past the attachment point precede rest.
	rec = lisptest.NewRecorder(t, "g", lisp.FunArity{Required: 8, Variadic: true})
	_, err = lisp.CallWithRest(th, rec.Fun, positional, lisptest.Ints(11, 12))
	require.NoError(t, err)
	call = rec.Last(t)
	assert.Equal(t, 9, call.Slot)
	packed, err := lisp.ToSlice(call.Args[8])
	require.NoError(t, err)
	assert.True(t, lisp.Equal(lisptest.Ints(9, 10, 11, 12), lisp.NewList(packed...)))

	// An empty rest is an ordinary call with MaxFixedArity arguments.
	_, err = lisp.CallWithRest(th, rec.Fun, positional, lisp.Nil())
	require.NoError(t, err)
	assert.Equal(t, 9, rec.Last(t).Slot)
	assert.Equal(t, lisp.KindArraySeq, rec.Last(t).Args[8].Kind())
}

func TestApplyBoundedForcing(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 2})
	seq, realized := lisptest.CountingSeq()
	_, err := lisp.Apply(th, rec.Fun, seq)
	var aerr *lisp.ArityError
	require.ErrorAs(t, err, &aerr)
	assert.True(t, aerr.AtLeast)
	assert.LessOrEqual(t, realized(), 3)
	assert.Empty(t, rec.Calls)
}

func TestApplyVariadicInfinite(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 1, Variadic: true})
	seq, realized := lisptest.CountingSeq()
	_, err := lisp.Apply(th, rec.Fun, seq)
	require.NoError(t, err)
	assert.LessOrEqual(t, realized(), lisp.MaxFixedArity+1)
	call := rec.Last(t)
	assert.Equal(t, 2, call.Slot)
	assert.True(t, lisp.Equal(lisp.Int(0), call.Args[0]))
	prefix, err := lisp.Take(call.Args[1], 12)
	require.NoError(t, err)
	assert.True(t, lisp.Equal(lisptest.Ints(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12), lisp.NewList(prefix...)))
}

func TestApplyNotCallable(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	_, err := lisp.Apply(th, lisp.Int(1), lisp.NewList(lisp.Int(1), lisp.Int(2), lisp.Int(3)))
	var arityErr *lisp.ArityError
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, 3, arityErr.N)
	assert.False(t, arityErr.AtLeast)
	assert.EqualError(t, err, "invalid number of arguments: 3 passed to 1")

	_, err = lisp.Apply(th, lisp.Int(1), lisp.NaturalNumbers())
	require.ErrorAs(t, err, &arityErr)
	assert.Equal(t, lisp.MaxFixedArity+1, arityErr.N)
	assert.True(t, arityErr.AtLeast)
}

func TestApplyFinite(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 2, Variadic: true})
	coll := lisp.NewVector(lisp.Int(1), lisp.Int(2), lisp.Int(3))
	v, err := lisp.Apply(th, rec.Fun, coll)
	require.NoError(t, err)
	assert.Equal(t, "[1 2 (3)]", lisp.Print(v))
	// Apply does not consume the collection.
	assert.Equal(t, "[1 2 3]", lisp.Print(coll))

	v, err = lisp.Apply(th, rec.Fun, lisp.NewVector(lisp.Int(1), lisp.Int(2)))
	require.NoError(t, err)
	assert.Equal(t, "[1 2 nil]", lisp.Print(v))

	_, err = lisp.Apply(th, rec.Fun, lisp.Int(3))
	var cerr *lisp.CapabilityError
	assert.ErrorAs(t, err, &cerr)
}

func TestCallVarTarget(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	rec := lisptest.NewRecorder(t, "f", lisp.FunArity{Required: 1})
	inner := rt.InternVar("user", "inner").BindRoot(rec.Fun)
	outer := rt.InternVar("user", "outer").BindRoot(inner)
	v, err := lisp.DynamicCall(th, outer, lisp.Int(7))
	require.NoError(t, err)
	assert.Equal(t, "[7]", lisp.Print(v))

	unbound := rt.InternVar("user", "missing")
	_, err = lisp.DynamicCall(th, unbound)
	var uerr *lisp.UnboundVarError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "user/missing", uerr.Var)
}

func TestCallNotCallable(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	_, err := lisp.DynamicCall(th, lisp.Int(3), lisp.Int(1))
	var aerr *lisp.ArityError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.N)
	assert.Equal(t, "3", aerr.Form)
}

func TestCallSignalPropagates(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	tag := lisp.Kw("done")
	thrower := lisp.MustFunction("thrower", lisp.FunArity{Required: 0, Fn: func(*lisp.Thread, []lisp.Value) (lisp.Value, error) {
		return nil, lisp.Throw(tag, lisp.Int(42))
	}})
	caller := lisp.MustFunction("caller", lisp.FunArity{Required: 0, Fn: func(th *lisp.Thread, _ []lisp.Value) (lisp.Value, error) {
		return lisp.DynamicCall(th, thrower)
	}})
	_, err := lisp.Apply(th, caller, lisp.Nil())
	sig, ok := lisp.IsSignal(err)
	require.True(t, ok, "error %v is not a signal", err)
	assert.Same(t, tag, sig.Tag)
	assert.Equal(t, "42", lisp.Print(sig.Payload))
	assert.Equal(t, lisp.CondSignal, lisp.Condition(err))
}

func TestCallableKeywordsAndMaps(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	m, err := lisp.NewArrayMap(lisp.Kw("a"), lisp.Int(1))
	require.NoError(t, err)

	v, err := lisp.DynamicCall(th, lisp.Kw("a"), m)
	require.NoError(t, err)
	assert.Equal(t, "1", lisp.Print(v))
	v, err = lisp.DynamicCall(th, lisp.Kw("b"), m, lisp.Int(0))
	require.NoError(t, err)
	assert.Equal(t, "0", lisp.Print(v))
	v, err = lisp.DynamicCall(th, lisp.Kw("b"), lisp.Int(5))
	require.NoError(t, err)
	assert.True(t, lisp.IsNil(v))

	v, err = lisp.DynamicCall(th, m, lisp.Kw("a"))
	require.NoError(t, err)
	assert.Equal(t, "1", lisp.Print(v))
	v, err = lisp.DynamicCall(th, m, lisp.Kw("z"), lisp.String("dflt"))
	require.NoError(t, err)
	assert.Equal(t, `"dflt"`, lisp.Print(v))

	_, err = lisp.DynamicCall(th, m)
	assert.Error(t, err)
}

func TestMultiFunction(t *testing.T) {
	th := lisptest.NewRuntime(t).NewThread()
	first := lisp.MustFunction("first", lisp.FunArity{Required: 1, Variadic: true, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		return args[0], nil
	}})
	area := lisp.NewMultiFunction("shapes/area", first)
	area.AddMethod(lisp.Kw("square"), lisp.MustFunction("square", lisp.FunArity{Required: 2, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		n := args[1].(*lisp.Integer).I
		return lisp.Int(n * n), nil
	}}))
	v, err := lisp.DynamicCall(th, area, lisp.Kw("square"), lisp.Int(3))
	require.NoError(t, err)
	assert.Equal(t, "9", lisp.Print(v))

	_, err = lisp.DynamicCall(th, area, lisp.Kw("circle"), lisp.Int(3))
	assert.True(t, errors.Is(err, lisp.ErrNoMethod), "unexpected error %v", err)

	area.AddMethod(lisp.DefaultDispatch, lisp.MustFunction("unknown", lisp.FunArity{Required: 0, Variadic: true, Fn: func(*lisp.Thread, []lisp.Value) (lisp.Value, error) {
		return lisp.Int(-1), nil
	}}))
	v, err = lisp.DynamicCall(th, area, lisp.Kw("circle"), lisp.Int(3))
	require.NoError(t, err)
	assert.Equal(t, "-1", lisp.Print(v))

	assert.True(t, area.RemoveMethod(lisp.Kw("square")))
	assert.False(t, area.RemoveMethod(lisp.Kw("square")))
	assert.Equal(t, "[:default]", lisp.Print(lisp.NewVector(area.DispatchValues()...)))
}

func TestCallSuite(t *testing.T) {
	add := lisp.MustFunction("add",
		lisp.FunArity{Required: 0, Fn: func(*lisp.Thread, []lisp.Value) (lisp.Value, error) {
			return lisp.Int(0), nil
		}},
		lisp.FunArity{Required: 1, Variadic: true, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
			sum := args[0].(*lisp.Integer).I
			rest, err := lisp.ToSlice(args[1])
			if err != nil {
				return nil, err
			}
			for _, x := range rest {
				sum += x.(*lisp.Integer).I
			}
			return lisp.Int(sum), nil
		}})
	lisptest.RunCallSuite(t, lisptest.CallSuite{
		{"add", map[string]lisp.Value{"user/add": add}, lisptest.CallSequence{
			{"user/add", nil, "0", ""},
			{"user/add", lisptest.IntArgs(1), "1", ""},
			{"user/add", lisptest.IntArgs(4), "10", ""},
			{"user/add", lisptest.IntArgs(15), "120", ""},
		}},
		{"lookup", map[string]lisp.Value{"user/k": lisp.Kw("k")}, lisptest.CallSequence{
			{"user/k", []lisp.Value{lisp.Nil()}, "nil", ""},
			{"user/k", nil, "", lisp.CondArity},
		}},
	})
}
