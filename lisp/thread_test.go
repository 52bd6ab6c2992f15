// Copyright © 2024 The ELPS authors

package lisp_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/luthersystems/corelisp/lisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func derefInt(t *testing.T, th *lisp.Thread, v *lisp.Var) int64 {
	t.Helper()
	val, err := th.Deref(v)
	require.NoError(t, err)
	n, ok := val.(*lisp.Integer)
	require.True(t, ok, "%s is %s", v.QualifiedName(), lisp.Print(val))
	return n.I
}

func TestBindingStackScoping(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))

	require.NoError(t, th.PushBindings(lisp.Bindings{x: lisp.Int(2)}))
	assert.EqualValues(t, 2, derefInt(t, th, x))
	require.NoError(t, th.PushBindings(lisp.Bindings{x: lisp.Int(3)}))
	assert.EqualValues(t, 3, derefInt(t, th, x))
	require.NoError(t, th.PopBindings())
	assert.EqualValues(t, 2, derefInt(t, th, x))
	require.NoError(t, th.PopBindings())
	assert.EqualValues(t, 1, derefInt(t, th, x))

	err := th.PopBindings()
	assert.True(t, errors.Is(err, lisp.ErrMismatchedPop), "unexpected error %v", err)
	assert.Equal(t, lisp.CondBinding, lisp.Condition(err))
	assert.True(t, x.IsThreadBound())
}

func TestGoNilBindsNil(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").BindRoot(nil)
	v, err := th.Deref(x)
	require.NoError(t, err)
	assert.True(t, lisp.IsNil(v))
	assert.True(t, x.IsBound())
	_, err = lisp.DynamicCall(th, x)
	var arityErr *lisp.ArityError
	assert.ErrorAs(t, err, &arityErr, "nil is not callable")

	y := rt.InternVar("user", "y").SetDynamic(true).BindRoot(lisp.Int(1))
	require.NoError(t, th.PushBindings(lisp.Bindings{y: nil}))
	v, err = th.Deref(y)
	require.NoError(t, err)
	assert.True(t, lisp.IsNil(v))
	require.NoError(t, th.Set(y, nil))
	v, _ = th.Deref(y)
	assert.True(t, lisp.IsNil(v))
	require.NoError(t, th.PopBindings())
	assert.EqualValues(t, 1, derefInt(t, th, y))
}

func TestPushNonDynamic(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))
	y := rt.InternVar("user", "y").BindRoot(lisp.Int(1))
	z := rt.InternVar("user", "z").BindRoot(lisp.Int(1))

	err := th.PushBindings(lisp.Bindings{x: lisp.Int(2), y: lisp.Int(5), z: lisp.Int(5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lisp.ErrNonDynamicBinding))
	var berr *lisp.BindingError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "user/y", berr.Var)
	assert.Contains(t, err.Error(), "user/z")

	assert.False(t, y.IsThreadBound())
	assert.False(t, x.IsThreadBound(), "no frame is pushed when validation fails")
	assert.Equal(t, 0, th.Depth())
	assert.EqualValues(t, 1, derefInt(t, th, x))
}

func TestPushEmptyBindings(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))

	require.NoError(t, th.PushBindings(nil))
	assert.Equal(t, 0, th.Depth())

	require.NoError(t, th.PushBindings(lisp.Bindings{x: lisp.Int(2)}))
	require.NoError(t, th.PushBindings(lisp.Bindings{}))
	assert.Equal(t, 2, th.Depth())
	assert.EqualValues(t, 2, derefInt(t, th, x))
	require.NoError(t, th.PopBindings())
	assert.EqualValues(t, 2, derefInt(t, th, x))
	require.NoError(t, th.PopBindings())
	assert.EqualValues(t, 1, derefInt(t, th, x))
}

func TestGetBindings(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true)
	y := rt.InternVar("user", "y").SetDynamic(true)
	assert.Empty(t, th.Bindings())

	require.NoError(t, th.PushBindings(lisp.Bindings{x: lisp.Int(1)}))
	require.NoError(t, th.PushBindings(lisp.Bindings{y: lisp.Int(2)}))
	b := th.Bindings()
	assert.Len(t, b, 2)
	assert.Equal(t, "1", lisp.Print(b[x]))
	assert.Equal(t, "2", lisp.Print(b[y]))

	// The copy is detached from the thread.
	delete(b, x)
	assert.Len(t, th.Bindings(), 2)
}

func TestUnboundVar(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true)
	assert.False(t, x.IsBound())
	assert.Equal(t, "#<unbound #'user/x>", lisp.Print(x.Root()))

	_, err := th.Deref(x)
	var uerr *lisp.UnboundVarError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "user/x", uerr.Var)
	assert.Equal(t, lisp.CondUnboundVar, lisp.Condition(err))

	// A thread binding is visible even without a root.
	require.NoError(t, th.WithBindings(lisp.Bindings{x: lisp.Int(4)}, func() error {
		assert.EqualValues(t, 4, derefInt(t, th, x))
		return nil
	}))

	x.BindRoot(lisp.Int(1))
	assert.True(t, x.IsBound())
	x.Unbind()
	_, err = th.Deref(x)
	assert.Error(t, err)
}

func TestWithBindingsPopsOnEveryExit(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))
	b := lisp.Bindings{x: lisp.Int(2)}

	errBody := errors.New("body failed")
	err := th.WithBindings(b, func() error {
		assert.EqualValues(t, 2, derefInt(t, th, x))
		return errBody
	})
	assert.Same(t, errBody, err)
	assert.Equal(t, 0, th.Depth())

	signal := lisp.Throw(lisp.Kw("tag"), lisp.Int(9))
	err = th.WithBindings(b, func() error { return signal })
	assert.Same(t, signal, err)
	assert.Equal(t, 0, th.Depth())

	assert.Panics(t, func() {
		_ = th.WithBindings(b, func() error { panic("interrupted") })
	})
	assert.Equal(t, 0, th.Depth())
	assert.EqualValues(t, 1, derefInt(t, th, x))
}

func TestThreadSet(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))
	y := rt.InternVar("user", "y").SetDynamic(true).BindRoot(lisp.Int(1))

	err := th.Set(x, lisp.Int(5))
	assert.True(t, errors.Is(err, lisp.ErrNotThreadBound))

	require.NoError(t, th.WithBindings(lisp.Bindings{x: lisp.Int(2)}, func() error {
		return th.WithBindings(lisp.Bindings{y: lisp.Int(2)}, func() error {
			// x was bound by the outer frame so the change outlives this
			// frame.
			return th.Set(x, lisp.Int(3))
		})
	}))
	assert.EqualValues(t, 1, derefInt(t, th, x), "root is untouched")

	require.NoError(t, th.WithBindings(lisp.Bindings{x: lisp.Int(2)}, func() error {
		err := th.WithBindings(lisp.Bindings{y: lisp.Int(2)}, func() error {
			return th.Set(x, lisp.Int(3))
		})
		assert.EqualValues(t, 3, derefInt(t, th, x))
		return err
	}))
}

func TestThreadIsolation(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	t1 := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))
	require.NoError(t, t1.PushBindings(lisp.Bindings{x: lisp.Int(2)}))

	plain := rt.NewThread()
	forked := t1.Fork()
	var wg sync.WaitGroup
	var plainVal, forkedVal lisp.Value
	var plainErr, forkedErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		plainVal, plainErr = plain.Deref(x)
	}()
	go func() {
		defer wg.Done()
		forkedVal, forkedErr = forked.Deref(x)
		if forkedErr == nil {
			// Changes in the fork are not visible to its parent.
			forkedErr = forked.Set(x, lisp.Int(7))
		}
	}()
	wg.Wait()
	require.NoError(t, plainErr)
	require.NoError(t, forkedErr)
	assert.Equal(t, "1", lisp.Print(plainVal))
	assert.Equal(t, "2", lisp.Print(forkedVal))
	assert.EqualValues(t, 2, derefInt(t, t1, x))
}

func TestThreadOwnership(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	x := rt.InternVar("user", "x").SetDynamic(true).BindRoot(lisp.Int(1))
	derefInt(t, th, x)

	done := make(chan interface{})
	go func() {
		defer func() { done <- recover() }()
		_, _ = th.Deref(x)
	}()
	assert.NotNil(t, <-done, "using a thread from another goroutine must panic")
}

func TestLoadScope(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	ns, err := th.CurrentNamespace()
	require.NoError(t, err)
	assert.Equal(t, lisp.DefaultUserNamespace, ns.Name)

	lib := rt.FindOrCreateNamespace("lib")
	err = th.WithLoadScope(lib, "lib.lisp", func() error {
		ns, err := th.CurrentNamespace()
		if err != nil {
			return err
		}
		assert.Same(t, lib, ns)
		file, err := th.Deref(rt.FileVar())
		if err != nil {
			return err
		}
		assert.Equal(t, `"lib.lisp"`, lisp.Print(file))
		return nil
	})
	require.NoError(t, err)
	ns, err = th.CurrentNamespace()
	require.NoError(t, err)
	assert.Equal(t, lisp.DefaultUserNamespace, ns.Name)
	file, err := th.Deref(rt.FileVar())
	require.NoError(t, err)
	assert.Equal(t, `""`, lisp.Print(file))
}

func TestVarMetadata(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	th := rt.NewThread()
	v := rt.InternVar("user", "m")
	assert.False(t, v.IsMacro())
	v.SetMacro().SetDoc("expands things")
	assert.True(t, v.IsMacro())
	assert.Equal(t, "expands things", v.Doc())
	assert.Equal(t, 2, v.Meta().Count())

	dissoc := lisp.MustFunction("dissoc", lisp.FunArity{Required: 2, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		m, err := args[0].(lisp.MapLike).Dissoc(args[1])
		if err != nil {
			return nil, err
		}
		return m, nil
	}})
	_, err := v.AlterMeta(th, dissoc, lisp.MetaMacro)
	require.NoError(t, err)
	assert.False(t, v.IsMacro())
}

func TestAlterRoot(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	v := rt.InternVar("user", "counter").BindRoot(lisp.Int(0))
	inc := lisp.MustFunction("inc", lisp.FunArity{Required: 1, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		return lisp.Int(args[0].(*lisp.Integer).I + 1), nil
	}})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			th := rt.NewThread()
			for j := 0; j < 50; j++ {
				_, err := v.AlterRoot(th, inc)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, "400", lisp.Print(v.Root()))

	_, err := rt.InternVar("user", "nothing").AlterRoot(rt.NewThread(), inc)
	var uerr *lisp.UnboundVarError
	assert.ErrorAs(t, err, &uerr)
}

func TestNamespaceRegistry(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	v := rt.InternVar("app", "x")
	assert.Same(t, v, rt.InternVar("app", "x"))
	found, ok := rt.FindVar("app/x")
	require.True(t, ok)
	assert.Same(t, v, found)
	_, ok = rt.FindVar("app/y")
	assert.False(t, ok)
	_, ok = rt.FindVar("x")
	assert.False(t, ok)

	lang, ok := rt.FindVar(lisp.DefaultLangNamespace + "/" + lisp.NSVarName)
	require.True(t, ok)
	assert.Same(t, rt.NSVar(), lang)
	assert.True(t, lang.IsDynamic())

	app, ok := rt.FindNamespace("app")
	require.True(t, ok)
	assert.Equal(t, []*lisp.Var{v}, app.Vars())
	assert.True(t, app.Unmap("x"))
	assert.False(t, app.Unmap("x"))
	_, ok = app.FindVar("x")
	assert.False(t, ok)

	assert.False(t, rt.RemoveNamespace(lisp.DefaultLangNamespace))
	assert.True(t, rt.RemoveNamespace("app"))
	names := []string{}
	for _, ns := range rt.Namespaces() {
		names = append(names, ns.Name)
	}
	assert.Equal(t, []string{lisp.DefaultLangNamespace, lisp.DefaultUserNamespace}, names)
}
