// Copyright © 2024 The ELPS authors

package lisp

import "errors"

// DynamicCall invokes f with args on behalf of t.  If f is a Var it is
// replaced by its value visible to t, repeatedly, before the entry point is
// selected.  Calls supplying more than MaxFixedArity arguments deliver the
// surplus through CallWithRest.
func DynamicCall(t *Thread, f Value, args ...Value) (Value, error) {
	if err := t.checkCancelled(); err != nil {
		return nil, err
	}
	fun, err := t.resolveCallable(f, len(args))
	if err != nil {
		return nil, err
	}
	if len(args) > MaxFixedArity {
		var positional [MaxFixedArity]Value
		copy(positional[:], args)
		return callWithRest(t, fun, positional, NewList(args[MaxFixedArity:]...), len(args), false)
	}
	return invoke(t, fun, args)
}

// CallWithRest invokes f with MaxFixedArity positional arguments followed by
// the elements of rest.  rest may be lazy; its elements are not realized
// beyond what f consumes.
func CallWithRest(t *Thread, f Value, positional [MaxFixedArity]Value, rest Value) (Value, error) {
	if err := t.checkCancelled(); err != nil {
		return nil, err
	}
	fun, err := t.resolveCallable(f, MaxFixedArity+1)
	if err != nil {
		return nil, err
	}
	return callWithRest(t, fun, positional, rest, MaxFixedArity+1, true)
}

// callWithRest packs positional[k:] in front of rest where k is the
// attachment point of fun.  The count n is reported in arity errors; atLeast
// marks counts for which rest was not measured.
func callWithRest(t *Thread, fun Callable, positional [MaxFixedArity]Value, rest Value, n int, atLeast bool) (Value, error) {
	s, err := SeqOf(rest)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return invoke(t, fun, positional[:])
	}
	plan, err := ResolveArity(fun.Arity(), MaxFixedArity+1)
	if err != nil {
		return nil, &ArityError{N: n, AtLeast: atLeast, Form: Print(fun)}
	}
	entry := fun.Entry(plan.Slot)
	if entry == nil {
		return nil, &ArityError{N: n, AtLeast: atLeast, Form: Print(fun)}
	}
	var packed Value = s
	for i := MaxFixedArity - 1; i >= plan.Split; i-- {
		packed = NewCons(positional[i], packed)
	}
	args := make([]Value, plan.Split+1)
	copy(args, positional[:plan.Split])
	args[plan.Split] = packed
	return enter(t, fun, entry, args)
}

// Apply invokes f with the elements of coll as arguments.  At most F+1
// elements of coll are realized for a callable without a rest parameter and
// at most MaxFixedArity+1 for one with a rest parameter, so applying to an
// infinite sequence fails or packs rather than diverging.
func Apply(t *Thread, f Value, coll Value) (Value, error) {
	if err := t.checkCancelled(); err != nil {
		return nil, err
	}
	fun, err := t.resolveCallable(f, 0)
	var arityErr *ArityError
	if errors.As(err, &arityErr) {
		// f is not callable; report the number of supplied arguments.
		args, terr := Take(coll, MaxFixedArity+1)
		if terr != nil {
			return nil, terr
		}
		arityErr.N = len(args)
		arityErr.AtLeast = len(args) > MaxFixedArity
		return nil, arityErr
	}
	if err != nil {
		return nil, err
	}
	flags := fun.Arity()
	limit := flags.Fixed() + 1
	if flags.Variadic() {
		limit = MaxFixedArity + 1
	}
	s, err := SeqOf(coll)
	if err != nil {
		return nil, err
	}
	var args []Value
	for s != nil {
		args = append(args, s.First())
		if len(args) == limit {
			break
		}
		if s, err = s.Next(); err != nil {
			return nil, err
		}
	}
	if len(args) <= MaxFixedArity {
		if !flags.Variadic() && len(args) == limit {
			return nil, &ArityError{N: len(args), AtLeast: true, Form: Print(fun)}
		}
		return invoke(t, fun, args)
	}
	// s is the cell holding args[MaxFixedArity]; its successors are left
	// unrealized.
	var positional [MaxFixedArity]Value
	copy(positional[:], args)
	return callWithRest(t, fun, positional, s, len(args), true)
}

func invoke(t *Thread, fun Callable, args []Value) (Value, error) {
	plan, err := ResolveArity(fun.Arity(), len(args))
	if err != nil {
		return nil, newArityError(len(args), fun)
	}
	entry := fun.Entry(plan.Slot)
	if entry == nil {
		return nil, newArityError(len(args), fun)
	}
	return enter(t, fun, entry, plan.deliver(args))
}

func enter(t *Thread, fun Callable, entry Entry, args []Value) (Value, error) {
	if p := t.rt.Profiler; p != nil && p.IsEnabled() {
		defer p.Start(t, fun)()
	}
	return entry(t, args)
}

// resolveCallable replaces Vars by their visible values until a non-Var is
// found.  n is reported if the result is not callable.
func (t *Thread) resolveCallable(f Value, n int) (Callable, error) {
	for {
		v, ok := f.(*Var)
		if !ok {
			break
		}
		var err error
		if f, err = t.Deref(v); err != nil {
			return nil, err
		}
	}
	fun, ok := f.(Callable)
	if !ok {
		return nil, newArityError(n, f)
	}
	return fun, nil
}
