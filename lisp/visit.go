// Copyright © 2024 The ELPS authors

package lisp

import "log"

// Visitor handles every kind of Value.  Each method receives the typed
// value; adding a kind adds a method, so every Visitor implementation must
// be extended along with the Kind enumeration.
type Visitor[R any] interface {
	VisitNil(*NilValue) R
	VisitBoolean(*Boolean) R
	VisitInteger(*Integer) R
	VisitBigInteger(*BigInteger) R
	VisitReal(*Real) R
	VisitRatio(*Ratio) R
	VisitCharacter(*Character) R
	VisitString(*PersistentString) R
	VisitSymbol(*Symbol) R
	VisitKeyword(*Keyword) R
	VisitList(*List) R
	VisitVector(*Vector) R
	VisitArrayMap(*ArrayMap) R
	VisitHashMap(*HashMap) R
	VisitSortedMap(*SortedMap) R
	VisitHashSet(*HashSet) R
	VisitSortedSet(*SortedSet) R
	VisitCons(*Cons) R
	VisitRange(*Range) R
	VisitIntegerRange(*IntegerRange) R
	VisitRepeat(*Repeat) R
	VisitLazySeq(*LazySeq) R
	VisitArraySeq(*ArraySeq) R
	VisitVectorSeq(*VectorSeq) R
	VisitStringSeq(*StringSeq) R
	VisitMapSeq(*MapSeq) R
	VisitSetSeq(*SetSeq) R
	VisitIterator(*Iterator) R
	VisitNativeFunction(*NativeFunction) R
	VisitCompiledFunction(*CompiledFunction) R
	VisitMultiFunction(*MultiFunction) R
	VisitVar(*Var) R
	VisitVarThreadBinding(*VarThreadBinding) R
	VisitVarUnboundRoot(*VarUnboundRoot) R
	VisitNamespace(*Namespace) R
	VisitAtom(*Atom) R
	VisitVolatile(*Volatile) R
	VisitReduced(*Reduced) R
	VisitDelay(*Delay) R
	VisitFuture(*Future) R
	VisitTaggedLiteral(*TaggedLiteral) R
}

// Visit calls the method of vis corresponding to the kind of v.  A value of
// a type outside the closed set of kinds is an internal defect and panics.
func Visit[R any](v Value, vis Visitor[R]) R {
	switch v := v.(type) {
	case *NilValue:
		return vis.VisitNil(v)
	case *Boolean:
		return vis.VisitBoolean(v)
	case *Integer:
		return vis.VisitInteger(v)
	case *BigInteger:
		return vis.VisitBigInteger(v)
	case *Real:
		return vis.VisitReal(v)
	case *Ratio:
		return vis.VisitRatio(v)
	case *Character:
		return vis.VisitCharacter(v)
	case *PersistentString:
		return vis.VisitString(v)
	case *Symbol:
		return vis.VisitSymbol(v)
	case *Keyword:
		return vis.VisitKeyword(v)
	case *List:
		return vis.VisitList(v)
	case *Vector:
		return vis.VisitVector(v)
	case *ArrayMap:
		return vis.VisitArrayMap(v)
	case *HashMap:
		return vis.VisitHashMap(v)
	case *SortedMap:
		return vis.VisitSortedMap(v)
	case *HashSet:
		return vis.VisitHashSet(v)
	case *SortedSet:
		return vis.VisitSortedSet(v)
	case *Cons:
		return vis.VisitCons(v)
	case *Range:
		return vis.VisitRange(v)
	case *IntegerRange:
		return vis.VisitIntegerRange(v)
	case *Repeat:
		return vis.VisitRepeat(v)
	case *LazySeq:
		return vis.VisitLazySeq(v)
	case *ArraySeq:
		return vis.VisitArraySeq(v)
	case *VectorSeq:
		return vis.VisitVectorSeq(v)
	case *StringSeq:
		return vis.VisitStringSeq(v)
	case *MapSeq:
		return vis.VisitMapSeq(v)
	case *SetSeq:
		return vis.VisitSetSeq(v)
	case *Iterator:
		return vis.VisitIterator(v)
	case *NativeFunction:
		return vis.VisitNativeFunction(v)
	case *CompiledFunction:
		return vis.VisitCompiledFunction(v)
	case *MultiFunction:
		return vis.VisitMultiFunction(v)
	case *Var:
		return vis.VisitVar(v)
	case *VarThreadBinding:
		return vis.VisitVarThreadBinding(v)
	case *VarUnboundRoot:
		return vis.VisitVarUnboundRoot(v)
	case *Namespace:
		return vis.VisitNamespace(v)
	case *Atom:
		return vis.VisitAtom(v)
	case *Volatile:
		return vis.VisitVolatile(v)
	case *Reduced:
		return vis.VisitReduced(v)
	case *Delay:
		return vis.VisitDelay(v)
	case *Future:
		return vis.VisitFuture(v)
	case *TaggedLiteral:
		return vis.VisitTaggedLiteral(v)
	}
	log.Panicf("invalid value kind: %T", v)
	panic("unreachable")
}

// Fallback handles values outside the capability group requested from a
// restricted visit.
type Fallback[R any] func(v Value) (R, error)

func restricted[R any, C Value](c Capability, v Value, fn func(C) (R, error), fallback Fallback[R]) (R, error) {
	if KindCapability(v.Kind()) != c {
		if fallback != nil {
			return fallback(v)
		}
		var zero R
		return zero, newCapabilityError(c, v)
	}
	typed, ok := v.(C)
	if !ok {
		log.Panicf("%s value does not implement %s: %T", v.Kind(), c, v)
	}
	return fn(typed)
}

// VisitSeqable calls fn with v if v is of a seqable kind and fallback
// otherwise.  A nil fallback returns a *CapabilityError.
func VisitSeqable[R any](v Value, fn func(Seqable) (R, error), fallback Fallback[R]) (R, error) {
	return restricted(CapSeqable, v, fn, fallback)
}

// VisitMapLike calls fn with v if v is of a map-like kind and fallback
// otherwise.  A nil fallback returns a *CapabilityError.
func VisitMapLike[R any](v Value, fn func(MapLike) (R, error), fallback Fallback[R]) (R, error) {
	return restricted(CapMapLike, v, fn, fallback)
}

// VisitSetLike calls fn with v if v is of a set-like kind and fallback
// otherwise.  A nil fallback returns a *CapabilityError.
func VisitSetLike[R any](v Value, fn func(SetLike) (R, error), fallback Fallback[R]) (R, error) {
	return restricted(CapSetLike, v, fn, fallback)
}

// VisitNumberLike calls fn with v if v is of a number-like kind and fallback
// otherwise.  A nil fallback returns a *CapabilityError.
func VisitNumberLike[R any](v Value, fn func(Number) (R, error), fallback Fallback[R]) (R, error) {
	return restricted(CapNumberLike, v, fn, fallback)
}
