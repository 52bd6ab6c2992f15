// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/big"
	"strings"
)

// Equal reports whether a and b are logically equal.  Sequential values
// (lists, vectors and sequences) are equal when their elements are equal in
// order, regardless of kind.  Maps compare entries and sets compare members
// without regard to their representation.  Exact numbers compare by value;
// reals only equal reals.
//
// Traversing a lazy sequence that fails to realize makes the values unequal.
// Comparing two distinct infinite sequences does not terminate.
func Equal(a, b Value) bool {
	if a == b {
		return true
	}
	ka, kb := a.Kind(), b.Kind()
	switch {
	case isSequentialKind(ka) || isSequentialKind(kb):
		if !isSequentialKind(ka) || !isSequentialKind(kb) {
			return false
		}
		return equalSeq(a, b)
	case KindCapability(ka) == CapNumberLike && KindCapability(kb) == CapNumberLike:
		return equalNum(a.(Number), b.(Number))
	case KindCapability(ka) == CapMapLike && KindCapability(kb) == CapMapLike:
		return equalMap(a.(MapLike), b.(MapLike))
	case KindCapability(ka) == CapSetLike && KindCapability(kb) == CapSetLike:
		return equalSet(a.(SetLike), b.(SetLike))
	}
	if ka != kb {
		return false
	}
	switch a := a.(type) {
	case *NilValue:
		return true
	case *Boolean:
		return a.B == b.(*Boolean).B
	case *Character:
		return a.C == b.(*Character).C
	case *PersistentString:
		return a.S == b.(*PersistentString).S
	case *Symbol:
		b := b.(*Symbol)
		return a.NS == b.NS && a.Name == b.Name
	case *Keyword:
		b := b.(*Keyword)
		return a.NS == b.NS && a.Name == b.Name
	case *Reduced:
		return Equal(a.Val, b.(*Reduced).Val)
	case *TaggedLiteral:
		b := b.(*TaggedLiteral)
		return Equal(a.Tag, b.Tag) && Equal(a.Form, b.Form)
	}
	// Reference types (functions, vars, namespaces, atoms, ...) have identity
	// semantics.
	return false
}

// VeryEqual reports whether a and b are Equal and have the same kind.  An
// empty list and an empty vector are Equal but not VeryEqual.
func VeryEqual(a, b Value) bool {
	return a.Kind() == b.Kind() && Equal(a, b)
}

func equalSeq(a, b Value) bool {
	sa, err := SeqOf(a)
	if err != nil {
		return false
	}
	sb, err := SeqOf(b)
	if err != nil {
		return false
	}
	for sa != nil && sb != nil {
		if !Equal(sa.First(), sb.First()) {
			return false
		}
		if sa, err = sa.Next(); err != nil {
			return false
		}
		if sb, err = sb.Next(); err != nil {
			return false
		}
	}
	return sa == nil && sb == nil
}

func equalNum(a, b Number) bool {
	ra, rb := a.Rat(), b.Rat()
	if ra == nil || rb == nil {
		if ra != nil || rb != nil {
			return false
		}
		return a.Float64() == b.Float64()
	}
	return ra.Cmp(rb) == 0
}

func equalMap(a, b MapLike) bool {
	if a.Count() != b.Count() {
		return false
	}
	s, err := a.Seq()
	for ; s != nil && err == nil; s, err = s.Next() {
		e := s.First().(*Vector)
		v, ok := b.Get(e.vals[0])
		if !ok || !Equal(v, e.vals[1]) {
			return false
		}
	}
	return err == nil
}

func equalSet(a, b SetLike) bool {
	if a.Count() != b.Count() {
		return false
	}
	s, err := a.Seq()
	for ; s != nil && err == nil; s, err = s.Next() {
		if !b.Contains(s.First()) {
			return false
		}
	}
	return err == nil
}

// Hash returns a hash of v consistent with Equal.  Values with identity
// semantics hash by kind only; they are rarely used as keys and always
// compare unequal to other instances.  Hashing an infinite sequence does
// not terminate.
func Hash(v Value) uint64 {
	h := fnv.New64a()
	write := func(tag byte, s string) uint64 {
		h.Reset()
		h.Write([]byte{tag})
		h.Write([]byte(s))
		return h.Sum64()
	}
	switch k := v.Kind(); {
	case isSequentialKind(k):
		var acc uint64 = 1
		s, err := SeqOf(v)
		for ; s != nil && err == nil; s, err = s.Next() {
			acc = 31*acc + Hash(s.First())
		}
		return acc
	case KindCapability(k) == CapMapLike:
		var acc uint64
		s, err := v.(MapLike).Seq()
		for ; s != nil && err == nil; s, err = s.Next() {
			e := s.First().(*Vector)
			acc += Hash(e.vals[0]) ^ Hash(e.vals[1])
		}
		return acc
	case KindCapability(k) == CapSetLike:
		var acc uint64
		s, err := v.(SetLike).Seq()
		for ; s != nil && err == nil; s, err = s.Next() {
			acc += Hash(s.First())
		}
		return acc
	case KindCapability(k) == CapNumberLike:
		n := v.(Number)
		if r := n.Rat(); r != nil {
			return write('n', r.RatString())
		}
		return write('f', fmt.Sprint(math.Float64bits(n.Float64())))
	}
	switch v := v.(type) {
	case *NilValue:
		return 0
	case *Boolean:
		if v.B {
			return 1231
		}
		return 1237
	case *Character:
		return write('c', string(v.C))
	case *PersistentString:
		return write('s', v.S)
	case *Symbol:
		return write('y', v.QualifiedName())
	case *Keyword:
		return write('k', v.QualifiedName())
	case *Reduced:
		return Hash(v.Val) + 7
	case *TaggedLiteral:
		return Hash(v.Tag)*31 + Hash(v.Form)
	}
	return write('r', v.Kind().String())
}

// Compare orders scalar values for sorted collections.  Numbers compare with
// numbers; strings, symbols, keywords, characters and booleans compare with
// values of their own kind; nil sorts before everything.  Other combinations
// are an error.
func Compare(a, b Value) (int, error) {
	if IsNil(a) || IsNil(b) {
		switch {
		case IsNil(a) && IsNil(b):
			return 0, nil
		case IsNil(a):
			return -1, nil
		default:
			return 1, nil
		}
	}
	na, okA := a.(Number)
	nb, okB := b.(Number)
	if okA && okB {
		return compareNumbers(na, nb), nil
	}
	if a.Kind() == b.Kind() {
		switch a := a.(type) {
		case *PersistentString:
			return strings.Compare(a.S, b.(*PersistentString).S), nil
		case *Symbol:
			return strings.Compare(a.QualifiedName(), b.(*Symbol).QualifiedName()), nil
		case *Keyword:
			return strings.Compare(a.QualifiedName(), b.(*Keyword).QualifiedName()), nil
		case *Character:
			return cmpOrdered(a.C, b.(*Character).C), nil
		case *Boolean:
			return cmpOrdered(boolInt(a.B), boolInt(b.(*Boolean).B)), nil
		}
	}
	return 0, fmt.Errorf("cannot compare %s to %s", a.Kind(), b.Kind())
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func cmpOrdered[T int | rune | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareNumbers(a, b Number) int {
	ra, rb := a.Rat(), b.Rat()
	if ra != nil && rb != nil {
		return ra.Cmp(rb)
	}
	return cmpOrdered(a.Float64(), b.Float64())
}

// addNumbers returns a+b, staying exact when both operands are exact.
func addNumbers(a, b Number) Number {
	ia, okA := a.(*Integer)
	ib, okB := b.(*Integer)
	if okA && okB {
		sum := ia.I + ib.I
		// Overflow when both operands share a sign the result does not.
		if (ia.I >= 0) == (ib.I >= 0) && (sum >= 0) != (ia.I >= 0) {
			return BigInt(new(big.Int).Add(big.NewInt(ia.I), big.NewInt(ib.I)))
		}
		return Int(sum)
	}
	ra, rb := a.Rat(), b.Rat()
	if ra == nil || rb == nil {
		return Float(a.Float64() + b.Float64())
	}
	sum := new(big.Rat).Add(ra, rb)
	v, _ := NewRatio(sum.Num(), sum.Denom())
	return v.(Number)
}
