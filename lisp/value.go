// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"math/big"
	"strings"
)

// Value is a lisp value.  Every concrete representation reports a fixed Kind.
// The set of implementations is closed to this package; use Visit or one of
// the restricted visit functions to act on a Value polymorphically.
//
// A Value is never a Go nil.  The absence of a value is represented by the
// singleton returned from Nil().
type Value interface {
	Kind() Kind
	value()
}

// header seals Value against implementations outside of this package.
type header struct{}

func (header) value() {}

// NilValue is the representation of nil.  There is exactly one NilValue per
// process.
type NilValue struct{ header }

// Boolean is a truth value.  There are exactly two Boolean values.
type Boolean struct {
	header
	B bool
}

// Integer is a 64-bit signed integer.
type Integer struct {
	header
	I int64
}

// BigInteger is an arbitrary precision integer.  The contained big.Int must
// not be modified.
type BigInteger struct {
	header
	B *big.Int
}

// Real is a 64-bit floating point number.
type Real struct {
	header
	F float64
}

// Ratio is an exact rational number whose denominator is never 1.  The
// contained big.Rat must not be modified.
type Ratio struct {
	header
	R *big.Rat
}

// Character is a single unicode code point.
type Character struct {
	header
	C rune
}

// PersistentString is an immutable string.
type PersistentString struct {
	header
	S string
}

// Symbol is a possibly namespace qualified identifier.
type Symbol struct {
	header
	NS   string
	Name string
}

// Keyword is a self-evaluating identifier.  Keywords are callable and look
// themselves up in a map argument.
type Keyword struct {
	header
	NS   string
	Name string
}

func (*NilValue) Kind() Kind         { return KindNil }
func (*Boolean) Kind() Kind          { return KindBoolean }
func (*Integer) Kind() Kind          { return KindInteger }
func (*BigInteger) Kind() Kind       { return KindBigInteger }
func (*Real) Kind() Kind             { return KindReal }
func (*Ratio) Kind() Kind            { return KindRatio }
func (*Character) Kind() Kind        { return KindCharacter }
func (*PersistentString) Kind() Kind { return KindString }
func (*Symbol) Kind() Kind           { return KindSymbol }
func (*Keyword) Kind() Kind          { return KindKeyword }

// Singleton values for nil, true, and false.  They are created at package
// initialization and never replaced.  Callers must not mutate them.
var (
	singletonNil   = &NilValue{}
	singletonTrue  = &Boolean{B: true}
	singletonFalse = &Boolean{B: false}
)

// Nil returns the value representing nil, an absent value.
func Nil() *NilValue {
	return singletonNil
}

// orNil substitutes Nil() for a Go nil so no reference holds a true
// absence.
func orNil(v Value) Value {
	if v == nil {
		return Nil()
	}
	return v
}

// IsNil returns true if v is the nil value.
func IsNil(v Value) bool {
	_, ok := v.(*NilValue)
	return ok
}

// Bool returns the Boolean with truthiness identical to b.
func Bool(b bool) *Boolean {
	if b {
		return singletonTrue
	}
	return singletonFalse
}

// Truthy returns false for nil and false and true for every other value.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case *NilValue:
		return false
	case *Boolean:
		return v.B
	}
	return true
}

// Int returns a Value representing the integer x.
func Int(x int64) *Integer {
	return &Integer{I: x}
}

// BigInt returns a Value representing x.  x is copied.
func BigInt(x *big.Int) *BigInteger {
	return &BigInteger{B: new(big.Int).Set(x)}
}

// Float returns a Value representing the number x.
func Float(x float64) *Real {
	return &Real{F: x}
}

// NewRatio returns the exact quotient num/den.  When the quotient is whole an
// Integer (or BigInteger) is returned instead of a Ratio.
func NewRatio(num, den *big.Int) (Value, error) {
	if den.Sign() == 0 {
		return nil, fmt.Errorf("ratio denominator is zero")
	}
	r := new(big.Rat).SetFrac(num, den)
	if r.IsInt() {
		n := r.Num()
		if n.IsInt64() {
			return Int(n.Int64()), nil
		}
		return BigInt(n), nil
	}
	return &Ratio{R: r}, nil
}

// Char returns a Value representing the code point c.
func Char(c rune) *Character {
	return &Character{C: c}
}

// String returns a Value representing the string s.
func String(s string) *PersistentString {
	return &PersistentString{S: s}
}

// NewSymbol returns a symbol with the given namespace and name.  An empty ns
// produces an unqualified symbol.
func NewSymbol(ns, name string) *Symbol {
	return &Symbol{NS: ns, Name: name}
}

// Sym parses s as a possibly qualified symbol of the form "ns/name".  The
// symbol "/" is unqualified.
func Sym(s string) *Symbol {
	ns, name := splitQualified(s)
	return NewSymbol(ns, name)
}

// Kw parses s as a possibly qualified keyword.  A leading colon is ignored.
func Kw(s string) *Keyword {
	ns, name := splitQualified(strings.TrimPrefix(s, ":"))
	return &Keyword{NS: ns, Name: name}
}

func splitQualified(s string) (string, string) {
	if s == "/" {
		return "", s
	}
	i := strings.IndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return "", s
	}
	return s[:i], s[i+1:]
}

// QualifiedName returns "ns/name" or "name" when sym is unqualified.
func (sym *Symbol) QualifiedName() string {
	if sym.NS == "" {
		return sym.Name
	}
	return sym.NS + "/" + sym.Name
}

// QualifiedName returns "ns/name" or "name" when kw is unqualified.
func (kw *Keyword) QualifiedName() string {
	if kw.NS == "" {
		return kw.Name
	}
	return kw.NS + "/" + kw.Name
}

// Number is implemented by every number-like kind.
type Number interface {
	Value
	// Float64 returns the (possibly inexact) floating point value.
	Float64() float64
	// Rat returns the exact rational value or nil for inexact numbers.
	Rat() *big.Rat
}

func (x *Integer) Float64() float64    { return float64(x.I) }
func (x *Integer) Rat() *big.Rat       { return new(big.Rat).SetInt64(x.I) }
func (x *BigInteger) Float64() float64 { f, _ := new(big.Float).SetInt(x.B).Float64(); return f }
func (x *BigInteger) Rat() *big.Rat    { return new(big.Rat).SetInt(x.B) }
func (x *Real) Float64() float64       { return x.F }
func (x *Real) Rat() *big.Rat          { return nil }
func (x *Ratio) Float64() float64      { f, _ := x.R.Float64(); return f }
func (x *Ratio) Rat() *big.Rat         { return new(big.Rat).Set(x.R) }

var (
	_ Number = (*Integer)(nil)
	_ Number = (*BigInteger)(nil)
	_ Number = (*Real)(nil)
	_ Number = (*Ratio)(nil)
)

// Seq returns nil; nil is the empty sequence.
func (*NilValue) Seq() (Seq, error) {
	return nil, nil
}

// Seq returns a sequence of the string's characters.
func (s *PersistentString) Seq() (Seq, error) {
	if len(s.S) == 0 {
		return nil, nil
	}
	return &StringSeq{runes: []rune(s.S)}, nil
}
