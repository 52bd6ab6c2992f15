// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// Seqable is implemented by values that can produce a sequence of their
// elements.  Seq returns a nil Seq when there are no elements.  Each call to
// Seq returns a fresh traversal; traversing never modifies the receiver
// (lazy sequences cache their realization).
type Seqable interface {
	Value
	Seq() (Seq, error)
}

// Seq is a realized, non-empty sequence cell.
type Seq interface {
	Seqable
	// First returns the first element.  First never forces computation.
	First() Value
	// Next returns the remaining elements or nil when there are none.  Next
	// may realize lazily computed elements.
	Next() (Seq, error)
}

// SeqOf returns a sequence over the elements of v.  Values which are not
// seqable produce a CapabilityError.
func SeqOf(v Value) (Seq, error) {
	s, ok := v.(Seqable)
	if !ok {
		return nil, newCapabilityError(CapSeqable, v)
	}
	return s.Seq()
}

// SeqValue returns s as a Value, substituting Nil() for an empty sequence.
func SeqValue(s Seq) Value {
	if s == nil {
		return Nil()
	}
	return s
}

// Take realizes at most n elements of v and returns them.  Take never
// advances past the nth element, so at most n elements are forced.
func Take(v Value, n int) ([]Value, error) {
	s, err := SeqOf(v)
	if err != nil {
		return nil, err
	}
	var out []Value
	for s != nil && len(out) < n {
		out = append(out, s.First())
		if len(out) == n {
			break
		}
		s, err = s.Next()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToSlice realizes every element of v.  It does not terminate for infinite
// sequences.
func ToSlice(v Value) ([]Value, error) {
	s, err := SeqOf(v)
	if err != nil {
		return nil, err
	}
	var out []Value
	for s != nil {
		out = append(out, s.First())
		s, err = s.Next()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Cons is a sequence cell holding a first element and a seqable remainder.
type Cons struct {
	header
	first Value
	more  Value
}

// NewCons returns a sequence with first preceding the elements of more.  more
// must be seqable.
func NewCons(first, more Value) *Cons {
	return &Cons{first: first, more: more}
}

func (*Cons) Kind() Kind           { return KindCons }
func (c *Cons) Seq() (Seq, error)  { return c, nil }
func (c *Cons) First() Value       { return c.first }
func (c *Cons) Next() (Seq, error) { return SeqOf(c.more) }

// ArraySeq is a fixed-capacity sequence over a slice of values.  It is the
// representation of packed rest arguments.
type ArraySeq struct {
	header
	vals []Value
}

// MaxPackedArgs is the capacity of the packed rest sequence built by the
// invocation protocol.
const MaxPackedArgs = MaxFixedArity

// NewArraySeq returns a sequence over vals.  vals is used as backing storage
// and must not be modified afterward.
func NewArraySeq(vals []Value) *ArraySeq {
	return &ArraySeq{vals: vals}
}

func packRest(vals []Value) Value {
	if len(vals) == 0 {
		return Nil()
	}
	packed := make([]Value, len(vals), MaxPackedArgs)
	copy(packed, vals)
	return NewArraySeq(packed)
}

func (*ArraySeq) Kind() Kind { return KindArraySeq }

func (s *ArraySeq) Seq() (Seq, error) {
	if len(s.vals) == 0 {
		return nil, nil
	}
	return s, nil
}

func (s *ArraySeq) First() Value {
	if len(s.vals) == 0 {
		return Nil()
	}
	return s.vals[0]
}

func (s *ArraySeq) Next() (Seq, error) {
	if len(s.vals) <= 1 {
		return nil, nil
	}
	return &ArraySeq{vals: s.vals[1:]}, nil
}

// Len returns the number of values remaining in s.
func (s *ArraySeq) Len() int { return len(s.vals) }

// VectorSeq is a sequence over a Vector.
type VectorSeq struct {
	header
	vec *Vector
	i   int
}

func (*VectorSeq) Kind() Kind          { return KindVectorSeq }
func (s *VectorSeq) Seq() (Seq, error) { return s, nil }
func (s *VectorSeq) First() Value      { return s.vec.vals[s.i] }

func (s *VectorSeq) Next() (Seq, error) {
	if s.i+1 >= len(s.vec.vals) {
		return nil, nil
	}
	return &VectorSeq{vec: s.vec, i: s.i + 1}, nil
}

// StringSeq is a sequence of the characters of a string.
type StringSeq struct {
	header
	runes []rune
}

func (*StringSeq) Kind() Kind          { return KindStringSeq }
func (s *StringSeq) Seq() (Seq, error) { return s, nil }
func (s *StringSeq) First() Value      { return Char(s.runes[0]) }

func (s *StringSeq) Next() (Seq, error) {
	if len(s.runes) <= 1 {
		return nil, nil
	}
	return &StringSeq{runes: s.runes[1:]}, nil
}

// MapSeq is a sequence of [key value] vector entries of a map.
type MapSeq struct {
	header
	entries []mapEntry
}

func (*MapSeq) Kind() Kind          { return KindMapSeq }
func (s *MapSeq) Seq() (Seq, error) { return s, nil }

func (s *MapSeq) First() Value {
	e := s.entries[0]
	return NewVector(e.key, e.val)
}

func (s *MapSeq) Next() (Seq, error) {
	if len(s.entries) <= 1 {
		return nil, nil
	}
	return &MapSeq{entries: s.entries[1:]}, nil
}

// SetSeq is a sequence over the members of a set.
type SetSeq struct {
	header
	members []Value
}

func (*SetSeq) Kind() Kind          { return KindSetSeq }
func (s *SetSeq) Seq() (Seq, error) { return s, nil }
func (s *SetSeq) First() Value      { return s.members[0] }

func (s *SetSeq) Next() (Seq, error) {
	if len(s.members) <= 1 {
		return nil, nil
	}
	return &SetSeq{members: s.members[1:]}, nil
}

// Range is a numeric progression over arbitrary numbers.  An End of nil
// produces an infinite range.
type Range struct {
	header
	Start Number
	End   Number
	Step  Number
}

// NewRange returns the numbers from start (inclusive) to end (exclusive) by
// step.  A nil end produces an infinite range.
func NewRange(start, end, step Number) (*Range, error) {
	if step == nil || step.Float64() == 0 {
		return nil, fmt.Errorf("range step must be a non-zero number")
	}
	return &Range{Start: start, End: end, Step: step}, nil
}

func (*Range) Kind() Kind { return KindRange }

func (r *Range) inBounds() bool {
	if r.End == nil {
		return true
	}
	c := compareNumbers(r.Start, r.End)
	if r.Step.Float64() > 0 {
		return c < 0
	}
	return c > 0
}

func (r *Range) Seq() (Seq, error) {
	if !r.inBounds() {
		return nil, nil
	}
	return r, nil
}

func (r *Range) First() Value { return r.Start }

func (r *Range) Next() (Seq, error) {
	next := &Range{Start: addNumbers(r.Start, r.Step), End: r.End, Step: r.Step}
	return next.Seq()
}

// IntegerRange is an integer progression.  An infinite range has Infinite
// set and ignores End.
type IntegerRange struct {
	header
	Start    int64
	End      int64
	Step     int64
	Infinite bool
}

// NewIntegerRange returns the integers from start (inclusive) to end
// (exclusive) by step.
func NewIntegerRange(start, end, step int64) (*IntegerRange, error) {
	if step == 0 {
		return nil, fmt.Errorf("range step must be non-zero")
	}
	return &IntegerRange{Start: start, End: end, Step: step}, nil
}

// NaturalNumbers returns the infinite integer range 0, 1, 2, ...
func NaturalNumbers() *IntegerRange {
	return &IntegerRange{Step: 1, Infinite: true}
}

func (*IntegerRange) Kind() Kind { return KindIntegerRange }

func (r *IntegerRange) Seq() (Seq, error) {
	if r.Infinite {
		return r, nil
	}
	if (r.Step > 0 && r.Start >= r.End) || (r.Step < 0 && r.Start <= r.End) {
		return nil, nil
	}
	return r, nil
}

func (r *IntegerRange) First() Value { return Int(r.Start) }

func (r *IntegerRange) Next() (Seq, error) {
	next := *r
	next.Start += r.Step
	return next.Seq()
}

// Repeat is a value repeated Count times, or forever when Count is negative.
type Repeat struct {
	header
	Val   Value
	Count int
}

// NewRepeat returns v repeated n times.  A negative n repeats forever.
func NewRepeat(v Value, n int) *Repeat {
	return &Repeat{Val: v, Count: n}
}

func (*Repeat) Kind() Kind { return KindRepeat }

func (r *Repeat) Seq() (Seq, error) {
	if r.Count == 0 {
		return nil, nil
	}
	return r, nil
}

func (r *Repeat) First() Value { return r.Val }

func (r *Repeat) Next() (Seq, error) {
	if r.Count < 0 {
		return r, nil
	}
	return (&Repeat{Val: r.Val, Count: r.Count - 1}).Seq()
}

// Iterator is the infinite sequence x, f(x), f(f(x)), ...  Each successive
// element is computed at most once.
type Iterator struct {
	header
	fn  func(Value) (Value, error)
	cur Value

	once sync.Once
	next *Iterator
	err  error
}

// NewIterator returns the sequence produced by repeatedly applying fn to x.
func NewIterator(fn func(Value) (Value, error), x Value) *Iterator {
	return &Iterator{fn: fn, cur: x}
}

func (*Iterator) Kind() Kind          { return KindIterator }
func (it *Iterator) Seq() (Seq, error) { return it, nil }
func (it *Iterator) First() Value      { return it.cur }

func (it *Iterator) Next() (Seq, error) {
	it.once.Do(func() {
		v, err := it.fn(it.cur)
		if err != nil {
			it.err = err
			return
		}
		it.next = NewIterator(it.fn, v)
	})
	if it.err != nil {
		return nil, it.err
	}
	return it.next, nil
}

// LazySeq is a sequence whose contents are computed on first traversal.  The
// body runs at most once and its result (or error) is cached.
type LazySeq struct {
	header
	mu       deadlock.Mutex
	fn       func() (Value, error)
	realized bool
	seq      Seq
	err      error
}

// NewLazySeq returns a sequence computed by fn.  fn must return a seqable
// value.
func NewLazySeq(fn func() (Value, error)) *LazySeq {
	return &LazySeq{fn: fn}
}

func (*LazySeq) Kind() Kind { return KindLazySeq }

// Realized reports whether the body of s has been run.
func (s *LazySeq) Realized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realized
}

func (s *LazySeq) Seq() (Seq, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.realized {
		return s.seq, s.err
	}
	v, err := s.fn()
	if err == nil {
		s.seq, err = SeqOf(v)
	}
	s.err = err
	s.realized = true
	s.fn = nil
	return s.seq, s.err
}

var (
	_ Seq = (*Cons)(nil)
	_ Seq = (*ArraySeq)(nil)
	_ Seq = (*VectorSeq)(nil)
	_ Seq = (*StringSeq)(nil)
	_ Seq = (*MapSeq)(nil)
	_ Seq = (*SetSeq)(nil)
	_ Seq = (*Range)(nil)
	_ Seq = (*IntegerRange)(nil)
	_ Seq = (*Repeat)(nil)
	_ Seq = (*Iterator)(nil)

	_ Seqable = (*LazySeq)(nil)
	_ Seqable = (*NilValue)(nil)
	_ Seqable = (*PersistentString)(nil)
)
