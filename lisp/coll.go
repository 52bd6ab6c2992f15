// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"sort"
)

// The collections here are minimal copy-on-write implementations.  They give
// each collection kind a working representation for dispatch, equality and
// invocation; structural sharing is left to a dedicated collections package.

// MapLike is implemented by every map-like kind.
type MapLike interface {
	Seqable
	Count() int
	Get(k Value) (Value, bool)
	Assoc(k, v Value) (MapLike, error)
	Dissoc(k Value) (MapLike, error)
}

// SetLike is implemented by every set-like kind.
type SetLike interface {
	Seqable
	Count() int
	Contains(v Value) bool
	Conj(v Value) (SetLike, error)
	Disj(v Value) (SetLike, error)
}

// arrayMapThreshold is the largest entry count held by an ArrayMap before
// Assoc promotes it to a HashMap.
const arrayMapThreshold = 8

type mapEntry struct {
	key Value
	val Value
}

// List is an immutable list.  A non-empty List is its own sequence.
type List struct {
	header
	vals []Value
}

// NewList returns a list of vals.  vals is copied.
func NewList(vals ...Value) *List {
	return &List{vals: append([]Value(nil), vals...)}
}

func (*List) Kind() Kind    { return KindList }
func (l *List) Count() int  { return len(l.vals) }
func (l *List) First() Value {
	if len(l.vals) == 0 {
		return Nil()
	}
	return l.vals[0]
}

func (l *List) Seq() (Seq, error) {
	if len(l.vals) == 0 {
		return nil, nil
	}
	return l, nil
}

func (l *List) Next() (Seq, error) {
	if len(l.vals) <= 1 {
		return nil, nil
	}
	return &List{vals: l.vals[1:]}, nil
}

// Cons returns a new list with v preceding the elements of l.
func (l *List) Cons(v Value) *List {
	vals := make([]Value, 0, len(l.vals)+1)
	vals = append(vals, v)
	return &List{vals: append(vals, l.vals...)}
}

// Vector is an immutable indexed sequence.
type Vector struct {
	header
	vals []Value
}

// NewVector returns a vector of vals.  vals is copied.
func NewVector(vals ...Value) *Vector {
	return &Vector{vals: append([]Value(nil), vals...)}
}

func (*Vector) Kind() Kind   { return KindVector }
func (v *Vector) Count() int { return len(v.vals) }

func (v *Vector) Seq() (Seq, error) {
	if len(v.vals) == 0 {
		return nil, nil
	}
	return &VectorSeq{vec: v}, nil
}

// Nth returns the element at index i.
func (v *Vector) Nth(i int) (Value, bool) {
	if i < 0 || i >= len(v.vals) {
		return Nil(), false
	}
	return v.vals[i], true
}

// Conj returns a new vector with x appended.
func (v *Vector) Conj(x Value) *Vector {
	vals := make([]Value, len(v.vals), len(v.vals)+1)
	copy(vals, v.vals)
	return &Vector{vals: append(vals, x)}
}

func pairs(kvs []Value) ([]mapEntry, error) {
	if len(kvs)%2 != 0 {
		return nil, fmt.Errorf("map literal has an odd number of forms: %d", len(kvs))
	}
	entries := make([]mapEntry, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		entries = append(entries, mapEntry{kvs[i], kvs[i+1]})
	}
	return entries, nil
}

func entriesSeq(entries []mapEntry) (Seq, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	return &MapSeq{entries: entries}, nil
}

// ArrayMap is a small map with linear lookup that preserves insertion order.
type ArrayMap struct {
	header
	entries []mapEntry
}

// NewArrayMap returns a map of alternating keys and values.  Later keys
// replace earlier equal keys.
func NewArrayMap(kvs ...Value) (MapLike, error) {
	entries, err := pairs(kvs)
	if err != nil {
		return nil, err
	}
	var m MapLike = &ArrayMap{}
	for _, e := range entries {
		m, err = m.Assoc(e.key, e.val)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (*ArrayMap) Kind() Kind           { return KindArrayMap }
func (m *ArrayMap) Count() int         { return len(m.entries) }
func (m *ArrayMap) Seq() (Seq, error)  { return entriesSeq(m.entries) }

func (m *ArrayMap) find(k Value) int {
	for i, e := range m.entries {
		if Equal(e.key, k) {
			return i
		}
	}
	return -1
}

func (m *ArrayMap) Get(k Value) (Value, bool) {
	if i := m.find(k); i >= 0 {
		return m.entries[i].val, true
	}
	return Nil(), false
}

func (m *ArrayMap) Assoc(k, v Value) (MapLike, error) {
	i := m.find(k)
	if i < 0 && len(m.entries) >= arrayMapThreshold {
		h := newHashMap(len(m.entries) + 1)
		for _, e := range m.entries {
			h.put(e.key, e.val)
		}
		h.put(k, v)
		return h, nil
	}
	entries := make([]mapEntry, len(m.entries), len(m.entries)+1)
	copy(entries, m.entries)
	if i >= 0 {
		entries[i].val = v
	} else {
		entries = append(entries, mapEntry{k, v})
	}
	return &ArrayMap{entries: entries}, nil
}

func (m *ArrayMap) Dissoc(k Value) (MapLike, error) {
	i := m.find(k)
	if i < 0 {
		return m, nil
	}
	entries := make([]mapEntry, 0, len(m.entries)-1)
	entries = append(entries, m.entries[:i]...)
	return &ArrayMap{entries: append(entries, m.entries[i+1:]...)}, nil
}

// HashMap is a map indexed by Hash.  Iteration follows insertion order.
type HashMap struct {
	header
	entries []mapEntry
	index   map[uint64][]int
}

func newHashMap(n int) *HashMap {
	return &HashMap{
		entries: make([]mapEntry, 0, n),
		index:   make(map[uint64][]int, n),
	}
}

// NewHashMap returns a hash map of alternating keys and values.
func NewHashMap(kvs ...Value) (MapLike, error) {
	entries, err := pairs(kvs)
	if err != nil {
		return nil, err
	}
	m := newHashMap(len(entries))
	for _, e := range entries {
		m.put(e.key, e.val)
	}
	return m, nil
}

func (*HashMap) Kind() Kind          { return KindHashMap }
func (m *HashMap) Count() int        { return len(m.entries) }
func (m *HashMap) Seq() (Seq, error) { return entriesSeq(m.entries) }

func (m *HashMap) find(k Value) int {
	for _, i := range m.index[Hash(k)] {
		if Equal(m.entries[i].key, k) {
			return i
		}
	}
	return -1
}

// put mutates m and must only be called while m is under construction.
func (m *HashMap) put(k, v Value) {
	if i := m.find(k); i >= 0 {
		m.entries[i].val = v
		return
	}
	h := Hash(k)
	m.index[h] = append(m.index[h], len(m.entries))
	m.entries = append(m.entries, mapEntry{k, v})
}

func (m *HashMap) Get(k Value) (Value, bool) {
	if i := m.find(k); i >= 0 {
		return m.entries[i].val, true
	}
	return Nil(), false
}

func (m *HashMap) Assoc(k, v Value) (MapLike, error) {
	cp := newHashMap(len(m.entries) + 1)
	for _, e := range m.entries {
		cp.put(e.key, e.val)
	}
	cp.put(k, v)
	return cp, nil
}

func (m *HashMap) Dissoc(k Value) (MapLike, error) {
	i := m.find(k)
	if i < 0 {
		return m, nil
	}
	cp := newHashMap(len(m.entries))
	for j, e := range m.entries {
		if j != i {
			cp.put(e.key, e.val)
		}
	}
	return cp, nil
}

// SortedMap is a map ordered by Compare on its keys.
type SortedMap struct {
	header
	entries []mapEntry
}

// NewSortedMap returns a sorted map of alternating keys and values.  Keys
// must be mutually comparable.
func NewSortedMap(kvs ...Value) (MapLike, error) {
	entries, err := pairs(kvs)
	if err != nil {
		return nil, err
	}
	var m MapLike = &SortedMap{}
	for _, e := range entries {
		m, err = m.Assoc(e.key, e.val)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (*SortedMap) Kind() Kind          { return KindSortedMap }
func (m *SortedMap) Count() int        { return len(m.entries) }
func (m *SortedMap) Seq() (Seq, error) { return entriesSeq(m.entries) }

// search returns the insertion index of k and whether k is present.
func (m *SortedMap) search(k Value) (int, bool, error) {
	var cerr error
	i := sort.Search(len(m.entries), func(i int) bool {
		c, err := Compare(m.entries[i].key, k)
		if err != nil && cerr == nil {
			cerr = err
		}
		return c >= 0
	})
	if cerr != nil {
		return 0, false, cerr
	}
	if i < len(m.entries) {
		c, err := Compare(m.entries[i].key, k)
		if err != nil {
			return 0, false, err
		}
		return i, c == 0, nil
	}
	return i, false, nil
}

func (m *SortedMap) Get(k Value) (Value, bool) {
	i, ok, err := m.search(k)
	if err != nil || !ok {
		return Nil(), false
	}
	return m.entries[i].val, true
}

func (m *SortedMap) Assoc(k, v Value) (MapLike, error) {
	i, ok, err := m.search(k)
	if err != nil {
		return nil, err
	}
	entries := make([]mapEntry, 0, len(m.entries)+1)
	entries = append(entries, m.entries[:i]...)
	entries = append(entries, mapEntry{k, v})
	if ok {
		i++
	}
	entries = append(entries, m.entries[i:]...)
	return &SortedMap{entries: entries}, nil
}

func (m *SortedMap) Dissoc(k Value) (MapLike, error) {
	i, ok, err := m.search(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return m, nil
	}
	entries := make([]mapEntry, 0, len(m.entries)-1)
	entries = append(entries, m.entries[:i]...)
	return &SortedMap{entries: append(entries, m.entries[i+1:]...)}, nil
}

func membersSeq(members []Value) (Seq, error) {
	if len(members) == 0 {
		return nil, nil
	}
	return &SetSeq{members: members}, nil
}

// HashSet is a set indexed by Hash.  Iteration follows insertion order.
type HashSet struct {
	header
	members []Value
	index   map[uint64][]int
}

func newHashSet(n int) *HashSet {
	return &HashSet{
		members: make([]Value, 0, n),
		index:   make(map[uint64][]int, n),
	}
}

// NewHashSet returns a set of vals.  Duplicate values are dropped.
func NewHashSet(vals ...Value) *HashSet {
	s := newHashSet(len(vals))
	for _, v := range vals {
		s.add(v)
	}
	return s
}

func (*HashSet) Kind() Kind          { return KindHashSet }
func (s *HashSet) Count() int        { return len(s.members) }
func (s *HashSet) Seq() (Seq, error) { return membersSeq(s.members) }

func (s *HashSet) find(v Value) int {
	for _, i := range s.index[Hash(v)] {
		if Equal(s.members[i], v) {
			return i
		}
	}
	return -1
}

func (s *HashSet) add(v Value) {
	if s.find(v) >= 0 {
		return
	}
	h := Hash(v)
	s.index[h] = append(s.index[h], len(s.members))
	s.members = append(s.members, v)
}

func (s *HashSet) Contains(v Value) bool { return s.find(v) >= 0 }

func (s *HashSet) Conj(v Value) (SetLike, error) {
	if s.Contains(v) {
		return s, nil
	}
	return NewHashSet(append(append([]Value(nil), s.members...), v)...), nil
}

func (s *HashSet) Disj(v Value) (SetLike, error) {
	i := s.find(v)
	if i < 0 {
		return s, nil
	}
	members := make([]Value, 0, len(s.members)-1)
	members = append(members, s.members[:i]...)
	return NewHashSet(append(members, s.members[i+1:]...)...), nil
}

// SortedSet is a set ordered by Compare.
type SortedSet struct {
	header
	members []Value
}

// NewSortedSet returns a sorted set of vals.  Members must be mutually
// comparable.
func NewSortedSet(vals ...Value) (SetLike, error) {
	var s SetLike = &SortedSet{}
	var err error
	for _, v := range vals {
		s, err = s.Conj(v)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (*SortedSet) Kind() Kind          { return KindSortedSet }
func (s *SortedSet) Count() int        { return len(s.members) }
func (s *SortedSet) Seq() (Seq, error) { return membersSeq(s.members) }

func (s *SortedSet) search(v Value) (int, bool, error) {
	for i, m := range s.members {
		c, err := Compare(m, v)
		if err != nil {
			return 0, false, err
		}
		if c >= 0 {
			return i, c == 0, nil
		}
	}
	return len(s.members), false, nil
}

func (s *SortedSet) Contains(v Value) bool {
	_, ok, err := s.search(v)
	return err == nil && ok
}

func (s *SortedSet) Conj(v Value) (SetLike, error) {
	i, ok, err := s.search(v)
	if err != nil {
		return nil, err
	}
	if ok {
		return s, nil
	}
	members := make([]Value, 0, len(s.members)+1)
	members = append(members, s.members[:i]...)
	members = append(members, v)
	return &SortedSet{members: append(members, s.members[i:]...)}, nil
}

func (s *SortedSet) Disj(v Value) (SetLike, error) {
	i, ok, err := s.search(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s, nil
	}
	members := make([]Value, 0, len(s.members)-1)
	members = append(members, s.members[:i]...)
	return &SortedSet{members: append(members, s.members[i+1:]...)}, nil
}

// Count returns the number of elements in v.  Values without a constant time
// count are traversed; Count does not terminate for infinite sequences.
func Count(v Value) (int, error) {
	type counted interface{ Count() int }
	if c, ok := v.(counted); ok {
		return c.Count(), nil
	}
	vals, err := ToSlice(v)
	if err != nil {
		return 0, err
	}
	return len(vals), nil
}

var (
	_ Seq     = (*List)(nil)
	_ Seqable = (*Vector)(nil)
	_ MapLike = (*ArrayMap)(nil)
	_ MapLike = (*HashMap)(nil)
	_ MapLike = (*SortedMap)(nil)
	_ SetLike = (*HashSet)(nil)
	_ SetLike = (*SortedSet)(nil)
)
