// Copyright © 2024 The ELPS authors

package lisp

import (
	"math"
	"strconv"
	"strings"
)

// printLength is the number of sequence elements printed before eliding
// the remainder.
const printLength = 16

// printDepth is the nesting depth beyond which collections are elided.
const printDepth = 8

// Print returns the printed form of v used in diagnostics.  Printing never
// realizes a lazy sequence and prints at most a prefix of long or infinite
// sequences.
func Print(v Value) string {
	return Visit[string](v, printer{})
}

type printer struct {
	depth int
}

func (p printer) nested() printer { return printer{depth: p.depth + 1} }

func (p printer) elems(open, close string, v Value) string {
	if p.depth >= printDepth {
		return open + "..." + close
	}
	var b strings.Builder
	b.WriteString(open)
	s, err := SeqOf(v)
	for i := 0; s != nil && err == nil; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		if i == printLength {
			b.WriteString("...")
			break
		}
		b.WriteString(Visit[string](s.First(), p.nested()))
		if !nextRealized(s) {
			b.WriteString(" ...")
			break
		}
		s, err = s.Next()
	}
	if err != nil {
		b.WriteString(" ...")
	}
	b.WriteString(close)
	return b.String()
}

// nextRealized reports whether s.Next can be called without running user
// code.
func nextRealized(s Seq) bool {
	switch s := s.(type) {
	case *Cons:
		if lazy, ok := s.more.(*LazySeq); ok {
			return lazy.Realized()
		}
	case *Iterator:
		return false
	}
	return true
}

func (p printer) entries(open string, m MapLike) string {
	if p.depth >= printDepth {
		return open + "...}"
	}
	var b strings.Builder
	b.WriteString(open)
	s, err := m.Seq()
	for i := 0; s != nil && err == nil; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if i == printLength {
			b.WriteString("...")
			break
		}
		e := s.First().(*Vector)
		b.WriteString(Visit[string](e.vals[0], p.nested()))
		b.WriteString(" ")
		b.WriteString(Visit[string](e.vals[1], p.nested()))
		s, err = s.Next()
	}
	b.WriteString("}")
	return b.String()
}

func opaque(kind Kind, detail string) string {
	if detail == "" {
		return "#<" + kind.String() + ">"
	}
	return "#<" + kind.String() + " " + detail + ">"
}

func (printer) VisitNil(*NilValue) string { return "nil" }

func (printer) VisitBoolean(v *Boolean) string {
	return strconv.FormatBool(v.B)
}

func (printer) VisitInteger(v *Integer) string {
	return strconv.FormatInt(v.I, 10)
}

func (printer) VisitBigInteger(v *BigInteger) string {
	return v.B.String() + "N"
}

func (printer) VisitReal(v *Real) string {
	switch {
	case math.IsInf(v.F, 1):
		return "##Inf"
	case math.IsInf(v.F, -1):
		return "##-Inf"
	case math.IsNaN(v.F):
		return "##NaN"
	}
	s := strconv.FormatFloat(v.F, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func (printer) VisitRatio(v *Ratio) string {
	return v.R.String()
}

var charNames = map[rune]string{
	'\n': "newline",
	' ':  "space",
	'\t': "tab",
	'\r': "return",
	'\b': "backspace",
	'\f': "formfeed",
}

func (printer) VisitCharacter(v *Character) string {
	if name, ok := charNames[v.C]; ok {
		return `\` + name
	}
	return `\` + string(v.C)
}

func (printer) VisitString(v *PersistentString) string {
	return strconv.Quote(v.S)
}

func (printer) VisitSymbol(v *Symbol) string {
	return v.QualifiedName()
}

func (printer) VisitKeyword(v *Keyword) string {
	return ":" + v.QualifiedName()
}

func (p printer) VisitList(v *List) string {
	return p.elems("(", ")", v)
}

func (p printer) VisitVector(v *Vector) string {
	return p.elems("[", "]", v)
}

func (p printer) VisitArrayMap(v *ArrayMap) string   { return p.entries("{", v) }
func (p printer) VisitHashMap(v *HashMap) string     { return p.entries("{", v) }
func (p printer) VisitSortedMap(v *SortedMap) string { return p.entries("{", v) }
func (p printer) VisitHashSet(v *HashSet) string     { return p.elems("#{", "}", v) }
func (p printer) VisitSortedSet(v *SortedSet) string { return p.elems("#{", "}", v) }
func (p printer) VisitCons(v *Cons) string           { return p.elems("(", ")", v) }
func (p printer) VisitRange(v *Range) string         { return p.elems("(", ")", v) }

func (p printer) VisitIntegerRange(v *IntegerRange) string {
	return p.elems("(", ")", v)
}

func (p printer) VisitRepeat(v *Repeat) string {
	return p.elems("(", ")", v)
}

func (p printer) VisitLazySeq(v *LazySeq) string {
	if !v.Realized() {
		return opaque(KindLazySeq, "unrealized")
	}
	return p.elems("(", ")", v)
}

func (p printer) VisitArraySeq(v *ArraySeq) string   { return p.elems("(", ")", v) }
func (p printer) VisitVectorSeq(v *VectorSeq) string { return p.elems("(", ")", v) }
func (p printer) VisitStringSeq(v *StringSeq) string { return p.elems("(", ")", v) }
func (p printer) VisitMapSeq(v *MapSeq) string       { return p.elems("(", ")", v) }
func (p printer) VisitSetSeq(v *SetSeq) string       { return p.elems("(", ")", v) }
func (p printer) VisitIterator(v *Iterator) string   { return p.elems("(", ")", v) }

func (printer) VisitNativeFunction(v *NativeFunction) string {
	return opaque(KindNativeFunction, v.QualifiedName())
}

func (printer) VisitCompiledFunction(v *CompiledFunction) string {
	return opaque(KindCompiledFunction, v.QualifiedName())
}

func (printer) VisitMultiFunction(v *MultiFunction) string {
	return opaque(KindMultiFunction, v.QualifiedName())
}

func (printer) VisitVar(v *Var) string {
	return "#'" + v.QualifiedName()
}

func (p printer) VisitVarThreadBinding(v *VarThreadBinding) string {
	return opaque(KindVarThreadBinding, "#'"+v.Var.QualifiedName()+" "+Visit[string](v.val, p.nested()))
}

func (printer) VisitVarUnboundRoot(v *VarUnboundRoot) string {
	return "#<unbound #'" + v.Var.QualifiedName() + ">"
}

func (printer) VisitNamespace(v *Namespace) string {
	return opaque(KindNamespace, v.Name)
}

func (p printer) VisitAtom(v *Atom) string {
	return opaque(KindAtom, Visit[string](v.state.Load().v, p.nested()))
}

func (p printer) VisitVolatile(v *Volatile) string {
	return opaque(KindVolatile, Visit[string](v.v.Load().v, p.nested()))
}

func (p printer) VisitReduced(v *Reduced) string {
	return opaque(KindReduced, Visit[string](v.Val, p.nested()))
}

func (p printer) VisitDelay(v *Delay) string {
	v.mu.Lock()
	realized, val, err := v.realized, v.val, v.err
	v.mu.Unlock()
	switch {
	case !realized:
		return opaque(KindDelay, "pending")
	case err != nil:
		return opaque(KindDelay, "failed")
	}
	return opaque(KindDelay, Visit[string](val, p.nested()))
}

func (p printer) VisitFuture(v *Future) string {
	v.mu.Lock()
	status, val := v.status, v.val
	v.mu.Unlock()
	if status != FutureCompleted {
		return opaque(KindFuture, status.String())
	}
	return opaque(KindFuture, Visit[string](val, p.nested()))
}

func (p printer) VisitTaggedLiteral(v *TaggedLiteral) string {
	return "#" + v.Tag.QualifiedName() + " " + Visit[string](v.Form, p.nested())
}

var _ Visitor[string] = printer{}
