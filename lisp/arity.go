// Copyright © 2024 The ELPS authors

package lisp

import (
	"fmt"
	"log"
	"strings"
)

// MaxFixedArity is the largest number of positional arguments delivered to
// an entry point.  Calls supplying more arguments than this must be
// received by a variadic entry.
const MaxFixedArity = 10

// ArityFlags is the packed arity description attached to every callable.
// Bits 0-3 hold the highest fixed arity F, bit 4 is set for callables with a
// rest parameter and bit 5 is set when the rest parameter attaches at an
// argument count which also has a fixed entry.
type ArityFlags uint8

const (
	arityFixedMask ArityFlags = 0x0f
	arityVariadic  ArityFlags = 1 << 4
	arityAmbiguous ArityFlags = 1 << 5
)

// NewArityFlags packs an arity description.  For variadic callables fixed
// is the number of required arguments preceding the rest parameter.  A fixed
// arity outside [0, MaxFixedArity] is an internal defect.
func NewArityFlags(fixed int, variadic, ambiguous bool) ArityFlags {
	if fixed < 0 || fixed > MaxFixedArity {
		log.Panicf("arity out of range: %d", fixed)
	}
	if ambiguous && !variadic {
		log.Panicf("non-variadic arity cannot be ambiguous")
	}
	flags := ArityFlags(fixed)
	if variadic {
		flags |= arityVariadic
	}
	if ambiguous {
		flags |= arityAmbiguous
	}
	return flags
}

// Fixed returns the highest fixed arity F.
func (a ArityFlags) Fixed() int { return int(a & arityFixedMask) }

// Variadic reports whether the callable has a rest parameter.
func (a ArityFlags) Variadic() bool { return a&arityVariadic != 0 }

// Ambiguous reports whether the rest parameter attaches at an argument
// count that also has a fixed entry.
func (a ArityFlags) Ambiguous() bool { return a&arityAmbiguous != 0 }

// Attachment returns the argument count at which the rest parameter begins
// collecting.  The boolean result is false for non-variadic callables.
func (a ArityFlags) Attachment() (int, bool) {
	if !a.Variadic() {
		return 0, false
	}
	return a.Fixed(), true
}

func (a ArityFlags) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "F=%d", a.Fixed())
	if a.Variadic() {
		b.WriteString(" variadic")
	}
	if a.Ambiguous() {
		b.WriteString(" ambiguous")
	}
	return b.String()
}

// CallCase identifies the arity resolution rule selected for a call.
type CallCase uint8

const (
	// CallExact delivers all arguments followed by an empty rest marker.
	CallExact CallCase = iota + 1
	// CallPacking delivers the leading arguments followed by a packed rest
	// sequence holding the remainder.
	CallPacking
	// CallDirect delivers the arguments unmodified.
	CallDirect
)

var callCaseStrings = [...]string{
	CallExact:   "exact",
	CallPacking: "packing",
	CallDirect:  "direct",
}

func (c CallCase) String() string {
	if int(c) < len(callCaseStrings) && callCaseStrings[c] != "" {
		return callCaseStrings[c]
	}
	return fmt.Sprintf("CallCase(%d)", uint8(c))
}

// CallPlan describes how N supplied arguments are delivered to a callable.
// Slot is the entry index, which always equals the number of delivered
// values.  Split is the number of supplied arguments delivered positionally
// in the exact and packing cases.
type CallPlan struct {
	Case  CallCase
	N     int
	Slot  int
	Split int
}

// ResolveArity selects the entry point for a call supplying n arguments to a
// callable described by flags.  For n > MaxFixedArity only the packing form
// is valid.  The returned error is an *ArityError lacking the callable's
// printed form; callers fill it in.
func ResolveArity(flags ArityFlags, n int) (CallPlan, error) {
	k, variadic := flags.Attachment()
	if n > MaxFixedArity {
		if !variadic || k > MaxFixedArity {
			return CallPlan{}, &ArityError{N: n}
		}
		return CallPlan{Case: CallPacking, N: n, Slot: k + 1, Split: k}, nil
	}
	switch {
	case variadic && k == n && !flags.Ambiguous():
		return CallPlan{Case: CallExact, N: n, Slot: n + 1, Split: n}, nil
	case variadic && k < n:
		return CallPlan{Case: CallPacking, N: n, Slot: k + 1, Split: k}, nil
	case !variadic && n > flags.Fixed():
		return CallPlan{}, &ArityError{N: n}
	}
	return CallPlan{Case: CallDirect, N: n, Slot: n, Split: n}, nil
}

// deliver builds the values passed to the planned entry from args.
func (p CallPlan) deliver(args []Value) []Value {
	switch p.Case {
	case CallExact:
		out := make([]Value, len(args)+1)
		copy(out, args)
		out[len(args)] = Nil()
		return out
	case CallPacking:
		out := make([]Value, p.Split+1)
		copy(out, args[:p.Split])
		out[p.Split] = packRest(args[p.Split:])
		return out
	}
	return args
}
