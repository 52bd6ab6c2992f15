// Copyright © 2024 The ELPS authors

package lisp

// Kind is the tag identifying the concrete representation of a Value.
type Kind uint8

// Possible Kind values.  The set is closed; every Kind has exactly one
// concrete Go type implementing Value.
const (
	// KindInvalid (0) is not a valid kind.  No constructed value reports it.
	KindInvalid Kind = iota
	KindNil
	KindBoolean
	KindInteger
	KindBigInteger
	KindReal
	KindRatio
	KindCharacter
	KindString
	KindSymbol
	KindKeyword
	KindList
	KindVector
	KindArrayMap
	KindHashMap
	KindSortedMap
	KindHashSet
	KindSortedSet
	KindCons
	KindRange
	KindIntegerRange
	KindRepeat
	KindLazySeq
	// KindArraySeq is the fixed-capacity packed sequence used for the rest
	// argument of variadic calls.
	KindArraySeq
	KindVectorSeq
	KindStringSeq
	KindMapSeq
	KindSetSeq
	KindIterator
	KindNativeFunction
	KindCompiledFunction
	KindMultiFunction
	KindVar
	KindVarThreadBinding
	KindVarUnboundRoot
	KindNamespace
	KindAtom
	KindVolatile
	KindReduced
	KindDelay
	KindFuture
	KindTaggedLiteral
	// KindMax is not a real kind but is numerically greater than all valid
	// Kind values.
	KindMax
)

var kindStrings = []string{
	KindInvalid:          "INVALID",
	KindNil:              "nil",
	KindBoolean:          "boolean",
	KindInteger:          "integer",
	KindBigInteger:       "big-integer",
	KindReal:             "real",
	KindRatio:            "ratio",
	KindCharacter:        "character",
	KindString:           "string",
	KindSymbol:           "symbol",
	KindKeyword:          "keyword",
	KindList:             "list",
	KindVector:           "vector",
	KindArrayMap:         "array-map",
	KindHashMap:          "hash-map",
	KindSortedMap:        "sorted-map",
	KindHashSet:          "hash-set",
	KindSortedSet:        "sorted-set",
	KindCons:             "cons",
	KindRange:            "range",
	KindIntegerRange:     "integer-range",
	KindRepeat:           "repeat",
	KindLazySeq:          "lazy-seq",
	KindArraySeq:         "array-seq",
	KindVectorSeq:        "vector-seq",
	KindStringSeq:        "string-seq",
	KindMapSeq:           "map-seq",
	KindSetSeq:           "set-seq",
	KindIterator:         "iterator",
	KindNativeFunction:   "native-function",
	KindCompiledFunction: "compiled-function",
	KindMultiFunction:    "multi-function",
	KindVar:              "var",
	KindVarThreadBinding: "var-thread-binding",
	KindVarUnboundRoot:   "var-unbound-root",
	KindNamespace:        "namespace",
	KindAtom:             "atom",
	KindVolatile:         "volatile",
	KindReduced:          "reduced",
	KindDelay:            "delay",
	KindFuture:           "future",
	KindTaggedLiteral:    "tagged-literal",
}

func (k Kind) String() string {
	if k >= Kind(len(kindStrings)) {
		return kindStrings[KindInvalid]
	}
	return kindStrings[k]
}

// Valid returns true if k names a real kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < KindMax
}

// Kinds returns every valid Kind in tag order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, KindMax-1)
	for k := KindInvalid + 1; k < KindMax; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Capability names a restricted dispatch group.  Every kind belongs to
// exactly one group.
type Capability uint8

// Capability groups.
const (
	CapNone Capability = iota
	CapSeqable
	CapMapLike
	CapSetLike
	CapNumberLike
)

var capabilityStrings = []string{
	CapNone:       "none",
	CapSeqable:    "seqable",
	CapMapLike:    "map-like",
	CapSetLike:    "set-like",
	CapNumberLike: "number-like",
}

func (c Capability) String() string {
	if int(c) >= len(capabilityStrings) {
		return "invalid-capability"
	}
	return capabilityStrings[c]
}

// kindCapability partitions the tag set.  Maps and sets can produce
// sequences but they dispatch as map-like and set-like.
var kindCapability = [KindMax]Capability{
	KindNil:              CapSeqable,
	KindBoolean:          CapNone,
	KindInteger:          CapNumberLike,
	KindBigInteger:       CapNumberLike,
	KindReal:             CapNumberLike,
	KindRatio:            CapNumberLike,
	KindCharacter:        CapNone,
	KindString:           CapSeqable,
	KindSymbol:           CapNone,
	KindKeyword:          CapNone,
	KindList:             CapSeqable,
	KindVector:           CapSeqable,
	KindArrayMap:         CapMapLike,
	KindHashMap:          CapMapLike,
	KindSortedMap:        CapMapLike,
	KindHashSet:          CapSetLike,
	KindSortedSet:        CapSetLike,
	KindCons:             CapSeqable,
	KindRange:            CapSeqable,
	KindIntegerRange:     CapSeqable,
	KindRepeat:           CapSeqable,
	KindLazySeq:          CapSeqable,
	KindArraySeq:         CapSeqable,
	KindVectorSeq:        CapSeqable,
	KindStringSeq:        CapSeqable,
	KindMapSeq:           CapSeqable,
	KindSetSeq:           CapSeqable,
	KindIterator:         CapSeqable,
	KindNativeFunction:   CapNone,
	KindCompiledFunction: CapNone,
	KindMultiFunction:    CapNone,
	KindVar:              CapNone,
	KindVarThreadBinding: CapNone,
	KindVarUnboundRoot:   CapNone,
	KindNamespace:        CapNone,
	KindAtom:             CapNone,
	KindVolatile:         CapNone,
	KindReduced:          CapNone,
	KindDelay:            CapNone,
	KindFuture:           CapNone,
	KindTaggedLiteral:    CapNone,
}

// KindCapability returns the dispatch group of k.
func KindCapability(k Kind) Capability {
	if !k.Valid() {
		return CapNone
	}
	return kindCapability[k]
}

// sequential kinds compare element-wise under Equal regardless of tag.
func isSequentialKind(k Kind) bool {
	switch k {
	case KindList, KindVector, KindCons, KindRange, KindIntegerRange,
		KindRepeat, KindLazySeq, KindArraySeq, KindVectorSeq, KindStringSeq,
		KindMapSeq, KindSetSeq, KindIterator:
		return true
	}
	return false
}
