package profiler

import (
	"regexp"

	"github.com/luthersystems/corelisp/lisp"
)

type SkipFilter func(fun lisp.Value) bool

// defaultSkipFilter skips callables which are not functions, like keywords
// and maps.
func defaultSkipFilter(fun lisp.Value) bool {
	switch fun.Kind() {
	case lisp.KindNativeFunction, lisp.KindCompiledFunction, lisp.KindMultiFunction:
		return false
	default:
		return true
	}
}

// WithDocFilter filters to only include spans for functions with docs that
// denote tracing.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler
// configured WithDocFilter. All functions with a doc string that contains
// this string will be traced.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(fun lisp.Value) bool {
	info := funInfo(fun)
	if info == nil || info.Docstring() == "" {
		return true
	}
	// do not skip docs that include trace constant
	return !docTraceRegExp.MatchString(info.Docstring())
}
