package profiler

import (
	"fmt"
	"sync/atomic"

	"github.com/luthersystems/corelisp/lisp"
)

// profiler is a minimal lisp.Profiler
type profiler struct {
	runtime    *lisp.Runtime
	enabled    atomic.Bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

func (p *profiler) IsEnabled() bool {
	return p.enabled.Load()
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if !p.enabled.CompareAndSwap(false, true) {
		return fmt.Errorf("profiler already enabled")
	}
	return nil
}

func (p *profiler) Complete() error {
	p.enabled.Store(false)
	return nil
}

func (p *profiler) Start(t *lisp.Thread, fun lisp.Value) func() {
	return func() {}
}

// funInfo returns the name information of function kinds.
func funInfo(fun lisp.Value) *lisp.FunInfo {
	switch fun := fun.(type) {
	case *lisp.NativeFunction:
		return &fun.FunInfo
	case *lisp.CompiledFunction:
		return &fun.FunInfo
	case *lisp.MultiFunction:
		return &fun.FunInfo
	}
	return nil
}

// defaultFunName constructs a pretty canonical name using the function name.
func defaultFunName(fun lisp.Value) string {
	info := funInfo(fun)
	if info == nil {
		return ""
	}
	return info.QualifiedName()
}

// funNamespace returns the namespace fun was defined in.
func funNamespace(fun lisp.Value) string {
	if info := funInfo(fun); info != nil {
		return info.NS
	}
	return ""
}

// prettyFunName returns a pretty name and original name for a fun. If there is
// no pretty name, then the pretty name is the original name. The original
// name is namespace qualified.
func (p *profiler) prettyFunName(fun lisp.Value) (string, string) {
	origLabel := defaultFunName(fun)
	if origLabel == "" {
		return "", ""
	}
	prettyLabel := origLabel
	if p.funLabeler != nil {
		prettyLabel = p.funLabeler(p.runtime, fun)
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}

	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(v lisp.Value) bool {
	return !p.IsEnabled() || defaultSkipFilter(v) || p.skipFilter != nil && p.skipFilter(v)
}

var _ lisp.Profiler = &profiler{}
