// Copyright © 2018 The ELPS authors

package lisp

import (
	"errors"
	"fmt"
)

// Condition names identify the class of a recoverable runtime error.  An
// evaluator converting errors into language level exceptions can use them as
// the exception type.
const (
	CondCapability     = "capability-error"
	CondArity          = "arity-error"
	CondUnboundVar     = "unbound-variable"
	CondBinding        = "binding-error"
	CondSignal         = "signal"
	CondCancelled      = "cancelled"
	CondUnknownFailure = "error"
)

// Conditioner is implemented by errors carrying a condition name.
type Conditioner interface {
	error
	Condition() string
}

// Condition returns the condition name of err, or CondUnknownFailure if no
// error in the chain of err has one.
func Condition(err error) string {
	var c Conditioner
	if errors.As(err, &c) {
		return c.Condition()
	}
	return CondUnknownFailure
}

// CapabilityError is returned by a restricted visit when the value does not
// belong to the requested capability group and no fallback was supplied.
type CapabilityError struct {
	Capability Capability
	Kind       Kind
	Form       string
}

func newCapabilityError(c Capability, v Value) *CapabilityError {
	return &CapabilityError{
		Capability: c,
		Kind:       v.Kind(),
		Form:       Print(v),
	}
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("value is not %s: %s (%s)", e.Capability, e.Form, e.Kind)
}

func (e *CapabilityError) Condition() string { return CondCapability }

// ArityError is returned when a value is invoked with an argument count that
// none of its entry points accept.  When AtLeast is true the caller supplied
// N or more arguments (the exact count was not realized).
type ArityError struct {
	N       int
	AtLeast bool
	Form    string
}

func newArityError(n int, f Value) *ArityError {
	return &ArityError{N: n, Form: Print(f)}
}

func (e *ArityError) Error() string {
	more := ""
	if e.AtLeast {
		more = " or more"
	}
	return fmt.Sprintf("invalid number of arguments: %d%s passed to %s", e.N, more, e.Form)
}

func (e *ArityError) Condition() string { return CondArity }

// UnboundVarError is returned when a Var with neither a thread binding nor a
// root value is dereferenced.
type UnboundVarError struct {
	Var string
}

func (e *UnboundVarError) Error() string {
	return fmt.Sprintf("unbound variable: #'%s", e.Var)
}

func (e *UnboundVarError) Condition() string { return CondUnboundVar }

// Binding misuse sentinels.  A BindingError wraps exactly one of them.
var (
	ErrNonDynamicBinding = errors.New("cannot dynamically bind a non-dynamic variable")
	ErrMismatchedPop     = errors.New("mismatched binding pop")
	ErrNotThreadBound    = errors.New("variable is not bound on this thread")
)

// BindingError reports misuse of the dynamic binding stack.  Var is empty
// for errors not concerning a particular variable.
type BindingError struct {
	Var string
	Err error
}

func (e *BindingError) Error() string {
	if e.Var == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: #'%s", e.Err, e.Var)
}

func (e *BindingError) Unwrap() error { return e.Err }

func (e *BindingError) Condition() string { return CondBinding }

// Signal transfers control non-locally (e.g. throw/catch in the language
// being evaluated).  It is not a failure: the invocation protocol and
// WithBindings propagate it unchanged so that the handler that established
// Tag can receive Payload.
type Signal struct {
	Tag     Value
	Payload Value
}

// Throw returns a Signal carrying payload to the handler for tag.
func Throw(tag, payload Value) error {
	return &Signal{Tag: tag, Payload: payload}
}

func (s *Signal) Error() string {
	return fmt.Sprintf("uncaught signal %s: %s", Print(s.Tag), Print(s.Payload))
}

func (s *Signal) Condition() string { return CondSignal }

// IsSignal returns the Signal in the chain of err, if any.
func IsSignal(err error) (*Signal, bool) {
	var s *Signal
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}

// CancelledError is returned when a thread observes that its context was
// cancelled.  It unwraps to the context error.
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("cancelled: %v", e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

func (e *CancelledError) Condition() string { return CondCancelled }
