// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Config is a function that configures a Runtime.
type Config func(rt *Runtime) error

// WithLogger returns a Config that makes the runtime log to logger instead
// of a logger writing warnings to the runtime's Stderr.
func WithLogger(logger *logrus.Logger) Config {
	return func(rt *Runtime) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		rt.Logger = logger
		return nil
	}
}

// WithStderr returns a Config that makes the runtime write diagnostic output
// to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stderr = w
		return nil
	}
}

// WithProfiler returns a Config that attaches p to the runtime.  The
// profiler observes calls once it is enabled.
func WithProfiler(p Profiler) Config {
	return func(rt *Runtime) error {
		rt.Profiler = p
		return nil
	}
}

// WithLangNamespace returns a Config that interns the runtime's own Vars in
// the namespace called name.
func WithLangNamespace(name string) Config {
	return func(rt *Runtime) error {
		if name == "" {
			return fmt.Errorf("empty namespace name")
		}
		rt.langNS = name
		return nil
	}
}

// WithUserNamespace returns a Config that makes *ns* initially refer to the
// namespace called name.
func WithUserNamespace(name string) Config {
	return func(rt *Runtime) error {
		if name == "" {
			return fmt.Errorf("empty namespace name")
		}
		rt.userNS = name
		return nil
	}
}
