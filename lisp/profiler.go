// Copyright © 2018 The ELPS authors

package lisp

// Profiler observes function invocations.  Start is called before an entry
// point runs and the function it returns is called when the entry returns.
// A Profiler is shared by every thread of a runtime.
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// End the profiling session and flush any output
	Complete() error
	// Marks the start of a call to fun on t
	Start(t *Thread, fun Value) func()
}
