package profiler_test

import (
	"bytes"
	"runtime/pprof"
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/luthersystems/corelisp/lisp/x/profiler"
	"github.com/luthersystems/corelisp/lisptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sampling makes the profile itself nondeterministic, so this checks the
// labels visible to a running function instead.
func TestNewPprofAnnotator(t *testing.T) {
	rt := lisptest.NewRuntime(t)
	main := newProgram(t, rt)
	ppa := profiler.NewPprofAnnotator(rt, nil)
	var buf bytes.Buffer
	require.NoError(t, pprof.StartCPUProfile(&buf))
	defer pprof.StopCPUProfile()
	require.NoError(t, ppa.Enable())

	var labels map[string]string
	probe := lisp.MustFunction("user/probe", lisp.FunArity{Fn: func(t *lisp.Thread, _ []lisp.Value) (lisp.Value, error) {
		labels = map[string]string{}
		ctx := ppa.Context(t)
		pprof.ForLabels(ctx, func(k, v string) bool {
			labels[k] = v
			return true
		})
		return lisp.Nil(), nil
	}})
	_, err := lisp.DynamicCall(rt.NewThread(), probe)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"function": "user/probe", "namespace": "user"}, labels)

	runProgram(t, rt, main)
	// Mark the profile as complete and dump the rest of the profile
	assert.NoError(t, ppa.Complete())
	_, ok := pprof.Label(ppa.Context(rt.NewThread()), "function")
	assert.False(t, ok)
}
