package profiler

import (
	"testing"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/stretchr/testify/assert"
)

func TestSkipFilters(t *testing.T) {
	noop := func(*lisp.Thread, []lisp.Value) (lisp.Value, error) { return lisp.Nil(), nil }
	traced := lisp.MustFunction("user/traced", lisp.FunArity{Fn: noop})
	traced.Doc = "Does work. @trace"
	plain := lisp.MustFunction("user/plain", lisp.FunArity{Fn: noop})
	multi := lisp.NewMultiFunction("user/multi", traced)
	multi.Doc = "@trace{ Multi }"
	m, err := lisp.NewArrayMap()
	assert.NoError(t, err)

	tests := []struct {
		name        string
		fun         lisp.Value
		skipDefault bool
		skipDoc     bool
	}{
		{"traced", traced, false, false},
		{"plain", plain, false, true},
		{"multi", multi, false, false},
		{"keyword", lisp.Kw("k"), true, true},
		{"map", m, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.skipDefault, defaultSkipFilter(tc.fun))
			assert.Equal(t, tc.skipDoc, docSkipFilter(tc.fun))
		})
	}
}

func TestPrettyFunName(t *testing.T) {
	noop := func(*lisp.Thread, []lisp.Value) (lisp.Value, error) { return lisp.Nil(), nil }
	fun := lisp.MustFunction("user/add", lisp.FunArity{Fn: noop})
	fun.Doc = "@trace{ Add Things }"

	p := &profiler{}
	pretty, orig := p.prettyFunName(fun)
	assert.Equal(t, "user/add", pretty)
	assert.Equal(t, "user/add", orig)

	p.applyConfigs(WithDocLabeler())
	pretty, orig = p.prettyFunName(fun)
	assert.Equal(t, "Add_Things", pretty)
	assert.Equal(t, "user/add", orig)

	fun.Doc = ""
	pretty, _ = p.prettyFunName(fun)
	assert.Equal(t, "user/add", pretty, "falls back to the function name")

	pretty, orig = p.prettyFunName(lisp.Kw("k"))
	assert.Empty(t, pretty)
	assert.Empty(t, orig)
}

func TestEnableTwice(t *testing.T) {
	p := &profiler{}
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Enable())
	assert.Error(t, p.Enable())
	assert.True(t, p.skipTrace(lisp.Kw("k")))
	assert.NoError(t, p.Complete())
	assert.False(t, p.IsEnabled())
}
