// Copyright © 2024 The ELPS authors

package exprlang

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()
	e := New()
	scope := &MapScope{Vars: map[string]any{
		"i":    3,
		"name": "sdbg",
		"xs":   []any{1, 2, 3},
	}}
	tests := []struct {
		expr string
		want any
	}{
		{"i == 3", true},
		{"i + 1", 4},
		{`name + "!"`, "sdbg!"},
		{"len(xs)", 3},
		{"undefined", nil},
		{"i > 1 && name startsWith 's'", true},
	}
	for _, test := range tests {
		got, err := e.Evaluate(scope, test.expr)
		if assert.NoError(t, err, test.expr) {
			assert.Equal(t, test.want, got, test.expr)
		}
	}

	_, err := e.Evaluate(scope, "i +")
	assert.Error(t, err)
	_, err = e.Evaluate(scope, `i / "a"`)
	assert.Error(t, err)
}

func TestEvaluate_NilScope(t *testing.T) {
	t.Parallel()
	v, err := New().Evaluate(nil, "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestEvaluate_NoBindings(t *testing.T) {
	t.Parallel()
	_, err := New().Evaluate(struct{}{}, "1")
	assert.True(t, errors.Is(err, ErrNoBindings))
	assert.Contains(t, err.Error(), "struct {}")
}

func TestMapScope_Parent(t *testing.T) {
	t.Parallel()
	outer := &MapScope{Vars: map[string]any{"a": 1, "b": 2}}
	inner := &MapScope{Vars: map[string]any{"b": 20, "c": 30}, Parent: outer}

	v, ok := inner.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = inner.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, 20, v)
	_, ok = inner.Lookup("d")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, inner.Names())

	got, err := New().Evaluate(inner, "a + b + c")
	require.NoError(t, err)
	assert.Equal(t, 51, got)
}

func TestWithFunction(t *testing.T) {
	t.Parallel()
	e := New(WithFunction("double", func(n int) int { return 2 * n }))
	got, err := e.Evaluate(&MapScope{Vars: map[string]any{"x": 4}}, "double(x)")
	require.NoError(t, err)
	assert.Equal(t, 8, got)

	got, err = e.Evaluate(&MapScope{Vars: map[string]any{"double": 1}}, "double + 1")
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestEvaluator_Cache(t *testing.T) {
	t.Parallel()
	e := New(WithCacheSize(2))
	scope := &MapScope{Vars: map[string]any{"i": 1}}
	for _, src := range []string{"i", "i + 1", "i", "i + 2"} {
		_, err := e.Evaluate(scope, src)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.Cached())
	_, ok := e.cache.get("i + 1")
	assert.False(t, ok, "least recently used program is evicted")
	_, ok = e.cache.get("i")
	assert.True(t, ok)

	_, err := e.Evaluate(scope, "i +")
	assert.Error(t, err)
	assert.Equal(t, 2, e.Cached(), "failed compilations are not cached")
}

func TestProgramCache(t *testing.T) {
	t.Parallel()
	c := newProgramCache(0)
	assert.Equal(t, DefaultCacheSize, c.max)
	e := New()
	for i := 0; i < DefaultCacheSize+10; i++ {
		_, err := e.Evaluate(nil, fmt.Sprintf("%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, DefaultCacheSize, e.Cached())
	_, ok := e.cache.get("0")
	assert.False(t, ok)
	_, ok = e.cache.get(fmt.Sprintf("%d", DefaultCacheSize+9))
	assert.True(t, ok)
	assert.EqualValues(t, 1, e.cache.hits)
}
