// Copyright © 2018 The ELPS authors

package debugger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct{ X, Y int }

type symbol string

func (s symbol) DebugString() string { return ":" + string(s) }
func (s symbol) DebugType() string   { return "Symbol" }

func TestFormatValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		v    any
		want string
	}{
		{nil, "nil"},
		{"hi\n", `"hi\n"`},
		{42, "42"},
		{true, "true"},
		{2.5, "2.5"},
		{errors.New("boom"), "#<StandardError: boom>"},
		{[]any{1, "a", nil}, `[1, "a", nil]`},
		{make([]int, 11), "[11 elements]"},
		{map[string]int{"b": 2, "a": 1}, `{"a" => 1, "b" => 2}`},
		{[]int(nil), "nil"},
		{&point{1, 2}, "#<point>"},
		{symbol("ok"), ":ok"},
		{[]symbol{"a"}, "[:a]"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, FormatValue(test.v), "%#v", test.v)
	}
}

func TestTypeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "NilClass", TypeName(nil))
	assert.Equal(t, "String", TypeName(""))
	assert.Equal(t, "TrueClass", TypeName(true))
	assert.Equal(t, "FalseClass", TypeName(false))
	assert.Equal(t, "Integer", TypeName(int64(1)))
	assert.Equal(t, "Float", TypeName(float32(1)))
	assert.Equal(t, "StandardError", TypeName(errors.New("x")))
	assert.Equal(t, "Array", TypeName([]string{}))
	assert.Equal(t, "Hash", TypeName(map[int]int{}))
	assert.Equal(t, "Proc", TypeName(func() {}))
	assert.Equal(t, "point", TypeName(&point{}))
	assert.Equal(t, "Symbol", TypeName(symbol("s")))
	assert.Equal(t, "Object", TypeName(struct{}{}))
}
