// Copyright © 2018 The ELPS authors

package debugger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartFile = "/home/dev/shop/lib/cart.rb"

func cartStack() *FrameStack {
	return Capture([]ActivationRecord{
		{
			Kind:     FrameMethod,
			Receiver: "Shop::Cart",
			Method:   "to_int",
			Location: Location{File: cartFile, Line: 16},
			Args:     []Arg{{Name: "str", Value: "1"}},
		},
		{
			Kind:     FrameMethod,
			Receiver: "Shop::Cart",
			Method:   "a",
			Location: Location{File: cartFile, Line: 11},
		},
		{
			Kind:     FrameMethod,
			Receiver: "Shop::Cart",
			Method:   "initialize",
			Location: Location{File: cartFile, Line: 7},
			Args:     []Arg{{Name: "l", Value: int64(3)}, {Name: "opts", Kind: ArgKeyRest}},
		},
		{
			Kind:       FrameMethod,
			Receiver:   "Class",
			Method:     "new",
			Location:   Location{File: cartFile, Line: 20},
			Args:       []Arg{{Name: "args", Kind: ArgRest}},
			Reflective: true,
		},
		{
			Kind:     FrameTop,
			Location: Location{File: cartFile, Line: 20},
		},
	})
}

func TestFrameStack_BacktraceLong(t *testing.T) {
	t.Parallel()
	paths := PathStyle{Full: true}
	lines := cartStack().Backtrace(0, CallStyleLong, paths)
	assert.Equal(t, []string{
		"--> #0  Shop::Cart.to_int(str#String) at " + cartFile + ":16",
		"    #1  Shop::Cart.a at " + cartFile + ":11",
		"    #2  Shop::Cart.initialize(l#Integer, **opts) at " + cartFile + ":7",
		"    ͱ-- #3  Class.new(*args) at " + cartFile + ":20",
		"    #4  <top (required)> at " + cartFile + ":20",
	}, lines)
}

func TestFrameStack_BacktraceShort(t *testing.T) {
	t.Parallel()
	paths := PathStyle{Full: true}
	lines := cartStack().Backtrace(1, CallStyleShort, paths)
	assert.Equal(t, "    #0  to_int(str) at "+cartFile+":16", lines[0])
	assert.Equal(t, "--> #1  a at "+cartFile+":11", lines[1])
	assert.Equal(t, "    ͱ-- #3  new(*args) at "+cartFile+":20", lines[3])
}

func TestFrame_BlockLabels(t *testing.T) {
	t.Parallel()
	f := &Frame{
		Kind:     FrameBlock,
		Receiver: "Shop::Cart",
		Method:   "foo",
		Location: Location{File: cartFile, Line: 6},
	}
	assert.Equal(t, "block in foo", f.Label())
	assert.Equal(t, "block in Shop::Cart.block in foo", f.Call(CallStyleLong))
	assert.Equal(t, "block in foo", f.Call(CallStyleShort))
	assert.Equal(t, "--> #0  block in Shop::Cart.block in foo at "+cartFile+":6",
		FormatFrame(f, true, CallStyleLong, PathStyle{Full: true}))

	f.BlockDepth = 2
	assert.Equal(t, "block in block in foo", f.Label())
}

func TestFrame_BodyLabels(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "<module:Shop>", (&Frame{Kind: FrameModule, Method: "Shop"}).Call(CallStyleLong))
	assert.Equal(t, "<class:Cart>", (&Frame{Kind: FrameClass, Method: "Cart"}).Call(CallStyleShort))
	assert.Equal(t, "<top (required)>", (&Frame{Kind: FrameTop}).Call(CallStyleLong))
}

func TestFrame_ArgFormatting(t *testing.T) {
	t.Parallel()
	f := &Frame{
		Kind:   FrameMethod,
		Method: "m",
		Args: []Arg{
			{Name: "a", Value: 1.5},
			{Name: "b", Kind: ArgOptional, Value: nil},
			{Name: "c", Kind: ArgKeyword, Type: "Symbol"},
			{Name: "blk", Kind: ArgBlock},
		},
	}
	assert.Equal(t, "m(a#Float, b#NilClass, c#Symbol, &blk)", f.Call(CallStyleLong))
	assert.Equal(t, "m(a, b, c, &blk)", f.Call(CallStyleShort))
}

func TestFrameStack_ShortPaths(t *testing.T) {
	t.Parallel()
	deep := "/home/dev/project/a/very/deeply/nested/directory/structure/for/tests/example.rb"
	stack := Capture([]ActivationRecord{{Kind: FrameTop, Location: Location{File: deep, Line: 1}}})
	lines := stack.Backtrace(0, CallStyleLong, PathStyle{Dir: "/home/dev/project"})
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "at .../")
	assert.Contains(t, lines[0], "for/tests/example.rb:1")
}

func TestFrameStack_FrameAt(t *testing.T) {
	t.Parallel()
	stack := cartStack()
	assert.Equal(t, 5, stack.Len())
	f, err := stack.FrameAt(2)
	require.NoError(t, err)
	assert.Equal(t, "initialize", f.Method)
	assert.Equal(t, 2, f.Index)

	caller, err := stack.Caller(3)
	require.NoError(t, err)
	assert.Equal(t, FrameTop, caller.Kind)

	_, err = stack.FrameAt(5)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = stack.Caller(4)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = stack.FrameAt(-1)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	var empty *FrameStack
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Frames())
}

func TestCapture_CopiesArgs(t *testing.T) {
	t.Parallel()
	records := []ActivationRecord{{Kind: FrameMethod, Method: "m", Args: []Arg{{Name: "a", Value: 1}}}}
	stack := Capture(records)
	records[0].Args[0].Name = "changed"
	f, _ := stack.FrameAt(0)
	assert.Equal(t, "a", f.Args[0].Name)
}
