// Copyright © 2018 The ELPS authors

package debugger_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/luthersystems/sdbg/debugger"
	"github.com/luthersystems/sdbg/debugger/debugtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHarness returns a started harness with autolist off so that output
// only holds what commands print.
func newHarness(t *testing.T, input []string, opts ...debugger.Option) *debugtest.Harness {
	t.Helper()
	base := []debugger.Option{debugger.WithSettings(map[string]string{debugger.SettingAutolist: "off"})}
	return debugtest.NewHarness(t, input, append(base, opts...)...).Start()
}

var fourLines = []string{"a = 1", "b = 2", "c = 3", "d = 4"}

func TestSession_StartTwice(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	assert.True(t, h.Session.Started())
	assert.True(t, h.Runtime.Hooked())
	assert.Error(t, h.Session.Start())
}

func TestSession_InvalidSettingOverride(t *testing.T) {
	t.Parallel()
	h := debugtest.NewHarness(t, nil, debugger.WithSettings(map[string]string{"listsize": "none"}))
	err := h.Session.Start()
	assert.Error(t, err)
	assert.False(t, h.Session.Started())
}

func TestSession_NoStopWithoutBreakpoints(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"where"})
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Lines(1, 2, 3, 4)
	}))
	assert.Empty(t, h.Output())
	assert.Equal(t, 1, h.UI.Remaining())
}

func TestSession_BreakpointStop(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"break 2", "continue"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	var ran []int
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		for _, n := range []int{1, 2, 3, 4} {
			th.Line(n)
			ran = append(ran, n)
		}
	}))
	assert.Equal(t, []string{
		"Successfully created breakpoint with id 1",
		fmt.Sprintf("Stopped by breakpoint 1 at %s:2", src),
	}, h.Output())
	assert.Equal(t, []int{1, 2, 3, 4}, ran)
}

func TestSession_EndOfInputDetaches(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	_, err := h.Session.Breakpoints().Add(debugger.Target{
		Kind:     debugger.TargetLine,
		Location: debugger.Location{File: src, Line: 3},
	}, "", nil)
	require.NoError(t, err)

	lines := 0
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		for _, n := range []int{1, 2, 3, 4} {
			th.Line(n)
			lines++
		}
	}))
	// The session detached at the entry stop, so the breakpoint on line 3
	// never stopped the script.
	assert.Equal(t, 4, lines)
	assert.False(t, h.Session.Started())
	assert.False(t, h.Runtime.Hooked())
	assert.Equal(t, 0, h.Session.Breakpoints().Len())
	assert.Empty(t, h.Output())
}

func TestSession_StartStopCycles(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"break 2"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	script := func(th *debugtest.Thread) { th.Lines(1, 2, 3, 4) }

	require.NoError(t, h.Run(src, script))
	assert.False(t, h.Session.Started())
	assert.Nil(t, h.Session.Active())
	assert.Equal(t, 0, h.Session.Breakpoints().Len())

	h.UI.Enter("info breakpoints", "break 3", "continue")
	require.NoError(t, h.Session.Start())
	require.NoError(t, h.Run(src, script))
	assert.Equal(t, []string{
		"Successfully created breakpoint with id 1",
		"No breakpoints.",
		"Successfully created breakpoint with id 2",
		fmt.Sprintf("Stopped by breakpoint 2 at %s:3", src),
	}, h.Output())
	assert.False(t, h.Session.Started())
	assert.Equal(t, 0, h.Session.Breakpoints().Len())
}

func TestSession_UnknownCommandKeepsLoopRunning(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"foo", "e", "info breakpoints", "continue"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Lines(1, 2)
	}))
	assert.Equal(t, []string{
		"Unknown command 'foo'. Try 'help'",
		"Ambiguous command 'e': enable, eval",
	}, h.Errors())
	assert.Equal(t, []string{"No breakpoints."}, h.Output())
	assert.Equal(t, 0, h.UI.Remaining())
	assert.Contains(t, h.UI.Transcript(), debugger.ErrorPrefix+"Unknown command 'foo'. Try 'help'")
}

func TestSession_EmptyLineRepeatsLastCommand(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"step", "", "", "frame", "", "continue"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Lines(1, 2, 3, 4)
	}))
	// frame is not repeatable; the empty line after it is ignored.
	assert.Equal(t, []string{
		fmt.Sprintf("--> #0  <top (required)> at %s:4", src),
	}, h.Output())
}

func TestSession_StepNextFinish(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{
		"step", "frame",
		"next", "frame",
		"finish", "frame",
		"next", "frame",
	}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", "foo.bar", "x = 1", "y = 2", "", "def bar", "  1", "end")
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Call("", debugtest.Method{Receiver: "Foo", Name: "bar"}, func() {
			th.Line(5)
			th.Line(6)
		})
		th.Line(2)
		th.Line(3)
	}))
	assert.Equal(t, []string{
		fmt.Sprintf("--> #0  Foo.bar at %s:5", src),
		fmt.Sprintf("--> #0  Foo.bar at %s:6", src),
		fmt.Sprintf("--> #0  Foo.bar at %s:6", src),
		fmt.Sprintf("--> #0  <top (required)> at %s:2", src),
	}, h.Output())
	assert.Empty(t, h.Errors())
}

func TestSession_NextStepsOverCalls(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"next", "frame", "next 2", "frame"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Call("", debugtest.Method{Receiver: "Foo", Name: "bar"}, func() {
			th.Lines(3, 4)
		})
		th.Line(2)
		th.Line(3)
		th.Line(4)
	}))
	assert.Equal(t, []string{
		fmt.Sprintf("--> #0  <top (required)> at %s:2", src),
		fmt.Sprintf("--> #0  <top (required)> at %s:4", src),
	}, h.Output())
}

func TestSession_ContinueToLine(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"continue 2", "continue 3", "frame"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", "a = 1", "", "c = 3", "d = 4")
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Lines(1, 3, 4)
	}))
	assert.Equal(t, []string{
		fmt.Sprintf("line 2 is not a valid stopping point in file %s", src),
	}, h.Errors())
	assert.Equal(t, []string{
		fmt.Sprintf("--> #0  <top (required)> at %s:3", src),
	}, h.Output())
}

func TestSession_InterruptedRequestIsDropped(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		request []string
		frameAt int
	}{
		{"next", []string{"next 5"}, 2},
		{"step", []string{"step 4"}, 2},
		{"continue to line", []string{"continue 6"}, 2},
		{"rearmed next", []string{"next 5", "next"}, 3},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			input := append([]string{"break 2"}, test.request...)
			input = append(input, "frame", "continue")
			h := newHarness(t, input, debugger.WithStopOnEntry(true))
			src := h.WriteSource("app.rb", "a = 1", "b = 2", "c = 3", "d = 4", "e = 5", "f = 6", "g = 7")
			require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
				th.Lines(1, 2, 3, 4, 5, 6, 7)
			}))
			assert.Equal(t, []string{
				"Successfully created breakpoint with id 1",
				fmt.Sprintf("Stopped by breakpoint 1 at %s:2", src),
				fmt.Sprintf("--> #0  <top (required)> at %s:%d", src, test.frameAt),
			}, h.Output())
			assert.Empty(t, h.Errors())
			assert.Equal(t, 0, h.UI.Remaining())
			assert.True(t, h.Session.Started())
		})
	}
}

func TestSession_QuitTerminatesScript(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"quit", "n", "quit", "y"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	lines := 0
	err := h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		lines++
		th.Line(2)
	})
	assert.True(t, errors.Is(err, debugtest.ErrTerminated))
	assert.Equal(t, 0, lines)
	assert.False(t, h.Runtime.Hooked())
	transcript := h.UI.Transcript()
	assert.Contains(t, transcript, "Really quit? (y/n) ")
}

func TestSession_QuitUnconditionally(t *testing.T) {
	t.Parallel()
	for _, cmd := range []string{"quit!", "q!", "exit unconditionally"} {
		h := newHarness(t, []string{cmd}, debugger.WithStopOnEntry(true))
		src := h.WriteSource("app.rb", fourLines...)
		err := h.Run(src, func(th *debugtest.Thread) { th.Lines(1, 2) })
		assert.True(t, errors.Is(err, debugtest.ErrTerminated), cmd)
		assert.NotContains(t, h.UI.Transcript(), "Really quit? (y/n) ", cmd)
	}
}

func TestSession_PostMortem(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"step", "eval x", "continue"},
		debugger.WithSettings(map[string]string{debugger.SettingPostMortem: "on"}))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Set("x", 7)
		th.Raise(errors.New("boom"), false)
		th.Raise(errors.New("boom"), true)
	}))
	assert.Equal(t, []string{"Uncaught StandardError: boom", "7"}, h.Output())
	assert.Equal(t, []string{"execution control commands are not available in post-mortem mode"}, h.Errors())
}

func TestSession_UncaughtWithoutPostMortem(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"where"})
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Raise(errors.New("boom"), true)
	}))
	assert.Empty(t, h.Output())
}

func TestSession_ConditionalBreakpoint(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"break 2 if i == 3", "continue", "eval i", "info breakpoints"},
		debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", "5.times do |i|", "  puts i", "end")
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		for i := 0; i < 5; i++ {
			th.Set("i", i)
			th.Line(2)
		}
	}))
	assert.Equal(t, []string{
		"Successfully created breakpoint with id 1",
		fmt.Sprintf("Stopped by breakpoint 1 at %s:2", src),
		"3",
		"Num Enb What",
		fmt.Sprintf("1   y   at %s:2 if i == 3", src),
		"\tbreakpoint already hit 1 time",
	}, h.Output())
}

func TestSession_ConditionErrorWarns(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{`break 2 if i / "x"`, "continue"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Set("i", 1)
		th.Line(2)
		th.Line(3)
	}))
	errs := h.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Warning: breakpoint 1: error evaluating")
	assert.Equal(t, []string{"Successfully created breakpoint with id 1"}, h.Output())
}

func TestSession_HitCondition(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"break 2", "hits 1 % 2", "continue", "eval n", "continue", "eval n"},
		debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		for n := 1; n <= 5; n++ {
			th.Set("n", n)
			th.Line(2)
		}
	}))
	out := h.Output()
	require.Len(t, out, 5)
	assert.Equal(t, "2", out[2])
	assert.Equal(t, "4", out[4])
}

func TestSession_MethodBreakpoint(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"break Foo#bar", "continue", "where"}, debugger.WithStopOnEntry(true))
	src := h.WriteSource("app.rb", fourLines...)
	lib := h.WriteSource("lib/foo.rb", "class Foo", "  def bar", "  end", "end")
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Call(lib, debugtest.Method{Receiver: "Foo", Name: "bar", Singleton: true}, nil)
		th.Line(2)
		th.Call(lib, debugtest.Method{Receiver: "Foo", Name: "bar"}, func() {
			th.Line(3)
		})
	}))
	out := h.Output()
	require.Len(t, out, 4)
	assert.Equal(t, "Successfully created breakpoint with id 1", out[0])
	assert.Equal(t, fmt.Sprintf("Stopped by breakpoint 1 at %s:2", lib), out[1])
	assert.Equal(t, fmt.Sprintf("--> #0  Foo.bar at %s:2", lib), out[2])
	assert.Equal(t, fmt.Sprintf("    #1  <top (required)> at %s:2", src), out[3])
}

func TestSession_PauseEvent(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"frame", "continue"})
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		th.Pause()
		th.Line(2)
	}))
	assert.Equal(t, []string{
		fmt.Sprintf("--> #0  <top (required)> at %s:1", src),
	}, h.Output())
	assert.Equal(t, 0, h.UI.Remaining())
}

func TestSession_RequestPause(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"frame", "continue"})
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Line(1)
		h.Session.RequestPause()
		th.Line(2)
		th.Line(3)
	}))
	assert.Equal(t, []string{
		fmt.Sprintf("--> #0  <top (required)> at %s:2", src),
	}, h.Output())
}

func TestSession_Linetrace(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil,
		debugger.WithSettings(map[string]string{debugger.SettingLinetrace: "on", debugger.SettingBasename: "on"}))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Lines(1, 2)
	}))
	assert.Equal(t, []string{
		"Tracing: app.rb:1 a = 1",
		"Tracing: app.rb:2 b = 2",
	}, h.Output())
}

func TestSession_InitFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	init := filepath.Join(dir, "sdbgrc")
	h := newHarness(t, []string{"frame"}, debugger.WithStopOnEntry(true), debugger.WithInitFile(init))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, os.WriteFile(init, []byte("# setup\nbreak "+src+":3\n\ncontinue\nframe\n"), 0o600))
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) {
		th.Lines(1, 2, 3, 4)
	}))
	assert.Equal(t, []string{
		"Successfully created breakpoint with id 1",
		fmt.Sprintf("Stopped by breakpoint 1 at %s:3", src),
		fmt.Sprintf("--> #0  <top (required)> at %s:3", src),
	}, h.Output())
}

func TestSession_MissingInitFile(t *testing.T) {
	t.Parallel()
	h := newHarness(t, []string{"continue"}, debugger.WithStopOnEntry(true),
		debugger.WithInitFile(filepath.Join(t.TempDir(), "missing")))
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) { th.Line(1) }))
	errs := h.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "cannot read command file")
	assert.Equal(t, 0, h.UI.Remaining())
}

func TestSession_ThreadsStopOneAtATime(t *testing.T) {
	t.Parallel()
	var (
		inside  atomic.Int32
		overlap atomic.Bool
	)
	probe := &debugger.Command{
		Names: []string{"probe"},
		Usage: "probe",
		Run: func(req *debugger.Request) (debugger.Result, error) {
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(10 * time.Millisecond)
			inside.Add(-1)
			return debugger.Resume, nil
		},
	}
	h := newHarness(t, []string{"probe", "probe"}, debugger.WithCommands(probe))
	src := h.WriteSource("app.rb", fourLines...)
	_, err := h.Session.Breakpoints().Add(debugger.Target{
		Kind:     debugger.TargetLine,
		Location: debugger.Location{File: src, Line: 2},
	}, "", nil)
	require.NoError(t, err)

	script := func(th *debugtest.Thread) {
		th.Lines(1, 2, 3)
	}
	done1 := h.Runtime.Go(src, script)
	done2 := h.Runtime.Go(src, script)
	require.NoError(t, <-done1)
	require.NoError(t, <-done2)
	assert.False(t, overlap.Load())
	assert.Equal(t, 0, h.UI.Remaining())
	stops := 0
	for _, line := range h.Output() {
		if line == fmt.Sprintf("Stopped by breakpoint 1 at %s:2", src) {
			stops++
		}
	}
	assert.Equal(t, 2, stops)
	bp, err := h.Session.Breakpoints().Get(1)
	require.NoError(t, err)
	assert.Equal(t, 2, bp.HitCount)
}

func TestSession_Autolist(t *testing.T) {
	t.Parallel()
	h := debugtest.NewHarness(t, []string{"continue"},
		debugger.WithStopOnEntry(true),
		debugger.WithSettings(map[string]string{debugger.SettingListsize: "3", debugger.SettingFullpath: "off"})).Start()
	src := h.WriteSource("app.rb", fourLines...)
	require.NoError(t, h.Run(src, func(th *debugtest.Thread) { th.Lines(2, 3) }))
	assert.Equal(t, []string{
		"[1, 3] in app.rb",
		"   1: a = 1",
		"=> 2: b = 2",
		"   3: c = 3",
	}, h.Output())
}
