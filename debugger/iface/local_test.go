// Copyright © 2018 The ELPS authors

package iface

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandCompleter(t *testing.T) {
	t.Parallel()
	c := &commandCompleter{names: func() []string {
		return []string{"break", "backtrace", "bt", "continue"}
	}}
	tests := []struct {
		line   string
		want   []string
		length int
	}{
		{"b", []string{"reak", "acktrace", "t"}, 1},
		{"br", []string{"eak"}, 2},
		{"bt", nil, 2},
		{"break 1", nil, 0},
		{"x", nil, 1},
	}
	for _, test := range tests {
		got, n := c.Do([]rune(test.line), len([]rune(test.line)))
		var words []string
		for _, r := range got {
			words = append(words, string(r))
		}
		assert.Equal(t, test.want, words, test.line)
		assert.Equal(t, test.length, n, test.line)
	}
}
