// Copyright © 2018 The ELPS authors

package debugger

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sync"
)

// SourceCache loads source files on demand for listings and line traces.
type SourceCache struct {
	mu    sync.Mutex
	files map[string][]string
}

// NewSourceCache returns an empty cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{files: make(map[string][]string)}
}

// Lines returns the lines of file.
func (c *SourceCache) Lines(file string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if lines, ok := c.files[file]; ok {
		return lines, nil
	}
	b, err := os.ReadFile(file) //#nosec G304
	if err != nil {
		return nil, err
	}
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	c.files[file] = lines
	return lines, nil
}

// Line returns the text of line n (1-based), or "" when unavailable.
func (c *SourceCache) Line(file string, n int) string {
	lines, err := c.Lines(file)
	if err != nil || n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// Window returns the range [first, last] of up to size lines centered on
// line, clamped to the file.
func (c *SourceCache) Window(file string, line, size int) (first, last int, err error) {
	lines, err := c.Lines(file)
	if err != nil {
		return 0, 0, err
	}
	if len(lines) == 0 {
		return 0, 0, fmt.Errorf("%s is empty", file)
	}
	if size < 1 {
		size = 1
	}
	first = line - size/2
	if first < 1 {
		first = 1
	}
	last = first + size - 1
	if last > len(lines) {
		last = len(lines)
		first = last - size + 1
		if first < 1 {
			first = 1
		}
	}
	return first, last, nil
}

// Listing renders lines [first, last] of file with a "=>" marker on
// current:
//
//	[first, last] in FILE
//	   n: text
//	=> n: text
func (c *SourceCache) Listing(file string, first, last, current int, paths PathStyle) []string {
	lines, err := c.Lines(file)
	if err != nil {
		return []string{fmt.Sprintf("No sourcefile available for %s", paths.Render(file))}
	}
	if last > len(lines) {
		last = len(lines)
	}
	out := []string{fmt.Sprintf("[%d, %d] in %s", first, last, paths.Render(file))}
	width := len(fmt.Sprint(last))
	for n := first; n <= last; n++ {
		marker := "  "
		if n == current {
			marker = "=>"
		}
		out = append(out, fmt.Sprintf("%s %*d: %s", marker, width, n, lines[n-1]))
	}
	return out
}
