// Copyright © 2024 The ELPS authors

package debugger

import (
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"
)

// ShortPathWidth is the maximum display width of a path rendered with
// fullpath off.
const ShortPathWidth = 40

const truncatedPrefix = ".../"

// PathStyle selects how source paths are displayed.
type PathStyle struct {
	Full     bool
	Basename bool
	// Dir is the directory short paths are made relative to.  When empty
	// short paths are only truncated.
	Dir string
}

// Render returns file as it should be displayed.
func (s PathStyle) Render(file string) string {
	if file == "" {
		return file
	}
	if s.Basename {
		return filepath.Base(file)
	}
	clean := filepath.Clean(file)
	if s.Full {
		return clean
	}
	return shortenPath(relativeTo(clean, s.Dir), ShortPathWidth)
}

func relativeTo(file, dir string) string {
	if dir == "" || !filepath.IsAbs(file) {
		return file
	}
	rel, err := filepath.Rel(dir, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return file
	}
	return rel
}

// shortenPath truncates path from the left to fit width display cells,
// keeping as many trailing components as fit and at least the base name.
func shortenPath(path string, width int) string {
	if uniseg.StringWidth(path) <= width {
		return path
	}
	parts := strings.Split(path, string(filepath.Separator))
	tail := parts[len(parts)-1]
	used := uniseg.StringWidth(truncatedPrefix) + uniseg.StringWidth(tail)
	for i := len(parts) - 2; i >= 0; i-- {
		w := uniseg.StringWidth(parts[i]) + 1
		if used+w > width {
			break
		}
		tail = parts[i] + string(filepath.Separator) + tail
		used += w
	}
	return truncatedPrefix + tail
}
