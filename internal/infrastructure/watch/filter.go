package watch

import (
	"path/filepath"
	"strings"
)

// NameFilter accepts events for a fixed set of file names inside the watched
// directory. Editor swap files and atomic-write temporaries are rejected.
type NameFilter struct {
	names map[string]struct{}
}

// NewNameFilter creates a filter for the given base names.
func NewNameFilter(names ...string) *NameFilter {
	f := &NameFilter{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		f.names[n] = struct{}{}
	}
	return f
}

// Matches returns true if path names one of the watched files.
func (f *NameFilter) Matches(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, "~") {
		return false
	}
	_, ok := f.names[base]
	return ok
}
