package walker

import (
	"sort"
)

// PathSet is a set of element paths, used for the expanded state.
type PathSet map[string]struct{}

// NewPathSet returns a set holding paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether path is in the set. A nil set is empty.
func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Add inserts paths.
func (s PathSet) Add(paths ...string) {
	for _, p := range paths {
		s[p] = struct{}{}
	}
}

// Remove deletes path.
func (s PathSet) Remove(path string) {
	delete(s, path)
}

// Toggle flips membership of path and reports whether it is now present.
func (s PathSet) Toggle(path string) bool {
	if s.Has(path) {
		delete(s, path)
		return false
	}
	s[path] = struct{}{}
	return true
}

// Clone returns an independent copy.
func (s PathSet) Clone() PathSet {
	c := make(PathSet, len(s))
	for p := range s {
		c[p] = struct{}{}
	}
	return c
}

// Sorted returns the paths in lexical order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
