package state

import (
	"errors"
	"fmt"
	"maps"

	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/walker"
)

// ErrNoSelection is returned by events that act on the selected element
// when nothing is selected or the selection no longer resolves.
var ErrNoSelection = errors.New("no element selected")

// Store is the explicit state container of one editing session.
type Store struct {
	tree  []*element.Node
	index *walker.ElementIndex

	generation uint64
	loaded     uint64
	loading    bool
	loadErr    string

	expanded   walker.PathSet
	selectedID string
	filter     walker.FilterOptions
	predicate  walker.Predicate
	sliceViews map[string]string
}

// New returns an empty store with nothing loaded.
func New() *Store {
	return &Store{
		index:      walker.NewElementIndex(nil),
		expanded:   make(walker.PathSet),
		sliceViews: make(map[string]string),
	}
}

// Tree returns the current canonical tree snapshot. Callers must not
// modify it.
func (s *Store) Tree() []*element.Node { return s.tree }

// Expanded returns a copy of the expanded path set.
func (s *Store) Expanded() walker.PathSet { return s.expanded.Clone() }

// SetExpanded replaces the expanded path set, e.g. with persisted state.
func (s *Store) SetExpanded(paths walker.PathSet) {
	if paths == nil {
		paths = make(walker.PathSet)
	}
	s.expanded = paths.Clone()
}

// SelectedID returns the id of the selected element, or "".
func (s *Store) SelectedID() string { return s.selectedID }

// Filter returns the active filter options.
func (s *Store) Filter() walker.FilterOptions { return s.filter }

// SliceViews returns a copy of the slice view map.
func (s *Store) SliceViews() map[string]string { return maps.Clone(s.sliceViews) }

// Generation returns the generation of the most recently begun load.
func (s *Store) Generation() uint64 { return s.generation }

// Loading reports whether the most recently begun load is still pending.
func (s *Store) Loading() bool { return s.loading }

// Err returns the message of the last failed load, or "".
func (s *Store) Err() string { return s.loadErr }

// Dispatch applies events in order. It stops at the first event that fails;
// that event leaves the store as it was, earlier events stay applied.
func (s *Store) Dispatch(events ...Event) error {
	for _, e := range events {
		if e == nil {
			continue
		}
		if err := e.apply(s); err != nil {
			return fmt.Errorf("%s: %w", e.Type(), err)
		}
	}
	return nil
}

// BeginLoad starts a new load and returns its generation. Any load begun
// earlier becomes stale.
func (s *Store) BeginLoad() uint64 {
	s.generation++
	s.loading = true
	return s.generation
}

// CompleteLoad installs tree as the current snapshot if gen is the latest
// begun load. It reports whether the result was accepted. The selection is
// kept only if its id still exists in the new tree.
func (s *Store) CompleteLoad(gen uint64, tree []*element.Node) bool {
	if gen != s.generation {
		return false
	}
	s.tree = tree
	s.index = walker.NewElementIndex(tree)
	s.loaded = gen
	s.loading = false
	s.loadErr = ""
	if s.selectedID != "" && s.index.ByID(s.selectedID) == nil {
		s.selectedID = ""
	}
	return true
}

// FailLoad records msg as the load error if gen is the latest begun load.
// The previous tree stays in place. It reports whether the failure was
// accepted.
func (s *Store) FailLoad(gen uint64, msg string) bool {
	if gen != s.generation {
		return false
	}
	s.loading = false
	s.loadErr = msg
	return true
}

// Selected returns the selected node of the canonical tree, or nil.
func (s *Store) Selected() *element.Node {
	if s.selectedID == "" {
		return nil
	}
	return s.index.ByID(s.selectedID)
}

func (s *Store) replaceTree(tree []*element.Node) {
	s.tree = tree
	s.index = walker.NewElementIndex(tree)
}
