package state

import (
	"github.com/gofhir/profiletree/walker"
)

// Event types as they appear in the JSON event envelope.
const (
	TypeTogglePath    = "toggle-path"
	TypeSelect        = "select"
	TypeSelectByPath  = "select-by-path"
	TypeSetFilter     = "set-filter"
	TypeSetSearch     = "set-search"
	TypeExpandAll     = "expand-all"
	TypeCollapseAll   = "collapse-all"
	TypeSetSliceView  = "set-slice-view"
	TypeExpandPath    = "expand-path"
	TypeCollapsePath  = "collapse-path"
	TypePatchSelected = "patch-selected"
)

// Event is a state transition applied by Store.Dispatch.
type Event interface {
	Type() string
	apply(s *Store) error
}

// TogglePath adds Path to the expanded set, or removes it if present.
type TogglePath struct {
	Path string `json:"path"`
}

func (TogglePath) Type() string { return TypeTogglePath }

func (e TogglePath) apply(s *Store) error {
	s.expanded.Toggle(e.Path)
	return nil
}

// Select selects the element with ID. An empty ID clears the selection.
type Select struct {
	ID string `json:"id"`
}

func (Select) Type() string { return TypeSelect }

func (e Select) apply(s *Store) error {
	s.selectedID = e.ID
	return nil
}

// SelectByPath selects the first element in pre-order whose path is Path
// and expands every ancestor path so it is visible. Nothing happens when no
// element has that path.
type SelectByPath struct {
	Path string `json:"path"`
}

func (SelectByPath) Type() string { return TypeSelectByPath }

func (e SelectByPath) apply(s *Store) error {
	n := s.index.ByPath(e.Path)
	if n == nil {
		return nil
	}
	s.selectedID = n.ID
	for _, p := range walker.AncestorPaths(e.Path) {
		s.expanded.Add(p)
	}
	return nil
}

// SetFilter merges the non-nil fields into the filter options. A non-nil
// Expression is compiled first; if it does not compile the filter is left
// unchanged.
type SetFilter struct {
	ModifiedOnly    *bool   `json:"modifiedOnly,omitempty"`
	ErrorsOnly      *bool   `json:"errorsOnly,omitempty"`
	MustSupportOnly *bool   `json:"mustSupportOnly,omitempty"`
	SearchQuery     *string `json:"searchQuery,omitempty"`
	Expression      *string `json:"expression,omitempty"`
}

func (SetFilter) Type() string { return TypeSetFilter }

func (e SetFilter) apply(s *Store) error {
	next := s.filter
	pred := s.predicate
	if e.Expression != nil {
		compiled, err := walker.CompileExpression(*e.Expression)
		if err != nil {
			return err
		}
		next.Expression = *e.Expression
		pred = compiled
	}
	if e.ModifiedOnly != nil {
		next.ModifiedOnly = *e.ModifiedOnly
	}
	if e.ErrorsOnly != nil {
		next.ErrorsOnly = *e.ErrorsOnly
	}
	if e.MustSupportOnly != nil {
		next.MustSupportOnly = *e.MustSupportOnly
	}
	if e.SearchQuery != nil {
		next.SearchQuery = *e.SearchQuery
	}
	s.filter = next
	s.predicate = pred
	return nil
}

// SetSearch sets the search query.
type SetSearch struct {
	Query string `json:"query"`
}

func (SetSearch) Type() string { return TypeSetSearch }

func (e SetSearch) apply(s *Store) error {
	s.filter.SearchQuery = e.Query
	return nil
}

// ExpandAll expands every path of the current tree that has children.
type ExpandAll struct{}

func (ExpandAll) Type() string { return TypeExpandAll }

func (ExpandAll) apply(s *Store) error {
	s.expanded = walker.PathsWithChildren(s.tree)
	return nil
}

// CollapseAll empties the expanded set.
type CollapseAll struct{}

func (CollapseAll) Type() string { return TypeCollapseAll }

func (CollapseAll) apply(s *Store) error {
	s.expanded = make(walker.PathSet)
	return nil
}

// SetSliceView chooses which slice a sliced element shows. An empty View or
// walker.BaseView shows the base children.
type SetSliceView struct {
	Path string `json:"path"`
	View string `json:"view"`
}

func (SetSliceView) Type() string { return TypeSetSliceView }

func (e SetSliceView) apply(s *Store) error {
	if e.View == "" || e.View == walker.BaseView {
		delete(s.sliceViews, e.Path)
		return nil
	}
	s.sliceViews[e.Path] = e.View
	return nil
}

// ExpandPath adds Path to the expanded set.
type ExpandPath struct {
	Path string `json:"path"`
}

func (ExpandPath) Type() string { return TypeExpandPath }

func (e ExpandPath) apply(s *Store) error {
	s.expanded.Add(e.Path)
	return nil
}

// CollapsePath removes Path from the expanded set.
type CollapsePath struct {
	Path string `json:"path"`
}

func (CollapsePath) Type() string { return TypeCollapsePath }

func (e CollapsePath) apply(s *Store) error {
	s.expanded.Remove(e.Path)
	return nil
}

// PatchSelected applies an optimistic constraint change to the selected
// element of the current snapshot.
type PatchSelected struct {
	Patch walker.Patch `json:"patch"`
}

func (PatchSelected) Type() string { return TypePatchSelected }

func (e PatchSelected) apply(s *Store) error {
	if s.Selected() == nil {
		return ErrNoSelection
	}
	if e.Patch.Empty() {
		return nil
	}
	tree, ok := walker.PatchNode(s.tree, s.selectedID, e.Patch)
	if !ok {
		return ErrNoSelection
	}
	s.replaceTree(tree)
	return nil
}

// AffectsExpansion reports whether e can change the expanded set.
func AffectsExpansion(e Event) bool {
	switch e.(type) {
	case TogglePath, SelectByPath, ExpandAll, CollapseAll, ExpandPath, CollapsePath:
		return true
	}
	return false
}
