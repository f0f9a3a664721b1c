package state

import (
	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/walker"
)

// View is the derived, displayable state of a Store.
type View struct {
	// Tree is the filtered tree.
	Tree []*element.Node
	// Rows is Tree flattened with the current expansion and slice views.
	Rows []walker.Row
	// Selected is the selected node of the unfiltered tree, or nil.
	Selected *element.Node

	Filter     walker.FilterOptions
	Generation uint64
	Loading    bool
	Error      string
}

// View derives the current view.
func (s *Store) View() View {
	var extra []walker.Predicate
	if s.predicate != nil {
		extra = append(extra, s.predicate)
	}
	filtered := walker.Filter(s.tree, s.filter, extra...)
	return View{
		Tree:       filtered,
		Rows:       walker.Flatten(filtered, s.expanded, s.sliceViews),
		Selected:   s.Selected(),
		Filter:     s.filter,
		Generation: s.loaded,
		Loading:    s.loading,
		Error:      s.loadErr,
	}
}

// RowView is a row without nested element children, shaped for transport.
type RowView struct {
	ID          string   `json:"id"`
	Path        string   `json:"path"`
	SliceName   string   `json:"sliceName,omitempty"`
	Label       string   `json:"label"`
	Depth       int      `json:"depth"`
	Min         int      `json:"min"`
	Max         string   `json:"max"`
	Types       []string `json:"types,omitempty"`
	Short       string   `json:"short,omitempty"`
	MustSupport bool     `json:"mustSupport,omitempty"`
	IsModifier  bool     `json:"isModifier,omitempty"`
	IsSummary   bool     `json:"isSummary,omitempty"`
	Source      string   `json:"source"`
	IsModified  bool     `json:"isModified"`
	HasChildren bool     `json:"hasChildren"`
	Expanded    bool     `json:"expanded"`
	SliceNames  []string `json:"sliceNames,omitempty"`
	SliceView   string   `json:"sliceView,omitempty"`
	Selected    bool     `json:"selected,omitempty"`
}

// RowViews converts the view's rows for transport.
func (v View) RowViews() []RowView {
	selectedID := ""
	if v.Selected != nil {
		selectedID = v.Selected.ID
	}
	out := make([]RowView, 0, len(v.Rows))
	for _, r := range v.Rows {
		n := r.Element
		rv := RowView{
			ID:          n.ID,
			Path:        n.Path,
			SliceName:   n.SliceName,
			Label:       r.Label(),
			Depth:       r.Depth,
			Min:         n.Min,
			Max:         n.Max,
			Short:       n.Short,
			MustSupport: n.MustSupport,
			IsModifier:  n.IsModifier,
			IsSummary:   n.IsSummary,
			Source:      string(n.Source),
			IsModified:  n.IsModified,
			HasChildren: r.HasChildren(),
			Expanded:    r.Expanded,
			SliceNames:  r.SliceNames,
			SliceView:   r.View,
			Selected:    n.ID == selectedID,
		}
		for _, t := range n.Types {
			rv.Types = append(rv.Types, t.Code)
		}
		out = append(out, rv)
	}
	return out
}
