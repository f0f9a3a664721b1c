package walker

import (
	"strings"

	"github.com/gofhir/profiletree/element"
)

// FilterOptions selects which elements a display pass keeps. All active
// options must hold for a node to match on its own.
type FilterOptions struct {
	ModifiedOnly    bool   `json:"modifiedOnly"`
	ErrorsOnly      bool   `json:"errorsOnly"`
	MustSupportOnly bool   `json:"mustSupportOnly"`
	SearchQuery     string `json:"searchQuery"`

	// Expression is an element expression compiled with CompileExpression.
	// Filter does not read it; pass the compiled Predicate instead.
	Expression string `json:"expression,omitempty"`
}

// Active reports whether any option restricts the tree.
func (o FilterOptions) Active() bool {
	return o.ModifiedOnly || o.ErrorsOnly || o.MustSupportOnly || o.SearchQuery != ""
}

// Predicate is an additional per-node match condition.
type Predicate func(n *element.Node) bool

// Filter returns the nodes of tree that match opts and every predicate,
// together with all of their ancestors. A kept node keeps only its kept
// children. When nothing is active the input slice itself is returned.
//
// ErrorsOnly has no error source in the tree and always matches.
func Filter(tree []*element.Node, opts FilterOptions, extra ...Predicate) []*element.Node {
	preds := make([]Predicate, 0, len(extra))
	for _, p := range extra {
		if p != nil {
			preds = append(preds, p)
		}
	}
	if !opts.Active() && len(preds) == 0 {
		return tree
	}

	m := matcher{opts: opts, query: strings.ToLower(opts.SearchQuery), extra: preds}
	out := m.filter(tree)
	if out == nil {
		out = []*element.Node{}
	}
	return out
}

type matcher struct {
	opts  FilterOptions
	query string
	extra []Predicate
}

// matches is the local match of a single node.
func (m *matcher) matches(n *element.Node) bool {
	if m.opts.ModifiedOnly && !n.IsModified {
		return false
	}
	if m.opts.MustSupportOnly && !n.MustSupport {
		return false
	}
	if m.query != "" && !strings.Contains(strings.ToLower(n.Path), m.query) {
		return false
	}
	for _, p := range m.extra {
		if !p(n) {
			return false
		}
	}
	return true
}

func (m *matcher) filter(nodes []*element.Node) []*element.Node {
	var out []*element.Node
	for _, n := range nodes {
		if n == nil {
			continue
		}
		children := m.filter(n.Children)
		if len(children) == 0 && !m.matches(n) {
			continue
		}
		kept := *n
		kept.Children = children
		out = append(out, &kept)
	}
	return out
}
