package walker

import (
	"slices"

	"github.com/gofhir/profiletree/element"
)

// Patch is an optimistic change to one element's constraint fields. Nil
// fields are left unchanged.
type Patch struct {
	Min         *int             `json:"min,omitempty"`
	Max         *string          `json:"max,omitempty"`
	MustSupport *bool            `json:"mustSupport,omitempty"`
	Short       *string          `json:"short,omitempty"`
	Binding     *element.Binding `json:"binding,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Min == nil && p.Max == nil && p.MustSupport == nil && p.Short == nil && p.Binding == nil
}

// PatchNode returns a new snapshot of tree in which the node with id has
// patch applied and is marked modified. Only the nodes on the path from a
// root to the patched node are copied; tree itself is not changed. The
// second result is false, and tree is returned, when id is not found.
func PatchNode(tree []*element.Node, id string, patch Patch) ([]*element.Node, bool) {
	if id == "" || patch.Empty() {
		return tree, false
	}
	return patchNodes(tree, id, patch)
}

func patchNodes(nodes []*element.Node, id string, patch Patch) ([]*element.Node, bool) {
	for i, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			patched := *n
			applyPatch(&patched, patch)
			out := slices.Clone(nodes)
			out[i] = &patched
			return out, true
		}
		if children, ok := patchNodes(n.Children, id, patch); ok {
			parent := *n
			parent.Children = children
			out := slices.Clone(nodes)
			out[i] = &parent
			return out, true
		}
	}
	return nodes, false
}

func applyPatch(n *element.Node, p Patch) {
	if p.Min != nil && *p.Min >= 0 {
		n.Min = *p.Min
	}
	if p.Max != nil && *p.Max != "" {
		n.Max = *p.Max
	}
	if p.MustSupport != nil {
		n.MustSupport = *p.MustSupport
	}
	if p.Short != nil {
		n.Short = *p.Short
	}
	if p.Binding != nil {
		b := *p.Binding
		n.Binding = &b
	}
	if n.Source == element.SourceInherited {
		n.Source = element.SourceModified
	}
	n.IsModified = true
}
