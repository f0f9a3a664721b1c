package walker

import (
	"slices"

	"github.com/gofhir/profiletree/element"
)

// BaseView is the slice view showing a sliced element's unsliced children.
const BaseView = "base"

// Row is one displayable line of the flattened tree.
type Row struct {
	Element *element.Node
	Depth   int

	// DisplayName is a label hint; empty means the caller derives the label
	// from the path and slice name (see Label).
	DisplayName string

	// SliceNames lists the distinct slice names among the element's
	// children, in order.
	SliceNames []string

	// Children are the children this row renders after slice-view
	// resolution, extension collapse and reordering.
	Children []*element.Node

	// View is the active slice view of a sliced element that offers a view
	// switcher, empty otherwise.
	View string

	Expanded bool
}

// HasChildren reports whether the row has children to render.
func (r Row) HasChildren() bool {
	return len(r.Children) > 0
}

// Label returns DisplayName, falling back to the last path segment with
// the slice name appended.
func (r Row) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	label := LastSegment(r.Element.Path)
	if r.Element.SliceName != "" {
		label += ":" + r.Element.SliceName
	}
	return label
}

// Flatten produces the pre-order row list of tree. A row's rendered
// children follow it immediately when its path is in expanded.
// sliceViews maps a sliced element's path to the slice name it shows;
// missing entries show BaseView.
func Flatten(tree []*element.Node, expanded PathSet, sliceViews map[string]string) []Row {
	f := flattener{expanded: expanded, views: sliceViews}
	f.nodes(tree, 0)
	return f.rows
}

type flattener struct {
	expanded PathSet
	views    map[string]string
	rows     []Row
}

func (f *flattener) nodes(nodes []*element.Node, depth int) {
	for _, n := range nodes {
		f.node(n, depth)
	}
}

func (f *flattener) node(n *element.Node, depth int) {
	if n == nil {
		return
	}
	if isTransparentContainer(n) {
		f.nodes(n.Children, depth)
		return
	}

	res := Resolve(n, f.views)
	row := Row{
		Element:     n,
		Depth:       depth,
		DisplayName: res.DisplayName,
		SliceNames:  res.SliceNames,
		Children:    res.Children,
		View:        res.View,
	}
	row.Expanded = len(res.Children) > 0 && f.expanded.Has(n.Path)
	f.rows = append(f.rows, row)

	if row.Expanded {
		f.nodes(res.Children, depth+1)
	}
}

// isTransparentContainer reports whether n is an unsliced ".extension"
// element with children. Such a container is not shown; its children take
// its place.
func isTransparentContainer(n *element.Node) bool {
	return IsExtensionContainerPath(n.Path) && n.SliceName == "" && len(n.Children) > 0
}

// Resolution is what a single element renders.
type Resolution struct {
	Children    []*element.Node
	SliceNames  []string
	View        string
	DisplayName string
}

// Resolve computes the children, slice view and label hint of n for the
// given slice views. The result shares nodes with n but never aliases its
// children slice.
func Resolve(n *element.Node, sliceViews map[string]string) Resolution {
	res := Resolution{SliceNames: sliceNames(n.Children)}
	children := n.Children

	if n.Slicing != nil && !IsExtensionPath(n.Path) && len(res.SliceNames) > 0 {
		base, variants := partition(n.Children)
		view := sliceViews[n.Path]
		if view == "" {
			view = BaseView
		}
		children = base
		if view != BaseView {
			if slice := findSlice(variants, view); slice != nil {
				children = mergeSliceChildren(base, slice.Children)
			} else {
				view = BaseView
			}
		}
		res.View = view
	}

	if IsExtensionPath(n.Path) && isSimpleExtension(n) {
		children = nil
	}
	res.Children = extensionsLast(children)

	switch {
	case n.SliceName != "" && IsExtensionPath(n.Path):
		res.DisplayName = n.SliceName
	case res.View != "" && res.View != BaseView:
		res.DisplayName = LastSegment(n.Path) + ":" + res.View
	}
	return res
}

// sliceNames returns the distinct slice names of nodes in order.
func sliceNames(nodes []*element.Node) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, c := range nodes {
		if c == nil || c.SliceName == "" {
			continue
		}
		if _, ok := seen[c.SliceName]; ok {
			continue
		}
		seen[c.SliceName] = struct{}{}
		names = append(names, c.SliceName)
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func partition(nodes []*element.Node) (base, variants []*element.Node) {
	for _, c := range nodes {
		if c == nil {
			continue
		}
		if c.SliceName != "" {
			variants = append(variants, c)
		} else {
			base = append(base, c)
		}
	}
	return base, variants
}

func findSlice(variants []*element.Node, name string) *element.Node {
	for _, v := range variants {
		if v.SliceName == name {
			return v
		}
	}
	return nil
}

// mergeSliceChildren overlays a slice's children on the base children.
// A slice child replaces the base child with the same normalized path in
// place; slice children matching no base child are appended once per
// normalized path.
func mergeSliceChildren(base, sliceChildren []*element.Node) []*element.Node {
	normalized := make([]string, len(sliceChildren))
	for i, sc := range sliceChildren {
		normalized[i] = NormalizeSlicePath(sc.Path)
	}

	out := make([]*element.Node, 0, len(base)+len(sliceChildren))
	basePaths := make(map[string]struct{}, len(base))
	for _, b := range base {
		basePaths[b.Path] = struct{}{}
		replacement := b
		for i, p := range normalized {
			if p == b.Path {
				replacement = sliceChildren[i]
				break
			}
		}
		out = append(out, replacement)
	}

	appended := make(map[string]struct{})
	for i, sc := range sliceChildren {
		p := normalized[i]
		if _, ok := basePaths[p]; ok {
			continue
		}
		if _, ok := appended[p]; ok {
			continue
		}
		appended[p] = struct{}{}
		out = append(out, sc)
	}
	return out
}

// isSimpleExtension reports whether every child of n is a url or value
// leaf without children of its own.
func isSimpleExtension(n *element.Node) bool {
	if len(n.Children) == 0 {
		return false
	}
	for _, c := range n.Children {
		if c == nil || len(c.Children) > 0 || !isSimpleExtensionLeaf(c.Path) {
			return false
		}
	}
	return true
}

// extensionsLast returns a copy of nodes with extension elements moved
// after all other elements, keeping relative order within each group.
func extensionsLast(nodes []*element.Node) []*element.Node {
	if len(nodes) == 0 {
		return nil
	}
	out := slices.Clone(nodes)
	slices.SortStableFunc(out, func(a, b *element.Node) int {
		return extensionWeight(a) - extensionWeight(b)
	})
	return out
}

func extensionWeight(n *element.Node) int {
	if n != nil && IsExtensionPath(n.Path) {
		return 1
	}
	return 0
}
