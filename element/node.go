package element

// Source records where an element's constraints come from relative to the
// base definition the profile derives from.
type Source string

// Provenance values.
const (
	SourceInherited Source = "inherited"
	SourceModified  Source = "modified"
	SourceAdded     Source = "added"
)

// UnboundedMax is the max cardinality sentinel for "no upper bound".
const UnboundedMax = "*"

// Node is one element of a profile's element tree.
//
// Path is not unique: the slice variants of a sliced element share the path
// of the element they slice and are told apart by SliceName. ID is unique
// within a loaded tree.
type Node struct {
	ID          string       `json:"id"`
	Path        string       `json:"path"`
	SliceName   string       `json:"sliceName,omitempty"`
	Min         int          `json:"min"`
	Max         string       `json:"max"`
	Types       []TypeRef    `json:"type,omitempty"`
	Binding     *Binding     `json:"binding,omitempty"`
	Slicing     *Slicing     `json:"slicing,omitempty"`
	MustSupport bool         `json:"mustSupport,omitempty"`
	IsModifier  bool         `json:"isModifier,omitempty"`
	IsSummary   bool         `json:"isSummary,omitempty"`
	Short       string       `json:"short,omitempty"`
	Definition  string       `json:"definition,omitempty"`
	Comment     string       `json:"comment,omitempty"`
	Constraints []Constraint `json:"constraint,omitempty"`
	Source      Source       `json:"source"`
	IsModified  bool         `json:"isModified"`
	Children    []*Node      `json:"children,omitempty"`
}

// TypeRef is an allowed data type, optionally constrained to profiles or
// reference targets.
type TypeRef struct {
	Code          string   `json:"code"`
	Profile       []string `json:"profile,omitempty"`
	TargetProfile []string `json:"targetProfile,omitempty"`
}

// Binding is a terminology binding.
type Binding struct {
	Strength    string `json:"strength"`
	ValueSet    string `json:"valueSet"`
	Description string `json:"description,omitempty"`
}

// Slicing declares how the repetitions of an element are split into slices.
type Slicing struct {
	Discriminator []Discriminator `json:"discriminator,omitempty"`
	Rules         string          `json:"rules"`
	Ordered       bool            `json:"ordered"`
	Description   string          `json:"description,omitempty"`
}

// Discriminator tells slices apart.
type Discriminator struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Constraint is an element invariant expressed in FHIRPath.
type Constraint struct {
	Key        string `json:"key"`
	Severity   string `json:"severity,omitempty"`
	Human      string `json:"human,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// IsSlice reports whether n is a named slice variant.
func (n *Node) IsSlice() bool {
	return n != nil && n.SliceName != ""
}

// HasChildren reports whether n has any children in the canonical tree.
func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// Clone returns a shallow copy of n. The children slice is copied so the
// clone's child list can be replaced or reordered without touching n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		copy(c.Children, n.Children)
	}
	return &c
}

// Walk calls fn for every node of the tree in pre-order. Returning false from
// fn stops the walk.
func Walk(tree []*Node, fn func(n *Node, depth int) bool) {
	var visit func(nodes []*Node, depth int) bool
	visit = func(nodes []*Node, depth int) bool {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if !fn(n, depth) {
				return false
			}
			if !visit(n.Children, depth+1) {
				return false
			}
		}
		return true
	}
	visit(tree, 0)
}

// Count returns the number of nodes in the tree.
func Count(tree []*Node) int {
	total := 0
	Walk(tree, func(*Node, int) bool {
		total++
		return true
	})
	return total
}
