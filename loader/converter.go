package loader

import (
	"errors"
	"strings"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/profiletree/element"
)

// ErrNoSnapshot is returned for a StructureDefinition without snapshot
// elements.
var ErrNoSnapshot = errors.New("StructureDefinition has no snapshot")

// R4Converter converts R4 StructureDefinitions into raw element trees.
type R4Converter struct{}

// NewR4Converter creates a new R4 converter.
func NewR4Converter() *R4Converter {
	return &R4Converter{}
}

// treeNode is a raw element under construction. Children and slices are
// collected as pointers and copied into the Raw values once complete.
type treeNode struct {
	raw      element.Raw
	children []*treeNode
	slices   []*treeNode
}

// ConvertStructureDefinition nests the flat snapshot of sd by element id.
//
// The parent of "X.y" is "X", the parent of the slice "X.y:s" is "X.y" and
// the parent of "X.y:s.z" is "X.y:s". An element whose parent is missing
// attaches to its nearest existing ancestor, or to the root. Provenance is
// taken from the differential: a differential element with a slice name is
// added, any other differential element is modified, and every element
// inside an added slice is added.
func (c *R4Converter) ConvertStructureDefinition(sd *r4.StructureDefinition) (*element.Raw, error) {
	if sd == nil {
		return nil, nil
	}
	if sd.Snapshot == nil || len(sd.Snapshot.Element) == 0 {
		return nil, ErrNoSnapshot
	}

	diff := make(map[string]bool)
	if sd.Differential != nil {
		for i := range sd.Differential.Element {
			ed := &sd.Differential.Element[i]
			diff[elementID(derefString(ed.Id), derefString(ed.Path), derefString(ed.SliceName))] = true
		}
	}

	nodes := make(map[string]*treeNode, len(sd.Snapshot.Element))
	added := make(map[string]bool)
	var root *treeNode

	for i := range sd.Snapshot.Element {
		ed := &sd.Snapshot.Element[i]
		raw := c.convertElementDefinition(ed)
		raw.ID = elementID(raw.ID, raw.Path, raw.SliceName)

		n := &treeNode{raw: raw}
		nodes[raw.ID] = n
		if root == nil {
			root = n
			n.raw.Source = c.source(raw, diff, false)
			continue
		}

		parent := nearestParent(raw.ID, nodes)
		if parent == nil {
			parent = root
		}
		inAddedSlice := added[parent.raw.ID]
		n.raw.Source = c.source(raw, diff, inAddedSlice)
		if inAddedSlice || (raw.SliceName != "" && n.raw.Source == string(element.SourceAdded)) {
			added[raw.ID] = true
		}

		if raw.SliceName != "" && isSliceDeclaration(raw.ID) {
			parent.slices = append(parent.slices, n)
		} else {
			parent.children = append(parent.children, n)
		}
	}

	out := root.build()
	return &out, nil
}

func (c *R4Converter) source(raw element.Raw, diff map[string]bool, inAddedSlice bool) string {
	switch {
	case inAddedSlice:
		return string(element.SourceAdded)
	case !diff[raw.ID]:
		return string(element.SourceInherited)
	case raw.SliceName != "":
		return string(element.SourceAdded)
	default:
		return string(element.SourceModified)
	}
}

func (n *treeNode) build() element.Raw {
	raw := n.raw
	for _, child := range n.children {
		raw.Children = append(raw.Children, child.build())
	}
	for _, s := range n.slices {
		raw.Slices = append(raw.Slices, element.RawSlice{
			Name:    s.raw.SliceName,
			Element: s.build(),
		})
	}
	return raw
}

// elementID returns id, or derives one from path and slice name.
func elementID(id, path, sliceName string) string {
	if id != "" {
		return id
	}
	if sliceName != "" {
		return path + ":" + sliceName
	}
	return path
}

// parentID returns the id of the element that contains id.
//
//	"Patient.name.family"        -> "Patient.name"
//	"Patient.name:official"      -> "Patient.name"
//	"Patient.name:official.use"  -> "Patient.name:official"
//	"Patient.name:a/b"           -> "Patient.name:a"
func parentID(id string) string {
	dot := strings.LastIndexByte(id, '.')
	last := id[dot+1:]
	if colon := strings.IndexByte(last, ':'); colon >= 0 {
		base := id[:dot+1+colon]
		name := last[colon+1:]
		if slash := strings.LastIndexByte(name, '/'); slash >= 0 {
			return base + ":" + name[:slash]
		}
		return base
	}
	if dot < 0 {
		return ""
	}
	return id[:dot]
}

// isSliceDeclaration reports whether the last segment of id names a slice.
func isSliceDeclaration(id string) bool {
	last := id[strings.LastIndexByte(id, '.')+1:]
	return strings.IndexByte(last, ':') >= 0
}

func nearestParent(id string, nodes map[string]*treeNode) *treeNode {
	for p := parentID(id); p != ""; p = parentID(p) {
		if n, ok := nodes[p]; ok {
			return n
		}
	}
	return nil
}

// convertElementDefinition converts the constraint fields of a single
// r4.ElementDefinition.
func (c *R4Converter) convertElementDefinition(ed *r4.ElementDefinition) element.Raw {
	raw := element.Raw{
		ID:          derefString(ed.Id),
		Path:        derefString(ed.Path),
		SliceName:   derefString(ed.SliceName),
		Short:       derefString(ed.Short),
		Definition:  derefString(ed.Definition),
		Comment:     derefString(ed.Comment),
		Types:       c.convertTypes(ed.Type),
		Binding:     c.convertBinding(ed.Binding),
		Slicing:     c.convertSlicing(ed.Slicing),
		Invariants:  c.convertConstraints(ed.Constraint),
		MustSupport: ed.MustSupport,
		IsModifier:  ed.IsModifier,
		IsSummary:   ed.IsSummary,
	}
	if ed.Min != nil {
		m := int(*ed.Min)
		raw.Min = &m
	}
	if ed.Max != nil {
		raw.Max = element.MaxOf(*ed.Max)
	}
	return raw
}

func (c *R4Converter) convertTypes(types []r4.ElementDefinitionType) []element.TypeRef {
	if len(types) == 0 {
		return nil
	}
	result := make([]element.TypeRef, 0, len(types))
	for i := range types {
		t := &types[i]
		result = append(result, element.TypeRef{
			Code:          derefString(t.Code),
			Profile:       t.Profile,
			TargetProfile: t.TargetProfile,
		})
	}
	return result
}

func (c *R4Converter) convertBinding(binding *r4.ElementDefinitionBinding) *element.Binding {
	if binding == nil {
		return nil
	}
	b := &element.Binding{
		ValueSet:    derefString(binding.ValueSet),
		Description: derefString(binding.Description),
	}
	if binding.Strength != nil {
		b.Strength = string(*binding.Strength)
	}
	return b
}

func (c *R4Converter) convertConstraints(constraints []r4.ElementDefinitionConstraint) []element.Constraint {
	if len(constraints) == 0 {
		return nil
	}
	result := make([]element.Constraint, 0, len(constraints))
	for i := range constraints {
		con := &constraints[i]
		out := element.Constraint{
			Key:        derefString(con.Key),
			Human:      derefString(con.Human),
			Expression: derefString(con.Expression),
		}
		if con.Severity != nil {
			out.Severity = string(*con.Severity)
		}
		result = append(result, out)
	}
	return result
}

func (c *R4Converter) convertSlicing(slicing *r4.ElementDefinitionSlicing) *element.Slicing {
	if slicing == nil {
		return nil
	}
	s := &element.Slicing{
		Description: derefString(slicing.Description),
		Ordered:     slicing.Ordered != nil && *slicing.Ordered,
	}
	if slicing.Rules != nil {
		s.Rules = string(*slicing.Rules)
	}
	for i := range slicing.Discriminator {
		d := &slicing.Discriminator[i]
		disc := element.Discriminator{Path: derefString(d.Path)}
		if d.Type != nil {
			disc.Type = string(*d.Type)
		}
		s.Discriminator = append(s.Discriminator, disc)
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
