package element

import "strings"

// Normalize converts a raw element and its descendants into a Node tree.
//
// Children are the normalized structural children followed by the
// normalized slice entries, in document order. Each slice entry gets its
// SliceName forced to its key in the slices object.
func Normalize(raw *Raw) *Node {
	if raw == nil {
		return nil
	}
	return normalize(raw, "", "")
}

// NormalizeTree normalizes a document root into a single-root tree.
func NormalizeTree(raw *Raw) []*Node {
	if raw == nil {
		return nil
	}
	return []*Node{Normalize(raw)}
}

func normalize(raw *Raw, forcedSliceName, sourceOverride string) *Node {
	n := &Node{
		Path:       raw.Path,
		SliceName:  raw.SliceName,
		Short:      raw.Short,
		Definition: raw.Definition,
		Comment:    raw.Comment,
	}
	if forcedSliceName != "" {
		n.SliceName = forcedSliceName
	}

	n.Min, n.Max = cardinality(raw)
	if len(raw.Types) > 0 {
		n.Types = raw.Types
	}
	if len(raw.Invariants) > 0 {
		n.Constraints = raw.Invariants
	}
	n.Binding = raw.Binding
	n.Slicing = raw.Slicing
	n.MustSupport = flag(raw.MustSupport)
	n.IsModifier = flag(raw.IsModifier)
	n.IsSummary = flag(raw.IsSummary)

	if c := raw.Constraints; c != nil {
		if len(c.Types) > 0 {
			n.Types = c.Types
		}
		if c.Binding != nil {
			n.Binding = c.Binding
		}
		if c.Slicing != nil {
			n.Slicing = c.Slicing
		}
		if len(c.Invariants) > 0 {
			n.Constraints = c.Invariants
		}
		if f := c.Flags; f != nil {
			if f.MustSupport != nil {
				n.MustSupport = *f.MustSupport
			}
			if f.IsModifier != nil {
				n.IsModifier = *f.IsModifier
			}
			if f.IsSummary != nil {
				n.IsSummary = *f.IsSummary
			}
		}
	}

	source := raw.Source
	if sourceOverride != "" {
		source = sourceOverride
	}
	n.Source = ParseSource(source)
	n.IsModified = n.Source != SourceInherited || raw.IsModified

	n.ID = raw.ID
	if n.ID == "" {
		n.ID = n.Path
		if n.SliceName != "" {
			n.ID += ":" + n.SliceName
		}
	}

	if total := len(raw.Children) + len(raw.Slices); total > 0 {
		n.Children = make([]*Node, 0, total)
		for i := range raw.Children {
			n.Children = append(n.Children, normalize(&raw.Children[i], "", ""))
		}
		for i := range raw.Slices {
			slice := &raw.Slices[i]
			n.Children = append(n.Children, normalize(&slice.Element, slice.Name, slice.Source))
		}
	}
	return n
}

// cardinality prefers the nested cardinality, then the flat fields, then
// the 0..* default.
func cardinality(raw *Raw) (int, string) {
	minVal, maxVal := 0, UnboundedMax

	if raw.Min != nil {
		minVal = *raw.Min
	}
	if raw.Max != nil && *raw.Max != "" {
		maxVal = string(*raw.Max)
	}
	if raw.Constraints != nil && raw.Constraints.Cardinality != nil {
		card := raw.Constraints.Cardinality
		if card.Min != nil {
			minVal = *card.Min
		}
		if card.Max != nil && *card.Max != "" {
			maxVal = string(*card.Max)
		}
	}
	if minVal < 0 {
		minVal = 0
	}
	return minVal, maxVal
}

// ParseSource maps free-form provenance text to a Source. Unknown or empty
// input is treated as inherited.
func ParseSource(s string) Source {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "modified":
		return SourceModified
	case "added":
		return SourceAdded
	default:
		return SourceInherited
	}
}

func flag(b *bool) bool {
	return b != nil && *b
}
