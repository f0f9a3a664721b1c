package walker

import "github.com/gofhir/profiletree/element"

// ElementIndex provides O(1) lookup of nodes by id and by path over one
// tree snapshot. Path lookups return the first node in pre-order, matching
// FindByPath.
type ElementIndex struct {
	byID   map[string]*element.Node
	byPath map[string]*element.Node
	parent map[string]*element.Node
}

// NewElementIndex indexes tree. The index is only valid for that snapshot.
func NewElementIndex(tree []*element.Node) *ElementIndex {
	size := element.Count(tree)
	idx := &ElementIndex{
		byID:   make(map[string]*element.Node, size),
		byPath: make(map[string]*element.Node, size),
		parent: make(map[string]*element.Node, size),
	}

	var visit func(parent *element.Node, nodes []*element.Node)
	visit = func(parent *element.Node, nodes []*element.Node) {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if _, ok := idx.byID[n.ID]; !ok {
				idx.byID[n.ID] = n
				if parent != nil {
					idx.parent[n.ID] = parent
				}
			}
			if _, ok := idx.byPath[n.Path]; !ok {
				idx.byPath[n.Path] = n
			}
			visit(n, n.Children)
		}
	}
	visit(nil, tree)
	return idx
}

// ByID returns the node with id, or nil.
func (idx *ElementIndex) ByID(id string) *element.Node {
	if idx == nil {
		return nil
	}
	return idx.byID[id]
}

// ByPath returns the first node with path, or nil.
func (idx *ElementIndex) ByPath(path string) *element.Node {
	if idx == nil {
		return nil
	}
	return idx.byPath[path]
}

// Parent returns the parent of the node with id, or nil for roots and
// unknown ids.
func (idx *ElementIndex) Parent(id string) *element.Node {
	if idx == nil {
		return nil
	}
	return idx.parent[id]
}

// Ancestors returns the ancestors of the node with id, root first.
func (idx *ElementIndex) Ancestors(id string) []*element.Node {
	var chain []*element.Node
	for p := idx.Parent(id); p != nil; p = idx.Parent(p.ID) {
		chain = append(chain, p)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Size returns the number of indexed ids.
func (idx *ElementIndex) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.byID)
}
