package walker

import "github.com/gofhir/profiletree/element"

// FindByID returns the node with the given id anywhere in tree, or nil.
func FindByID(tree []*element.Node, id string) *element.Node {
	if id == "" {
		return nil
	}
	var found *element.Node
	element.Walk(tree, func(n *element.Node, _ int) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByPath returns the first node in pre-order whose path equals path.
// Slice variants share their container's path, so a sliced path resolves
// to the container; select slices by id.
func FindByPath(tree []*element.Node, path string) *element.Node {
	if path == "" {
		return nil
	}
	var found *element.Node
	element.Walk(tree, func(n *element.Node, _ int) bool {
		if n.Path == path {
			found = n
			return false
		}
		return true
	})
	return found
}

// PathsWithChildren returns the paths of every node that has children.
func PathsWithChildren(tree []*element.Node) PathSet {
	set := make(PathSet)
	element.Walk(tree, func(n *element.Node, _ int) bool {
		if len(n.Children) > 0 {
			set[n.Path] = struct{}{}
		}
		return true
	})
	return set
}
