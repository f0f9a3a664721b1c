// Package walker implements the element tree engine: pure transforms over a
// canonical element tree that produce what an editor displays.
//
// The canonical tree is an immutable snapshot. Every function in this
// package returns new slices (or, for Filter with no active option, the
// input itself) and never mutates a node it was given.
//
// # Pipeline
//
// A display pass runs in three steps:
//
//	filtered := walker.Filter(tree, opts)
//	rows := walker.Flatten(filtered, expanded, sliceViews)
//	selected := walker.FindByID(tree, selectedID)
//
// Filter keeps every node that matches the active options plus all of its
// ancestors. Flatten turns the filtered tree into a pre-order row list for a
// virtualized list: transparent extension containers are elided, sliced
// elements are projected through the slice view chosen for their path,
// single-value extensions are collapsed and extensions are moved after their
// siblings. Selection always resolves against the full canonical tree, so a
// node hidden by a collapsed ancestor or a filter can still be selected.
//
// # Paths
//
// Element paths are dotted ("Patient.name.family"). Inside a slice, child
// paths may carry a slice marker ("Patient.name:official.family");
// NormalizeSlicePath strips it so slice children can be matched against
// base children.
package walker
