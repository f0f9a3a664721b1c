// Package element defines the element tree model of a FHIR profile and the
// normalization of raw profile documents into it.
//
// A profile document arrives as a nested tree of raw elements. Constraint
// fields may be nested under a "constraints" object or appear flat on the
// element, and slice variants may be listed in a "slices" object keyed by
// slice name. Normalize folds all of these shapes into a single Node tree:
//
//	raw, err := element.DecodeRaw(data)
//	if err != nil {
//	    return err
//	}
//	root := element.Normalize(raw)
//
// Normalize is total: a document missing cardinality, provenance or any
// other optional field still produces a valid Node with defaults applied.
package element
