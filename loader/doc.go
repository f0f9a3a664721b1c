// Package loader fetches profile documents and turns them into raw element
// trees ready for element.Normalize.
//
// A document is either a raw element document (a nested tree of elements
// with optional slices) or a FHIR R4 StructureDefinition, in JSON or YAML.
// StructureDefinitions are converted from their flat snapshot into the
// nested form, with provenance taken from the differential.
//
// Key components:
//   - DecodeDocument: format detection and decoding
//   - R4Converter: snapshot to nested raw tree
//   - DirSource, HTTPSource: ProfileSource implementations
//   - CachedSource: LRU cache with one in-flight fetch per key
//   - Watcher: invalidates and reloads on file changes
//
// Example usage:
//
//	src := loader.NewCachedSource(loader.NewDirSource("profiles"), 64)
//	raw, err := src.FetchDocument(ctx, "us-core-patient")
package loader
