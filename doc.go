// Package profiletree is the engine behind a FHIR profile editor's element
// tree: it turns a profile's element definitions into a navigable tree and
// derives the rows a tree view displays.
//
// # Quick Start
//
//	import (
//	    pt "github.com/gofhir/profiletree"
//	    "github.com/gofhir/profiletree/engine"
//	    "github.com/gofhir/profiletree/loader"
//	    "github.com/gofhir/profiletree/state"
//	)
//
//	ed, err := engine.New(ctx, loader.NewDirSource("profiles"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := ed.Load(ctx, "us-core-patient"); err != nil {
//	    log.Fatal(err)
//	}
//	_ = ed.Dispatch(ctx, state.SelectByPath{Path: "Patient.name.family"})
//	for _, row := range ed.View().Rows {
//	    fmt.Println(strings.Repeat("  ", row.Depth) + row.Label())
//	}
//
// # Functional Options
//
//	ed, err := engine.New(ctx, source,
//	    pt.WithExpansionStore(persist.NewMemoryStore()),
//	    pt.WithStorageKey("profiletree.expanded"),
//	    pt.WithLogger(logger.New(os.Stderr, zerolog.InfoLevel)),
//	    pt.WithDiagnostics(true),
//	)
//
// # Packages
//
//   - element: the element node model and normalization of raw documents
//   - walker: pure tree transforms (filter, flatten, lookup, patch)
//   - state: events, reducers and the derived view
//   - loader: profile sources (directory, HTTP, cached, watched)
//   - persist: expanded-state stores (memory, file, SQLite, PostgreSQL)
//   - engine: an editing session wiring all of the above
//
// # Architecture
//
//   - Small interfaces (1-2 methods each) for composability
//   - Immutable tree snapshots replaced wholesale on load
//   - Load generations so stale results never overwrite fresh ones
//   - Context-based cancellation for every blocking operation
package profiletree
