// Package engine assembles an editing session over one profile.
//
// An Editor owns a state.Store and connects it to a profile source, an
// optional store for the expanded set, and the diagnostics that annotate
// the element tree. All methods are safe for concurrent use.
//
//	ed, err := engine.New(ctx, loader.NewDirSource("profiles"),
//	    profiletree.WithExpansionStore(persist.NewMemoryStore()),
//	)
//	if err != nil {
//	    return err
//	}
//	if err := ed.Load(ctx, "bp-observation"); err != nil {
//	    return err
//	}
//	view := ed.View()
package engine
