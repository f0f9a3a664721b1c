// Package state holds the editing state of one profile tree: the loaded
// tree snapshot, expansion, selection, filter and slice views.
//
// A Store is changed only through events passed to Dispatch and through the
// load lifecycle (BeginLoad, CompleteLoad, FailLoad). The displayable view is
// derived on demand with View, so it always reflects the current state.
//
// Loads are tagged with a generation number. A result carrying a generation
// older than the most recently begun load is discarded, so a slow earlier
// load can never overwrite a newer one.
//
// Store is not safe for concurrent use; callers serialize access.
package state
