// Package persist provides ExpansionStore implementations that keep the
// serialized expanded-path set of an editor under a storage key.
//
// The stored value is a cache of UI state, not a source of truth: a key
// that was never saved loads as nil, and callers treat unreadable values
// as an empty set.
package persist
