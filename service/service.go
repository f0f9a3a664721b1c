// Package service defines the small interfaces the editor is assembled
// from. Each interface has one or two methods so implementations stay
// easy to swap and to fake in tests.
package service

import (
	"context"

	"github.com/gofhir/profiletree/element"
)

// ProfileSource fetches the raw element document of a profile.
type ProfileSource interface {
	// FetchDocument returns the raw root element for key.
	FetchDocument(ctx context.Context, key string) (*element.Raw, error)
}

// ProfileSourceFunc adapts a function to ProfileSource.
type ProfileSourceFunc func(ctx context.Context, key string) (*element.Raw, error)

// FetchDocument calls f.
func (f ProfileSourceFunc) FetchDocument(ctx context.Context, key string) (*element.Raw, error) {
	return f(ctx, key)
}

// ExpansionStore persists the serialized expanded set under a storage key.
// A key that was never saved loads as nil with no error.
type ExpansionStore interface {
	LoadExpanded(ctx context.Context, key string) ([]byte, error)
	SaveExpanded(ctx context.Context, key string, value []byte) error
}

// ExpressionCompiler checks that an invariant expression compiles.
type ExpressionCompiler interface {
	Compile(expression string) error
}
