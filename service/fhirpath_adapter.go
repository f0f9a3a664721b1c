package service

import (
	"fmt"

	"github.com/gofhir/fhirpath"

	"github.com/gofhir/profiletree/cache"
)

// FHIRPathAdapter adapts the fhirpath package to the ExpressionCompiler
// interface. Compiled expressions are kept in an LRU cache so repeated
// diagnostics of the same profile compile each invariant once.
type FHIRPathAdapter struct {
	cache *cache.LRU[string, *fhirpath.Expression]
}

// NewFHIRPathAdapter creates an adapter caching up to capacity compiled
// expressions.
func NewFHIRPathAdapter(capacity int) *FHIRPathAdapter {
	return &FHIRPathAdapter{
		cache: cache.New[string, *fhirpath.Expression](capacity),
	}
}

// Compile compiles expression, returning the parse error if it is not
// valid FHIRPath.
func (a *FHIRPathAdapter) Compile(expression string) error {
	_, err := a.compiled(expression)
	return err
}

func (a *FHIRPathAdapter) compiled(expression string) (*fhirpath.Expression, error) {
	return a.cache.GetOrLoad(expression, func() (*fhirpath.Expression, error) {
		compiled, err := fhirpath.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("compile FHIRPath expression %q: %w", expression, err)
		}
		return compiled, nil
	})
}

// CacheStats returns the compiled-expression cache counters.
func (a *FHIRPathAdapter) CacheStats() cache.Stats {
	return a.cache.Stats()
}

var _ ExpressionCompiler = (*FHIRPathAdapter)(nil)
