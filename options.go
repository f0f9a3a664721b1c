package profiletree

import (
	"github.com/rs/zerolog"

	"github.com/gofhir/profiletree/service"
)

// DefaultStorageKey is the key the expanded set is persisted under.
const DefaultStorageKey = "profiletree.expanded"

// Option configures an editor.
type Option func(*Options)

// Options holds all configuration for an editor.
type Options struct {
	// Persistence
	ExpansionStore service.ExpansionStore
	StorageKey     string

	// Observability
	Logger  zerolog.Logger
	Metrics *Metrics

	// Diagnostics
	Diagnostics         bool
	ExpressionCompiler  service.ExpressionCompiler
	ExpressionCacheSize int

	// FHIRVersion of the profiles being edited.
	FHIRVersion FHIRVersion
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		StorageKey:          DefaultStorageKey,
		Logger:              zerolog.Nop(),
		Diagnostics:         true,
		ExpressionCacheSize: 2000,
		FHIRVersion:         R4,
	}
}

// Apply applies opts to o and returns o.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithExpansionStore persists the expanded set in store.
func WithExpansionStore(store service.ExpansionStore) Option {
	return func(o *Options) {
		o.ExpansionStore = store
	}
}

// WithStorageKey sets the key the expanded set is persisted under.
func WithStorageKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.StorageKey = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithMetrics records editor metrics in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithDiagnostics enables profile diagnostics in the editor view.
func WithDiagnostics(enable bool) Option {
	return func(o *Options) {
		o.Diagnostics = enable
	}
}

// WithExpressionCompiler sets the compiler used to check invariant
// expressions. Defaults to a FHIRPath compiler.
func WithExpressionCompiler(c service.ExpressionCompiler) Option {
	return func(o *Options) {
		o.ExpressionCompiler = c
	}
}

// WithExpressionCache sets the compiled expression cache size.
func WithExpressionCache(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ExpressionCacheSize = size
		}
	}
}

// WithFHIRVersion sets the FHIR version of the edited profiles.
func WithFHIRVersion(v FHIRVersion) Option {
	return func(o *Options) {
		o.FHIRVersion = v
	}
}
