package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	pt "github.com/gofhir/profiletree"
	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/service"
	"github.com/gofhir/profiletree/state"
)

var (
	// ErrNoProfile is returned when an operation needs a loaded profile.
	ErrNoProfile = errors.New("no profile loaded")

	// ErrStaleLoad is returned by Load when a newer load started before
	// this one finished. Its result was discarded.
	ErrStaleLoad = errors.New("load superseded by a newer load")
)

// Editor is one editing session.
type Editor struct {
	mu sync.Mutex

	store  *state.Store
	source service.ProfileSource
	key    string

	options  *pt.Options
	logger   zerolog.Logger
	metrics  *pt.Metrics
	compiler service.ExpressionCompiler

	// report caches the diagnostics of the current tree.
	report *pt.Report
}

// View is the derived state of an Editor.
type View struct {
	state.View

	// Key identifies the loaded profile.
	Key string
	// Report holds the diagnostics of the loaded tree. It is nil when
	// diagnostics are disabled.
	Report *pt.Report
}

// New creates an Editor that loads profiles from source. The persisted
// expanded set, if any, is restored before New returns.
func New(ctx context.Context, source service.ProfileSource, opts ...pt.Option) (*Editor, error) {
	if source == nil {
		return nil, errors.New("engine: profile source is required")
	}

	options := pt.DefaultOptions().Apply(opts...)
	if !options.FHIRVersion.IsValid() {
		return nil, fmt.Errorf("engine: unsupported FHIR version %q", options.FHIRVersion)
	}

	e := &Editor{
		store:    state.New(),
		source:   source,
		options:  options,
		logger:   options.Logger.With().Str("component", "editor").Logger(),
		metrics:  options.Metrics,
		compiler: options.ExpressionCompiler,
	}
	if e.metrics == nil {
		e.metrics = pt.NewMetrics()
	}
	if e.compiler == nil && options.Diagnostics {
		e.compiler = service.NewFHIRPathAdapter(options.ExpressionCacheSize)
	}

	e.restoreExpanded(ctx)
	return e, nil
}

// restoreExpanded hydrates the expanded set. The stored value is a cache,
// so read failures leave the set empty.
func (e *Editor) restoreExpanded(ctx context.Context) {
	if e.options.ExpansionStore == nil {
		return
	}
	data, err := e.options.ExpansionStore.LoadExpanded(ctx, e.options.StorageKey)
	if err != nil {
		e.metrics.RecordPersistFailure()
		e.logger.Warn().Err(err).Str("key", e.options.StorageKey).Msg("failed to restore expanded state")
		return
	}
	e.store.SetExpanded(state.DecodeExpanded(data))
}

// Load fetches the profile stored under key and installs its tree. When
// another Load starts before this one completes, this result is discarded
// and ErrStaleLoad is returned. A failed load keeps the previous tree and
// exposes the failure message in the view.
func (e *Editor) Load(ctx context.Context, key string) error {
	e.mu.Lock()
	gen := e.store.BeginLoad()
	e.key = key
	e.mu.Unlock()

	e.metrics.RecordLoadStarted()
	log := e.logger.With().Str("key", key).Uint64("generation", gen).Logger()
	log.Debug().Msg("loading profile")

	tree, err := e.fetch(ctx, key)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		if !e.store.FailLoad(gen, err.Error()) {
			e.metrics.RecordLoadStale()
			log.Debug().Msg("discarding stale load failure")
			return ErrStaleLoad
		}
		e.metrics.RecordLoadFailed()
		log.Error().Err(err).Msg("failed to load profile")
		return err
	}

	if !e.store.CompleteLoad(gen, tree) {
		e.metrics.RecordLoadStale()
		log.Debug().Msg("discarding stale load")
		return ErrStaleLoad
	}
	e.report = nil
	e.metrics.RecordLoadSucceeded()
	log.Info().Int("elements", element.Count(tree)).Msg("profile loaded")
	return nil
}

// Reload loads the current profile again.
func (e *Editor) Reload(ctx context.Context) error {
	e.mu.Lock()
	key := e.key
	e.mu.Unlock()
	if key == "" {
		return ErrNoProfile
	}
	return e.Load(ctx, key)
}

func (e *Editor) fetch(ctx context.Context, key string) ([]*element.Node, error) {
	raw, err := e.source.FetchDocument(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", key, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("load profile %s: %w", key, ErrNoProfile)
	}
	return element.NormalizeTree(raw), nil
}

// Dispatch applies events in order and stops at the first one that fails.
// The expanded set is persisted after any applied event that can change
// it; persistence failures are logged, not returned.
func (e *Editor) Dispatch(ctx context.Context, events ...state.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		dirty bool
		err   error
	)
	for _, ev := range events {
		if ev == nil {
			continue
		}
		err = e.store.Dispatch(ev)
		e.metrics.RecordDispatch(err)
		if err != nil {
			e.logger.Debug().Err(err).Str("event", ev.Type()).Msg("event rejected")
			break
		}
		if state.AffectsExpansion(ev) {
			dirty = true
		}
		if ev.Type() == state.TypePatchSelected {
			e.report = nil
		}
	}

	if dirty {
		e.persistExpanded(ctx)
	}
	return err
}

func (e *Editor) persistExpanded(ctx context.Context) {
	if e.options.ExpansionStore == nil {
		return
	}
	data := state.EncodeExpanded(e.store.Expanded())
	if err := e.options.ExpansionStore.SaveExpanded(ctx, e.options.StorageKey, data); err != nil {
		e.metrics.RecordPersistFailure()
		e.logger.Warn().Err(err).Str("key", e.options.StorageKey).Msg("failed to persist expanded state")
	}
}

// View derives the current view.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	v := View{View: e.store.View(), Key: e.key}
	if e.options.Diagnostics {
		v.Report = e.diagnoseLocked(context.Background())
	}
	e.metrics.RecordDerivation(time.Since(start))
	return v
}

// Diagnose checks the loaded tree and returns its diagnostics.
func (e *Editor) Diagnose(ctx context.Context) (*pt.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.store.Tree()) == 0 {
		return nil, ErrNoProfile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.diagnoseLocked(ctx), nil
}

func (e *Editor) diagnoseLocked(ctx context.Context) *pt.Report {
	if e.report != nil {
		return e.report
	}
	report := Diagnose(ctx, e.store.Tree(), e.compiler)
	if ctx.Err() == nil {
		e.report = report
	}
	return report
}

// Key returns the key of the most recently requested profile.
func (e *Editor) Key() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key
}

// Metrics returns the editor's metrics.
func (e *Editor) Metrics() *pt.Metrics {
	return e.metrics
}
