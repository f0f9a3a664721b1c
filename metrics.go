package profiletree

import (
	"sync/atomic"
	"time"
)

// Metrics tracks editor metrics using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Load counts
	loadsStarted   atomic.Uint64
	loadsSucceeded atomic.Uint64
	loadsFailed    atomic.Uint64
	loadsStale     atomic.Uint64

	// Event counts
	dispatches     atomic.Uint64
	dispatchErrors atomic.Uint64

	// View derivation timing (stored as nanoseconds)
	derivations         atomic.Uint64
	derivationTimeTotal atomic.Uint64
	derivationTimeMin   atomic.Uint64
	derivationTimeMax   atomic.Uint64

	// Persistence
	persistFailures atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.derivationTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordLoadStarted records the start of a profile load.
func (m *Metrics) RecordLoadStarted() {
	m.loadsStarted.Add(1)
}

// RecordLoadSucceeded records a load whose result was applied.
func (m *Metrics) RecordLoadSucceeded() {
	m.loadsSucceeded.Add(1)
}

// RecordLoadFailed records a load whose failure was applied.
func (m *Metrics) RecordLoadFailed() {
	m.loadsFailed.Add(1)
}

// RecordLoadStale records a load result discarded because a newer load
// had started.
func (m *Metrics) RecordLoadStale() {
	m.loadsStale.Add(1)
}

// RecordDispatch records one dispatched event.
func (m *Metrics) RecordDispatch(err error) {
	m.dispatches.Add(1)
	if err != nil {
		m.dispatchErrors.Add(1)
	}
}

// RecordPersistFailure records a failed read or write of the expanded set.
func (m *Metrics) RecordPersistFailure() {
	m.persistFailures.Add(1)
}

// RecordDerivation records the time taken to derive a view.
func (m *Metrics) RecordDerivation(duration time.Duration) {
	m.derivations.Add(1)

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.derivationTimeTotal.Add(ns)

	// Update min (CAS loop)
	for {
		old := m.derivationTimeMin.Load()
		if ns >= old {
			break
		}
		if m.derivationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}

	// Update max (CAS loop)
	for {
		old := m.derivationTimeMax.Load()
		if ns <= old {
			break
		}
		if m.derivationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// --- Query Methods ---

// LoadsStarted returns the number of loads started.
func (m *Metrics) LoadsStarted() uint64 {
	return m.loadsStarted.Load()
}

// LoadsSucceeded returns the number of loads applied successfully.
func (m *Metrics) LoadsSucceeded() uint64 {
	return m.loadsSucceeded.Load()
}

// LoadsFailed returns the number of failed loads.
func (m *Metrics) LoadsFailed() uint64 {
	return m.loadsFailed.Load()
}

// LoadsStale returns the number of discarded load results.
func (m *Metrics) LoadsStale() uint64 {
	return m.loadsStale.Load()
}

// Dispatches returns the number of dispatched events.
func (m *Metrics) Dispatches() uint64 {
	return m.dispatches.Load()
}

// DispatchErrors returns the number of events that were rejected.
func (m *Metrics) DispatchErrors() uint64 {
	return m.dispatchErrors.Load()
}

// PersistFailures returns the number of failed expanded-set reads and writes.
func (m *Metrics) PersistFailures() uint64 {
	return m.persistFailures.Load()
}

// Derivations returns the number of derived views.
func (m *Metrics) Derivations() uint64 {
	return m.derivations.Load()
}

// AverageDerivationTime returns the average view derivation duration.
func (m *Metrics) AverageDerivationTime() time.Duration {
	total := m.derivations.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.derivationTimeTotal.Load() / total) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MinDerivationTime returns the minimum view derivation duration.
func (m *Metrics) MinDerivationTime() time.Duration {
	minVal := m.derivationTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: minVal represents nanoseconds within int64 range
}

// MaxDerivationTime returns the maximum view derivation duration.
func (m *Metrics) MaxDerivationTime() time.Duration {
	return time.Duration(m.derivationTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	// Timestamp when the snapshot was taken
	Timestamp time.Time `json:"timestamp"`

	// Load metrics
	LoadsStarted   uint64 `json:"loads_started"`
	LoadsSucceeded uint64 `json:"loads_succeeded"`
	LoadsFailed    uint64 `json:"loads_failed"`
	LoadsStale     uint64 `json:"loads_stale"`

	// Event metrics
	Dispatches     uint64 `json:"dispatches"`
	DispatchErrors uint64 `json:"dispatch_errors"`

	// Derivation metrics (in nanoseconds for precision)
	Derivations         uint64 `json:"derivations"`
	AvgDerivationTimeNs uint64 `json:"avg_derivation_time_ns"`
	MinDerivationTimeNs uint64 `json:"min_derivation_time_ns"`
	MaxDerivationTimeNs uint64 `json:"max_derivation_time_ns"`

	PersistFailures uint64 `json:"persist_failures"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	derivations := m.derivations.Load()
	var avg uint64
	if derivations > 0 {
		avg = m.derivationTimeTotal.Load() / derivations
	}
	minTime := m.derivationTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:           time.Now(),
		LoadsStarted:        m.loadsStarted.Load(),
		LoadsSucceeded:      m.loadsSucceeded.Load(),
		LoadsFailed:         m.loadsFailed.Load(),
		LoadsStale:          m.loadsStale.Load(),
		Dispatches:          m.dispatches.Load(),
		DispatchErrors:      m.dispatchErrors.Load(),
		Derivations:         derivations,
		AvgDerivationTimeNs: avg,
		MinDerivationTimeNs: minTime,
		MaxDerivationTimeNs: m.derivationTimeMax.Load(),
		PersistFailures:     m.persistFailures.Load(),
	}
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.loadsStarted.Store(0)
	m.loadsSucceeded.Store(0)
	m.loadsFailed.Store(0)
	m.loadsStale.Store(0)
	m.dispatches.Store(0)
	m.dispatchErrors.Store(0)
	m.derivations.Store(0)
	m.derivationTimeTotal.Store(0)
	m.derivationTimeMin.Store(^uint64(0))
	m.derivationTimeMax.Store(0)
	m.persistFailures.Store(0)
}
