package loader

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gofhir/profiletree/cache"
	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/service"
)

// CachedSource caches another source's documents in an LRU and keeps at
// most one fetch per key in flight. Errors are not cached.
//
// The shared fetch does not inherit the cancellation of the caller that
// started it; each caller stops waiting when its own context is done.
type CachedSource struct {
	next  service.ProfileSource
	cache *cache.LRU[string, *element.Raw]
	group singleflight.Group

	mu       sync.Mutex
	versions map[string]uint64
}

// NewCachedSource wraps next with a cache of up to capacity documents.
func NewCachedSource(next service.ProfileSource, capacity int) *CachedSource {
	return &CachedSource{
		next:     next,
		cache:    cache.New[string, *element.Raw](capacity),
		versions: make(map[string]uint64),
	}
}

// FetchDocument implements service.ProfileSource.
func (s *CachedSource) FetchDocument(ctx context.Context, key string) (*element.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if raw, ok := s.cache.Get(key); ok {
		return raw, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		version := s.version(key)
		raw, err := s.next.FetchDocument(shared, key)
		if err != nil {
			return nil, err
		}
		s.addIfCurrent(key, version, raw)
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*element.Raw), nil
	}
}

func (s *CachedSource) version(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[key]
}

// addIfCurrent caches raw unless key was invalidated since version was read.
func (s *CachedSource) addIfCurrent(key string, version uint64, raw *element.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[key] == version {
		s.cache.Add(key, raw)
	}
}

// Invalidate drops key from the cache so the next fetch goes to the
// underlying source. A fetch already in flight for key still answers its
// callers but does not repopulate the cache.
func (s *CachedSource) Invalidate(key string) {
	s.mu.Lock()
	s.versions[key]++
	s.cache.Remove(key)
	s.mu.Unlock()
	s.group.Forget(key)
}

// Stats returns the cache counters.
func (s *CachedSource) Stats() cache.Stats {
	return s.cache.Stats()
}

var _ service.ProfileSource = (*CachedSource)(nil)
