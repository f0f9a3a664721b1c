package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/service"
)

// documentExtensions are tried in order when resolving a key to a file.
var documentExtensions = []string{".json", ".yaml", ".yml"}

// MemorySource serves documents held in memory, indexed by key.
type MemorySource struct {
	mu   sync.RWMutex
	docs map[string]*element.Raw
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{docs: make(map[string]*element.Raw)}
}

// Put stores raw under key, replacing any previous document.
func (s *MemorySource) Put(key string, raw *element.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = raw
}

// PutData decodes data and stores it under key.
func (s *MemorySource) PutData(key string, data []byte, format Format) error {
	raw, err := DecodeDocument(data, format)
	if err != nil {
		return fmt.Errorf("document %s: %w", key, err)
	}
	s.Put(key, raw)
	return nil
}

// FetchDocument implements service.ProfileSource.
func (s *MemorySource) FetchDocument(ctx context.Context, key string) (*element.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return raw, nil
}

// Keys returns the stored keys.
func (s *MemorySource) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		keys = append(keys, k)
	}
	return keys
}

// DirSource reads documents from a directory. Key k resolves to the first
// of k.json, k.yaml and k.yml that exists.
type DirSource struct {
	Dir string
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// FetchDocument implements service.ProfileSource.
func (s *DirSource) FetchDocument(ctx context.Context, key string) (*element.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	raw, err := DecodeDocument(data, FormatFromName(path))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", path, err)
	}
	return raw, nil
}

// Resolve returns the file backing key.
func (s *DirSource) Resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: invalid key %q", ErrNotFound, key)
	}
	for _, ext := range documentExtensions {
		path := filepath.Join(s.Dir, key+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, key)
}

// KeyForFile returns the key a file in the directory is served under, and
// false for files that are not documents.
func KeyForFile(name string) (string, bool) {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	for _, e := range documentExtensions {
		if strings.EqualFold(ext, e) {
			return strings.TrimSuffix(base, ext), true
		}
	}
	return "", false
}

// Keys lists the keys of the documents in the directory.
func (s *DirSource) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", s.Dir, err)
	}
	seen := make(map[string]bool)
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := KeyForFile(e.Name()); ok && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}

var (
	_ service.ProfileSource = (*MemorySource)(nil)
	_ service.ProfileSource = (*DirSource)(nil)
)
