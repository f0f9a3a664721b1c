package loader

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/gofhir/profiletree/element"
	"github.com/gofhir/profiletree/service"
)

// PackageManifest is the package.json of a FHIR NPM package.
type PackageManifest struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	FHIRVersions []string          `json:"fhirVersions,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// String returns the package in "name#version" form.
func (m PackageManifest) String() string {
	return m.Name + "#" + m.Version
}

// PackageSource serves the StructureDefinitions of a FHIR NPM package
// (.tgz). A profile is found by its id, its name or its canonical URL.
// Documents are decoded on first fetch.
type PackageSource struct {
	Manifest PackageManifest

	mu      sync.RWMutex
	data    map[string][]byte // id -> resource JSON
	aliases map[string]string // url or name -> id
	decoded map[string]*element.Raw
}

// OpenPackage reads a FHIR package from a .tgz file.
func OpenPackage(file string) (*PackageSource, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open package %s: %w", file, err)
	}
	defer f.Close()
	return ReadPackage(f)
}

// ReadPackage reads a gzipped tar FHIR package. Only StructureDefinitions
// under package/ are kept. Example and test directories are skipped.
func ReadPackage(r io.Reader) (*PackageSource, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	s := &PackageSource{
		data:    make(map[string][]byte),
		aliases: make(map[string]string),
		decoded: make(map[string]*element.Raw),
	}
	var manifest []byte

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(path.Clean(hdr.Name), "package/")
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") || name == ".index.json" {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", hdr.Name, err)
		}
		if name == "package.json" {
			manifest = data
			continue
		}
		s.index(data)
	}

	if manifest == nil {
		return nil, errors.New("package.json not found in package")
	}
	if err := json.Unmarshal(manifest, &s.Manifest); err != nil {
		return nil, fmt.Errorf("failed to parse package manifest: %w", err)
	}
	return s, nil
}

func (s *PackageSource) index(data []byte) {
	var probe struct {
		ResourceType string `json:"resourceType"`
		ID           string `json:"id"`
		URL          string `json:"url"`
		Name         string `json:"name"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return
	}
	if probe.ResourceType != "StructureDefinition" || probe.ID == "" {
		return
	}
	s.data[probe.ID] = data
	for _, alias := range []string{probe.URL, probe.Name} {
		if alias != "" && alias != probe.ID {
			s.aliases[alias] = probe.ID
		}
	}
}

// FetchDocument implements service.ProfileSource.
func (s *PackageSource) FetchDocument(ctx context.Context, key string) (*element.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	id := s.resolve(key)
	raw, ok := s.decoded[id]
	data := s.data[id]
	s.mu.RUnlock()
	if ok {
		return raw, nil
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, key, s.Manifest)
	}

	raw, err := decodeStructureDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	s.mu.Lock()
	s.decoded[id] = raw
	s.mu.Unlock()
	return raw, nil
}

func (s *PackageSource) resolve(key string) string {
	if _, ok := s.data[key]; ok {
		return key
	}
	return s.aliases[key]
}

// Keys returns the ids of the package's StructureDefinitions, sorted.
func (s *PackageSource) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for id := range s.data {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

var _ service.ProfileSource = (*PackageSource)(nil)
