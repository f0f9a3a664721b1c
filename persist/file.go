package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofhir/profiletree/service"
)

// FileStore keeps each key in <dir>/<key>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

// LoadExpanded implements service.ExpansionStore. A missing file loads as
// nil.
func (s *FileStore) LoadExpanded(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read expanded state %s: %w", key, err)
	}
	return data, nil
}

// SaveExpanded implements service.ExpansionStore. The file is replaced
// atomically.
func (s *FileStore) SaveExpanded(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".expanded-*")
	if err != nil {
		return fmt.Errorf("write expanded state %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write expanded state %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write expanded state %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("write expanded state %s: %w", key, err)
	}
	return nil
}

var _ service.ExpansionStore = (*FileStore)(nil)
