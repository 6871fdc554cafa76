package photo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStore keeps photo blobs on the local filesystem under a single directory
// and resolves them under a public base URL (the directory is served by the
// HTTP layer).
type FSStore struct {
	dir     string
	baseURL string
}

// NewFSStore creates the backing directory if needed.
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &FSStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FSStore) Put(_ context.Context, name string, data []byte) (string, error) {
	// Object names are generated, never user input, but keep path traversal out
	// on principle.
	name = path.Base(name)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo blob: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *FSStore) Remove(_ context.Context, ref string) error {
	name := objectNameFromRef(ref)
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove photo blob: %w", err)
	}
	return nil
}

// objectNameFromRef extracts the object name from a public URL, dropping any
// query string a CDN may have appended.
func objectNameFromRef(ref string) string {
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		ref = ref[:i]
	}
	name := path.Base(ref)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
