package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	generationdomain "github.com/depictapp/depict/internal/generation/domain"
)

// FSStore persists generated images on local disk and addresses them
// under a public base URL served as static files. It stands in for an
// object store; the interface is what the pipeline depends on.
type FSStore struct {
	dir           string
	publicBaseURL string
}

func NewFSStore(dir, publicBaseURL string) *FSStore {
	return &FSStore{
		dir:           dir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

var _ generationdomain.ArtifactStore = (*FSStore)(nil)

func (s *FSStore) Save(ctx context.Context, path string, data []byte) (string, error) {
	path = filepath.ToSlash(filepath.Clean(strings.TrimLeft(path, "/")))
	if path == "." || strings.HasPrefix(path, "..") {
		return "", fmt.Errorf("invalid artifact path %q", path)
	}

	full := filepath.Join(s.dir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}

	return s.publicBaseURL + "/" + path, nil
}

// Dir returns the backing directory, for static file serving.
func (s *FSStore) Dir() string { return s.dir }
