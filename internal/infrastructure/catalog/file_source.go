package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/belgrano/backend/internal/domain/catalog"
)

// FileSource reads the catalog document from the local filesystem
type FileSource struct {
	path string
}

// NewFileSource creates a source for path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load reads and parses the file
func (s *FileSource) Load(ctx context.Context) (*catalog.Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.path, err)
	}
	return Parse(data)
}

var _ catalog.Source = (*FileSource)(nil)
