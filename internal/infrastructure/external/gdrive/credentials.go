package gdrive

import (
	"context"
	"fmt"
	"os"

	"github.com/printdock/labelsync/internal/application/port"
)

// FileCredentialSource reads a service account JSON from disk. A missing
// file is a normal state meaning no credential is configured.
type FileCredentialSource struct {
	path string
}

// NewFileCredentialSource creates a credential source backed by a file path
func NewFileCredentialSource(path string) *FileCredentialSource {
	return &FileCredentialSource{path: path}
}

// ServiceAccountJSON returns the credential bytes, or nil when absent
func (s *FileCredentialSource) ServiceAccountJSON(ctx context.Context) ([]byte, error) {
	if s.path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}
	return data, nil
}

var _ port.CredentialSource = (*FileCredentialSource)(nil)
