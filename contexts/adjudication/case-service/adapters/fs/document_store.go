// Package fs stores evidence documents on the local filesystem. Object
// storage can replace it behind the same port without touching the case
// module.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domainerrors "pleito/contexts/adjudication/case-service/domain/errors"
	"pleito/contexts/adjudication/case-service/ports"

	"github.com/google/uuid"
)

type DocumentStore struct {
	baseDir string
}

func NewDocumentStore(baseDir string) (*DocumentStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = filepath.Join(os.TempDir(), "pleito-evidence")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create evidence directory: %w", err)
	}
	return &DocumentStore{baseDir: baseDir}, nil
}

func (s *DocumentStore) StoreEvidence(_ context.Context, filename string, data []byte) (string, error) {
	name := uuid.NewString() + "-" + sanitize(filename)
	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", domainerrors.ErrDocumentStoreFailure
	}
	return "file://" + path, nil
}

// sanitize strips path separators so a crafted filename cannot escape the
// evidence directory.
func sanitize(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "document"
	}
	return base
}

var _ ports.DocumentStore = (*DocumentStore)(nil)
