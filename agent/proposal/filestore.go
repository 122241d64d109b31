package proposal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	contractx "github.com/tanpawarit/Chative-Sales-Assistant/agent/contract"
)

// LocalFileStore drops rendered documents into a directory served by some
// static file host. It exists so deployments without object storage still get
// working attachment links.
type LocalFileStore struct {
	dir     string
	baseURL string
}

func NewLocalFileStore(dir, baseURL string) (*LocalFileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create file store directory: %w", err)
	}
	return &LocalFileStore{
		dir:     dir,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}, nil
}

func (s *LocalFileStore) Upload(_ context.Context, name string, _ string, data []byte) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return "", fmt.Errorf("file name is required")
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	if s.baseURL == "" {
		return name, nil
	}
	return s.baseURL + "/" + name, nil
}

var _ contractx.FileStore = (*LocalFileStore)(nil)
