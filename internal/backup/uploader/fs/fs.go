// Package fs implements the local/mounted-path Uploader — the default,
// always-available, headless-safe backup transport.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Uploader copies archives into a directory, which may be a locally
// mounted network share — the same shape a removable/NAS backup target
// takes in practice.
type Uploader struct {
	dir string
}

// New creates an Uploader rooted at dir, creating it if absent.
func New(dir string) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup/uploader/fs: creating %s: %w", dir, err)
	}

	return &Uploader{dir: dir}, nil
}

func (u *Uploader) Upload(_ context.Context, name string, r io.Reader, _ int64) (string, error) {
	path := filepath.Join(u.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("backup/uploader/fs: creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("backup/uploader/fs: writing %s: %w", path, err)
	}

	return path, nil
}
