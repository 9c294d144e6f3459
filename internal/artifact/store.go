package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dm/starsearch/internal/apperr"
)

// Store keeps named export artifacts.
type Store interface {
	// Put writes data under name and returns where it landed.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Get reads the artifact stored under name.
	Get(ctx context.Context, name string) ([]byte, error)
}

// DirStore keeps artifacts as files in a local directory.
type DirStore struct {
	root string
	log  *logrus.Logger
}

// NewDirStore returns a DirStore rooted at dir. The directory is created on
// first write.
func NewDirStore(dir string, log *logrus.Logger) *DirStore {
	return &DirStore{root: dir, log: log}
}

// Put writes data to <root>/<name>, readable by the owner only.
func (d *DirStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := d.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	d.log.WithFields(logrus.Fields{"path": p, "bytes": len(data)}).Debug("artifact written")
	return p, nil
}

// Get reads <root>/<name>.
func (d *DirStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &apperr.NotFoundError{Kind: "file", Name: p}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

func (d *DirStore) path(name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("artifact name %q escapes %s", name, d.root)
	}
	return filepath.Join(d.root, name), nil
}
