// internal/storage/document/localfs.go
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketdeck/marketdeck/internal/core"
)

// LocalFS implements Store on the local filesystem.
type LocalFS struct {
	basePath string
}

// NewLocalFS creates a new LocalFS store rooted at basePath.
func NewLocalFS(basePath string) (*LocalFS, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating base path: %w", err)
	}
	return &LocalFS{basePath: basePath}, nil
}

func (l *LocalFS) fullPath(name string) string {
	return filepath.Join(l.basePath, name)
}

// Save writes the document via a temp file and rename, so a crash
// mid-write never leaves a half-written document behind.
func (l *LocalFS) Save(ctx context.Context, name string, data []byte) error {
	fullPath := l.fullPath(name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(name)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), fullPath)
}

func (l *LocalFS) Load(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(l.fullPath(name))
	if os.IsNotExist(err) {
		return nil, core.ErrDocumentNotFound
	}
	return data, err
}

func (l *LocalFS) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	searchPath := l.fullPath(prefix)

	err := filepath.Walk(searchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			relPath, _ := filepath.Rel(l.basePath, path)
			names = append(names, filepath.ToSlash(relPath))
		}
		return nil
	})

	if os.IsNotExist(err) {
		return []string{}, nil
	}
	return names, err
}

func (l *LocalFS) Delete(ctx context.Context, name string) error {
	err := os.Remove(l.fullPath(name))
	if os.IsNotExist(err) {
		return core.ErrDocumentNotFound
	}
	return err
}

func (l *LocalFS) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(l.fullPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}
