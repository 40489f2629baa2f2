package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileRepo stores one JSON file per key under dir. Saves write a temp file
// and rename it over the target so readers never see a half-written file.
type FileRepo struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

func NewFileRepo(fs afero.Fs, dir string) (*FileRepo, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = "."
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	return &FileRepo{fs: fs, dir: dir}, nil
}

func (r *FileRepo) path(key string) string {
	return filepath.Join(r.dir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

func (r *FileRepo) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(r.fs, r.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (r *FileRepo) Save(ctx context.Context, key string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.path(key)
	tmp := target + ".tmp-" + uuid.New().String()
	if err := afero.WriteFile(r.fs, tmp, payload, 0o644); err != nil {
		_ = r.fs.Remove(tmp)
		return err
	}
	if err := r.fs.Rename(tmp, target); err != nil {
		_ = r.fs.Remove(tmp)
		return err
	}
	return nil
}

func (r *FileRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.fs.Remove(r.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
