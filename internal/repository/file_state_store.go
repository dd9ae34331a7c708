package repository

import (
	"context"
	"os"
	"path/filepath"
	"qdrt_backend/internal/util"
	"strings"
)

// FileStateStore writes one file per key under Dir.
type FileStateStore struct {
	Dir string
}

func NewFileStateStore(dir string) (*FileStateStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStateStore{Dir: dir}, nil
}

var keyReplacer = strings.NewReplacer(":", "_", "/", "_", "\\", "_", "..", "_")

func (s *FileStateStore) path(key string) string {
	return filepath.Join(s.Dir, keyReplacer.Replace(key)+".json")
}

func (s *FileStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, util.ErrStateNotFound
	}
	return data, err
}

// Save replaces the file atomically so a crash never leaves a half-written state file.
func (s *FileStateStore) Save(ctx context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(s.Dir, ".state-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}

func (s *FileStateStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.Dir)
	return err
}
