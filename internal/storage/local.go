package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Local keeps objects under a directory on disk.
type Local struct {
	dir      string
	password string
}

func NewLocal(dir, password string) (*Local, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, password: password}, nil
}

func (l *Local) Name() string { return "local" }

func (l *Local) path(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, filepath.FromSlash(key)), nil
}

func (l *Local) Put(_ context.Context, key string, data []byte, meta FileMetadata) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if l.password != "" {
		if data, err = seal(data, l.password); err != nil {
			return fmt.Errorf("failed to encrypt data: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp := p + ".part"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write object: %w", err)
	}
	log.Debug().Str("key", key).Str("name", meta.OriginalName).Int("size", len(data)).Msg("stored object locally")
	return nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, *FileMetadata, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, nil, err
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read object: %w", err)
	}
	sealed := isSealed(raw)
	data, err := unseal(raw, l.password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt data: %w", err)
	}
	return data, &FileMetadata{OriginalName: filepath.Base(p), Size: int64(len(data)), Encrypted: sealed}, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (l *Local) Ping(context.Context) error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", l.dir)
	}
	return nil
}
