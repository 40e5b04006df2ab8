package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/local/docsummarizer/internal/config"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// FileMetadata describes a stored upload.
type FileMetadata struct {
	OriginalName string
	ContentType  string
	Size         int64
	Encrypted    bool
}

// Blob stores original uploads by key.
type Blob interface {
	Put(ctx context.Context, key string, data []byte, meta FileMetadata) error
	Get(ctx context.Context, key string) ([]byte, *FileMetadata, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
}

// New builds the configured backend.
func New(ctx context.Context, conf config.StorageConfig) (Blob, error) {
	switch conf.Backend {
	case "", "local":
		return NewLocal(conf.LocalDir, conf.SealKey)
	case "s3":
		return NewS3Client(ctx, conf)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", conf.Backend)
	}
}

// ObjectKey returns the key under which an owner's upload is stored.
func ObjectKey(ownerID, docID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(cleanSegment(ownerID), docID+ext)
}

func cleanSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid storage key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid storage key %q", key)
		}
	}
	return nil
}
