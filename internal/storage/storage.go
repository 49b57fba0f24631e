// Package storage stores class artifacts (jars, class files, scan reports)
// in an object store addressed by slash-separated keys.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/classmeta/pkg/config"
	apperrors "github.com/classmeta/pkg/errors"
)

// Storage is an object store for artifacts.
type Storage interface {
	// Upload writes the reader contents to key, replacing any object there.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile uploads a local file to key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at key. A missing object yields an error
	// matching apperrors.ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile copies the object at key to a local file.
	DownloadFile(ctx context.Context, key string, localPath string) error

	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a locator for key: a file path or an object URL.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage creates the backend selected by cfg.Type. An empty type
// means local.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	switch storageType {
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS bucket is required")
		}
		if cfg.Region == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return apperrors.New(apperrors.CodeConfigError, "COS credentials are required")
		}
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			return apperrors.New(apperrors.CodeConfigError, "local storage path is required")
		}
	default:
		return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf("unsupported storage type: %s", cfg.Type))
	}
	return nil
}

// ReadAll downloads the whole object at key.
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	return ReadLimited(ctx, s, key, 0)
}

// ReadLimited downloads the object at key, failing with CodeInvalidInput
// once more than limit bytes arrive. A limit <= 0 means no bound.
func ReadLimited(ctx context.Context, s Storage, key string, limit int64) ([]byte, error) {
	rc, err := s.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageError, "read "+key, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("%s exceeds limit %d", key, limit))
	}
	return data, nil
}

// CleanKey normalizes a key to a relative slash path. Keys that escape the
// store root are rejected.
func CleanKey(key string) (string, error) {
	slashed := strings.ReplaceAll(key, "\\", "/")
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("storage key %q escapes root", key))
		}
	}
	k := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if k == "" {
		return "", apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("invalid storage key %q", key))
	}
	return k, nil
}

func notFound(key string) error {
	return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("object not found: %s", key))
}

func storageErr(op, key string, err error) error {
	return apperrors.Wrap(apperrors.CodeStorageError, op+" "+key, err)
}
