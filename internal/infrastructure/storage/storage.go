package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrObjectNotFound is returned by Get when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that escape the storage root.
var ErrInvalidKey = errors.New("invalid object key")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// RefPrefix is the public path prefix of every stored image reference.
const RefPrefix = "/assets/"

// Folders images are stored under.
const (
	FolderListing = "tindang"
	FolderAvatar  = "avatars"
)

// CleanKey normalizes a key and rejects empty, absolute or parent-relative keys.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// RefForKey returns the public reference for a storage key.
func RefForKey(key string) string {
	return RefPrefix + key
}

// KeyFromRef extracts the storage key from a public reference.
func KeyFromRef(ref string) (string, bool) {
	ref = "/" + strings.TrimLeft(ref, "/")
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", false
	}
	key, err := CleanKey(strings.TrimPrefix(ref, RefPrefix))
	if err != nil {
		return "", false
	}
	return key, true
}
