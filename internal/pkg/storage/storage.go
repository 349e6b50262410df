package storage

import (
	"context"
	"io"
)

// Storage is the file backend the media pipeline writes through.
// Keys are slash-separated logical paths ("vehicle/optimized/x.webp").
type Storage interface {
	// Put stores a file under the given key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get opens a file by key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by key. Returns nil if the file doesn't exist.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every file under the given key prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Move relocates a file from srcKey to dstKey.
	Move(ctx context.Context, srcKey, dstKey string) error

	// Exists reports whether a file is present under the key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetInfo returns file metadata.
	GetInfo(ctx context.Context, key string) (*FileInfo, error)

	// GetURL returns the public URL for a key.
	GetURL(key string) string
}

// FileInfo describes a stored file
type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
	URL         string
}
