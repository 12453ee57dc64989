// Package storage provides flat-namespace object storage with Azure Blob
// Storage, Amazon S3, and in-memory implementations.
package storage

import (
	"context"
	"strings"
)

// Bucket is one container (Azure) or bucket (S3) of objects addressed by key.
type Bucket interface {
	// List returns every key that starts with prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Read returns the object at key. Returns ErrNotFound if it does not exist.
	Read(ctx context.Context, key string) ([]byte, error)
	// Create writes data at key only if no object exists there.
	// Returns ErrExists if the key is taken.
	Create(ctx context.Context, key string, data []byte, contentType string) error
	// Put writes data at key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Location describes the bucket for logs and operator messages.
	Location() string
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
