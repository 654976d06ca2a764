package storage

import (
	"context"
)

// Storage is an artifact sink for exported captures.
type Storage interface {
	// Put stores data under key and returns the location of the artifact
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Delete removes an artifact previously returned by Put
	Delete(ctx context.Context, location string) error
}
