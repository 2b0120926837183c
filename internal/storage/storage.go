// Package storage persists the raw uploaded documents. The pipeline works
// on the in-memory bytes it was handed; the blob store keeps the original
// around for later download and re-processing.
package storage

import "context"

// BlobStore writes and reads uploaded document blobs.
type BlobStore interface {
	// Put stores data under key and returns a URL for the stored object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}
