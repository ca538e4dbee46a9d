// Package blobstore defines durable object storage for raw audio payloads.
// Storage is best-effort for callers: a failed put loses the blob reference,
// never the surrounding operation.
package blobstore

import "context"

// Store accepts a byte blob under a key and returns a durable reference URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
