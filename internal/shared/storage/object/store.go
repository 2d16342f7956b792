package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrPresignUnsupported is returned by stores that cannot mint signed URLs.
// Callers fall back to streaming the bytes through the API.
var ErrPresignUnsupported = errors.New("presigned urls not supported")

// BlobStore defines the contract for saving and retrieving binary objects.
// Keys are opaque; bytes are immutable once written (only deletion is allowed).
type BlobStore interface {
	Put(ctx context.Context, ownerID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
	PresignGet(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}
