package storage

import (
	"context"
	"io"
)

// ObjectInfo describes a stored blob.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStore is the narrow blob-store boundary the file service depends
// on. The service only ever addresses blobs by their storage ref; it never
// inspects contents.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, objectName string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, objectName string) error
	EnsureBucket(ctx context.Context) error
}
