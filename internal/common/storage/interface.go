package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object storage operations needed by the test
// case stores. It is intentionally small so MinIO and AWS-S3 backends can
// be swapped without touching business logic.
type ObjectStorage interface {
	// GetObject opens a reader for an object. Caller must close it.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

	// PutObject writes an object, replacing any existing content.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error

	// ListObjects returns the keys under a prefix.
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)

	// RemoveObjects deletes the named objects. Missing keys are not errors.
	RemoveObjects(ctx context.Context, bucket string, objectKeys []string) error

	// StatObject returns size and ETag for an object.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)
}

// ObjectStat contains object metadata used for validation.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}
