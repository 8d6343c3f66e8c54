package ports

import "context"

// ObjectStorage : для S3
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}
