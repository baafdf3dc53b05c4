package port

import "context"

// ObjectStorage is the bucket-addressed byte store every stage reads its
// input artifact from and writes its output artifact to.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, content []byte, contentType string) error
}
