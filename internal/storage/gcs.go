package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// GCSSigner creates V4 signed URLs with the client's default credentials.
type GCSSigner struct {
	bucket *gcs.BucketHandle
}

func NewGCSSigner(ctx context.Context, bucket string) (*GCSSigner, error) {
	if bucket == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "STORAGE_BUCKET is required for gcs", common.ErrInvalidInput)
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSSigner{bucket: client.Bucket(bucket)}, nil
}

func (s *GCSSigner) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.bucket.SignedURL(path, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", common.WrapError(common.ErrStorage, fmt.Sprintf("sign gcs object %s: %v", path, err))
	}
	return u, nil
}
