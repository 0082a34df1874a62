package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// S3Signer presigns GetObject requests.
type S3Signer struct {
	bucket  string
	presign *s3.PresignClient
}

func NewS3Signer(ctx context.Context, bucket, region string) (*S3Signer, error) {
	if bucket == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "STORAGE_BUCKET is required for s3", common.ErrInvalidInput)
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Signer{bucket: bucket, presign: s3.NewPresignClient(s3.NewFromConfig(cfg))}, nil
}

func (s *S3Signer) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", common.WrapError(common.ErrStorage, fmt.Sprintf("presign s3 object %s: %v", path, err))
	}
	return req.URL, nil
}
