package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// URLSigner issues time-limited download URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// NewSigner builds the signer for the configured backend.
func NewSigner(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (URLSigner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case "s3":
		s, err := NewS3Signer(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, err
		}
		logger.Info("storage.signer.configured", "backend", "s3", "bucket", cfg.Bucket, "region", cfg.Region)
		return s, nil
	case "gcs":
		s, err := NewGCSSigner(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		logger.Info("storage.signer.configured", "backend", "gcs", "bucket", cfg.Bucket)
		return s, nil
	case "local", "":
		s, err := NewLocalSigner(cfg.LocalRoot, cfg.PublicBaseURL, cfg.SigningKey)
		if err != nil {
			return nil, err
		}
		logger.Info("storage.signer.configured", "backend", "local", "root", cfg.LocalRoot)
		return s, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown storage backend %q", cfg.Backend), common.ErrInvalidInput)
	}
}
