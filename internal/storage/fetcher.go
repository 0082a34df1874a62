package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
)

// Fetcher downloads document bytes through a signed URL.
type Fetcher struct {
	signer   URLSigner
	client   *http.Client
	ttl      time.Duration
	maxBytes int64
	logger   *slog.Logger
}

func NewFetcher(signer URLSigner, cfg common.StorageConfig, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		signer:   signer,
		client:   &http.Client{Timeout: timeout},
		ttl:      cfg.URLTTL,
		maxBytes: cfg.MaxDocumentBytes,
		logger:   logger,
	}
}

// Fetch signs storagePath and downloads it. Any failure is a storage error.
func (f *Fetcher) Fetch(ctx context.Context, storagePath string) ([]byte, error) {
	start := time.Now()
	u, err := f.signer.SignedURL(ctx, storagePath, f.ttl)
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("sign %s: %v", storagePath, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("build request: %v", err))
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("download %s: %v", storagePath, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("download %s: status %d", storagePath, resp.StatusCode))
	}

	var r io.Reader = resp.Body
	if f.maxBytes > 0 {
		r = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("read %s: %v", storagePath, err))
	}
	if f.maxBytes > 0 && int64(len(b)) > f.maxBytes {
		return nil, common.WrapError(common.ErrStorage, fmt.Sprintf("document %s exceeds %d bytes", storagePath, f.maxBytes))
	}

	f.logger.Debug("storage.fetch.ok", "path", storagePath, "bytes", len(b), "elapsed_ms", time.Since(start).Milliseconds())
	return b, nil
}
