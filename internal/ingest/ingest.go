// Package ingest registers payslip files dropped under the local storage root as pending
// documents. The first path segment below the root names the owning user.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

// Result is the per-file registration outcome.
type Result struct {
	SourcePath   string
	StoragePath  string
	DocumentID   string
	UserID       string
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory registration.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// DocumentStore is the write side of the document store used by registration.
type DocumentStore interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByStoragePath(ctx context.Context, storagePath string) (*entity.Document, error)
}
