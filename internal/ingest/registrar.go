package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

// Registrar turns files under root into pending documents.
type Registrar struct {
	root   string
	docs   DocumentStore
	logger *slog.Logger
}

func NewRegistrar(root string, docs DocumentStore, logger *slog.Logger) (*Registrar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	return &Registrar{root: abs, docs: docs, logger: logger}, nil
}

// RegisterPath creates a pending document for path unless one already exists for the same
// storage path.
func (r *Registrar) RegisterPath(ctx context.Context, path string) (Result, error) {
	out := Result{SourcePath: path}

	storagePath, userID, err := r.storagePath(path)
	if err != nil {
		return out, err
	}
	if !AllowedExt(filepath.Ext(path)) {
		return out, common.NewAppError("INVALID_INPUT", fmt.Sprintf("unsupported extension %q", filepath.Ext(path)), common.ErrInvalidInput)
	}
	out.StoragePath, out.UserID = storagePath, userID

	existing, err := r.docs.GetByStoragePath(ctx, storagePath)
	switch {
	case err == nil:
		out.DocumentID, out.Deduplicated = existing.ID.String(), true
		return out, nil
	case !errors.Is(err, common.ErrNotFound):
		return out, err
	}

	doc := &entity.Document{
		UserID:      userID,
		StoragePath: storagePath,
		FileName:    filepath.Base(path),
	}
	if err := r.docs.Create(ctx, doc); err != nil {
		return out, err
	}
	out.DocumentID = doc.ID.String()
	r.logger.Info("ingest.registered", "document_id", doc.ID, "user_id", userID, "storage_path", storagePath)
	return out, nil
}

// RegisterDirectory walks dir, skips hidden entries if requested, and registers each
// supported file. Per-file failures are collected, not returned.
func (r *Registrar) RegisterDirectory(ctx context.Context, dir string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, DirStats{}, common.NewAppError("INVALID_INPUT", "directory is required", common.ErrInvalidInput)
	}

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != dir && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		res, err := r.RegisterPath(ctx, path)
		if err != nil {
			res.Err = err.Error()
			results = append(results, res)
			stats.Failed++
			return nil
		}
		results = append(results, res)
		stats.Succeeded++
		if res.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	r.logger.Info("ingest.directory.done",
		"dir", dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

// storagePath maps an absolute or relative file path to its slash-separated path below root.
func (r *Registrar) storagePath(path string) (string, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("abs path: %w", err)
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", common.NewAppError("INVALID_INPUT", fmt.Sprintf("%s is outside the storage root", path), common.ErrInvalidInput)
	}
	rel = filepath.ToSlash(rel)
	user, _, ok := strings.Cut(rel, "/")
	if !ok || user == "" {
		return "", "", common.NewAppError("INVALID_INPUT", fmt.Sprintf("%s is not inside a user directory", path), common.ErrInvalidInput)
	}
	return rel, user, nil
}
