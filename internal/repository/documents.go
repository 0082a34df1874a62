package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

// DocumentRepository reads and updates payslip documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByStoragePath(ctx context.Context, storagePath string) (*entity.Document, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error
	MarkProcessed(ctx context.Context, id uuid.UUID, periodStart, periodEnd *string) error
	ListPending(ctx context.Context, limit int) ([]*entity.Document, error)
}

type documentRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(drv *entsql.Driver, logger *slog.Logger) DocumentRepository {
	return &documentRepository{drv: drv, logger: logger}
}

var documentColumns = []string{
	"id", "user_id", "storage_path", "file_name", "status", "pay_period_start", "pay_period_end",
}

func (r *documentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.DocumentStatusPending
	}
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	q, args := entsql.Dialect(r.drv.Dialect()).
		Insert(documentsTable).
		Columns(append(documentColumns, "created_at", "updated_at")...).
		Values(doc.ID.String(), doc.UserID, doc.StoragePath, doc.FileName, string(doc.Status),
			dateArg(doc.PayPeriodStart), dateArg(doc.PayPeriodEnd), now, now).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to create document", "document_id", doc.ID, "error", err)
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("create document: %v", err))
	}
	r.logger.Debug("document created", "document_id", doc.ID, "user_id", doc.UserID)
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.getOne(ctx, entsql.EQ("id", id.String()), "document_id", id)
}

// GetByStoragePath returns the most recent document registered for storagePath.
func (r *documentRepository) GetByStoragePath(ctx context.Context, storagePath string) (*entity.Document, error) {
	return r.getOne(ctx, entsql.EQ("storage_path", storagePath), "storage_path", storagePath)
}

func (r *documentRepository) getOne(ctx context.Context, where *entsql.Predicate, key string, value any) (*entity.Document, error) {
	b := entsql.Dialect(r.drv.Dialect())
	q, args := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(where).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		r.logger.Error("failed to query document", key, value, "error", err)
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("get document: %v", err))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("get document: %v", err))
		}
		return nil, common.ErrNotFound
	}
	doc, err := scanDocument(rows)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("scan document: %v", err))
	}
	return doc, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	if !status.Valid() {
		return common.NewAppError("INVALID_INPUT", fmt.Sprintf("unknown document status %q", status), common.ErrInvalidInput)
	}
	q, args := entsql.Dialect(r.drv.Dialect()).
		Update(documentsTable).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id.String())).
		Query()
	return r.execOne(ctx, "update document status", id, q, args)
}

func (r *documentRepository) MarkProcessed(ctx context.Context, id uuid.UUID, periodStart, periodEnd *string) error {
	u := entsql.Dialect(r.drv.Dialect()).
		Update(documentsTable).
		Set("status", string(constants.DocumentStatusProcessed)).
		Set("updated_at", time.Now().UTC())
	if periodStart != nil {
		u.Set("pay_period_start", *periodStart)
	}
	if periodEnd != nil {
		u.Set("pay_period_end", *periodEnd)
	}
	q, args := u.Where(entsql.EQ("id", id.String())).Query()
	return r.execOne(ctx, "mark document processed", id, q, args)
}

func (r *documentRepository) ListPending(ctx context.Context, limit int) ([]*entity.Document, error) {
	b := entsql.Dialect(r.drv.Dialect())
	sel := b.Select(documentColumns...).
		From(b.Table(documentsTable)).
		Where(entsql.EQ("status", string(constants.DocumentStatusPending))).
		OrderBy("created_at")
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		r.logger.Error("failed to list pending documents", "error", err)
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list pending documents: %v", err))
	}
	defer rows.Close()

	var out []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("scan document: %v", err))
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list pending documents: %v", err))
	}
	return out, nil
}

func (r *documentRepository) execOne(ctx context.Context, op string, id uuid.UUID, q string, args []any) error {
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to "+op, "document_id", id, "error", err)
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("%s: %v", op, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(common.ErrDatabase, fmt.Sprintf("%s: %v", op, err))
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func scanDocument(rows *entsql.Rows) (*entity.Document, error) {
	var (
		doc        entity.Document
		status     string
		start, end nullDate
	)
	if err := rows.Scan(&doc.ID, &doc.UserID, &doc.StoragePath, &doc.FileName, &status, &start, &end); err != nil {
		return nil, err
	}
	doc.Status = constants.DocumentStatus(status)
	doc.PayPeriodStart, doc.PayPeriodEnd = start.Value, end.Value
	return &doc, nil
}
