package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

// ExtractionResultRepository persists pipeline outcomes.
type ExtractionResultRepository interface {
	Insert(ctx context.Context, res *entity.ExtractionResult) (uuid.UUID, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.ResultRow, error)
}

type extractionResultRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

// NewExtractionResultRepository creates a new extraction result repository
func NewExtractionResultRepository(drv *entsql.Driver, logger *slog.Logger) ExtractionResultRepository {
	return &extractionResultRepository{drv: drv, logger: logger}
}

var resultColumns = []string{
	"id", "document_id", "gross_pay", "tax_deducted", "net_pay", "pension",
	"social_security", "other_deductions", "additional_data", "confirmed",
}

// Insert writes a new unconfirmed row and returns its id.
func (r *extractionResultRepository) Insert(ctx context.Context, res *entity.ExtractionResult) (uuid.UUID, error) {
	res.ID = uuid.New()
	res.Confirmed = false
	res.CreatedAt = time.Now().UTC()
	extra, err := jsonMap(res.AdditionalData).Value()
	if err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("encode additional_data: %v", err))
	}

	q, args := entsql.Dialect(r.drv.Dialect()).
		Insert(resultsTable).
		Columns(append(resultColumns, "created_at")...).
		Values(res.ID.String(), res.DocumentID.String(), res.GrossPay, res.TaxDeducted, res.NetPay,
			res.Pension, res.SocialSecurity, res.OtherDeductions, extra, res.Confirmed, res.CreatedAt).
		Query()
	if err := r.drv.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to insert extraction result", "document_id", res.DocumentID, "error", err)
		return uuid.Nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("insert extraction result: %v", err))
	}
	r.logger.Debug("extraction result inserted", "result_id", res.ID, "document_id", res.DocumentID)
	return res.ID, nil
}

// ListByUser returns the user's results joined with their documents, newest first.
func (r *extractionResultRepository) ListByUser(ctx context.Context, userID string) ([]*entity.ResultRow, error) {
	b := entsql.Dialect(r.drv.Dialect())
	t := b.Table(resultsTable).As("r")
	d := b.Table(documentsTable).As("d")

	cols := make([]string, 0, len(resultColumns)+4)
	for _, c := range resultColumns {
		cols = append(cols, t.C(c))
	}
	cols = append(cols, d.C("user_id"), d.C("file_name"), d.C("pay_period_start"), d.C("pay_period_end"))

	q, args := b.Select(cols...).
		From(t).
		Join(d).On(t.C("document_id"), d.C("id")).
		Where(entsql.EQ(d.C("user_id"), userID)).
		OrderBy(entsql.Desc(t.C("created_at"))).
		Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		r.logger.Error("failed to list extraction results", "user_id", userID, "error", err)
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list extraction results: %v", err))
	}
	defer rows.Close()

	var out []*entity.ResultRow
	for rows.Next() {
		var (
			row        entity.ResultRow
			extra      jsonMap
			start, end nullDate
		)
		res := &row.Result
		if err := rows.Scan(&res.ID, &res.DocumentID, &res.GrossPay, &res.TaxDeducted, &res.NetPay,
			&res.Pension, &res.SocialSecurity, &res.OtherDeductions, &extra, &res.Confirmed,
			&row.UserID, &row.FileName, &start, &end); err != nil {
			return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("scan extraction result: %v", err))
		}
		res.AdditionalData = extra
		row.PayPeriodStart, row.PayPeriodEnd = start.Value, end.Value
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(common.ErrDatabase, fmt.Sprintf("list extraction results: %v", err))
	}
	return out, nil
}
