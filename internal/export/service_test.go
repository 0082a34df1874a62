package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

type listerFunc func(ctx context.Context, userID string) ([]*entity.ResultRow, error)

func (f listerFunc) ListByUser(ctx context.Context, userID string) ([]*entity.ResultRow, error) {
	return f(ctx, userID)
}

func TestExportResultsXLSX(t *testing.T) {
	start, end := "2024-03-01", "2024-03-31"
	rows := []*entity.ResultRow{
		{
			Result: entity.ExtractionResult{
				ID: uuid.New(), GrossPay: 3000, TaxDeducted: 600, NetPay: 2140, Pension: 150, SocialSecurity: 110,
				AdditionalData: map[string]any{
					entity.KeyExtractionMethod:   "text_layer",
					entity.KeyValidationWarnings: []any{"a", "b"},
				},
				CreatedAt: time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC),
			},
			FileName:       "march.pdf",
			PayPeriodStart: &start,
			PayPeriodEnd:   &end,
		},
		{
			Result: entity.ExtractionResult{
				ID: uuid.New(),
				AdditionalData: map[string]any{
					entity.KeyExtractionMethod:    "manual_fallback",
					entity.KeyRequiresManualEntry: true,
				},
			},
			FileName: "scan.pdf",
		},
	}
	var asked string
	svc := NewService(listerFunc(func(_ context.Context, userID string) ([]*entity.ResultRow, error) {
		asked = userID
		return rows, nil
	}), nil)

	b, err := svc.ExportResultsXLSX(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if asked != "user-1" {
		t.Fatalf("listed for %q", asked)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(got))
	}
	if got[0][0] != "Pay Period Start" || got[0][8] != "Net Pay" {
		t.Fatalf("unexpected header %v", got[0])
	}
	first := got[1]
	if first[0] != start || first[2] != "march.pdf" || first[3] != "3000" || first[9] != "text_layer" || first[12] != "a; b" {
		t.Fatalf("unexpected first row %v", first)
	}
	if first[13] != "2024-04-02T10:00:00Z" {
		t.Fatalf("extracted at = %q", first[13])
	}
	second := got[2]
	if second[0] != "" || second[9] != "manual_fallback" || second[10] != "yes" || second[11] != "no" {
		t.Fatalf("unexpected second row %v", second)
	}
}

func TestExportPropagatesListError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(listerFunc(func(context.Context, string) ([]*entity.ResultRow, error) { return nil, boom }), nil)
	if _, err := svc.ExportResultsXLSX(context.Background(), "u"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
