// Package export renders a user's extraction results as an XLSX workbook for human review.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

const sheet = "Payslips"

// ResultLister is the read side of the extraction-result store.
type ResultLister interface {
	ListByUser(ctx context.Context, userID string) ([]*entity.ResultRow, error)
}

type Service struct {
	results ResultLister
	logger  *slog.Logger
}

func NewService(results ResultLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, logger: logger}
}

var headers = []string{
	"Pay Period Start",
	"Pay Period End",
	"File",
	"Gross Pay",
	"Tax Deducted",
	"Pension",
	"Social Security",
	"Other Deductions",
	"Net Pay",
	"Method",
	"Needs Manual Entry",
	"Confirmed",
	"Warnings",
	"Extracted At",
}

// ExportResultsXLSX returns an XLSX workbook (as bytes) with one row per extraction result of userID.
func (s *Service) ExportResultsXLSX(ctx context.Context, userID string) ([]byte, error) {
	start := time.Now()

	rows, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, r := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		res := r.Result
		write(1, deref(r.PayPeriodStart))
		write(2, deref(r.PayPeriodEnd))
		write(3, r.FileName)
		write(4, res.GrossPay)
		write(5, res.TaxDeducted)
		write(6, res.Pension)
		write(7, res.SocialSecurity)
		write(8, res.OtherDeductions)
		write(9, res.NetPay)
		write(10, stringValue(res.AdditionalData[entity.KeyExtractionMethod]))
		write(11, yesNo(res.AdditionalData[entity.KeyRequiresManualEntry] == true))
		write(12, yesNo(res.Confirmed))
		write(13, strings.Join(warnings(res.AdditionalData[entity.KeyValidationWarnings]), "; "))
		if !res.CreatedAt.IsZero() {
			write(14, res.CreatedAt.UTC().Format(time.RFC3339))
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 14) // dates
	_ = f.SetColWidth(sheet, "C", "C", 32) // file
	_ = f.SetColWidth(sheet, "D", "I", 14) // amounts
	_ = f.SetColWidth(sheet, "J", "L", 16)
	_ = f.SetColWidth(sheet, "M", "M", 60) // warnings
	_ = f.SetColWidth(sheet, "N", "N", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func stringValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// warnings accepts both the in-memory []string and the []any produced by decoding stored JSON.
func warnings(v any) []string {
	switch w := v.(type) {
	case []string:
		return w
	case []any:
		out := make([]string, 0, len(w))
		for _, x := range w {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
