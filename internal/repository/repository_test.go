package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })
	if err := Migrate(ctx, db.Driver, logger); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func TestDocumentLifecycle(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := NewDocumentRepository(db.Driver, logger)
	ctx := context.Background()

	doc := &entity.Document{UserID: "user-1", StoragePath: "user-1/march.pdf", FileName: "march.pdf"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}

	got, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != constants.DocumentStatusPending || got.UserID != "user-1" || got.FileName != "march.pdf" {
		t.Fatalf("unexpected document: %+v", got)
	}
	if got.PayPeriodStart != nil || got.PayPeriodEnd != nil {
		t.Fatalf("expected empty pay period, got %v %v", got.PayPeriodStart, got.PayPeriodEnd)
	}

	if err := docs.UpdateStatus(ctx, doc.ID, constants.DocumentStatusProcessing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := docs.MarkProcessed(ctx, doc.ID, strPtr("2024-03-01"), strPtr("2024-03-31")); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	got, err = docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != constants.DocumentStatusProcessed {
		t.Fatalf("status = %q, want processed", got.Status)
	}
	if got.PayPeriodStart == nil || *got.PayPeriodStart != "2024-03-01" || got.PayPeriodEnd == nil || *got.PayPeriodEnd != "2024-03-31" {
		t.Fatalf("unexpected pay period: %v %v", got.PayPeriodStart, got.PayPeriodEnd)
	}
}

func TestMarkProcessedKeepsExistingPeriodWhenAbsent(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := NewDocumentRepository(db.Driver, logger)
	ctx := context.Background()

	doc := &entity.Document{UserID: "u", StoragePath: "u/a.png", FileName: "a.png", PayPeriodStart: strPtr("2024-01-01")}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := docs.MarkProcessed(ctx, doc.ID, nil, strPtr("2024-01-31")); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	got, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PayPeriodStart == nil || *got.PayPeriodStart != "2024-01-01" {
		t.Fatalf("pay period start overwritten: %v", got.PayPeriodStart)
	}
}

func TestDocumentNotFound(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := NewDocumentRepository(db.Driver, logger)
	ctx := context.Background()

	if _, err := docs.GetByID(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
	if err := docs.UpdateStatus(ctx, uuid.New(), constants.DocumentStatusFailed); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("UpdateStatus err = %v, want ErrNotFound", err)
	}
	if err := docs.UpdateStatus(ctx, uuid.New(), "bogus"); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("UpdateStatus err = %v, want ErrInvalidInput", err)
	}
}

func TestGetByStoragePath(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := NewDocumentRepository(db.Driver, logger)
	ctx := context.Background()

	doc := &entity.Document{UserID: "user-1", StoragePath: "user-1/april.png", FileName: "april.png"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := docs.GetByStoragePath(ctx, "user-1/april.png")
	if err != nil || got.ID != doc.ID {
		t.Fatalf("GetByStoragePath = %+v, %v", got, err)
	}
	if _, err := docs.GetByStoragePath(ctx, "user-1/missing.png"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing path err = %v, want ErrNotFound", err)
	}
}

func TestListPending(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := NewDocumentRepository(db.Driver, logger)
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		if err := docs.Create(ctx, &entity.Document{UserID: "u", StoragePath: "u/" + name, FileName: name}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	done := &entity.Document{UserID: "u", StoragePath: "u/d.pdf", FileName: "d.pdf", Status: constants.DocumentStatusProcessed}
	if err := docs.Create(ctx, done); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pending, err := docs.ListPending(ctx, 0)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending documents, got %d", len(pending))
	}
	limited, err := docs.ListPending(ctx, 2)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 documents with limit, got %d", len(limited))
	}
}

func TestInsertAndListResults(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs := NewDocumentRepository(db.Driver, logger)
	results := NewExtractionResultRepository(db.Driver, logger)
	ctx := context.Background()

	doc := &entity.Document{UserID: "user-1", StoragePath: "user-1/march.pdf", FileName: "march.pdf"}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := docs.MarkProcessed(ctx, doc.ID, strPtr("2024-03-01"), strPtr("2024-03-31")); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	other := &entity.Document{UserID: "user-2", StoragePath: "user-2/x.pdf", FileName: "x.pdf"}
	if err := docs.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	id, err := results.Insert(ctx, &entity.ExtractionResult{
		DocumentID:     doc.ID,
		GrossPay:       3000,
		TaxDeducted:    600,
		NetPay:         2140,
		Pension:        150,
		SocialSecurity: 110,
		AdditionalData: map[string]any{
			entity.KeyExtractionMethod:   string(constants.MethodTextLayer),
			entity.KeyValidationWarnings: []string{},
		},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := results.Insert(ctx, &entity.ExtractionResult{DocumentID: other.ID, GrossPay: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rows, err := results.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for user-1, got %d", len(rows))
	}
	row := rows[0]
	if row.Result.ID != id || row.Result.DocumentID != doc.ID {
		t.Fatalf("unexpected ids: %+v", row.Result)
	}
	if row.Result.GrossPay != 3000 || row.Result.NetPay != 2140 || row.Result.Confirmed {
		t.Fatalf("unexpected amounts: %+v", row.Result)
	}
	if row.Result.AdditionalData[entity.KeyExtractionMethod] != "text_layer" {
		t.Fatalf("unexpected additional data: %#v", row.Result.AdditionalData)
	}
	if row.FileName != "march.pdf" || row.UserID != "user-1" {
		t.Fatalf("unexpected join columns: %+v", row)
	}
	if row.PayPeriodStart == nil || *row.PayPeriodStart != "2024-03-01" ||
		row.PayPeriodEnd == nil || *row.PayPeriodEnd != "2024-03-31" {
		t.Fatalf("unexpected pay period: %v %v", row.PayPeriodStart, row.PayPeriodEnd)
	}
}

func TestInsertRejectsUnknownDocument(t *testing.T) {
	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	results := NewExtractionResultRepository(db.Driver, logger)

	_, err := results.Insert(context.Background(), &entity.ExtractionResult{DocumentID: uuid.New()})
	if !errors.Is(err, common.ErrDatabase) {
		t.Fatalf("Insert err = %v, want ErrDatabase", err)
	}
}
