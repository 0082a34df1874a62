package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/common"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/ocr"
	"github.com/joseph-ayodele/payslips-tracker/internal/pdftext"
)

type fakeDocs struct {
	mu       sync.Mutex
	docs     map[uuid.UUID]*entity.Document
	statuses []constants.DocumentStatus
	markErr  error
}

func newFakeDocs(docs ...*entity.Document) *fakeDocs {
	f := &fakeDocs{docs: map[uuid.UUID]*entity.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocs) GetByID(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocs) UpdateStatus(_ context.Context, id uuid.UUID, status constants.DocumentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	f.docs[id].Status = status
	return nil
}

func (f *fakeDocs) MarkProcessed(_ context.Context, id uuid.UUID, start, end *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.statuses = append(f.statuses, constants.DocumentStatusProcessed)
	d := f.docs[id]
	d.Status = constants.DocumentStatusProcessed
	if start != nil {
		d.PayPeriodStart = start
	}
	if end != nil {
		d.PayPeriodEnd = end
	}
	return nil
}

func (f *fakeDocs) status(id uuid.UUID) constants.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id].Status
}

type fakeResults struct {
	mu   sync.Mutex
	rows []*entity.ExtractionResult
	err  error
}

func (f *fakeResults) Insert(_ context.Context, res *entity.ExtractionResult) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	res.ID = uuid.New()
	f.rows = append(f.rows, res)
	return res.ID, nil
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) ([]byte, error) { return f.data, f.err }

type fakeText struct {
	res   pdftext.Result
	calls int
}

func (f *fakeText) Extract(context.Context, []byte) pdftext.Result {
	f.calls++
	return f.res
}

type fakeOCR struct {
	rec   ocr.Recognition
	err   error
	calls int
}

func (f *fakeOCR) Recognize(context.Context, []byte) (ocr.Recognition, error) {
	f.calls++
	return f.rec, f.err
}

type fakeMapper struct {
	fields llm.PayslipFields
	err    error
	calls  int
	texts  []string
}

func (f *fakeMapper) MapText(_ context.Context, text string) (llm.PayslipFields, []byte, error) {
	f.calls++
	f.texts = append(f.texts, text)
	return f.fields, nil, f.err
}

type fakeVision struct {
	fields llm.PayslipFields
	err    error
	calls  int
	mimes  []string
}

func (f *fakeVision) ExtractDocument(_ context.Context, _ []byte, mime string) (llm.PayslipFields, []byte, error) {
	f.calls++
	f.mimes = append(f.mimes, mime)
	return f.fields, nil, f.err
}

var errBoom = errors.New("boom")
