package pipeline

import (
	"context"
	"log/slog"
	"maps"

	"github.com/joseph-ayodele/payslips-tracker/constants"
	"github.com/joseph-ayodele/payslips-tracker/internal/entity"
	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
	"github.com/joseph-ayodele/payslips-tracker/internal/validate"
)

func (o *Orchestrator) fetch(ctx context.Context, a *Attempt, log *slog.Logger) {
	data, err := o.deps.Fetcher.Fetch(ctx, a.Document.StoragePath)
	if err != nil {
		a.Err = err
		return
	}
	a.Data = data
	log.Debug("pipeline.fetched", "bytes", len(data), "elapsed_ms", a.Elapsed().Milliseconds())
}

func (o *Orchestrator) extractText(ctx context.Context, a *Attempt) {
	res := o.deps.Text.Extract(ctx, a.Data)
	a.Text, a.Pages, a.Scanned = res.Text, res.Pages, res.Scanned
	if !res.Scanned {
		a.Method = constants.MethodTextLayer
	}
}

// recognize never fails the run: an OCR error leaves empty text for the mapper.
func (o *Orchestrator) recognize(ctx context.Context, a *Attempt, log *slog.Logger) {
	a.Method = constants.MethodOCR
	rec, err := o.deps.OCR.Recognize(ctx, a.Data)
	if err != nil {
		log.Warn("pipeline.ocr.failed", "error", err, "elapsed_ms", a.Elapsed().Milliseconds())
		a.Text = ""
		return
	}
	a.Text, a.OCRConfidence = rec.Text, rec.Confidence
	log.Debug("pipeline.ocr.ok", "chars", len(rec.Text), "confidence", rec.Confidence)
}

func (o *Orchestrator) mapText(ctx context.Context, a *Attempt, log *slog.Logger) {
	if o.deps.Mapper == nil {
		a.Err = ErrNoMapper
		return
	}
	fields, _, err := o.deps.Mapper.MapText(ctx, a.Text)
	if err != nil {
		log.Error("pipeline.schema_mapping.failed", "method", a.Method, "error", err, "elapsed_ms", a.Elapsed().Milliseconds())
		a.Err = err
		return
	}
	a.Fields = fields
}

// vision is the last automated tier; any failure is recorded as a fallback reason.
func (o *Orchestrator) vision(ctx context.Context, a *Attempt, log *slog.Logger) {
	if o.deps.Vision == nil {
		a.VisionErr = errVisionDisabled
		a.FallbackReason = errVisionDisabled.Error()
		return
	}
	mime := constants.MIMEType(a.Document.FileName)
	fields, _, err := o.deps.Vision.ExtractDocument(ctx, a.Data, mime)
	if err != nil {
		log.Warn("pipeline.vision.failed", "error", err, "elapsed_ms", a.Elapsed().Milliseconds())
		a.VisionErr = err
		a.FallbackReason = "vision extraction failed"
		return
	}
	a.Method = constants.MethodVision
	a.Fields = fields
}

func (o *Orchestrator) persist(ctx context.Context, a *Attempt, log *slog.Logger) {
	res := buildResult(a)
	id, err := o.deps.Results.Insert(ctx, res)
	if err != nil {
		a.Err = err
		return
	}
	a.ResultID = id

	start, end := validDate(a.Fields.PayPeriodStart), validDate(a.Fields.PayPeriodEnd)
	if err := o.deps.Documents.MarkProcessed(ctx, a.Document.ID, start, end); err != nil {
		log.Error("pipeline.status.update_failed", "status", constants.DocumentStatusProcessed, "result_id", id, "error", err)
		a.Err = err
	}
}

func buildResult(a *Attempt) *entity.ExtractionResult {
	extra := map[string]any{}
	maps.Copy(extra, a.Fields.AdditionalData)
	extra[entity.KeyExtractionMethod] = string(a.Method)

	switch a.Method {
	case constants.MethodManual:
		extra[entity.KeyRequiresManualEntry] = true
		if a.FallbackReason != "" {
			extra[entity.KeyFallbackReason] = a.FallbackReason
		}
	case constants.MethodOCR:
		extra[entity.KeyOCRConfidence] = a.OCRConfidence
	}
	if a.Pages > 0 {
		extra[entity.KeyPageCount] = a.Pages
	}
	if a.Validation != nil && len(a.Validation.Warnings) > 0 {
		extra[entity.KeyValidationWarnings] = a.Validation.Warnings
	}

	f := a.Fields
	return &entity.ExtractionResult{
		DocumentID:      a.Document.ID,
		GrossPay:        llm.Amount(f.GrossPay),
		TaxDeducted:     llm.Amount(f.TaxDeducted),
		NetPay:          llm.Amount(f.NetPay),
		Pension:         llm.Amount(f.Pension),
		SocialSecurity:  llm.Amount(f.SocialSecurity),
		OtherDeductions: llm.Amount(f.OtherDeductions),
		AdditionalData:  extra,
	}
}

// validDate drops period dates the validator would flag; those stay in the warnings only.
func validDate(s *string) *string {
	if s == nil || !validate.IsISODate(*s) {
		return nil
	}
	return s
}
