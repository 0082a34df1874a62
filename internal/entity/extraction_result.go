package entity

import (
	"time"

	"github.com/google/uuid"
)

// Keys written into ExtractionResult.AdditionalData by the pipeline.
const (
	KeyExtractionMethod    = "extraction_method"
	KeyValidationWarnings  = "validation_warnings"
	KeyRequiresManualEntry = "requires_manual_entry"
	KeyFallbackReason      = "fallback_reason"
	KeyOCRConfidence       = "ocr_confidence"
	KeyPageCount           = "page_count"
)

// ExtractionResult is the persisted outcome of one pipeline run.
type ExtractionResult struct {
	ID              uuid.UUID      `json:"id"`
	DocumentID      uuid.UUID      `json:"document_id"`
	GrossPay        float64        `json:"gross_pay"`
	TaxDeducted     float64        `json:"tax_deducted"`
	NetPay          float64        `json:"net_pay"`
	Pension         float64        `json:"pension"`
	SocialSecurity  float64        `json:"social_security"`
	OtherDeductions float64        `json:"other_deductions"`
	AdditionalData  map[string]any `json:"additional_data"`
	Confirmed       bool           `json:"confirmed"`
	CreatedAt       time.Time      `json:"created_at"`
}

// ResultRow joins a result with its document for listings and exports.
type ResultRow struct {
	Result         ExtractionResult
	UserID         string
	FileName       string
	PayPeriodStart *string
	PayPeriodEnd   *string
}
