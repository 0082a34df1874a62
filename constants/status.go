package constants

// DocumentStatus is the lifecycle status stored on documents.status.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentStatusPending    DocumentStatus = "pending"    // uploaded, not yet picked up
	DocumentStatusProcessing DocumentStatus = "processing" // pipeline run in progress
	DocumentStatusProcessed  DocumentStatus = "processed"  // result row written (possibly manual placeholder)
	DocumentStatusFailed     DocumentStatus = "failed"     // terminal failure, no result row
)

// Method tags the strategy that produced an extraction result.
type Method string

const (
	MethodTextLayer Method = "text_layer"
	MethodOCR       Method = "ocr"
	MethodVision    Method = "vision_ocr"
	MethodManual    Method = "manual_fallback"
)

// Valid reports whether s is one of the stored document statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusProcessed, DocumentStatusFailed:
		return true
	}
	return false
}
