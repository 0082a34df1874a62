package llm

import "context"

// PayslipFields is the canonical shape we want from a model. Absent values stay nil so the
// validator can tell "missing" from "zero".
type PayslipFields struct {
	GrossPay        *float64       `json:"gross_pay,omitempty"`
	TaxDeducted     *float64       `json:"tax_deducted,omitempty"`
	NetPay          *float64       `json:"net_pay,omitempty"`
	Pension         *float64       `json:"pension,omitempty"`
	SocialSecurity  *float64       `json:"social_security,omitempty"`
	OtherDeductions *float64       `json:"other_deductions,omitempty"`
	PayPeriodStart  *string        `json:"pay_period_start,omitempty"` // YYYY-MM-DD
	PayPeriodEnd    *string        `json:"pay_period_end,omitempty"`   // YYYY-MM-DD
	AdditionalData  map[string]any `json:"additional_data,omitempty"`
}

// Amount returns *p or 0.
func Amount(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// SchemaMapper turns plain payslip text into fields with one text-model request.
type SchemaMapper interface {
	MapText(ctx context.Context, text string) (PayslipFields, []byte /*rawJSON*/, error)
}

// VisionExtractor reads fields straight from document bytes with one multimodal request.
type VisionExtractor interface {
	ExtractDocument(ctx context.Context, data []byte, mimeType string) (PayslipFields, []byte /*rawJSON*/, error)
}
