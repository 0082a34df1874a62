package llm

// BuildPayslipJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Dates are only typed here; their format is checked by the validator so a bad date
// becomes a review warning instead of a rejected response.
func BuildPayslipJSONSchema() map[string]any {
	props := map[string]any{
		"gross_pay":        amountProp(),
		"tax_deducted":     deductionProp(),
		"net_pay":          amountProp(),
		"pension":          deductionProp(),
		"social_security":  deductionProp(),
		"other_deductions": deductionProp(),
		"pay_period_start": map[string]any{"type": "string"},
		"pay_period_end":   map[string]any{"type": "string"},
		"additional_data":  map[string]any{"type": "object"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// amountProp leaves sign checks on gross and net to the validator.
func amountProp() map[string]any {
	return map[string]any{"type": "number"}
}

func deductionProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0}
}
