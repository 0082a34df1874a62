// Package validate sanity-checks mapped payslip fields. It never rejects a result; every
// problem becomes a warning for human review.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
)

// DefaultTolerance is the allowed net-pay mismatch as a fraction of gross pay.
const DefaultTolerance = 0.02

var reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Result struct {
	IsValid  bool     `json:"is_valid"`
	Warnings []string `json:"warnings"`
}

// Validate checks presence and sign of the headline amounts, net pay arithmetic and period
// date format. It is pure: the same input always yields the same warnings in the same order.
func Validate(f llm.PayslipFields, tolerance float64) Result {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	warnings := []string{}

	switch {
	case f.GrossPay == nil:
		warnings = append(warnings, "gross pay is missing")
	case *f.GrossPay <= 0:
		warnings = append(warnings, fmt.Sprintf("gross pay must be greater than 0, got %.2f", *f.GrossPay))
	}
	switch {
	case f.NetPay == nil:
		warnings = append(warnings, "net pay is missing")
	case *f.NetPay <= 0:
		warnings = append(warnings, fmt.Sprintf("net pay must be greater than 0, got %.2f", *f.NetPay))
	}
	switch {
	case f.TaxDeducted == nil:
		warnings = append(warnings, "tax deducted is missing")
	case *f.TaxDeducted < 0:
		warnings = append(warnings, fmt.Sprintf("tax deducted must not be negative, got %.2f", *f.TaxDeducted))
	}

	if f.GrossPay != nil && f.NetPay != nil {
		gross := *f.GrossPay
		deductions := llm.Amount(f.TaxDeducted) + llm.Amount(f.Pension) + llm.Amount(f.SocialSecurity) + llm.Amount(f.OtherDeductions)
		calculated := gross - deductions
		diff := math.Abs(calculated - *f.NetPay)
		if diff > math.Abs(gross)*tolerance {
			warnings = append(warnings, fmt.Sprintf(
				"calculated net pay %.2f does not match reported net pay %.2f (difference %.2f)",
				calculated, *f.NetPay, diff))
		}
	}

	for _, d := range []struct {
		name  string
		value *string
	}{
		{"pay period start", f.PayPeriodStart},
		{"pay period end", f.PayPeriodEnd},
	} {
		if d.value != nil && !IsISODate(*d.value) {
			warnings = append(warnings, fmt.Sprintf("%s %q is not a YYYY-MM-DD date", d.name, *d.value))
		}
	}

	return Result{IsValid: len(warnings) == 0, Warnings: warnings}
}

// IsISODate reports whether s is a real calendar date in YYYY-MM-DD form.
func IsISODate(s string) bool {
	if !reISODate.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
