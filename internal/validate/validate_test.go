package validate

import (
	"reflect"
	"strings"
	"testing"

	"github.com/joseph-ayodele/payslips-tracker/internal/llm"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

func consistent() llm.PayslipFields {
	return llm.PayslipFields{
		GrossPay:       f64(3000),
		TaxDeducted:    f64(600),
		NetPay:         f64(2140),
		Pension:        f64(150),
		SocialSecurity: f64(110),
		PayPeriodStart: str("2024-03-01"),
		PayPeriodEnd:   str("2024-03-31"),
	}
}

func TestConsistentPayslipIsValid(t *testing.T) {
	res := Validate(consistent(), DefaultTolerance)
	if !res.IsValid || len(res.Warnings) != 0 {
		t.Fatalf("expected valid, got %+v", res)
	}
}

func TestNetPayMismatchWarnsOnce(t *testing.T) {
	f := consistent()
	f.NetPay = f64(1900)
	res := Validate(f, DefaultTolerance)
	if res.IsValid || len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", res)
	}
	want := "calculated net pay 2140.00 does not match reported net pay 1900.00 (difference 240.00)"
	if res.Warnings[0] != want {
		t.Fatalf("warning = %q, want %q", res.Warnings[0], want)
	}
}

func TestToleranceBoundary(t *testing.T) {
	f := consistent()
	f.NetPay = f64(2140 - 60) // exactly 2% of gross
	if res := Validate(f, DefaultTolerance); !res.IsValid {
		t.Fatalf("difference at tolerance should pass: %+v", res)
	}
	for _, gross := range []float64{100, 1234.56, 3000, 98765} {
		net := gross * 0.7
		g := llm.PayslipFields{GrossPay: f64(gross), TaxDeducted: f64(gross * 0.3), NetPay: f64(net - gross*0.021)}
		if res := Validate(g, DefaultTolerance); len(res.Warnings) != 1 || !strings.HasPrefix(res.Warnings[0], "calculated net pay") {
			t.Fatalf("gross %.2f: expected exactly one arithmetic warning, got %+v", gross, res)
		}
	}
}

func TestMissingAndNegativeAmounts(t *testing.T) {
	res := Validate(llm.PayslipFields{}, DefaultTolerance)
	want := []string{"gross pay is missing", "net pay is missing", "tax deducted is missing"}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("warnings = %q, want %q", res.Warnings, want)
	}

	res = Validate(llm.PayslipFields{GrossPay: f64(0), NetPay: f64(0), TaxDeducted: f64(0)}, DefaultTolerance)
	if len(res.Warnings) != 2 {
		t.Fatalf("zero gross and net should warn, zero tax should not: %q", res.Warnings)
	}

	res = Validate(llm.PayslipFields{GrossPay: f64(-3000), NetPay: f64(-2400), TaxDeducted: f64(600)}, DefaultTolerance)
	if res.IsValid || len(res.Warnings) < 2 || !strings.HasPrefix(res.Warnings[0], "gross pay must be greater than 0") ||
		!strings.HasPrefix(res.Warnings[1], "net pay must be greater than 0") {
		t.Fatalf("negative gross and net should warn: %q", res.Warnings)
	}
}

func TestMalformedDatesWarn(t *testing.T) {
	f := consistent()
	f.PayPeriodStart = str("01/03/2024")
	f.PayPeriodEnd = str("2024-02-30")
	res := Validate(f, DefaultTolerance)
	if len(res.Warnings) != 2 {
		t.Fatalf("expected two date warnings, got %q", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "pay period start") || !strings.Contains(res.Warnings[1], "pay period end") {
		t.Fatalf("unexpected warnings %q", res.Warnings)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	f := consistent()
	f.NetPay = f64(100)
	f.PayPeriodEnd = str("bad")
	a, b := Validate(f, DefaultTolerance), Validate(f, DefaultTolerance)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("validate not idempotent: %+v vs %+v", a, b)
	}
}
