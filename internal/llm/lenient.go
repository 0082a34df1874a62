package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reAmountNoise = regexp.MustCompile(`[^\d.\-]`)

	amountFields    = []string{"gross_pay", "tax_deducted", "net_pay", "pension", "social_security", "other_deductions"}
	deductionFields = []string{"tax_deducted", "pension", "social_security", "other_deductions"}
	dateFields      = []string{"pay_period_start", "pay_period_end"}

	// ordered so the first synonym present wins
	synonyms = [][2]string{
		{"gross", "gross_pay"},
		{"total_gross", "gross_pay"},
		{"net", "net_pay"},
		{"take_home_pay", "net_pay"},
		{"tax", "tax_deducted"},
		{"income_tax", "tax_deducted"},
		{"paye", "tax_deducted"},
		{"national_insurance", "social_security"},
		{"ni", "social_security"},
		{"pension_contribution", "pension"},
		{"deductions_other", "other_deductions"},
		{"period_start", "pay_period_start"},
		{"period_end", "pay_period_end"},
	}
)

// NormalizeFields makes a model's object fit the payslip schema:
//   - renames known synonyms
//   - parses numeric strings like "3,000.00" or "£1,200" into numbers
//   - drops null or empty values
//   - stores deductions as magnitudes
//   - moves unknown top-level keys into additional_data
//
// It returns the rewritten JSON and the list of keys it touched.
func NormalizeFields(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("normalize: decode: %w", err)
	}
	if m == nil {
		return nil, nil, fmt.Errorf("normalize: not an object")
	}

	changed := make([]string, 0, 8)
	for _, syn := range synonyms {
		from, to := syn[0], syn[1]
		if v, ok := m[from]; ok {
			// don't overwrite existing value if already present
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			changed = append(changed, from+"->"+to)
		}
	}

	for _, k := range amountFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
		case string:
			if f, ok := parseAmount(t); ok {
				m[k] = f
				changed = append(changed, k+"(string)")
			} else {
				delete(m, k)
				changed = append(changed, k+"(unparseable)")
			}
		case nil:
			delete(m, k)
			changed = append(changed, k+"(null)")
		default:
			delete(m, k)
			changed = append(changed, k+"(type)")
		}
	}
	for _, k := range deductionFields {
		if f, ok := m[k].(float64); ok && f < 0 {
			m[k] = math.Abs(f)
			changed = append(changed, k+"(sign)")
		}
	}

	for _, k := range dateFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, isStr := v.(string)
		if s = strings.TrimSpace(s); !isStr || s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			changed = append(changed, k+"(empty)")
			continue
		}
		m[k] = s
	}

	extra, _ := m["additional_data"].(map[string]any)
	if _, ok := m["additional_data"]; ok && extra == nil {
		delete(m, "additional_data")
		changed = append(changed, "additional_data(type)")
	}
	known := map[string]struct{}{"additional_data": {}}
	for _, k := range amountFields {
		known[k] = struct{}{}
	}
	for _, k := range dateFields {
		known[k] = struct{}{}
	}
	for k, v := range maps.Clone(m) {
		if _, ok := known[k]; ok {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		if _, exists := extra[k]; !exists && v != nil {
			extra[k] = v
		}
		delete(m, k)
		changed = append(changed, k+"->additional_data")
	}
	if extra != nil {
		m["additional_data"] = extra
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("normalize: encode: %w", err)
	}
	return out, changed, nil
}

func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = reAmountNoise.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
