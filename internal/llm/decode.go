package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// ExtractJSONObject returns the JSON object in a model reply. Replies that are not plain JSON
// (markdown fences, leading prose) are scanned for the first balanced {...} block that parses.
func ExtractJSONObject(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	if s == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	if isJSONObject(s) {
		return []byte(s), nil
	}
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := matchBrace(s, start); end > start {
			if cand := s[start : end+1]; isJSONObject(cand) {
				return []byte(cand), nil
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// matchBrace returns the index of the brace closing s[open], honoring JSON strings, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	inString, escaped := false, false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// DecodeFields turns raw model content into canonical fields: locate the object, normalize it,
// check it against the payslip schema, then unmarshal. The normalized JSON is returned too.
func DecodeFields(content string, logger *slog.Logger) (PayslipFields, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return PayslipFields{}, nil, err
	}
	norm, changed, err := NormalizeFields(obj)
	if err != nil {
		return PayslipFields{}, obj, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(changed) > 0 {
		logger.Debug("llm.decode.normalized", "changed", changed)
	}
	if err := ValidateJSONAgainstSchema(BuildPayslipJSONSchema(), norm); err != nil {
		return PayslipFields{}, norm, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var out PayslipFields
	if err := json.Unmarshal(norm, &out); err != nil {
		return PayslipFields{}, norm, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, norm, nil
}
