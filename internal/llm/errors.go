package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRateLimited       = errors.New("model provider rate limited the request")
	ErrCreditsExhausted  = errors.New("model provider credits exhausted")
	ErrUnauthorized      = errors.New("model provider rejected credentials")
	ErrMalformedResponse = errors.New("model response is not a valid payslip object")
)

// UpstreamError is any other non-2xx answer from a model provider.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("model provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("model provider returned status %d: %s", e.StatusCode, e.Message)
}

// StatusError maps a provider HTTP status onto the error taxonomy.
func StatusError(status int, message string) error {
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, message)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", ErrCreditsExhausted, message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	default:
		return &UpstreamError{StatusCode: status, Message: message}
	}
}

// IsQuotaError reports errors that must not be masked by a fallback tier.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCreditsExhausted) || errors.Is(err, ErrUnauthorized)
}
