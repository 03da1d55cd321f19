package upstream

import (
	"errors"
	"fmt"

	dErrors "dbservice/pkg/domain-errors"
)

// ErrorCategory classifies why an upstream call did not produce usable data.
type ErrorCategory string

// Categories. Timeout, outage, rate limiting and an open circuit are
// transient; the rest will fail the same way on another attempt.
const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorCircuitOpen    ErrorCategory = "circuit_open"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError is the error every upstream call returns. StatusCode is set
// only when the provider answered with a non-2xx status.
type ProviderError struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s %s: %s", e.ProviderID, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError derives Retryable from the category.
func NewProviderError(category ErrorCategory, providerID, message string, underlying error) *ProviderError {
	var retryable bool
	switch category {
	case ErrorTimeout, ErrorProviderOutage, ErrorRateLimited, ErrorCircuitOpen:
		retryable = true
	}
	return &ProviderError{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory returns the category of the first ProviderError in err's chain,
// or ErrorInternal.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// Message returns the provider-facing message of err, or err.Error() for
// errors outside the taxonomy.
func Message(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

// ToDomainError maps a provider failure onto the coded error the HTTP layer
// renders. Timeouts keep their own code; every other category is an upstream
// error carrying the provider message.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	if GetCategory(err) == ErrorTimeout {
		return dErrors.Wrap(err, dErrors.CodeTimeout, Message(err))
	}
	return dErrors.Wrap(err, dErrors.CodeUpstream, Message(err))
}
