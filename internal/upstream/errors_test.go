package upstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "dbservice/pkg/domain-errors"
)

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		retryable bool
	}{
		{ErrorTimeout, true},
		{ErrorProviderOutage, true},
		{ErrorRateLimited, true},
		{ErrorCircuitOpen, true},
		{ErrorBadData, false},
		{ErrorAuthentication, false},
		{ErrorNotFound, false},
		{ErrorInternal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", NewProviderError(tt.category, "p", "msg", nil))
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.category, GetCategory(err))
		})
	}
}

func TestHelpersOutsideTaxonomy(t *testing.T) {
	err := errors.New("boom")
	assert.False(t, IsRetryable(err))
	assert.Equal(t, ErrorInternal, GetCategory(err))
	assert.Equal(t, "boom", Message(err))
}

func TestToDomainError(t *testing.T) {
	assert.NoError(t, ToDomainError(nil))

	timeout := ToDomainError(NewProviderError(ErrorTimeout, "registry", "request timed out", nil))
	assert.True(t, dErrors.HasCode(timeout, dErrors.CodeTimeout))

	outage := ToDomainError(NewProviderError(ErrorProviderOutage, "registry", "upstream returned status 502", nil))
	var de *dErrors.Error
	assert.ErrorAs(t, outage, &de)
	assert.Equal(t, dErrors.CodeUpstream, de.Code)
	assert.Equal(t, "upstream returned status 502", de.Message)
	assert.Equal(t, ErrorProviderOutage, GetCategory(outage))
}
