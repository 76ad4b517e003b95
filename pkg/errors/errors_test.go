package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_SentinelsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("tick 3: %w", ErrPolicyTimeout.WithDetail("policy", "rule-table"))

	assert.ErrorIs(t, err, ErrPolicyTimeout)
	assert.True(t, IsType(err, DomainTimeoutError))
	assert.True(t, IsRetryable(err))
	assert.False(t, IsValidation(err))
}

func TestDomainError_FluentCallsDoNotMutateSentinels(t *testing.T) {
	decorated := ErrDanglingReference.WithDetail("parent_id", "abc").WithRetryable(true)

	assert.ErrorIs(t, decorated, ErrDanglingReference)
	assert.True(t, decorated.Retryable)
	assert.False(t, ErrDanglingReference.Retryable)
	assert.Empty(t, ErrDanglingReference.Details)
}

func TestDomainError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := ErrEventPublishFailed.WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrEventPublishFailed)
}

func TestValidationErrors_AggregateIsAValidationError(t *testing.T) {
	verrs := NewValidationErrors()
	assert.False(t, verrs.HasErrors())

	verrs.Add("impact_level", "impact level must be finite")
	verrs.Add("timestamp", "timestamp is required")
	require.True(t, verrs.HasErrors())

	// the aggregate classifies like its members
	assert.True(t, IsValidation(verrs))
	assert.True(t, IsType(verrs, DomainValidationError))
	assert.False(t, IsNotFound(verrs))

	var domainErr *DomainError
	require.True(t, errors.As(verrs, &domainErr))
	assert.Equal(t, DomainValidationError, domainErr.Type)
}

func TestValidationErrors_SurviveWrapping(t *testing.T) {
	verrs := NewValidationErrors()
	verrs.Add("action", "action is required")

	wrapped := fmt.Errorf("building event: %w", verrs)
	assert.True(t, IsValidation(wrapped))
}
