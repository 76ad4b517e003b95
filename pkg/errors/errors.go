package errors

import (
	"errors"
	"fmt"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates a bad field value; the offending
	// insert or tick is rejected and the session stays running
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a structural integrity violation
	// such as a cycle in the destiny tree or causal chain
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a referenced entity was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainTimeoutError indicates an operation exceeded its deadline
	DomainTimeoutError DomainErrorType = "TIMEOUT_ERROR"

	// DomainExternalError indicates an external collaborator failure
	DomainExternalError DomainErrorType = "EXTERNAL_ERROR"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError represents a simulation-domain error with rich context
type DomainError struct {
	Type      DomainErrorType        `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Retryable bool                   `json:"retryable"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	c := e.clone()
	c.Details[key] = value
	return c
}

// WithRetryable sets whether the error is retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	c := e.clone()
	c.Retryable = retryable
	return c
}

// clone copies the error so fluent calls on package-level sentinels
// never mutate the shared instance
func (e *DomainError) clone() *DomainError {
	details := make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		details[k] = v
	}
	return &DomainError{
		Type:      e.Type,
		Code:      e.Code,
		Message:   e.Message,
		Details:   details,
		Cause:     e.Cause,
		Retryable: e.Retryable,
	}
}

// Is matches errors by type and code so sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Pre-declared errors for the simulation engine

var (
	// Graph store errors
	ErrNodeNotFound = NewDomainError(
		DomainNotFoundError,
		"NODE_NOT_FOUND",
		"The requested destiny node does not exist",
	)

	ErrEventNotFound = NewDomainError(
		DomainNotFoundError,
		"EVENT_NOT_FOUND",
		"The requested causal event does not exist",
	)

	ErrCharacterNotFound = NewDomainError(
		DomainNotFoundError,
		"CHARACTER_NOT_FOUND",
		"The requested character does not exist",
	)

	ErrRegimeNotFound = NewDomainError(
		DomainNotFoundError,
		"REGIME_NOT_FOUND",
		"The requested regime does not exist",
	)

	ErrDanglingReference = NewDomainError(
		DomainNotFoundError,
		"DANGLING_REFERENCE",
		"Referenced parent or origin does not exist in the graph",
	)

	ErrCycleDetected = NewDomainError(
		DomainBusinessRuleError,
		"CYCLE_DETECTED",
		"Insertion would create a cycle in the destiny tree or causal chain",
	)

	ErrDuplicateRoot = NewDomainError(
		DomainBusinessRuleError,
		"DUPLICATE_ROOT",
		"The character's destiny tree already has a root node",
	)

	// Decision loop errors
	ErrPolicyTimeout = NewDomainError(
		DomainTimeoutError,
		"POLICY_TIMEOUT",
		"The decision policy did not answer within its deadline",
	).WithRetryable(true)

	ErrPolicyFailure = NewDomainError(
		DomainExternalError,
		"POLICY_ERROR",
		"The decision policy returned an error or a malformed action",
	)

	ErrSessionNotRunning = NewDomainError(
		DomainConflictError,
		"SESSION_NOT_RUNNING",
		"The simulation session is not in a runnable state",
	)

	ErrSessionTerminal = NewDomainError(
		DomainConflictError,
		"SESSION_TERMINAL",
		"The simulation session has already completed or failed",
	)

	// Shared world state errors
	ErrRegimeContention = NewDomainError(
		DomainConflictError,
		"REGIME_CONTENTION",
		"Could not acquire the regime for writing",
	).WithRetryable(true)

	// Artifact errors
	ErrSnapshotEmpty = NewDomainError(
		DomainValidationError,
		"SNAPSHOT_EMPTY",
		"Cannot evaluate rarity of an empty graph snapshot",
	)

	ErrAlreadyMinted = NewDomainError(
		DomainConflictError,
		"ALREADY_MINTED",
		"An artifact for this graph snapshot has already been minted",
	)

	// Infrastructure errors
	ErrEventPublishFailed = NewDomainError(
		DomainInfrastructureError,
		"EVENT_PUBLISH_FAILED",
		"Failed to publish tick event",
	).WithRetryable(true)
)

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *DomainError {
	return NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
}

// IsType checks whether err is a DomainError of the given type
func IsType(err error, errType DomainErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return IsType(err, DomainValidationError)
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return IsType(err, DomainNotFoundError)
}

// IsRetryable reports whether err carries the retryable flag
func IsRetryable(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retryable
	}
	return false
}

// ValidationErrors aggregates multiple validation errors
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error for a field
func (v *ValidationErrors) Add(field string, message string) {
	v.Errors = append(v.Errors, NewValidationError(field, message))
}

// AddError adds a pre-existing domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// Unwrap exposes the collected errors so errors.Is, errors.As and the
// type helpers see through the aggregate to its individual failures
func (v *ValidationErrors) Unwrap() []error {
	unwrapped := make([]error, len(v.Errors))
	for i, err := range v.Errors {
		unwrapped[i] = err
	}
	return unwrapped
}
