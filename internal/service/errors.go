package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error kinds shared by the lifecycle services. Handlers map them onto HTTP
// statuses; callers inside the core branch with errors.Is.
var (
	// ErrNotFound marks a missing referenced entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a transition attempted from a state that forbids
	// it. Recoverable: the caller can re-check the current status.
	ErrInvalidState = errors.New("invalid state for requested transition")
	// ErrDuplicateKey marks a uniqueness violation on code, document or
	// number.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrIntegrationFailure marks a failed asynchronous completion step. It
	// is recorded on the entity, never raised to a caller.
	ErrIntegrationFailure = errors.New("integration failure")
)

// ValidationError carries the accumulated reasons a record failed its gate.
// The caller must resolve them and retry.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// NewValidationError wraps a reason list in a ValidationError.
func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

// IsValidationError extracts a ValidationError from an error chain.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// wrapNotFound converts gorm's record-not-found into the service-level
// ErrNotFound, keeping other lookup failures as-is.
func wrapNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return err
}
