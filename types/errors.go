package types

import (
	"errors"
	"fmt"
)

const (
	ErrInvalidInput   = "Invalid input"
	ErrDatabaseError  = "Database error"
	ErrUnauthorized   = "Unauthorized access"
	ErrInternalError  = "internal server error"
	ErrReloadFailed   = "Failed to reload payroll data"
	ErrReloadDisabled = "Reload endpoint is disabled"
	ErrNotReady       = "Payroll data not loaded"
	ErrEmptyMessage   = "Message must not be empty"
)

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("unrecognized date or period")

	// ErrExtraction marks language-model output that cannot be used.
	ErrExtraction = errors.New("parameter extraction failed")

	ErrNoLLM         = errors.New("no language model configured")
	ErrStoreNotReady = errors.New("payroll store not loaded")
)

type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("formato de data '%s' não reconhecido", e.Input)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
