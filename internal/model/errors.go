package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError describes one bad or missing input field. Callers fix the
// input and retry; nothing retries internally.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is the complete list of field errors for one input.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the offending field names in report order.
func (e ValidationErrors) Fields() []string {
	out := make([]string, len(e))
	for i, v := range e {
		out[i] = v.Field
	}
	return out
}

// Has reports whether field appears in the list.
func (e ValidationErrors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// InsufficientDataError marks an outcome that could not be computed for lack
// of data. Analysis represents "no comps" as a null ARV instead of returning
// this; it is used where a value is strictly required.
type InsufficientDataError struct {
	What string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.What
}

// CalculationError signals a violated internal invariant. It is a defect,
// never silently corrected.
type CalculationError struct {
	Op  string
	Msg string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation error in %s: %s", e.Op, e.Msg)
}

// NewCalculationError builds a CalculationError with a formatted message.
func NewCalculationError(op, format string, args ...any) *CalculationError {
	return &CalculationError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// AsValidation extracts ValidationErrors from an error chain.
func AsValidation(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsCalculation reports whether err (or any error in its chain) is a
// CalculationError.
func IsCalculation(err error) bool {
	var ce *CalculationError
	return errors.As(err, &ce)
}

// IsInsufficientData reports whether err (or any error in its chain) is an
// InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}
