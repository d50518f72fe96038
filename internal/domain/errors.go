package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema marks payloads that match no supported provider shape.
	ErrSchema = errors.New("unrecognized payload schema")

	// ErrCalculation marks derived metrics that could not be computed.
	ErrCalculation = errors.New("insufficient calculation inputs")
)

// SchemaError reports a payload that is structurally unusable.
type SchemaError struct {
	Mode   Mode
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("normalize %s payload: %s", e.Mode, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchema}
	}
	return []error{ErrSchema, e.Err}
}

// CalculationError reports a derived metric whose inputs were missing or invalid.
type CalculationError struct {
	Metric  string
	Missing []string
	Reason  string
}

func (e *CalculationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s unavailable: missing %s", e.Metric, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s unavailable: %s", e.Metric, e.Reason)
}

func (e *CalculationError) Unwrap() error { return ErrCalculation }
