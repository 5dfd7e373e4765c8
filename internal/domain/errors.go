package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the service.
// File-level import errors are fatal; row-level errors accumulate.

// ErrSchema indicates a required CSV column could not be resolved.
type ErrSchema struct {
	MissingRole string   // "date", "description" or "amount"
	Headers     []string // headers actually observed in the file
}

func (e *ErrSchema) Error() string {
	return fmt.Sprintf("CSV is missing a %q column; found columns: %s",
		e.MissingRole, strings.Join(e.Headers, ", "))
}

// ErrDecode indicates the file bytes could not be decoded as text.
type ErrDecode struct {
	Tried []string // encoding names attempted, in order
}

func (e *ErrDecode) Error() string {
	return fmt.Sprintf("file content could not be decoded (tried %s)",
		strings.Join(e.Tried, ", "))
}

// ErrMalformedCSV indicates the file is not structurally valid CSV.
// Detail carries the parser's position so the source file can be fixed.
type ErrMalformedCSV struct {
	Detail string
}

func (e *ErrMalformedCSV) Error() string {
	return "malformed CSV: " + e.Detail
}

// ErrEmptyFile indicates the CSV had no data rows.
type ErrEmptyFile struct{}

func (e *ErrEmptyFile) Error() string {
	return "CSV file contains no data rows"
}

// ErrNoValidRows indicates every data row failed normalization.
// Samples carries up to 5 row errors; Remaining counts the rest.
type ErrNoValidRows struct {
	Samples   []RowError
	Remaining int
}

func (e *ErrNoValidRows) Error() string {
	parts := make([]string, 0, len(e.Samples))
	for _, re := range e.Samples {
		parts = append(parts, re.Error())
	}
	msg := fmt.Sprintf("no valid rows in file: %s", strings.Join(parts, "; "))
	if e.Remaining > 0 {
		msg += fmt.Sprintf(" (and %d more)", e.Remaining)
	}
	return msg
}

// RowReason classifies a row-level normalization failure.
type RowReason string

const (
	ReasonDateParse    RowReason = "date_parse"
	ReasonMissingField RowReason = "missing_field"
	ReasonAmountParse  RowReason = "amount_parse"
)

// RowError is a non-fatal, per-row import failure. Collected, never raised.
type RowError struct {
	Row    int       // 1-based data row number
	Reason RowReason
	Detail string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Reason, e.Detail)
}

// ErrCategorizationUnavailable indicates the AI categorization capability is
// not configured or not reachable. Treated as "no category", never fatal.
type ErrCategorizationUnavailable struct {
	Reason string
}

func (e *ErrCategorizationUnavailable) Error() string {
	if e.Reason != "" {
		return "categorization unavailable: " + e.Reason
	}
	return "categorization unavailable"
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists (e.g. duplicate email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
