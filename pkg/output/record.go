// Package output writes validation results.
//
// Two renderings are provided: human-readable text with one line per
// violation, and JSONL where each line is a typed record envelope that can
// be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: fsdv.<type>.v<version>
const (
	// TypeReport identifies per-input report records.
	TypeReport = "fsdv.report.v1"

	// TypeViolation identifies individual violation records.
	TypeViolation = "fsdv.violation.v1"

	// TypeError identifies records for inputs that could not be validated.
	TypeError = "fsdv.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "fsdv.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// The type field determines how to interpret the Data payload.
type Record struct {
	// Type identifies the record type (e.g., "fsdv.report.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// RunID correlates all records of one invocation.
	RunID string `json:"run_id"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// ReportRecord is the data payload for a validated input.
type ReportRecord struct {
	// Source is the input location.
	Source string `json:"source"`

	// Format is the resolved input format.
	Format string `json:"format"`

	// Valid is true when no violation was found.
	Valid bool `json:"valid"`

	// Violations is the number of violations.
	Violations int `json:"violations"`

	// Kinds counts violations per kind.
	Kinds map[string]int `json:"kinds,omitempty"`
}

// ViolationRecord is the data payload for one violation.
type ViolationRecord struct {
	Source   string `json:"source"`
	Path     []any  `json:"path"`
	PathText string `json:"path_text"`
	Kind     string `json:"kind"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// ErrorRecord is the data payload for inputs that could not be validated.
//
// Errors are emitted as records rather than failing the run, so the
// remaining inputs are still validated.
type ErrorRecord struct {
	// Code is a machine-readable error code.
	Code string `json:"code"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Source is the input location.
	Source string `json:"source"`

	// Line and Column locate parse errors when known.
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// Error codes for ErrorRecord.
const (
	// ErrCodeNotFound indicates the input does not exist.
	ErrCodeNotFound = "NOT_FOUND"

	// ErrCodeAccessDenied indicates permission failure.
	ErrCodeAccessDenied = "ACCESS_DENIED"

	// ErrCodeThrottled indicates rate limiting by the storage service.
	ErrCodeThrottled = "THROTTLED"

	// ErrCodeIO indicates any other read failure.
	ErrCodeIO = "IO_ERROR"

	// ErrCodeParse indicates syntactically invalid content.
	ErrCodeParse = "PARSE_ERROR"

	// ErrCodeUnknownFormat indicates the format could not be determined.
	ErrCodeUnknownFormat = "UNKNOWN_FORMAT"

	// ErrCodeNoSchema indicates no schema could be resolved for the input.
	ErrCodeNoSchema = "NO_SCHEMA"

	// ErrCodeSchema indicates the resolved schema file is invalid.
	ErrCodeSchema = "SCHEMA_ERROR"

	// ErrCodeCanceled indicates the run was interrupted.
	ErrCodeCanceled = "CANCELED"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "INTERNAL"
)

// SummaryRecord is the data payload for final summaries.
type SummaryRecord struct {
	// Files is the number of inputs.
	Files int `json:"files"`

	// Valid, Invalid and Failed partition Files.
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Failed  int `json:"failed"`

	// Violations is the total across all inputs.
	Violations int `json:"violations"`

	// Duration is the total run duration.
	Duration time.Duration `json:"duration_ns"`

	// DurationHuman is a human-readable duration string.
	DurationHuman string `json:"duration"`

	// ExitCode is the process exit code the run maps to.
	ExitCode int `json:"exit_code"`
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "marshal_data", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "output: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
