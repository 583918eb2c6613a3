package output

import (
	"context"
	"errors"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
	"github.com/3leaps/fsdv/pkg/validator"
)

// ErrorCode maps a validation failure to an ErrorRecord code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCodeCanceled
	case errors.Is(err, schema.ErrNoSchema):
		return ErrCodeNoSchema
	case errors.Is(err, schema.ErrValidationFailed), errors.Is(err, schema.ErrUnsupportedLanguage):
		return ErrCodeSchema
	case errors.Is(err, document.ErrUnknownFormat):
		return ErrCodeUnknownFormat
	case errors.Is(err, document.ErrParse):
		return ErrCodeParse
	case source.IsNotFound(err):
		return ErrCodeNotFound
	case source.IsAccessDenied(err):
		return ErrCodeAccessDenied
	case errors.Is(err, source.ErrThrottled):
		return ErrCodeThrottled
	case errors.Is(err, validator.ErrIO), errors.Is(err, source.ErrTooLarge):
		return ErrCodeIO
	}
	return ErrCodeInternal
}

// NewErrorRecord builds the record for a failed input.
func NewErrorRecord(input string, err error) *ErrorRecord {
	rec := &ErrorRecord{
		Code:    ErrorCode(err),
		Message: err.Error(),
		Source:  input,
	}
	var pe *document.ParseError
	if errors.As(err, &pe) {
		rec.Line = pe.Line
		rec.Column = pe.Column
	}
	return rec
}

// NewReportRecord summarizes a report.
func NewReportRecord(r *validator.Report) *ReportRecord {
	rec := &ReportRecord{
		Source:     r.Source,
		Format:     r.Format.String(),
		Valid:      r.Valid(),
		Violations: len(r.Violations),
	}
	if counts := r.Count(); len(counts) > 0 {
		rec.Kinds = make(map[string]int, len(counts))
		for k, n := range counts {
			rec.Kinds[string(k)] = n
		}
	}
	return rec
}

// NewViolationRecord flattens one violation of a report.
func NewViolationRecord(src string, v validator.Violation) *ViolationRecord {
	return &ViolationRecord{
		Source:   src,
		Path:     v.Path.Elems(),
		PathText: v.Path.String(),
		Kind:     string(v.Kind),
		Expected: v.Expected,
		Actual:   v.Actual,
		Line:     v.Line,
		Column:   v.Column,
	}
}
