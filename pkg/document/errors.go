package document

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is the sentinel wrapped by every ParseError.
	ErrParse = errors.New("parse error")

	// ErrUnknownFormat indicates a format name or extension is not supported.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrEncodeUnsupported indicates a format has no encoder.
	ErrEncodeUnsupported = errors.New("encoding not supported for format")
)

// ParseError reports content that is not syntactically valid for its format.
// No Document is produced when parsing fails.
type ParseError struct {
	Format Format
	// Line and Column are 1-based; zero when the parser gave no location.
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	loc := ""
	if e.Line > 0 {
		loc = fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			loc += fmt.Sprintf(", column %d", e.Column)
		}
	}
	return fmt.Sprintf("invalid %s%s: %s", e.Format, loc, e.Msg)
}

// Unwrap allows errors.Is(err, ErrParse) and access to the parser error.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}
