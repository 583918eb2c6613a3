package document

import (
	"bytes"
	"fmt"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 10000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse converts raw file content into a Document using the parser for the
// given format. FormatAuto is rejected; callers resolve the format first.
func Parse(format Format, data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch format {
	case FormatJSON:
		return parseJSON(data)
	case FormatYAML:
		return parseYAML(data)
	case FormatXML:
		return parseXML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format.String())
	}
}

// lineCol converts a 0-based byte offset into a 1-based line and column.
func lineCol(data []byte, offset int) (int, int) {
	if offset > len(data) {
		offset = len(data)
	}
	if offset < 0 {
		offset = 0
	}
	line, col := 1, 1
	for _, c := range data[:offset] {
		if c == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func depthError(format Format, p Position) *ParseError {
	return &ParseError{Format: format, Line: p.Line, Column: p.Column, Msg: fmt.Sprintf("nesting exceeds %d levels", maxDepth)}
}
