package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies the syntax of a structured data file.
type Format string

const (
	// FormatAuto means the format is inferred from the file extension.
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatXML, FormatYAML}

// String returns the format name.
func (f Format) String() string {
	if f == FormatAuto {
		return "auto"
	}
	return string(f)
}

// ParseFormat converts a user-supplied format name. An empty string or
// "auto" yields FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q (supported: json, xml, yaml)", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a path or URI extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return FormatJSON, nil
	case ".xml":
		return FormatXML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	if ext == "" {
		return FormatAuto, fmt.Errorf("%w: %s has no extension, use --file_type", ErrUnknownFormat, path)
	}
	return FormatAuto, fmt.Errorf("%w: extension %q of %s, use --file_type", ErrUnknownFormat, ext, path)
}

// Resolve returns f unless it is FormatAuto, in which case the format is
// inferred from path.
func (f Format) Resolve(path string) (Format, error) {
	if f != FormatAuto {
		return f, nil
	}
	return FormatFromPath(path)
}
