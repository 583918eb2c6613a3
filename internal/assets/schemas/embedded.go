// Package schemasassets provides embedded JSON schemas for standalone binary behavior.
//
// Schemas are embedded at compile time so the CLI and library work
// regardless of the working directory or installation location.
package schemasassets

import _ "embed"

// SchemaFileSchema is the embedded meta-schema that schema files are checked
// against before they are compiled.
//
//go:embed schema-file.schema.json
var SchemaFileSchema []byte
