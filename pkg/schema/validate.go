package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	schemasassets "github.com/3leaps/fsdv/internal/assets/schemas"
	gfschema "github.com/fulmenhq/gofulmen/schema"
)

// MetaSchemaID identifies the meta-schema schema files are checked against.
const MetaSchemaID = "fsdv/v1.0.0/schema-file"

// Validation errors
var (
	// ErrMetaSchemaNotFound indicates the embedded meta-schema is missing.
	ErrMetaSchemaNotFound = errors.New("schema-file meta-schema not found")

	// ErrValidationFailed indicates a schema file is not a valid schema.
	ErrValidationFailed = errors.New("schema validation failed")
)

// Cached validator instance (compiled once from embedded meta-schema)
var (
	metaOnce      sync.Once
	metaValidator *gfschema.Validator
	metaErr       error
)

// ValidationError represents a single problem in a schema file.
type ValidationError struct {
	// Path is the JSON pointer to the problematic keyword (e.g., "/properties/age/type").
	Path string

	// Message describes the problem.
	Message string
}

// Error implements error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of schema file problems.
type ValidationErrors []ValidationError

// Error implements error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "schema validation failed"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("schema validation failed with ")
	b.WriteString(fmt.Sprintf("%d errors:\n", len(e)))
	for i, err := range e {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error type.
func (e ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

// ValidateRaw checks raw JSON schema-file content against the embedded
// meta-schema. Unsupported keywords are rejected here.
//
// Returns nil if validation succeeds, or a ValidationErrors with details
// about all problems.
func ValidateRaw(jsonData []byte) error {
	v, err := getMetaValidator()
	if err != nil {
		return err
	}

	diags, err := v.ValidateJSON(jsonData)
	if err != nil {
		return fmt.Errorf("meta-schema validation error: %w", err)
	}

	if len(diags) == 0 {
		return nil
	}

	var errs ValidationErrors
	for _, d := range diags {
		// Only include errors, not warnings
		if d.Severity == gfschema.SeverityError {
			errs = append(errs, ValidationError{
				Path:    d.Pointer,
				Message: d.Message,
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return errs
}

// getMetaValidator returns a cached validator compiled from the embedded
// meta-schema. Safe for concurrent use.
func getMetaValidator() (*gfschema.Validator, error) {
	metaOnce.Do(func() {
		if len(schemasassets.SchemaFileSchema) == 0 {
			metaErr = fmt.Errorf("%w: embedded schema-file schema is empty", ErrMetaSchemaNotFound)
			return
		}
		metaValidator, metaErr = gfschema.NewValidator(schemasassets.SchemaFileSchema)
		if metaErr != nil {
			metaErr = fmt.Errorf("failed to compile schema-file meta-schema: %w", metaErr)
		}
	})
	return metaValidator, metaErr
}

// MetaSchemaReady reports whether the embedded meta-schema compiles.
func MetaSchemaReady() error {
	_, err := getMetaValidator()
	return err
}
