package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/fsdv/internal/observability"
	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
	"github.com/3leaps/fsdv/pkg/source/s3"
)

func newSchemaCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect schema files",
		Long: `Inspect schema files.

Schema files use a subset of JSON Schema written as JSON or YAML:
type, properties, required, additionalProperties, items, enum,
minimum, maximum, exclusiveMinimum, exclusiveMaximum, pattern,
minLength, maxLength, minItems and maxItems.`,
	}
	cmd.AddCommand(newSchemaCheckCmd(g), newSchemaSampleCmd(g))
	return cmd
}

func newSchemaCheckCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <schema-path>",
		Short: "Check that a schema file is valid",
		Long: `Check that a schema file is valid.

Examples:
  ` + AppName + ` schema check config.schema.json
  ` + AppName + ` schema check --strict deploy.schema.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(cmd, g, args[0])
			if err != nil {
				var verrs schema.ValidationErrors
				if errors.As(err, &verrs) {
					for _, e := range verrs {
						observability.CLILogger.Debug("Schema problem", zap.String("path", e.Path), zap.String("message", e.Message))
					}
				}
				return exitError(ExitFailure, "Invalid schema "+args[0], err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid %s schema (%s)\n", args[0], s.Variant, describeSchema(s))
			return err
		},
	}
	cmd.Flags().Bool("strict", false, "Close objects that do not set additionalProperties")
	return cmd
}

func newSchemaSampleCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample <schema-path>",
		Short: "Print a minimal document that satisfies a schema",
		Long: `Print a minimal document that satisfies a schema.

The sample holds every required field with a value that meets its
constraints. It is a starting point for new data files.

Examples:
  ` + AppName + ` schema sample config.schema.json
  ` + AppName + ` schema sample --file_type yaml config.schema.json > config.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSchema(cmd, g, args[0])
			if err != nil {
				return exitError(ExitFailure, "Invalid schema "+args[0], err)
			}

			format := g.cfg.Format()
			if format == document.FormatAuto {
				format = document.FormatJSON
			}
			data, err := document.Encode(format, schema.Sample(s))
			if err != nil {
				return exitError(ExitFailure, "Cannot render sample", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().String("file_type", "", "Sample format: json or yaml (default json)")
	return cmd
}

// loadSchema reads a schema from a local path or object URI under the
// configured size cap.
func loadSchema(cmd *cobra.Command, g *globalOptions, location string) (*schema.Schema, error) {
	cfg := g.cfg
	return schema.LoadContext(cmd.Context(), location, schema.LoadOptions{
		Strict: cfg.Validate.Strict,
		Reader: source.NewRouter(cfg.Source.MaxBytes, s3.Factory(cfg.Source.S3)),
	})
}

func describeSchema(s *schema.Schema) string {
	switch s.Variant {
	case schema.VariantObject:
		required := 0
		for _, f := range s.Fields {
			if f.Required {
				required++
			}
		}
		closed := "open"
		if s.Closed {
			closed = "closed"
		}
		return fmt.Sprintf("%d fields, %d required, %s", len(s.Fields), required, closed)
	case schema.VariantArray:
		if s.Items == nil {
			return "items of any type"
		}
		return "items: " + s.Items.Variant.String()
	}
	if s.DeclaresType() {
		return "type " + s.TypeNames()
	}
	return "any type"
}
