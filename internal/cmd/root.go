// Package cmd implements the file-structured-data-validator command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/3leaps/fsdv/internal/config"
	"github.com/3leaps/fsdv/internal/observability"
)

// AppName is the binary name.
const AppName = "file-structured-data-validator"

// versionInfo holds build metadata injected by main.
var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "unknown",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"file_type":       "validate.file_type",
	"schema":          "validate.schema",
	"strict":          "validate.strict",
	"coerce":          "validate.coerce",
	"output":          "output.format",
	"output-file":     "output.destination",
	"quiet":           "output.quiet",
	"concurrency":     "batch.concurrency",
	"rate-limit":      "batch.rate_limit",
	"timeout":         "batch.timeout",
	"exclude":         "batch.exclude",
	"include-hidden":  "batch.include_hidden",
	"include-schemas": "batch.include_schemas",
	"max-bytes":       "source.max_bytes",
	"log-level":       "logging.level",
	"s3-region":       "source.s3.region",
	"s3-endpoint":     "source.s3.endpoint",
	"s3-profile":      "source.s3.profile",
	"s3-path-style":   "source.s3.force_path_style",
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configFile string
	verbose    bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   AppName + " [path...]",
		Short: "Validate JSON, XML and YAML files against a schema",
		Long: `Validate structured data files against a declared schema and report every
deviation: missing fields, type mismatches, unexpected fields and constraint
failures.

Inputs may be local paths, glob patterns (** supported), directories or
s3://bucket/key URIs. The schema comes from --schema, the validate.schema
config key, or a sibling file named <input>.schema.{json,yaml,yml}.

Exit codes: 0 all inputs valid, 1 violations found, 2 an input or schema
could not be read or parsed, or the command line is invalid.

Examples:
  ` + AppName + ` config.json --schema config.schema.json
  ` + AppName + ` --file_type yaml --strict 'deploy/**/*.yml' --schema deploy.schema.yaml
  ` + AppName + ` s3://bucket/app.xml --schema app.schema.json --output jsonl`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, g, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Config file (default .fsdv.yaml, then $XDG_CONFIG_HOME/fsdv/config.yaml)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging on stderr")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	addValidateFlags(cmd.Flags())

	cmd.AddCommand(newSchemaCmd(g), newDoctorCmd(g), newVersionCmd())
	return cmd
}

func addValidateFlags(fs *pflag.FlagSet) {
	fs.String("file_type", "", "Input format: json, xml or yaml (default: inferred from extension)")
	fs.String("schema", "", "Schema file (JSON or YAML)")
	fs.Bool("strict", false, "Reject fields the schema does not declare")
	fs.Bool("coerce", false, "Read typed scalars from text for every format (always on for XML)")
	fs.StringP("output", "o", "", "Output format: text or jsonl")
	fs.String("output-file", "", "Write results to a file instead of stdout")
	fs.BoolP("quiet", "q", false, "Only print violations and errors")
	fs.Int("concurrency", 0, "Number of inputs validated in parallel")
	fs.Float64("rate-limit", 0, "Maximum inputs started per second (0 = unlimited)")
	fs.Duration("timeout", 0, "Abort the run after this duration (0 = none)")
	fs.StringSlice("exclude", nil, "Glob patterns to skip during directory and glob expansion (repeatable)")
	fs.Bool("include-hidden", false, "Validate dot-prefixed files found by expansion")
	fs.Bool("include-schemas", false, "Validate *.schema.{json,yaml,yml} files found by expansion")
	fs.Int64("max-bytes", 0, "Maximum size of a single input in bytes")
	fs.String("s3-region", "", "AWS region for s3:// inputs")
	fs.String("s3-endpoint", "", "Custom endpoint for S3-compatible storage")
	fs.String("s3-profile", "", "AWS shared config profile")
	fs.Bool("s3-path-style", false, "Use path-style S3 addressing")
}

// load reads the configuration with changed flags as overrides and sets up
// logging.
func (g *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(cmd.Context(), g.configFile, flagOverrides(cmd.Flags()))
	if err != nil {
		return exitError(ExitFailure, "Invalid configuration", err)
	}
	g.cfg = cfg

	observability.InitCLILogger(AppName, g.verbose)
	if !g.verbose {
		if err := observability.SetLevel(cfg.Logging.Level); err != nil {
			return exitError(ExitFailure, "Invalid configuration", err)
		}
	}
	if cfg.File != "" {
		observability.CLILogger.Debug("Loaded config file", zap.String("path", cfg.File))
	}
	return nil
}

// flagOverrides collects the flags set on the command line.
func flagOverrides(fs *pflag.FlagSet) map[string]any {
	overrides := map[string]any{}
	fs.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			overrides[key] = sv.GetSlice()
			return
		}
		overrides[key] = f.Value.String()
	})
	return overrides
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n",
				AppName, versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)
			return err
		},
	}
}
