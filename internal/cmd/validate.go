package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/fsdv/internal/config"
	"github.com/3leaps/fsdv/internal/observability"
	"github.com/3leaps/fsdv/pkg/batch"
	"github.com/3leaps/fsdv/pkg/output"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
	"github.com/3leaps/fsdv/pkg/source/s3"
	"github.com/3leaps/fsdv/pkg/validator"
)

func runValidate(cmd *cobra.Command, g *globalOptions, args []string) error {
	if len(args) == 0 {
		return exitError(ExitFailure, "No input files", errors.New("pass at least one path, glob or s3:// URI (see --help)"))
	}
	cfg := g.cfg
	logger := observability.CLILogger

	ctx := cmd.Context()
	if cfg.Batch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Batch.Timeout)
		defer cancel()
	}

	inputs, err := batch.Expand(args, batch.ExpandOptions{
		Exclude:        cfg.Batch.Exclude,
		IncludeHidden:  cfg.Batch.IncludeHidden,
		IncludeSchemas: cfg.Batch.IncludeSchemas,
	})
	if err != nil {
		return exitError(ExitFailure, "Invalid input", err)
	}

	bcfg := batch.Config{
		Concurrency: cfg.Batch.Concurrency,
		RateLimit:   cfg.Batch.RateLimit,
		Format:      cfg.Format(),
		Logger:      logger,
	}

	// Schemas and inputs share one reader, so both honor source.max_bytes
	// and either may be an object URI.
	reader := source.NewRouter(cfg.Source.MaxBytes, s3.Factory(cfg.Source.S3))

	loadOpts := schema.LoadOptions{Strict: cfg.Validate.Strict, Reader: reader}
	var s *schema.Schema
	if cfg.Validate.Schema != "" {
		s, err = schema.LoadContext(ctx, cfg.Validate.Schema, loadOpts)
		if err != nil {
			return exitError(ExitFailure, "Failed to load schema", err)
		}
		logger.Debug("Loaded schema", zap.String("path", cfg.Validate.Schema))
	} else {
		bcfg.SchemaFor = schema.NewCache(loadOpts).ForInput
	}

	v := validator.New(
		validator.WithReader(reader),
		validator.WithLogger(logger),
		validator.WithCoerce(cfg.Validate.Coerce),
	)

	runID := uuid.NewString()
	w, cleanup, err := createWriter(cfg.Output, runID, cmd.OutOrStdout())
	if err != nil {
		return exitError(ExitFailure, "Failed to create output", err)
	}
	defer cleanup()

	logger.Debug("Starting validation",
		zap.String("run_id", runID),
		zap.Int("inputs", len(inputs)),
		zap.Int("concurrency", bcfg.Concurrency),
	)

	var writeErr error
	bcfg.OnResult = func(r batch.Result) {
		// Output uses a fresh context so results are still reported after
		// a timeout or interrupt.
		outCtx := context.WithoutCancel(ctx)
		var err error
		if r.Err != nil {
			err = w.WriteFailure(outCtx, r.Input, r.Err)
		} else {
			err = w.WriteReport(outCtx, r.Report)
		}
		if err != nil && writeErr == nil {
			writeErr = err
		}
	}

	start := time.Now()
	results := batch.Run(ctx, v, inputs, s, bcfg)
	sum := batch.Summarize(results, time.Since(start))

	if writeErr != nil {
		return exitError(ExitFailure, "Failed to write output", writeErr)
	}

	if cfg.Output.Format == "jsonl" || len(inputs) > 1 {
		if err := w.WriteSummary(context.WithoutCancel(ctx), summaryRecord(sum)); err != nil {
			return exitError(ExitFailure, "Failed to write output", err)
		}
	}

	logger.Debug("Validation finished",
		zap.Int("valid", sum.Valid),
		zap.Int("invalid", sum.Invalid),
		zap.Int("failed", sum.Failed),
		zap.Duration("elapsed", sum.Duration),
	)

	switch sum.ExitClass() {
	case batch.ExitFailed:
		if sum.Canceled() {
			logger.Warn("Validation interrupted", zap.Error(ctx.Err()))
		}
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("%d of %d inputs could not be validated", sum.Failed, sum.Files),
			Err:     sum.Err,
			Silent:  true,
		}
	case batch.ExitInvalid:
		return &ExitError{
			Code:    ExitViolations,
			Message: fmt.Sprintf("%d violations in %d of %d inputs", sum.Violations, sum.Invalid, sum.Files),
			Silent:  true,
		}
	}
	return nil
}

func summaryRecord(sum *batch.Summary) *output.SummaryRecord {
	return &output.SummaryRecord{
		Files:         sum.Files,
		Valid:         sum.Valid,
		Invalid:       sum.Invalid,
		Failed:        sum.Failed,
		Violations:    sum.Violations,
		Duration:      sum.Duration,
		DurationHuman: sum.Duration.Round(time.Millisecond).String(),
		ExitCode:      int(sum.ExitClass()),
	}
}

// createWriter creates an output writer from configuration.
// Returns the writer, a cleanup function, and any error.
func createWriter(cfg config.OutputConfig, runID string, stdout io.Writer) (output.Writer, func(), error) {
	newWriter := func(dst io.Writer) output.Writer {
		if cfg.Format == "jsonl" {
			return output.NewJSONLWriter(dst, runID)
		}
		return output.NewTextWriter(dst, cfg.Quiet)
	}

	dest := cfg.Destination
	if dest == "" || dest == "stdout" {
		w := newWriter(stdout)
		return w, func() { _ = w.Close() }, nil
	}

	path := strings.TrimPrefix(dest, "file:")
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}

	w := newWriter(f)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, cleanup, nil
}
