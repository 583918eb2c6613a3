// Package batch validates many inputs with a bounded worker pool.
//
// Inputs are validated independently and in parallel. Results keep input
// order regardless of completion order, so output is deterministic.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/validator"
)

// Validator validates one input. *validator.Validator implements it.
type Validator interface {
	Validate(ctx context.Context, location string, format document.Format, s *schema.Schema) (*validator.Report, error)
}

// Config configures a batch run.
type Config struct {
	// Concurrency is the number of inputs validated in parallel.
	// Default: 4
	Concurrency int

	// RateLimit is the maximum number of inputs started per second.
	// Zero means unlimited.
	RateLimit float64

	// Format is the declared input format. FormatAuto infers it per input.
	Format document.Format

	// SchemaFor resolves the schema per input when Run is given a nil
	// schema. A resolution error fails that input.
	SchemaFor func(input string) (*schema.Schema, error)

	// OnResult, if set, receives each result in input order as soon as it
	// and every earlier result are complete. Calls are serialized.
	OnResult func(Result)

	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default batch configuration.
func DefaultConfig() Config {
	return Config{Concurrency: 4}
}

// Result is the outcome for one input: a Report or an error, never both.
type Result struct {
	Input  string
	Report *validator.Report
	Err    error
}

// Run validates inputs against s and returns results in input order.
//
// A cancelled context stops scheduling further inputs; inputs never
// started carry the context error.
func Run(ctx context.Context, v Validator, inputs []string, s *schema.Schema, cfg Config) []Result {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	results := make([]Result, len(inputs))
	done := make([]bool, len(inputs))
	var (
		mu   sync.Mutex
		next int
	)
	// complete stores a result and flushes the ready prefix in order.
	complete := func(i int, r Result) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = r
		done[i] = true
		for next < len(inputs) && done[next] {
			if cfg.OnResult != nil {
				cfg.OnResult(results[next])
			}
			next++
		}
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(cfg.Concurrency, len(inputs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				complete(i, validateOne(ctx, v, inputs[i], s, cfg, limiter, logger))
			}
		}()
	}

	i := 0
schedule:
	for ; i < len(inputs); i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break schedule
		}
	}
	close(jobs)
	wg.Wait()

	for ; i < len(inputs); i++ {
		complete(i, Result{Input: inputs[i], Err: ctx.Err()})
	}
	return results
}

func validateOne(ctx context.Context, v Validator, input string, s *schema.Schema, cfg Config, limiter *rate.Limiter, logger *zap.Logger) Result {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return Result{Input: input, Err: err}
		}
	}

	if s == nil {
		if cfg.SchemaFor == nil {
			return Result{Input: input, Err: schema.ErrNoSchema}
		}
		resolved, err := cfg.SchemaFor(input)
		if err != nil {
			return Result{Input: input, Err: err}
		}
		s = resolved
	}

	start := time.Now()
	report, err := v.Validate(ctx, input, cfg.Format, s)
	if err != nil {
		logger.Debug("validation failed", zap.String("source", input), zap.Error(err))
		return Result{Input: input, Err: err}
	}
	logger.Debug("validated",
		zap.String("source", input),
		zap.Int("violations", len(report.Violations)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Result{Input: input, Report: report}
}

// ExitClass is the process outcome of a run.
type ExitClass int

const (
	// ExitValid means every input was valid.
	ExitValid ExitClass = 0

	// ExitInvalid means violations were found and no input failed.
	ExitInvalid ExitClass = 1

	// ExitFailed means at least one input could not be read or parsed.
	ExitFailed ExitClass = 2
)

// Summary aggregates a batch run.
type Summary struct {
	Files      int
	Valid      int
	Invalid    int
	Failed     int
	Violations int
	Duration   time.Duration

	// Err combines every per-input failure, or is nil.
	Err error
}

// Summarize aggregates results.
func Summarize(results []Result, elapsed time.Duration) *Summary {
	sum := &Summary{Files: len(results), Duration: elapsed}
	for _, r := range results {
		switch {
		case r.Err != nil:
			sum.Failed++
			sum.Err = multierr.Append(sum.Err, fmt.Errorf("%s: %w", r.Input, r.Err))
		case r.Report.Valid():
			sum.Valid++
		default:
			sum.Invalid++
			sum.Violations += len(r.Report.Violations)
		}
	}
	return sum
}

// ExitClass derives the process outcome. Failures outrank violations.
func (s *Summary) ExitClass() ExitClass {
	switch {
	case s.Failed > 0:
		return ExitFailed
	case s.Invalid > 0:
		return ExitInvalid
	}
	return ExitValid
}

// Errors returns the individual failures combined in Err.
func (s *Summary) Errors() []error {
	return multierr.Errors(s.Err)
}

// Canceled reports whether any input was skipped or aborted by
// cancellation.
func (s *Summary) Canceled() bool {
	for _, err := range s.Errors() {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return true
		}
	}
	return false
}
