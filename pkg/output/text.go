package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/3leaps/fsdv/pkg/validator"
)

// TextWriter writes one human-readable line per violation:
//
//	<source>: <path>: <kind> — expected <expected>, got <actual>
//
// Valid inputs print "<source>: valid" unless Quiet is set, and failures
// print "<source>: error: <message>".
type TextWriter struct {
	w      io.Writer
	quiet  bool
	mu     sync.Mutex
	closed bool
}

// NewTextWriter creates a text writer. quiet suppresses lines for valid
// inputs.
func NewTextWriter(w io.Writer, quiet bool) *TextWriter {
	return &TextWriter{w: w, quiet: quiet}
}

// WriteReport writes the violations of r, or a valid line.
func (tw *TextWriter) WriteReport(ctx context.Context, r *validator.Report) error {
	var b strings.Builder
	if r.Valid() {
		if tw.quiet {
			return nil
		}
		fmt.Fprintf(&b, "%s: valid\n", r.Source)
	}
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "%s: %s\n", r.Source, v)
	}
	return tw.write(ctx, b.String())
}

// WriteFailure writes an error line.
func (tw *TextWriter) WriteFailure(ctx context.Context, input string, err error) error {
	return tw.write(ctx, fmt.Sprintf("%s: error: %v\n", input, err))
}

// WriteSummary writes a one-line tally.
func (tw *TextWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	line := fmt.Sprintf("%d files: %d valid, %d invalid, %d failed (%d violations) in %s\n",
		sum.Files, sum.Valid, sum.Invalid, sum.Failed, sum.Violations, sum.DurationHuman)
	return tw.write(ctx, line)
}

// Close marks the writer as closed. The underlying writer is not closed.
func (tw *TextWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.closed = true
	return nil
}

func (tw *TextWriter) write(ctx context.Context, s string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.closed {
		return ErrWriterClosed
	}
	if err := writeAll(tw.w, []byte(s)); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	return nil
}

var _ Writer = (*TextWriter)(nil)
