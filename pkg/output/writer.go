package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/3leaps/fsdv/pkg/validator"
)

// Writer outputs validation results.
//
// Implementations must be safe for concurrent use from multiple
// goroutines, and each call emits complete lines.
type Writer interface {
	// WriteReport emits the outcome of a validated input.
	WriteReport(ctx context.Context, r *validator.Report) error

	// WriteFailure emits an input that could not be validated.
	WriteFailure(ctx context.Context, input string, err error) error

	// WriteSummary emits the run summary.
	WriteSummary(ctx context.Context, sum *SummaryRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using
// a mutex to ensure atomic line writes (no interleaved output).
type JSONLWriter struct {
	w     io.Writer
	runID string
	mu    sync.Mutex

	// closed indicates the writer has been closed.
	closed bool
}

// NewJSONLWriter creates a new JSONL writer.
//
// Parameters:
//   - w: The underlying writer (stdout, file, etc.)
//   - runID: Correlation ID for this invocation
func NewJSONLWriter(w io.Writer, runID string) *JSONLWriter {
	return &JSONLWriter{
		w:     w,
		runID: runID,
	}
}

// WriteReport emits a report record followed by one violation record per
// violation, all under a single lock so records of one input stay together.
func (jw *JSONLWriter) WriteReport(ctx context.Context, r *validator.Report) error {
	payloads := []typedPayload{{TypeReport, NewReportRecord(r)}}
	for _, v := range r.Violations {
		payloads = append(payloads, typedPayload{TypeViolation, NewViolationRecord(r.Source, v)})
	}
	return jw.writeRecords(ctx, payloads...)
}

// WriteFailure emits an error record.
func (jw *JSONLWriter) WriteFailure(ctx context.Context, input string, err error) error {
	return jw.writeRecords(ctx, typedPayload{TypeError, NewErrorRecord(input, err)})
}

// WriteSummary emits a summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, sum *SummaryRecord) error {
	return jw.writeRecords(ctx, typedPayload{TypeSummary, sum})
}

// Close marks the writer as closed.
//
// If the underlying writer implements io.Closer, it is NOT closed.
// The caller is responsible for closing the underlying writer.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.closed = true
	return nil
}

type typedPayload struct {
	recordType string
	data       any
}

// writeRecords marshals payloads and writes them as consecutive lines.
//
// Marshalling happens before taking the lock; the lock is held for the
// write so lines from concurrent callers never interleave.
func (jw *JSONLWriter) writeRecords(ctx context.Context, payloads ...typedPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	var buf []byte
	for _, p := range payloads {
		dataBytes, err := json.Marshal(p.data)
		if err != nil {
			return &WriteError{Op: "marshal_data", Err: err}
		}
		recordBytes, err := json.Marshal(Record{
			Type:  p.recordType,
			TS:    now,
			RunID: jw.runID,
			Data:  dataBytes,
		})
		if err != nil {
			return &WriteError{Op: "marshal_record", Err: err}
		}
		buf = append(buf, recordBytes...)
		buf = append(buf, '\n')
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeAll(jw.w, buf); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	return nil
}

// writeAll writes all bytes to w, handling short writes.
//
// io.Writer.Write may return n < len(p) with a nil error (short write).
// This function loops until all bytes are written or an error occurs,
// ensuring complete lines are emitted.
func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			// No progress made - avoid infinite loop
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

// Compile-time check that JSONLWriter implements Writer.
var _ Writer = (*JSONLWriter)(nil)
