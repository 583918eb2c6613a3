package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
	"github.com/3leaps/fsdv/pkg/validator"
)

func sampleReport() *validator.Report {
	return validator.NewReport("data/person.json", document.FormatJSON, []validator.Violation{
		{
			Path: validator.Path{}.Key("age"), Kind: validator.TypeMismatch,
			Expected: "number", Actual: "string", Line: 3, Column: 10,
		},
		{
			Path: validator.Path{}.Key("tags").Index(1), Kind: validator.ConstraintFailed,
			Expected: "length >= 3", Actual: "length 1",
		},
	})
}

func decodeLines(t *testing.T, out string) []Record {
	t.Helper()
	var records []Record
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var record Record
		require.NoError(t, json.Unmarshal([]byte(line), &record), "line should be valid JSON: %s", line)
		records = append(records, record)
	}
	return records
}

func TestNewJSONLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	assert.NotNil(t, w)
	assert.Equal(t, "run-123", w.runID)
}

func TestJSONLWriter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	require.NoError(t, w.WriteReport(context.Background(), sampleReport()))

	records := decodeLines(t, buf.String())
	require.Len(t, records, 3)
	assert.Equal(t, TypeReport, records[0].Type)
	assert.Equal(t, TypeViolation, records[1].Type)
	assert.Equal(t, TypeViolation, records[2].Type)
	for _, r := range records {
		assert.Equal(t, "run-123", r.RunID)
		assert.False(t, r.TS.IsZero())
	}

	var rep ReportRecord
	require.NoError(t, json.Unmarshal(records[0].Data, &rep))
	assert.Equal(t, "data/person.json", rep.Source)
	assert.Equal(t, "json", rep.Format)
	assert.False(t, rep.Valid)
	assert.Equal(t, 2, rep.Violations)
	assert.Equal(t, map[string]int{"TypeMismatch": 1, "ConstraintFailed": 1}, rep.Kinds)

	assert.JSONEq(t, `{
		"source": "data/person.json",
		"path": ["tags", 1],
		"path_text": "$.tags[1]",
		"kind": "ConstraintFailed",
		"expected": "length >= 3",
		"actual": "length 1"
	}`, string(records[2].Data))
}

func TestJSONLWriter_WriteReport_Valid(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	require.NoError(t, w.WriteReport(context.Background(), validator.NewReport("ok.yaml", document.FormatYAML, nil)))

	records := decodeLines(t, buf.String())
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"source":"ok.yaml","format":"yaml","valid":true,"violations":0}`, string(records[0].Data))
}

func TestJSONLWriter_WriteFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantLine int
	}{
		{
			name:     "not found",
			err:      &validator.IOError{Location: "a.json", Err: &source.Error{Op: "Open", Scheme: source.SchemeFile, Err: source.ErrNotFound}},
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "access denied",
			err:      &validator.IOError{Location: "a.json", Err: source.ErrAccessDenied},
			wantCode: ErrCodeAccessDenied,
		},
		{
			name:     "other io",
			err:      &validator.IOError{Location: "a.json", Err: source.ErrIsDirectory},
			wantCode: ErrCodeIO,
		},
		{
			name:     "parse",
			err:      fmt.Errorf("a.json: %w", &document.ParseError{Format: document.FormatJSON, Line: 4, Column: 2, Msg: "unexpected end of input"}),
			wantCode: ErrCodeParse,
			wantLine: 4,
		},
		{
			name:     "unknown format",
			err:      fmt.Errorf("%w: extension \".csv\"", document.ErrUnknownFormat),
			wantCode: ErrCodeUnknownFormat,
		},
		{
			name:     "no schema",
			err:      fmt.Errorf("%w for a.json", schema.ErrNoSchema),
			wantCode: ErrCodeNoSchema,
		},
		{
			name:     "sibling schema too large",
			err:      fmt.Errorf("read schema: %w", &source.Error{Op: "Read", Scheme: source.SchemeFile, Location: "a.schema.json", Err: source.ErrTooLarge}),
			wantCode: ErrCodeIO,
		},
		{
			name:     "unsupported schema language",
			err:      fmt.Errorf("%w: a.xsd", schema.ErrUnsupportedLanguage),
			wantCode: ErrCodeSchema,
		},
		{
			name:     "canceled",
			err:      context.Canceled,
			wantCode: ErrCodeCanceled,
		},
		{
			name:     "unexpected",
			err:      errors.New("boom"),
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewJSONLWriter(&buf, "run-123")

			require.NoError(t, w.WriteFailure(context.Background(), "a.json", tt.err))

			records := decodeLines(t, buf.String())
			require.Len(t, records, 1)
			assert.Equal(t, TypeError, records[0].Type)

			var rec ErrorRecord
			require.NoError(t, json.Unmarshal(records[0].Data, &rec))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "a.json", rec.Source)
			assert.Equal(t, tt.err.Error(), rec.Message)
			assert.Equal(t, tt.wantLine, rec.Line)
		})
	}
}

func TestJSONLWriter_WriteSummary(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	sum := &SummaryRecord{
		Files: 3, Valid: 1, Invalid: 1, Failed: 1, Violations: 4,
		Duration: 1500 * time.Millisecond, DurationHuman: "1.5s", ExitCode: 2,
	}
	require.NoError(t, w.WriteSummary(context.Background(), sum))

	records := decodeLines(t, buf.String())
	require.Len(t, records, 1)
	assert.Equal(t, TypeSummary, records[0].Type)

	var got SummaryRecord
	require.NoError(t, json.Unmarshal(records[0].Data, &got))
	assert.Equal(t, *sum, got)
}

func TestJSONLWriter_Close(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	require.NoError(t, w.Close())

	err := w.WriteReport(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestJSONLWriter_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	const numWriters = 10
	const writesPerWriter = 50

	var wg sync.WaitGroup
	wg.Add(numWriters)

	for i := 0; i < numWriters; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < writesPerWriter; j++ {
				_ = w.WriteReport(context.Background(), sampleReport())
			}
		}()
	}

	wg.Wait()

	// Every report record is immediately followed by its two violations.
	records := decodeLines(t, buf.String())
	require.Len(t, records, numWriters*writesPerWriter*3)
	for i := 0; i < len(records); i += 3 {
		assert.Equal(t, TypeReport, records[i].Type)
		assert.Equal(t, TypeViolation, records[i+1].Type)
		assert.Equal(t, TypeViolation, records[i+2].Type)
	}
}

func TestJSONLWriter_ContextCancellation(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONLWriter(&buf, "run-123")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.WriteReport(ctx, sampleReport())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf.String())
}

func TestJSONLWriter_WriteError(t *testing.T) {
	w := NewJSONLWriter(&failingWriter{err: errors.New("disk full")}, "run-123")

	err := w.WriteSummary(context.Background(), &SummaryRecord{})
	require.Error(t, err)

	var writeErr *WriteError
	assert.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "write", writeErr.Op)
}

// failingWriter is an io.Writer that always returns an error.
type failingWriter struct {
	err error
}

func (f *failingWriter) Write(p []byte) (n int, err error) {
	return 0, f.err
}

func TestJSONLWriter_ShortWrite(t *testing.T) {
	shortWriter := &shortWriteWriter{bytesPerWrite: 10}
	w := NewJSONLWriter(shortWriter, "run-123")

	require.NoError(t, w.WriteReport(context.Background(), sampleReport()))

	records := decodeLines(t, shortWriter.buf.String())
	assert.Len(t, records, 3)
}

func TestJSONLWriter_ZeroWrite(t *testing.T) {
	w := NewJSONLWriter(&zeroWriteWriter{}, "run-123")

	err := w.WriteSummary(context.Background(), &SummaryRecord{})
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

// shortWriteWriter simulates an io.Writer that performs short writes.
// It writes at most bytesPerWrite bytes per call, returning nil error.
type shortWriteWriter struct {
	buf           bytes.Buffer
	bytesPerWrite int
}

func (sw *shortWriteWriter) Write(p []byte) (n int, err error) {
	toWrite := len(p)
	if toWrite > sw.bytesPerWrite {
		toWrite = sw.bytesPerWrite
	}
	return sw.buf.Write(p[:toWrite])
}

// zeroWriteWriter always returns 0 bytes written with nil error.
type zeroWriteWriter struct{}

func (zw *zeroWriteWriter) Write(p []byte) (n int, err error) {
	return 0, nil
}

func TestWriteErrorType(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &WriteError{Op: "marshal", Err: underlying}

	assert.Equal(t, "output: marshal: underlying error", err.Error())
	assert.ErrorIs(t, err, underlying)
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, false)
	ctx := context.Background()

	require.NoError(t, w.WriteReport(ctx, sampleReport()))
	require.NoError(t, w.WriteReport(ctx, validator.NewReport("ok.yaml", document.FormatYAML, nil)))
	require.NoError(t, w.WriteFailure(ctx, "gone.json", &validator.IOError{Location: "gone.json", Err: os.ErrNotExist}))
	require.NoError(t, w.WriteSummary(ctx, &SummaryRecord{Files: 3, Valid: 1, Invalid: 1, Failed: 1, Violations: 2, DurationHuman: "12ms"}))

	assert.Equal(t, strings.Join([]string{
		"data/person.json: $.age: TypeMismatch — expected number, got string (line 3, column 10)",
		"data/person.json: $.tags[1]: ConstraintFailed — expected length >= 3, got length 1",
		"ok.yaml: valid",
		"gone.json: error: cannot read gone.json: file does not exist",
		"3 files: 1 valid, 1 invalid, 1 failed (2 violations) in 12ms",
	}, "\n")+"\n", buf.String())
}

func TestTextWriter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf, true)

	require.NoError(t, w.WriteReport(context.Background(), validator.NewReport("ok.yaml", document.FormatYAML, nil)))
	assert.Empty(t, buf.String())
}

func TestTextWriter_Close(t *testing.T) {
	w := NewTextWriter(io.Discard, false)
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.WriteFailure(context.Background(), "x", errors.New("y")), ErrWriterClosed)
}
