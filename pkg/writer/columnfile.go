package writer

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/serverless-otel/ingestd/internal/logger"
	"github.com/serverless-otel/ingestd/pkg/record"
)

// ColumnFileWriter appends each data column of a record to its own
// append-only text file within the segment's directory. The set of
// written lines is all that matters; key processing order within a
// record is unspecified, and there is no partial rollback if one column
// append fails after others have succeeded.
type ColumnFileWriter struct {
	BaseDir   string
	Formatter LineFormatter
}

var _ SegmentWriter = (*ColumnFileWriter)(nil)

// NewColumnFileWriter constructs a ColumnFileWriter with the default CSV
// line formatter.
func NewColumnFileWriter(baseDir string) *ColumnFileWriter {
	return &ColumnFileWriter{BaseDir: baseDir, Formatter: CSVLineFormatter}
}

// CSVLineFormatter renders timestamp, correlation-id, value as a single
// CSV row. We can't control what characters end up in value, so this goes
// through a real CSV writer rather than hand-rolled string concatenation.
func CSVLineFormatter(correlationID, timestamp, value string) string {
	var sb strings.Builder
	cw := csv.NewWriter(&sb)
	cw.Write([]string{timestamp, correlationID, value})
	cw.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

// FixedWidthLineFormatter left-justifies timestamp and correlation-id,
// padding each with trailing spaces to a fixed 60-character width, for callers that need predictable record
// boundaries instead of CSV quoting semantics.
func FixedWidthLineFormatter(correlationID, timestamp, value string) string {
	return fmt.Sprintf("%-60s%-60s%s", timestamp, correlationID, value)
}

func (w *ColumnFileWriter) columnPath(dataset, segment, key string) string {
	return filepath.Join(w.BaseDir, dataset, segment, key)
}

// Write appends one line per eligible data column in rec to its column
// file, creating the file if this is the first write to that column.
func (w *ColumnFileWriter) Write(ctx context.Context, dataset, segment string, rec record.Record) error {
	timestamp := rec["timestamp-ns"]
	correlationID := rec.CorrelationID()
	formatter := w.Formatter
	if formatter == nil {
		formatter = CSVLineFormatter
	}

	written := 0
	for key, value := range rec.DataColumns() {
		if err := w.appendColumn(dataset, segment, key, timestamp, correlationID, value, formatter); err != nil {
			return fmt.Errorf("writing column %s: %w", key, err)
		}
		written++
	}

	logger.DebugCtx(ctx, "wrote segment columns",
		logger.WriterKind(string(KindColumnFile)),
		logger.SegmentID(segment),
		logger.RowCount(written))

	return nil
}

func (w *ColumnFileWriter) appendColumn(dataset, segment, key, timestamp, correlationID, value string, formatter LineFormatter) error {
	path := w.columnPath(dataset, segment, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening column file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	line := formatter(correlationID, timestamp, value)
	if _, err := bw.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return bw.Flush()
}
