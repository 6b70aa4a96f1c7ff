package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"autobill/internal/billing"
	"autobill/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to w.
func (c *CSVWriter) WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSummary writes one line per link with its percentile. The value
// column is named after the quantile level.
func (c *CSVWriter) WriteSummary(w io.Writer, results []domain.PercentileResult, level float64) error {
	records := make([][]string, len(results))
	for i, r := range results {
		records[i] = []string{r.Link, formatFloat(r.Percentile95)}
	}
	return c.WriteCSV(w, WriteOptions{
		Headers:   []string{domain.ColumnLink, billing.ColumnName(level)},
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteSummaryFile writes the summary to path, creating parent directories.
func (c *CSVWriter) WriteSummaryFile(path string, results []domain.PercentileResult, level float64) error {
	c.logger.Info("Writing summary CSV",
		slog.String("file_path", path),
		slog.Int("record_count", len(results)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := c.WriteSummary(file, results, level); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
