// Package report persists one row per polling cycle.
package report

import (
	"context"
	"encoding/csv"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/momentum/internal/domain"
)

// DateLayout format of the Date column.
const DateLayout = "2006-01-02 15:04:05"

// valuePrecision decimals kept for indicator values in text reports.
const valuePrecision = 8

// Header columns of the CSV report.
var Header = []string{"Date", "trading pair", "Short EMA", "Long EMA", "RSI", "Side"}

// CSVSink appends report rows to a CSV file.
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewCSVSink opens path for appending. The header is written only when the file is new or empty.
func NewCSVSink(path string) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open csv report")
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "stat csv report")
	}

	s := &CSVSink{file: file, w: csv.NewWriter(file)}
	if info.Size() == 0 {
		if err := s.writeRow(Header); err != nil {
			file.Close()
			return nil, errors.Wrap(err, "write csv header")
		}
	}

	return s, nil
}

// Write appends one record.
func (s *CSVSink) Write(_ context.Context, record domain.ReportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Wrap(s.writeRow(row(record)), "write csv report")
}

func (s *CSVSink) writeRow(fields []string) error {
	if err := s.w.Write(fields); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	return s.file.Close()
}

func row(record domain.ReportRecord) []string {
	return []string{
		formatDate(record.Date),
		record.Symbol,
		formatValue(record.ShortEMA),
		formatValue(record.LongEMA),
		formatValue(record.RSI),
		record.Side.String(),
	}
}

func formatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func formatValue(v decimal.Decimal) string {
	return v.Round(valuePrecision).String()
}
