// Package reader loads review records from a CSV file with a header row.
package reader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/reviewdex/internal/domain"
	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	"github.com/kailas-cloud/reviewdex/internal/metrics"
)

// DefaultLimit is the number of data rows read when no limit is given.
const DefaultLimit = 95

// RowError describes a data row that was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// Result is the outcome of reading a file. Rejected rows count toward the limit.
type Result struct {
	Records  []review.Record
	Rejected []RowError
}

// Reader parses review CSV files.
type Reader struct {
	limit  int
	logger *zap.Logger
}

// New creates a Reader. limit <= 0 reads every row.
func New(limit int, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{limit: limit, logger: logger}
}

// ReadFile reads the first limit data rows of the file at path.
func (r *Reader) ReadFile(path string) (Result, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Result{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := r.Read(f)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	return res, nil
}

// Read parses CSV from src. Column order is free; missing columns and empty
// cells become "" for strings and 0 for numbers.
func (r *Reader) Read(src io.Reader) (Result, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("empty file: %w", domain.ErrMalformedRecord)
		}
		return Result{}, fmt.Errorf("header: %w", err)
	}
	cols := columnIndex(header)

	var res Result
	for line := 2; r.limit <= 0 || len(res.Records)+len(res.Rejected) < r.limit; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		metrics.RowsReadTotal.Inc()
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return res, fmt.Errorf("line %d: %w", line, err)
			}
			res.reject(r.logger, line, "parse", fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err))
			continue
		}

		rec, err := toRecord(cols, row)
		if err != nil {
			res.reject(r.logger, line, "field", err)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res, nil
}

func (res *Result) reject(logger *zap.Logger, line int, reason string, err error) {
	metrics.RowsRejectedTotal.WithLabelValues(reason).Inc()
	logger.Warn("Skipping malformed row", zap.Int("line", line), zap.Error(err))
	res.Rejected = append(res.Rejected, RowError{Line: line, Err: err})
}

type columns map[string]int

func columnIndex(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func toRecord(cols columns, row []string) (review.Record, error) {
	score, err := parseFloat(cols.get(row, review.FieldScore))
	if err != nil {
		return review.Record{}, fmt.Errorf("%s: %w: %w", review.FieldScore, domain.ErrMalformedRecord, err)
	}
	ts, err := parseInt(cols.get(row, review.FieldTime))
	if err != nil {
		return review.Record{}, fmt.Errorf("%s: %w: %w", review.FieldTime, domain.ErrMalformedRecord, err)
	}

	return review.Record{
		ID:          cols.get(row, review.FieldID),
		Title:       cols.get(row, review.FieldTitle),
		Price:       cols.get(row, review.FieldPrice),
		UserID:      cols.get(row, review.FieldUserID),
		ProfileName: cols.get(row, review.FieldProfileName),
		Helpfulness: cols.get(row, review.FieldHelpfulness),
		Score:       score,
		Time:        ts,
		Summary:     cols.get(row, review.FieldSummary),
		Text:        cols.get(row, review.FieldText),
	}, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err //nolint:wrapcheck // wrapped by caller with the field name
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// parseInt accepts "940636800" and spreadsheet exports like "940636800.0".
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int64(f), nil
}
