package aligner

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/slowdive42/news2alpha/internal/tabular"
	"github.com/slowdive42/news2alpha/pkg/utils"
)

var errNotFinite = errors.New("value is not a finite number")

// normalizeTimestamps parses column col of every row into a UTC instant.
// The first unparseable cell aborts the whole column.
func normalizeTimestamps(t *tabular.Table, col int) ([]time.Time, error) {
	out := make([]time.Time, len(t.Rows))
	for r, row := range t.Rows {
		v := cell(row, col)
		ts, err := utils.ParseTimestamp(v)
		if err != nil {
			return nil, &ParseError{File: t.Name, Column: t.Header[col], Row: r + 1, Value: v, Err: err}
		}
		out[r] = ts
	}
	return out, nil
}

// parseScores parses column col as finite floats.
func parseScores(t *tabular.Table, col int) ([]float64, error) {
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		v := cell(row, col)
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
			err = errNotFinite
		}
		if err != nil {
			return nil, &ParseError{File: t.Name, Column: t.Header[col], Row: r + 1, Value: v, Err: err}
		}
		out[r] = f
	}
	return out, nil
}

// checkNumeric verifies that column col parses as a float in every row.
// Values are not rewritten.
func checkNumeric(t *tabular.Table, col int) error {
	for r, row := range t.Rows {
		v := cell(row, col)
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return &ParseError{File: t.Name, Column: t.Header[col], Row: r + 1, Value: v, Err: err}
		}
	}
	return nil
}

func cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}
