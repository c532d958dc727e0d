package aligner

import (
	"fmt"
	"strings"
)

// ParseError reports a timestamp or numeric cell that could not be
// interpreted. Row is the 1-based data row (the header is row 0).
type ParseError struct {
	File   string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: row %d, column %q: cannot parse %q: %v", e.File, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from an input table, or
// output columns that would collide with existing ones.
type SchemaError struct {
	File        string
	Missing     []string
	Conflicting []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required column(s): "+strings.Join(e.Missing, ", "))
	}
	if len(e.Conflicting) > 0 {
		parts = append(parts, "column(s) already present: "+strings.Join(e.Conflicting, ", "))
	}
	return fmt.Sprintf("%s: %s", e.File, strings.Join(parts, "; "))
}

// DuplicateDayError reports two market rows that fall on the same UTC
// calendar day. The join is keyed on the day, so such input is rejected.
type DuplicateDayError struct {
	File      string
	Day       string
	FirstRow  int
	SecondRow int
}

func (e *DuplicateDayError) Error() string {
	return fmt.Sprintf("%s: rows %d and %d both fall on UTC day %s; market input must have at most one bar per day",
		e.File, e.FirstRow, e.SecondRow, e.Day)
}
