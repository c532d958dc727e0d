// Package tabular reads and writes the CSV tables exchanged between
// pipeline stages. Every write goes through WriteFileAtomic, so a reader
// never observes a half-written table.
package tabular

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Table is an in-memory CSV table. Cells are kept as raw strings; typed
// interpretation is left to the consumer.
type Table struct {
	Name   string // file path or label used in error messages
	Header []string
	Rows   [][]string
}

// New returns an empty table with the given header.
func New(name string, header ...string) *Table {
	return &Table{Name: name, Header: append([]string(nil), header...)}
}

// ReadFile loads a CSV table from disk.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, path)
}

// Decode reads a CSV table whose first record is the header. An input with
// no records yields a table with an empty header.
func Decode(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	t := &Table{Name: name}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	t.Header = header

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// IndexFold is Index with case-insensitive matching.
func (t *Table) IndexFold(name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	for i, h := range t.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Lookup resolves each name case-insensitively. It returns the resolved
// positions and the names that could not be found, in request order.
func (t *Table) Lookup(names ...string) (map[string]int, []string) {
	found := make(map[string]int, len(names))
	var missing []string
	for _, n := range names {
		if i := t.IndexFold(n); i >= 0 {
			found[n] = i
		} else {
			missing = append(missing, n)
		}
	}
	return found, missing
}

// Append adds a row. The row must have one cell per header column.
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns a copy of the named column, or nil if it does not exist.
func (t *Table) Column(name string) []string {
	i := t.IndexFold(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Encode writes the table as CSV.
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile atomically writes the table to path.
func (t *Table) WriteFile(path string) error {
	return WriteFileAtomic(path, t.Encode)
}

// WriteFileAtomic writes to a temporary file next to path and renames it
// into place once write, flush and fsync all succeed. On failure the
// temporary file is removed and any existing file at path is left untouched.
func WriteFileAtomic(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
