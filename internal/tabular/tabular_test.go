package tabular

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeHeaderAndRows(t *testing.T) {
	in := "\ufeffDate, Close\n2024-01-01,50000\n2024-01-02,51000\n"
	tbl, err := Decode(strings.NewReader(in), "market.csv")
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got := strings.Join(tbl.Header, "|"); got != "Date|Close" {
		t.Errorf("Header: got %q, want %q", got, "Date|Close")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", tbl.Len())
	}
	if tbl.Rows[1][1] != "51000" {
		t.Errorf("Rows[1][1]: got %q, want %q", tbl.Rows[1][1], "51000")
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	tbl, err := Decode(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(tbl.Header) != 0 || tbl.Len() != 0 {
		t.Errorf("expected empty table, got header=%v rows=%d", tbl.Header, tbl.Len())
	}
}

func TestDecodeRaggedRowFails(t *testing.T) {
	_, err := Decode(strings.NewReader("a,b\n1,2\n3\n"), "ragged.csv")
	if err == nil {
		t.Fatal("expected error for ragged row")
	}
	if !strings.Contains(err.Error(), "ragged.csv") {
		t.Errorf("error should name the table: %v", err)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	tbl := New("t", "Date", "open", "HIGH")
	found, missing := tbl.Lookup("date", "Open", "High", "Close", "Volume")
	if found["date"] != 0 || found["Open"] != 1 || found["High"] != 2 {
		t.Errorf("found: got %v", found)
	}
	if strings.Join(missing, ",") != "Close,Volume" {
		t.Errorf("missing: got %v, want [Close Volume]", missing)
	}
}

func TestIndexPrefersExactMatch(t *testing.T) {
	tbl := New("t", "close", "Close")
	if got := tbl.IndexFold("Close"); got != 1 {
		t.Errorf("IndexFold: got %d, want 1", got)
	}
}

func TestColumn(t *testing.T) {
	tbl := New("t", "a", "b")
	tbl.Append("1", "x")
	tbl.Append("2", "y")
	if got := strings.Join(tbl.Column("B"), ""); got != "xy" {
		t.Errorf("Column: got %q, want %q", got, "xy")
	}
	if tbl.Column("missing") != nil {
		t.Error("Column of missing name should be nil")
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	tbl := New("out", "title", "score")
	tbl.Append("hello, world", "0.5")
	tbl.Append(`say "hi"`, "-0.1")
	if err := tbl.WriteFile(path); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if got.Rows[0][0] != "hello, world" || got.Rows[1][0] != `say "hi"` {
		t.Errorf("quoted cells not preserved: %v", got.Rows)
	}
}

func TestReadFileMissingNamesPathOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	_, err := ReadFile(path)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v, want os.ErrNotExist", err)
	}
	if n := strings.Count(err.Error(), path); n != 1 {
		t.Errorf("path appears %d times in %q, want 1", n, err.Error())
	}
}

func TestWriteFileAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "final.csv")

	boom := errors.New("boom")
	err := WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial,row\n")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty dir after failed write, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicKeepsPreviousFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.csv")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = WriteFileAtomic(path, func(w io.Writer) error { return errors.New("fail") })

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old\n" {
		t.Errorf("previous content replaced: %q", data)
	}
}
