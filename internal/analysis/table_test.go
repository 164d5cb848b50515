package analysis

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestReadCSV_PadsShortRowsAndStripsBOM(t *testing.T) {
	p := writeFixture(t, "regions.csv", "\xEF\xBB\xBFRegion Index,Percent Covered\n1,0.5\n2\n")
	f, err := ReadCSV(p)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if f.Name != "regions.csv" {
		t.Fatalf("name = %q", f.Name)
	}
	if f.Header[0] != "Region Index" {
		t.Fatalf("BOM not stripped: %q", f.Header[0])
	}
	if f.Len() != 2 {
		t.Fatalf("rows = %d, want 2", f.Len())
	}
	if len(f.Rows[1]) != 2 || f.Rows[1][1] != "" {
		t.Fatalf("short row not padded: %#v", f.Rows[1])
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCol_MissingColumnError(t *testing.T) {
	f := NewFrame("t.csv", []string{"File"}, nil)
	_, err := f.Col("Percent")
	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if mce.Column != "Percent" || !strings.Contains(err.Error(), "t.csv") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFloats_BadCellsBecomeNaN(t *testing.T) {
	f := NewFrame("", []string{"x"}, [][]string{{"1.5"}, {"abc"}, {""}, {" 2 "}})
	vals, err := f.Floats("x")
	if err != nil {
		t.Fatalf("Floats: %v", err)
	}
	if vals[0] != 1.5 || !math.IsNaN(vals[1]) || !math.IsNaN(vals[2]) || vals[3] != 2 {
		t.Fatalf("unexpected values: %v", vals)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:      "0.0",
		7887:   "7887.0",
		0.8:    "0.8",
		-0.125: "-0.125",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
	if got := FormatNumber(math.NaN()); got != "" {
		t.Fatalf("NaN should render empty, got %q", got)
	}
}

func TestWriteCSV_Options(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.csv")
	rows := [][]string{{"a", "1"}, {"b", "2"}}
	if err := WriteCSV(p, []string{"k", "v"}, rows, WriteOptions{CRLF: true}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "k,v\r\na,1\r\nb,2\r\n" {
		t.Fatalf("unexpected output: %q", b)
	}

	if err := WriteCSV(p, []string{"k", "v"}, rows, WriteOptions{NoHeader: true}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	b, _ = os.ReadFile(p)
	if string(b) != "a,1\nb,2\n" {
		t.Fatalf("unexpected output: %q", b)
	}
	entries, err := os.ReadDir(filepath.Dir(p))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.csv" {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestSelect(t *testing.T) {
	f := NewFrame("s", []string{"x"}, [][]string{{"a"}, {"b"}, {"c"}})
	got := f.Select([]int{2, 0})
	if got.Len() != 2 || got.Rows[0][0] != "c" || got.Rows[1][0] != "a" {
		t.Fatalf("unexpected selection: %#v", got.Rows)
	}
}
