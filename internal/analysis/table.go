package analysis

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teamnsrg/covtab/internal/utils"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Frame is a CSV table held in memory: a header row and string cells.
// Every row is padded to len(Header).
type Frame struct {
	Name   string
	Header []string
	Rows   [][]string
}

// MissingColumnError reports a required column absent from a table header.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("column %q not found in %s", e.Column, e.Table)
	}
	return fmt.Sprintf("column %q not found", e.Column)
}

// NewFrame builds a frame from a header and rows, padding short rows.
func NewFrame(name string, header []string, rows [][]string) *Frame {
	f := &Frame{Name: name, Header: header, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		f.Rows = append(f.Rows, pad(r, len(header)))
	}
	return f
}

// ReadCSV loads a whole comma-delimited file. The first record is the header.
func ReadCSV(path string) (*Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()
	f, err := ReadFrame(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Name = filepath.Base(path)
	return f, nil
}

// ReadFrame reads a CSV stream into a Frame.
func ReadFrame(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Frame{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	f := &Frame{Header: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(f.Rows)+1, err)
		}
		f.Rows = append(f.Rows, pad(rec, len(header)))
	}
	return f, nil
}

func pad(rec []string, n int) []string {
	if len(rec) >= n {
		return rec
	}
	tmp := make([]string, n)
	copy(tmp, rec)
	return tmp
}

// Len returns the number of data rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Col returns the index of the named column.
func (f *Frame) Col(name string) (int, error) {
	for i, h := range f.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, &MissingColumnError{Table: f.Name, Column: name}
}

// Cols resolves several column names at once.
func (f *Frame) Cols(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, err := f.Col(n)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Floats parses the named column. Cells that are not numbers become NaN.
func (f *Frame) Floats(name string) ([]float64, error) {
	idx, err := f.Col(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = ParseNumber(r[idx])
	}
	return out, nil
}

// Select returns a new frame holding the rows at the given positions.
func (f *Frame) Select(rows []int) *Frame {
	out := &Frame{Name: f.Name, Header: f.Header, Rows: make([][]string, 0, len(rows))}
	for _, i := range rows {
		out.Rows = append(out.Rows, f.Rows[i])
	}
	return out
}

// ParseNumber parses a decimal cell; blanks and garbage yield NaN.
func ParseNumber(s string) float64 {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return math.NaN()
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return x
}

// FormatNumber renders a float with the shortest exact representation.
// Whole values keep a trailing ".0" so float columns stay recognisable.
func FormatNumber(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if math.IsInf(x, 0) || strings.Contains(s, ".") {
		return s
	}
	return s + ".0"
}

// WriteOptions controls CSV output.
type WriteOptions struct {
	// NoHeader omits the header record.
	NoHeader bool
	// CRLF terminates records with \r\n.
	CRLF bool
}

// WriteCSV writes header and rows to path atomically, creating parent dirs.
func WriteCSV(path string, header []string, rows [][]string, opt WriteOptions) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = opt.CRLF
	if !opt.NoHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// Write stores the frame at path.
func (f *Frame) Write(path string, opt WriteOptions) error {
	return WriteCSV(path, f.Header, f.Rows, opt)
}
