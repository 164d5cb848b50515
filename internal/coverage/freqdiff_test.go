package coverage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/teamnsrg/covtab/internal/analysis"
)

func frame(header []string, rows ...[]string) *analysis.Frame {
	return analysis.NewFrame("test.csv", header, rows)
}

var regionHeader = []string{ColRegionIndex, ColTimesCovered, ColTotalTrials, ColPercentCovered}

func TestFrequencyDiff_OuterJoinFillsMissingCohort(t *testing.T) {
	pos := frame(regionHeader,
		[]string{"5", "6310", "7887", "0.8"},
		[]string{"2", "10", "7887", "0.5"},
	)
	neg := frame(regionHeader,
		[]string{"2", "20", "7887", "0.25"},
		[]string{"9", "30", "7887", "0.125"},
	)
	out, err := FrequencyDiff(pos, neg, DefaultDiffOptions())
	if err != nil {
		t.Fatalf("FrequencyDiff: %v", err)
	}
	want := [][]string{
		{"2", "10.0", "7887.0", "0.5", "20.0", "7887.0", "0.25", "0.25"},
		{"5", "6310.0", "7887.0", "0.8", "0.0", "7887.0", "0.0", "0.8"},
		{"9", "0.0", "7887.0", "0.0", "30.0", "7887.0", "0.125", "-0.125"},
	}
	if diff := cmp.Diff(want, out.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(DiffHeader(), out.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
}

func TestFrequencyDiff_CustomTrialCount(t *testing.T) {
	pos := frame(regionHeader, []string{"1", "1", "10", "0.1"})
	neg := frame(regionHeader)
	out, err := FrequencyDiff(pos, neg, DiffOptions{TotalTrials: 42})
	if err != nil {
		t.Fatalf("FrequencyDiff: %v", err)
	}
	if got := out.Rows[0][5]; got != "42.0" {
		t.Fatalf("Total Trials Negative = %q, want 42.0", got)
	}
}

func TestFrequencyDiff_MalformedPercentPropagates(t *testing.T) {
	pos := frame(regionHeader, []string{"1", "1", "10", "oops"})
	neg := frame(regionHeader, []string{"1", "1", "10", "0.1"})
	out, err := FrequencyDiff(pos, neg, DefaultDiffOptions())
	if err != nil {
		t.Fatalf("FrequencyDiff: %v", err)
	}
	if out.Rows[0][3] != "" || out.Rows[0][7] != "" {
		t.Fatalf("malformed value should surface as empty NaN cell: %#v", out.Rows[0])
	}
}

func TestFrequencyDiff_MissingColumn(t *testing.T) {
	pos := frame([]string{ColRegionIndex, ColPercentCovered}, []string{"1", "0.1"})
	_, err := FrequencyDiff(pos, frame(regionHeader), DefaultDiffOptions())
	var mce *analysis.MissingColumnError
	if !errors.As(err, &mce) || mce.Column != ColTimesCovered {
		t.Fatalf("expected missing %q, got %v", ColTimesCovered, err)
	}
}

func TestFrequencyDiff_DuplicateRegionIndex(t *testing.T) {
	pos := frame(regionHeader,
		[]string{"1", "1", "10", "0.1"},
		[]string{"1", "9", "10", "0.9"},
	)
	_, err := FrequencyDiff(pos, frame(regionHeader), DefaultDiffOptions())
	if !errors.Is(err, ErrDuplicateRegion) {
		t.Fatalf("expected ErrDuplicateRegion, got %v", err)
	}

	_, err = FrequencyDiff(frame(regionHeader), pos, DefaultDiffOptions())
	if !errors.Is(err, ErrDuplicateRegion) {
		t.Fatalf("expected ErrDuplicateRegion for the negative cohort, got %v", err)
	}
}

func TestFreqDiffJob_RunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	posPath := filepath.Join(dir, "positive_frequency.csv")
	negPath := filepath.Join(dir, "negative_frequency.csv")
	outPath := filepath.Join(dir, "out", "differences_in_frequency.csv")
	posCSV := "Region Index,Number of Times Covered,Total Trials,Percent Covered\n3,1,7887,0.3\n1,2,7887,0.7\n"
	negCSV := "Region Index,Number of Times Covered,Total Trials,Percent Covered\n1,1,7887,0.2\n"
	if err := os.WriteFile(posPath, []byte(posCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(negPath, []byte(negCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	job := FreqDiffJob{PositiveCSV: posPath, NegativeCSV: negPath, OutCSV: outPath, Options: DefaultDiffOptions()}
	var buf bytes.Buffer
	if _, err := job.Run(Env{Out: &buf}); err != nil {
		t.Fatalf("run: %v", err)
	}
	first, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("[2 rows x 8 columns]")) {
		t.Fatalf("expected preview on stdout, got:\n%s", buf.String())
	}
	if _, err := job.Run(Env{Quiet: true}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(outPath)
	if !bytes.Equal(first, second) {
		t.Fatalf("rerun changed output:\n%s\n---\n%s", first, second)
	}
	want := "Region Index,Number of Times Covered Positive,Total Trials Positive,Percent Covered Positive," +
		"Number of Times Covered Negative,Total Trials Negative,Percent Covered Negative,Difference\n" +
		"1,2.0,7887.0,0.7,1.0,7887.0,0.2,0.49999999999999994\n" +
		"3,1.0,7887.0,0.3,0.0,7887.0,0.0,0.3\n"
	if string(first) != want {
		t.Fatalf("unexpected output:\n%s", first)
	}
}

func TestFreqDiffJob_MissingInput(t *testing.T) {
	dir := t.TempDir()
	job := FreqDiffJob{
		PositiveCSV: filepath.Join(dir, "missing.csv"),
		NegativeCSV: filepath.Join(dir, "missing.csv"),
		OutCSV:      filepath.Join(dir, "out.csv"),
	}
	if _, err := job.Run(Env{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
