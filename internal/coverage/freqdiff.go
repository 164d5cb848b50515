package coverage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/teamnsrg/covtab/internal/analysis"
	"github.com/teamnsrg/covtab/internal/config"
)

// Region coverage columns written by the upstream frequency job.
const (
	ColRegionIndex    = "Region Index"
	ColTimesCovered   = "Number of Times Covered"
	ColTotalTrials    = "Total Trials"
	ColPercentCovered = "Percent Covered"
	ColDifference     = "Difference"
)

// Cohort suffixes appended to joined columns.
const (
	SuffixPositive = " Positive"
	SuffixNegative = " Negative"
)

// ErrDuplicateRegion is returned when a cohort lists a region index twice.
var ErrDuplicateRegion = errors.New("duplicate region index")

// RegionCoverage is one row of a cohort's per-region coverage summary.
type RegionCoverage struct {
	Index          int
	TimesCovered   float64
	TotalTrials    float64
	PercentCovered float64
}

// Uncovered returns the record assumed for a region a cohort never reported.
func Uncovered(index int, totalTrials float64) RegionCoverage {
	return RegionCoverage{Index: index, TotalTrials: totalTrials}
}

// RegionTable parses a cohort summary keyed by region index. A repeated index
// is an error.
func RegionTable(f *analysis.Frame) (map[int]RegionCoverage, error) {
	idx, err := f.Cols(ColRegionIndex, ColTimesCovered, ColTotalTrials, ColPercentCovered)
	if err != nil {
		return nil, err
	}
	out := make(map[int]RegionCoverage, f.Len())
	for i, r := range f.Rows {
		key := analysis.ParseNumber(r[idx[0]])
		if math.IsNaN(key) || key != math.Trunc(key) {
			return nil, fmt.Errorf("%s row %d: invalid %s %q", f.Name, i+1, ColRegionIndex, r[idx[0]])
		}
		rc := RegionCoverage{
			Index:          int(key),
			TimesCovered:   analysis.ParseNumber(r[idx[1]]),
			TotalTrials:    analysis.ParseNumber(r[idx[2]]),
			PercentCovered: analysis.ParseNumber(r[idx[3]]),
		}
		if _, dup := out[rc.Index]; dup {
			return nil, fmt.Errorf("%s row %d: %w %d", f.Name, i+1, ErrDuplicateRegion, rc.Index)
		}
		out[rc.Index] = rc
	}
	return out, nil
}

// DiffOptions tunes FrequencyDiff.
type DiffOptions struct {
	// TotalTrials fills Total Trials for regions absent from one cohort.
	TotalTrials float64
}

// DefaultDiffOptions uses the upstream cohort trial count.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{TotalTrials: config.DefaultTotalTrials}
}

// DiffHeader is the column layout of the frequency difference table.
func DiffHeader() []string {
	return []string{
		ColRegionIndex,
		ColTimesCovered + SuffixPositive,
		ColTotalTrials + SuffixPositive,
		ColPercentCovered + SuffixPositive,
		ColTimesCovered + SuffixNegative,
		ColTotalTrials + SuffixNegative,
		ColPercentCovered + SuffixNegative,
		ColDifference,
	}
}

// FrequencyDiff outer-joins two cohort summaries on Region Index and appends
// Difference = Percent Covered Positive - Percent Covered Negative.
// A region missing from one cohort takes Uncovered values for that side.
// Rows are ordered by ascending region index.
func FrequencyDiff(pos, neg *analysis.Frame, opt DiffOptions) (*analysis.Frame, error) {
	p, err := RegionTable(pos)
	if err != nil {
		return nil, fmt.Errorf("positive cohort: %w", err)
	}
	n, err := RegionTable(neg)
	if err != nil {
		return nil, fmt.Errorf("negative cohort: %w", err)
	}

	keys := make([]int, 0, len(p)+len(n))
	for k := range p {
		keys = append(keys, k)
	}
	for k := range n {
		if _, ok := p[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Ints(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		a, ok := p[k]
		if !ok {
			a = Uncovered(k, opt.TotalTrials)
		}
		b, ok := n[k]
		if !ok {
			b = Uncovered(k, opt.TotalTrials)
		}
		rows = append(rows, []string{
			strconv.Itoa(k),
			analysis.FormatNumber(a.TimesCovered),
			analysis.FormatNumber(a.TotalTrials),
			analysis.FormatNumber(a.PercentCovered),
			analysis.FormatNumber(b.TimesCovered),
			analysis.FormatNumber(b.TotalTrials),
			analysis.FormatNumber(b.PercentCovered),
			analysis.FormatNumber(a.PercentCovered - b.PercentCovered),
		})
	}
	return analysis.NewFrame("", DiffHeader(), rows), nil
}

// FreqDiffJob names the files FrequencyDiff reads and writes.
type FreqDiffJob struct {
	PositiveCSV string
	NegativeCSV string
	OutCSV      string
	Options     DiffOptions
}

// Run loads both cohorts, writes the joined table, and prints it.
func (j FreqDiffJob) Run(env Env) (*analysis.Frame, error) {
	log := env.logger()
	pos, err := analysis.ReadCSV(j.PositiveCSV)
	if err != nil {
		return nil, err
	}
	neg, err := analysis.ReadCSV(j.NegativeCSV)
	if err != nil {
		return nil, err
	}
	log.Debug("loaded cohorts", zap.Int("positive", pos.Len()), zap.Int("negative", neg.Len()))

	out, err := FrequencyDiff(pos, neg, j.Options)
	if err != nil {
		return nil, err
	}
	out.Name = j.OutCSV
	env.preview(out)
	if err := out.Write(j.OutCSV, analysis.WriteOptions{}); err != nil {
		return nil, fmt.Errorf("write %s: %w", j.OutCSV, err)
	}
	log.Debug("wrote frequency differences", zap.String("path", j.OutCSV), zap.Int("regions", out.Len()))
	return out, nil
}
