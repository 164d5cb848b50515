package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Summary holds descriptive statistics of one numeric column.
// Quartiles use linear interpolation between closest ranks.
type Summary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Describe summarises vals, skipping NaN. An empty input yields Count 0 and NaN stats.
func Describe(name string, vals []float64) Summary {
	s := Summary{Name: name}
	clean := make([]float64, 0, len(vals))
	// Welford
	var mean, m2 float64
	for _, x := range vals {
		if math.IsNaN(x) {
			continue
		}
		clean = append(clean, x)
		s.Count++
		delta := x - mean
		mean += delta / float64(s.Count)
		m2 += delta * (x - mean)
	}
	if s.Count == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	s.Mean = mean
	s.Std = math.NaN()
	if s.Count > 1 {
		s.Std = math.Sqrt(m2 / float64(s.Count-1))
	}
	sort.Float64s(clean)
	s.Min = clean[0]
	s.Max = clean[len(clean)-1]
	s.Q25 = quantile(clean, 0.25)
	s.Q50 = quantile(clean, 0.5)
	s.Q75 = quantile(clean, 0.75)
	return s
}

// DescribeColumn parses and summarises the named column of f.
func DescribeColumn(f *Frame, name string) (Summary, error) {
	vals, err := f.Floats(name)
	if err != nil {
		return Summary{}, err
	}
	return Describe(name, vals), nil
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Render prints the summary as a two-column table.
func (s Summary) Render() string {
	rows := [][]string{
		{"count", fmt.Sprintf("%d", s.Count)},
		{"mean", fmtStat(s.Mean)},
		{"std", fmtStat(s.Std)},
		{"min", fmtStat(s.Min)},
		{"25%", fmtStat(s.Q25)},
		{"50%", fmtStat(s.Q50)},
		{"75%", fmtStat(s.Q75)},
		{"max", fmtStat(s.Max)},
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("", safeName(s.Name)).
		Rows(rows...)
	return t.String() + "\n"
}

func fmtStat(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return fmt.Sprintf("%.6g", x)
}
