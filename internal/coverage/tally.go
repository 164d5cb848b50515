package coverage

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/teamnsrg/covtab/internal/analysis"
)

// ColFile is the column FileTally groups by.
const ColFile = "File"

// FileCount is one row of the tally table.
type FileCount struct {
	File  string
	Count int
}

// TallyFiles counts rows per distinct File value, ordered by count descending
// and then by File ascending.
func TallyFiles(f *analysis.Frame) ([]FileCount, error) {
	idx, err := f.Col(ColFile)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, r := range f.Rows {
		counts[r[idx]]++
	}
	out := make([]FileCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, FileCount{File: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].File < out[j].File
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

// TallyFrame renders counts as a File,count table.
func TallyFrame(counts []FileCount) *analysis.Frame {
	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.File, strconv.Itoa(c.Count)}
	}
	return analysis.NewFrame("", []string{ColFile, "count"}, rows)
}

// TallyJob names the files FileTally reads and writes.
type TallyJob struct {
	InputCSV string
	OutCSV   string
}

// Run prints the input table and writes the sorted tally.
func (j TallyJob) Run(env Env) ([]FileCount, error) {
	in, err := analysis.ReadCSV(j.InputCSV)
	if err != nil {
		return nil, err
	}
	env.preview(in)
	counts, err := TallyFiles(in)
	if err != nil {
		return nil, err
	}
	if err := TallyFrame(counts).Write(j.OutCSV, analysis.WriteOptions{}); err != nil {
		return nil, fmt.Errorf("write %s: %w", j.OutCSV, err)
	}
	env.logger().Debug("wrote file tally", zap.String("path", j.OutCSV),
		zap.Int("rows", in.Len()), zap.Int("files", len(counts)))
	return counts, nil
}
