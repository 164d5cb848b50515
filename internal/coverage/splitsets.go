package coverage

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/teamnsrg/covtab/internal/analysis"
	"github.com/teamnsrg/covtab/internal/config"
)

// Columns of the similarity and crawl coverage tables.
const (
	ColResultsPath    = "Results Path"
	ColPercent        = "Percent"
	ColRegionsCovered = "Regions RegionsCovered"
)

// ErrInsufficientPopulation is returned when there are fewer negative
// candidates than positives to match.
var ErrInsufficientPopulation = errors.New("cannot take a larger sample than population without replacement")

// SplitOptions holds the partition thresholds and the sampling source.
type SplitOptions struct {
	// Positives have Percent > PositiveThreshold.
	PositiveThreshold float64
	// Negatives have Percent < NegativeThreshold and coverage > MinRegions.
	NegativeThreshold float64
	MinRegions        float64
	// Rand drives negative sampling; nil uses a clock-seeded source.
	Rand *rand.Rand
}

// DefaultSplitOptions returns the upstream thresholds with a clock-seeded source.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{
		PositiveThreshold: config.DefaultPositiveThreshold,
		NegativeThreshold: config.DefaultNegativeThreshold,
		MinRegions:        config.DefaultMinRegions,
	}
}

// NewRand returns a source seeded with *seed, or with the clock when seed is nil.
func NewRand(seed *int64) *rand.Rand {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return rand.New(rand.NewSource(s))
}

// JoinOnResultsPath inner-joins sim and cov on Results Path, keeping sim's row
// order. Rows without a match on both sides are dropped. Coverage columns whose
// names clash with similarity columns get a " (coverage)" suffix.
func JoinOnResultsPath(sim, cov *analysis.Frame) (*analysis.Frame, error) {
	sk, err := sim.Col(ColResultsPath)
	if err != nil {
		return nil, err
	}
	ck, err := cov.Col(ColResultsPath)
	if err != nil {
		return nil, err
	}

	header := []string{ColResultsPath}
	var simCols, covCols []int
	seen := map[string]bool{ColResultsPath: true}
	for i, h := range sim.Header {
		if i == sk {
			continue
		}
		simCols = append(simCols, i)
		header = append(header, h)
		seen[h] = true
	}
	for i, h := range cov.Header {
		if i == ck {
			continue
		}
		covCols = append(covCols, i)
		if seen[h] {
			h += " (coverage)"
		}
		header = append(header, h)
	}

	byPath := make(map[string][]int, cov.Len())
	for i, r := range cov.Rows {
		byPath[r[ck]] = append(byPath[r[ck]], i)
	}

	var rows [][]string
	for _, r := range sim.Rows {
		for _, ci := range byPath[r[sk]] {
			row := make([]string, 0, len(header))
			row = append(row, r[sk])
			for _, i := range simCols {
				row = append(row, r[i])
			}
			for _, i := range covCols {
				row = append(row, cov.Rows[ci][i])
			}
			rows = append(rows, row)
		}
	}
	return analysis.NewFrame("joined", header, rows), nil
}

// SplitResult holds the joined table and both example sets.
type SplitResult struct {
	Joined *analysis.Frame
	// Candidates are all rows passing the negative thresholds, before sampling.
	Candidates *analysis.Frame
	Positives  *analysis.Frame
	Negatives  *analysis.Frame
}

// SplitSets joins sim and cov, partitions the rows into positives and negative
// candidates, and samples len(positives) negatives without replacement.
func SplitSets(sim, cov *analysis.Frame, opt SplitOptions) (*SplitResult, error) {
	joined, err := JoinOnResultsPath(sim, cov)
	if err != nil {
		return nil, err
	}
	percent, err := joined.Floats(ColPercent)
	if err != nil {
		return nil, err
	}
	regions, err := joined.Floats(ColRegionsCovered)
	if err != nil {
		return nil, err
	}

	var pos, cand []int
	for i := range joined.Rows {
		switch {
		case percent[i] > opt.PositiveThreshold:
			pos = append(pos, i)
		case percent[i] < opt.NegativeThreshold && regions[i] > opt.MinRegions:
			cand = append(cand, i)
		}
	}
	if len(cand) < len(pos) {
		return nil, fmt.Errorf("%w: %d negative candidates, %d positives", ErrInsufficientPopulation, len(cand), len(pos))
	}

	rng := opt.Rand
	if rng == nil {
		rng = NewRand(nil)
	}
	picks := rng.Perm(len(cand))[:len(pos)]
	neg := make([]int, len(picks))
	for i, p := range picks {
		neg[i] = cand[p]
	}

	res := &SplitResult{
		Joined:     joined,
		Candidates: joined.Select(cand),
		Positives:  joined.Select(pos),
		Negatives:  joined.Select(neg),
	}
	res.Positives.Name = "positives"
	res.Negatives.Name = "negatives"
	return res, nil
}

// WriteKeys writes the Results Path of every row, one per line, no header.
func WriteKeys(path string, f *analysis.Frame) error {
	k, err := f.Col(ColResultsPath)
	if err != nil {
		return err
	}
	rows := make([][]string, len(f.Rows))
	for i, r := range f.Rows {
		rows[i] = []string{r[k]}
	}
	return analysis.WriteCSV(path, nil, rows, analysis.WriteOptions{NoHeader: true})
}

// SplitSetsJob names the files SplitSets reads and writes.
type SplitSetsJob struct {
	SimilaritiesCSV string
	CoverageCSV     string
	PositivesCSV    string
	NegativesCSV    string
	Options         SplitOptions
}

// Run splits the example sets, prints them with coverage statistics, and
// writes both key lists.
func (j SplitSetsJob) Run(env Env) (*SplitResult, error) {
	sim, err := analysis.ReadCSV(j.SimilaritiesCSV)
	if err != nil {
		return nil, err
	}
	cov, err := analysis.ReadCSV(j.CoverageCSV)
	if err != nil {
		return nil, err
	}
	res, err := SplitSets(sim, cov, j.Options)
	if err != nil {
		return nil, err
	}
	env.logger().Debug("split example sets",
		zap.Int("joined", res.Joined.Len()),
		zap.Int("candidates", res.Candidates.Len()),
		zap.Int("positives", res.Positives.Len()))

	for _, f := range []*analysis.Frame{res.Joined, res.Positives, res.Negatives} {
		env.preview(f)
		s, err := analysis.DescribeColumn(f, ColRegionsCovered)
		if err != nil {
			return nil, err
		}
		s.Name = f.Name + ": " + ColRegionsCovered
		env.describe(s)
	}

	if err := WriteKeys(j.PositivesCSV, res.Positives); err != nil {
		return nil, fmt.Errorf("write %s: %w", j.PositivesCSV, err)
	}
	if err := WriteKeys(j.NegativesCSV, res.Negatives); err != nil {
		return nil, fmt.Errorf("write %s: %w", j.NegativesCSV, err)
	}
	return res, nil
}
