package coverage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teamnsrg/covtab/internal/utils"
)

// ColRegionsCoveredOut is the column metajoin appends to metadata rows.
const ColRegionsCoveredOut = "Regions Covered"

// CrawlCoverage maps DeriveKey(path) to the regions a crawl covered.
type CrawlCoverage map[string]int

// LoadCrawlCoverage reads a crawl output table: header skipped, column 0 is
// the results path and column 1 the integer region count.
func LoadCrawlCoverage(path string) (CrawlCoverage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open crawl table: %w", err)
	}
	defer f.Close()
	return ReadCrawlCoverage(f)
}

// ReadCrawlCoverage is LoadCrawlCoverage over an open stream.
func ReadCrawlCoverage(r io.Reader) (CrawlCoverage, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	out := CrawlCoverage{}
	line := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read crawl row %d: %w", line, err)
		}
		line++
		if line == 1 {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("crawl row %d: want path and region count, got %d fields", line, len(rec))
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("crawl row %d: regions covered: %w", line, err)
		}
		k, err := DeriveKey(rec[0])
		if err != nil {
			return nil, fmt.Errorf("crawl row %d: %w", line, err)
		}
		out[k] = n
	}
	return out, nil
}

// MetaJoinStats counts the rows a metajoin run wrote and skipped.
type MetaJoinStats struct {
	Written int
	Skipped int
}

// MetaJoinJob appends crawl coverage to metadata rows.
type MetaJoinJob struct {
	CrawlCSV    string
	MetadataCSV string
	OutCSV      string
	// PathColumn is the metadata column holding the results path.
	PathColumn int
}

// Run builds the crawl map, then streams the metadata table into OutCSV.
// Metadata rows whose key is not in the crawl map are reported and skipped.
func (j MetaJoinJob) Run(env Env) (MetaJoinStats, error) {
	if j.PathColumn < 0 {
		return MetaJoinStats{}, fmt.Errorf("metadata path column %d: must not be negative", j.PathColumn)
	}
	crawl, err := LoadCrawlCoverage(j.CrawlCSV)
	if err != nil {
		return MetaJoinStats{}, err
	}
	env.logger().Debug("loaded crawl coverage", zap.String("path", j.CrawlCSV), zap.Int("keys", len(crawl)))

	in, err := os.Open(j.MetadataCSV)
	if err != nil {
		return MetaJoinStats{}, fmt.Errorf("open metadata table: %w", err)
	}
	defer in.Close()

	if err := utils.EnsureParentDir(j.OutCSV); err != nil {
		return MetaJoinStats{}, err
	}
	tmp := j.OutCSV + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return MetaJoinStats{}, fmt.Errorf("create output: %w", err)
	}
	stats, err := j.join(env, crawl, in, out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return stats, err
	}
	if err := os.Rename(tmp, j.OutCSV); err != nil {
		_ = os.Remove(tmp)
		return stats, fmt.Errorf("atomic rename: %w", err)
	}
	env.logger().Debug("wrote metadata coverage", zap.String("path", j.OutCSV),
		zap.Int("written", stats.Written), zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (j MetaJoinJob) join(env Env, crawl CrawlCoverage, in io.Reader, out io.Writer) (MetaJoinStats, error) {
	var stats MetaJoinStats
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	w := csv.NewWriter(out)
	w.UseCRLF = true

	header := true
	line := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, fmt.Errorf("read metadata row %d: %w", line, err)
		}
		line++
		if header {
			header = false
			if err := w.Write(append(rec, ColRegionsCoveredOut)); err != nil {
				return stats, fmt.Errorf("write header: %w", err)
			}
			continue
		}
		if j.PathColumn < 0 || j.PathColumn >= len(rec) {
			return stats, fmt.Errorf("metadata row %d: no path column %d", line, j.PathColumn)
		}
		k, err := DeriveKey(rec[j.PathColumn])
		if err != nil {
			return stats, fmt.Errorf("metadata row %d: %w", line, err)
		}
		n, ok := crawl[k]
		if !ok {
			env.printf("%s  is not present\n", k)
			stats.Skipped++
			continue
		}
		if err := w.Write(append(rec, strconv.Itoa(n))); err != nil {
			return stats, fmt.Errorf("write row %d: %w", line, err)
		}
		stats.Written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}
