// Package coverage holds the batch transformations applied to the CSV outputs
// of the crawl coverage pipeline: cohort frequency differences, metadata
// enrichment, positive/negative set selection, and file tallies.
//
// Every job reads its inputs whole (metajoin streams the metadata table),
// transforms them in memory, and writes one result. Jobs never call each other.
package coverage

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/teamnsrg/covtab/internal/analysis"
)

// Env carries the sinks shared by every job.
type Env struct {
	// Out receives human-readable tables and diagnostics.
	Out io.Writer
	// Quiet suppresses table dumps. Diagnostics are still written.
	Quiet bool
	// Log receives structured debug events; nil discards them.
	Log *zap.Logger
}

func (e Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

func (e Env) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

// printf writes a diagnostic line regardless of Quiet.
func (e Env) printf(format string, args ...any) {
	fmt.Fprintf(e.out(), format, args...)
}

func (e Env) preview(f *analysis.Frame) {
	if e.Quiet {
		return
	}
	fmt.Fprint(e.out(), analysis.Preview(f, analysis.DefaultPreviewRows))
}

func (e Env) describe(s analysis.Summary) {
	if e.Quiet {
		return
	}
	fmt.Fprint(e.out(), s.Render())
}
