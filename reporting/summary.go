// Package reporting writes run-level artifacts next to the per-suite results
// files. The per-suite HTML reports themselves are produced by the
// automation server; this package only summarizes the run.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/selenese/sel-acceptor/types"
)

// SummaryFilename is the name of the plain-text run summary.
const SummaryFilename = "run-summary.txt"

// SummaryWriter renders a RunReport into a text summary file.
type SummaryWriter struct {
	dir string
	log *zap.Logger
}

// NewSummaryWriter creates a writer that places the summary in dir.
func NewSummaryWriter(dir string, log *zap.Logger) *SummaryWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SummaryWriter{dir: dir, log: log}
}

// Write renders the report and writes it to the summary file, returning the
// file's path.
func (w *SummaryWriter) Write(report *types.RunReport) (string, error) {
	path := filepath.Join(w.dir, SummaryFilename)
	if err := os.WriteFile(path, []byte(Render(report)), 0644); err != nil {
		return "", fmt.Errorf("writing run summary %s: %w", path, err)
	}

	w.log.Info("Run summary written", zap.String("path", path))
	return path, nil
}

// Render produces the text form of a run report.
func Render(report *types.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Acceptance run %s\n", report.RunID)
	fmt.Fprintf(&b, "Started:  %s\n", report.Stats.StartTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Duration: %.1fs\n", report.Duration.Seconds())
	b.WriteString("\n")

	for _, outcome := range report.Outcomes {
		marker := "PASS"
		if outcome.Status != types.SuiteStatusPassed {
			marker = "FAIL"
		}
		fmt.Fprintf(&b, "%s  %-40s %8.1fs  %s\n",
			marker, outcome.SuiteName, outcome.Duration.Seconds(), outcome.ResultsFile)
		if outcome.Status != types.SuiteStatusPassed && outcome.RawStatus != "" {
			fmt.Fprintf(&b, "      %s\n", outcome.RawStatus)
		}
	}
	if len(report.Outcomes) == 0 {
		b.WriteString("(no suites executed)\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Suites: %d total, %d passed, %d failed\n",
		report.Stats.Total, report.Stats.Passed, report.Stats.Failed)
	if report.Halted {
		b.WriteString("Run halted on first failure; remaining suites were skipped.\n")
	}
	fmt.Fprintf(&b, "Verdict: %s\n", strings.ToUpper(string(report.Verdict())))

	return b.String()
}
