package types

import (
	"fmt"
	"time"
)

// SuiteStatus represents the possible outcomes of a suite execution
type SuiteStatus string

const (
	SuiteStatusPassed SuiteStatus = "passed"
	SuiteStatusFailed SuiteStatus = "failed"
)

// PassedStatusText is the exact status text the automation server reports
// for a fully passing suite. Anything else counts as a failure.
const PassedStatusText = "PASSED"

// SuiteDescriptor identifies a single discovered suite file.
// Descriptors are created during discovery and consumed once by the runner.
type SuiteDescriptor struct {
	Name string // file name of the suite, e.g. "SuiteSmoke.html"
	Path string // absolute path to the suite file
}

// SuiteOutcome captures the result of running one suite.
// Outcomes are never mutated after being appended to a RunReport.
type SuiteOutcome struct {
	SuiteName   string
	ResultsFile string
	Status      SuiteStatus
	RawStatus   string // status text reported by the server, verbatim
	Duration    time.Duration
}

// RunStats tracks aggregate counts for a run
type RunStats struct {
	Total     int
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
}

// RunReport is the ordered sequence of suite outcomes for a run plus the
// overall verdict. It is built incrementally by the orchestrator and
// finalized after the last suite or after a halting failure.
type RunReport struct {
	RunID    string
	Outcomes []SuiteOutcome
	Halted   bool
	Duration time.Duration
	Stats    RunStats
}

// NewRunReport creates an empty report for the given run ID.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID: runID,
		Stats: RunStats{StartTime: time.Now()},
	}
}

// Append records a suite outcome. Outcomes are appended in execution order.
func (r *RunReport) Append(outcome SuiteOutcome) {
	r.Outcomes = append(r.Outcomes, outcome)
	r.Stats.Total++
	switch outcome.Status {
	case SuiteStatusPassed:
		r.Stats.Passed++
	default:
		r.Stats.Failed++
	}
}

// Finalize closes the report, fixing its duration and end time.
func (r *RunReport) Finalize() {
	r.Stats.EndTime = time.Now()
	r.Duration = r.Stats.EndTime.Sub(r.Stats.StartTime)
}

// Verdict returns the overall run verdict: passed iff every outcome passed.
// A halted run always carries at least one failed outcome.
func (r *RunReport) Verdict() SuiteStatus {
	if r.Stats.Failed > 0 {
		return SuiteStatusFailed
	}
	return SuiteStatusPassed
}

// FailedOutcomes returns the outcomes that did not pass, in execution order.
func (r *RunReport) FailedOutcomes() []SuiteOutcome {
	var failed []SuiteOutcome
	for _, outcome := range r.Outcomes {
		if outcome.Status != SuiteStatusPassed {
			failed = append(failed, outcome)
		}
	}
	return failed
}

// String returns a one-line summary of the report.
func (r *RunReport) String() string {
	return fmt.Sprintf("run %s: %d suites, %d passed, %d failed, verdict %s (%.1fs)",
		r.RunID, r.Stats.Total, r.Stats.Passed, r.Stats.Failed, r.Verdict(), r.Duration.Seconds())
}
