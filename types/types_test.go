package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReportAppend(t *testing.T) {
	report := NewRunReport("run-1")

	report.Append(SuiteOutcome{SuiteName: "SuiteA", Status: SuiteStatusPassed, RawStatus: PassedStatusText})
	report.Append(SuiteOutcome{SuiteName: "SuiteB", Status: SuiteStatusFailed, RawStatus: "FAILED: assertion"})

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, "SuiteA", report.Outcomes[0].SuiteName)
	assert.Equal(t, "SuiteB", report.Outcomes[1].SuiteName)
	assert.Equal(t, 2, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Passed)
	assert.Equal(t, 1, report.Stats.Failed)
}

func TestRunReportVerdict(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []SuiteOutcome
		want     SuiteStatus
	}{
		{
			name:     "no suites",
			outcomes: nil,
			want:     SuiteStatusPassed,
		},
		{
			name: "all passed",
			outcomes: []SuiteOutcome{
				{SuiteName: "SuiteA", Status: SuiteStatusPassed},
				{SuiteName: "SuiteB", Status: SuiteStatusPassed},
			},
			want: SuiteStatusPassed,
		},
		{
			name: "one failed",
			outcomes: []SuiteOutcome{
				{SuiteName: "SuiteA", Status: SuiteStatusPassed},
				{SuiteName: "SuiteB", Status: SuiteStatusFailed},
			},
			want: SuiteStatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := NewRunReport("run-1")
			for _, outcome := range tt.outcomes {
				report.Append(outcome)
			}
			assert.Equal(t, tt.want, report.Verdict())
		})
	}
}

func TestRunReportFailedOutcomes(t *testing.T) {
	report := NewRunReport("run-1")
	report.Append(SuiteOutcome{SuiteName: "SuiteA", Status: SuiteStatusPassed})
	report.Append(SuiteOutcome{SuiteName: "SuiteB", Status: SuiteStatusFailed, RawStatus: "FAILED: timeout"})
	report.Append(SuiteOutcome{SuiteName: "SuiteC", Status: SuiteStatusFailed, RawStatus: "ERROR: browser crashed"})

	failed := report.FailedOutcomes()
	require.Len(t, failed, 2)
	assert.Equal(t, "SuiteB", failed[0].SuiteName)
	assert.Equal(t, "SuiteC", failed[1].SuiteName)
	assert.Equal(t, "FAILED: timeout", failed[0].RawStatus)
}

func TestRunReportFinalize(t *testing.T) {
	report := NewRunReport("run-1")
	report.Stats.StartTime = time.Now().Add(-time.Second)
	report.Finalize()

	assert.False(t, report.Stats.EndTime.IsZero())
	assert.GreaterOrEqual(t, report.Duration, time.Second)
}
