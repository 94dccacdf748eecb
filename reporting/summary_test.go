package reporting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/selenese/sel-acceptor/types"
)

func sampleReport() *types.RunReport {
	report := types.NewRunReport("run-1")
	report.Append(types.SuiteOutcome{
		SuiteName:   "SuiteA.html",
		ResultsFile: "/out/results-SuiteA.html",
		Status:      types.SuiteStatusPassed,
		RawStatus:   types.PassedStatusText,
		Duration:    1200 * time.Millisecond,
	})
	report.Append(types.SuiteOutcome{
		SuiteName:   "SuiteB.html",
		ResultsFile: "/out/results-SuiteB.html",
		Status:      types.SuiteStatusFailed,
		RawStatus:   "FAILED: assertion",
		Duration:    700 * time.Millisecond,
	})
	report.Finalize()
	return report
}

func TestRender(t *testing.T) {
	out := Render(sampleReport())

	assert.Contains(t, out, "Acceptance run run-1")
	assert.Contains(t, out, "PASS  SuiteA.html")
	assert.Contains(t, out, "FAIL  SuiteB.html")
	assert.Contains(t, out, "FAILED: assertion")
	assert.Contains(t, out, "Suites: 2 total, 1 passed, 1 failed")
	assert.Contains(t, out, "Verdict: FAILED")
}

func TestRenderHalted(t *testing.T) {
	report := sampleReport()
	report.Halted = true

	out := Render(report)
	assert.Contains(t, out, "halted on first failure")
}

func TestRenderEmptyRun(t *testing.T) {
	report := types.NewRunReport("run-2")
	report.Finalize()

	out := Render(report)
	assert.Contains(t, out, "(no suites executed)")
	assert.Contains(t, out, "Verdict: PASSED")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewSummaryWriter(dir, zap.NewNop())

	path, err := w.Write(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SummaryFilename), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Verdict: FAILED")
}

func TestWriteMissingDirectory(t *testing.T) {
	w := NewSummaryWriter(filepath.Join(t.TempDir(), "nope"), zap.NewNop())
	_, err := w.Write(sampleReport())
	require.Error(t, err)
}
