// Package runner executes a single suite against a running automation
// server and classifies the outcome.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/selenese/sel-acceptor/server"
	"github.com/selenese/sel-acceptor/types"
)

// Config holds the per-run settings every suite execution shares.
type Config struct {
	Browser     string
	StartURL    string
	Timeout     time.Duration
	MultiWindow bool
	Log         *zap.Logger
}

// Runner runs suites one at a time. A suite is attempted exactly once; there
// is no retry.
type Runner struct {
	cfg    Config
	tracer trace.Tracer
}

// NewRunner creates a suite runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Browser == "" {
		return nil, fmt.Errorf("browser is required")
	}
	if cfg.StartURL == "" {
		return nil, fmt.Errorf("start URL is required")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}

	return &Runner{
		cfg:    cfg,
		tracer: otel.Tracer("suite runner"),
	}, nil
}

// Run executes one suite through the server handle. The call blocks until
// the server reports completion; the timeout budget is supplied to the
// server, which enforces it. A status text other than the passing sentinel
// yields a Failed outcome with the text preserved verbatim. Errors talking
// to the server are runtime failures and propagate.
func (r *Runner) Run(ctx context.Context, handle server.Handle, suite types.SuiteDescriptor, resultsFile string) (types.SuiteOutcome, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", suite.Name))
	defer span.End()

	r.cfg.Log.Info("Running suite",
		zap.String("suite", suite.Name),
		zap.String("browser", r.cfg.Browser),
		zap.String("resultsFile", resultsFile))

	start := time.Now()
	status, err := handle.RunSuite(ctx, server.SuiteExecution{
		Browser:     r.cfg.Browser,
		StartURL:    r.cfg.StartURL,
		SuiteFile:   suite.Path,
		ResultsFile: resultsFile,
		Timeout:     r.cfg.Timeout,
		MultiWindow: r.cfg.MultiWindow,
	})
	if err != nil {
		return types.SuiteOutcome{}, fmt.Errorf("running suite %s: %w", suite.Name, err)
	}

	outcome := types.SuiteOutcome{
		SuiteName:   suite.Name,
		ResultsFile: resultsFile,
		RawStatus:   status,
		Duration:    time.Since(start),
		Status:      types.SuiteStatusFailed,
	}
	if status == types.PassedStatusText {
		outcome.Status = types.SuiteStatusPassed
	}

	r.cfg.Log.Info("Suite completed",
		zap.String("suite", suite.Name),
		zap.String("status", string(outcome.Status)),
		zap.Duration("duration", outcome.Duration))

	return outcome, nil
}
