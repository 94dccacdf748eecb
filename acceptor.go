// Package acceptor orchestrates an acceptance run: it brings up the
// automation server, discovers and executes suites, applies the failure
// policy and reports the results.
package acceptor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/selenese/sel-acceptor/buildprops"
	"github.com/selenese/sel-acceptor/discovery"
	"github.com/selenese/sel-acceptor/logging"
	"github.com/selenese/sel-acceptor/metrics"
	"github.com/selenese/sel-acceptor/reporting"
	"github.com/selenese/sel-acceptor/results"
	"github.com/selenese/sel-acceptor/runner"
	"github.com/selenese/sel-acceptor/server"
	"github.com/selenese/sel-acceptor/types"
)

// Acceptor executes one acceptance run end to end. Suites run strictly
// sequentially against a single server instance whose lifetime brackets
// the whole run.
type Acceptor struct {
	config    *Config
	lifecycle server.Lifecycle
	runner    *runner.Runner
	discovery *discovery.Discovery
	results   *results.Manager
	props     *buildprops.Store
	summary   *reporting.SummaryWriter
	serverLog *logging.ServerLogWriter

	runID  string
	tracer trace.Tracer
	log    *zap.Logger
}

// New wires an Acceptor from a validated configuration.
func New(cfg *Config) (*Acceptor, error) {
	if cfg == nil {
		return nil, NewConfigurationError("config is required")
	}
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	runID := uuid.New().String()

	serverLog, err := logging.NewServerLogWriter(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("setting up server log: %w", err)
	}

	lifecycle, err := server.NewProcessLifecycle(server.Config{
		Command:                cfg.ServerCommand,
		Port:                   cfg.Port,
		FirefoxProfileTemplate: cfg.FirefoxProfileTemplate,
		UserExtensions:         cfg.UserExtensions,
		SlowResources:          cfg.SlowResources,
		JavaScriptCoreDir:      cfg.JavaScriptCoreDir,
		StartTimeout:           cfg.ServerStartTimeout,
		Output:                 serverLog,
		Log:                    log.Named("server"),
	})
	if err != nil {
		return nil, NewConfigurationError("invalid server configuration: %v", err)
	}

	suiteRunner, err := runner.NewRunner(runner.Config{
		Browser:     cfg.Browser,
		StartURL:    cfg.StartURL,
		Timeout:     cfg.Timeout,
		MultiWindow: cfg.MultiWindow,
		Log:         log.Named("runner"),
	})
	if err != nil {
		return nil, NewConfigurationError("invalid runner configuration: %v", err)
	}

	props, err := buildprops.NewStore(cfg.PropertiesFile, log.Named("props"))
	if err != nil {
		return nil, NewConfigurationError("invalid properties file configuration: %v", err)
	}

	return &Acceptor{
		config:    cfg,
		lifecycle: lifecycle,
		runner:    suiteRunner,
		discovery: discovery.New(log.Named("discovery")),
		results:   results.NewManager(log.Named("results")),
		props:     props,
		summary:   reporting.NewSummaryWriter(cfg.OutputDir, log.Named("reporting")),
		serverLog: serverLog,
		runID:     runID,
		tracer:    otel.Tracer("acceptance run"),
		log:       log,
	}, nil
}

// RunID returns the identifier assigned to this run.
func (a *Acceptor) RunID() string {
	return a.runID
}

// Execute performs the acceptance run. The server is started before the
// first suite and stopped on every exit path, including panics inside suite
// execution and halting failures. The run report is finalized and published
// regardless of how the run ends, so callers always get the outcomes gathered
// up to the point of failure.
func (a *Acceptor) Execute(ctx context.Context) (*types.RunReport, error) {
	ctx, span := a.tracer.Start(ctx, "acceptance run")
	defer span.End()
	defer func() {
		if err := a.serverLog.Close(); err != nil {
			a.log.Warn("Failed to close server log", zap.Error(err))
		}
	}()

	a.log.Info("Starting acceptance run",
		zap.String("runID", a.runID),
		zap.String("config", a.config.String()),
		zap.String("serverLog", a.serverLog.Path()))

	report := types.NewRunReport(a.runID)

	runErr := a.lifecycle.WithServer(ctx, func(handle server.Handle) error {
		a.log.Debug("Executing suites", zap.String("server", handle.Addr()))
		return a.runSuites(ctx, handle, report)
	})

	report.Finalize()
	a.publish(report)

	if runErr != nil {
		metrics.RecordErrorDetails("run", runErr)
		return report, runErr
	}
	return report, nil
}

// runSuites discovers and executes every suite, applying the failure
// policy. It only returns an error for runtime failures and for a halting
// suite failure; non-halting suite failures are recorded and the loop
// continues.
func (a *Acceptor) runSuites(ctx context.Context, handle server.Handle, report *types.RunReport) error {
	suites, err := a.discovery.List(a.config.SuiteDirectory)
	if err != nil {
		return err
	}
	if len(suites) == 0 {
		a.log.Warn("No suites found", zap.String("directory", a.config.SuiteDirectory))
		return nil
	}
	a.log.Info("Discovered suites", zap.Int("count", len(suites)))

	for _, suite := range suites {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}

		resultsFile, err := a.results.Prepare(a.config.ResultsBase, a.config.OutputDir, suite.Name)
		if err != nil {
			return err
		}

		outcome, err := a.runner.Run(ctx, handle, suite, resultsFile)
		if err != nil {
			return err
		}

		report.Append(outcome)
		metrics.RecordSuite(a.runID, outcome.SuiteName, outcome.Status, outcome.Duration)

		if outcome.Status == types.SuiteStatusPassed {
			continue
		}

		if a.config.HaltOnFailure {
			report.Halted = true
			return &BuildHaltedError{SuiteName: outcome.SuiteName, ResultsFile: outcome.ResultsFile}
		}

		a.log.Error("Suite failed, continuing",
			zap.String("suite", outcome.SuiteName),
			zap.String("status", outcome.RawStatus),
			zap.String("resultsFile", outcome.ResultsFile))
		if a.config.FailureProperty != "" {
			if err := a.props.Set(a.config.FailureProperty, "true"); err != nil {
				a.log.Error("Failed to persist failure property", zap.Error(err))
				metrics.RecordErrorDetails("buildprops", err)
			}
		}
	}
	return nil
}

// publish emits the run-level artifacts: the console table, the summary
// file and the aggregate metrics. Publishing failures are logged, never
// escalated, so they cannot mask the run's outcome.
func (a *Acceptor) publish(report *types.RunReport) {
	a.printResultsTable(report)

	if len(report.Outcomes) > 0 {
		if _, err := a.summary.Write(report); err != nil {
			a.log.Warn("Failed to write run summary", zap.Error(err))
		}
	}

	metrics.RecordRun(a.runID, string(report.Verdict()),
		report.Stats.Total, report.Stats.Passed, report.Stats.Failed, report.Duration)

	a.log.Info("Acceptance run complete", zap.String("report", report.String()))
}

func (a *Acceptor) printResultsTable(report *types.RunReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Acceptance run %s", report.RunID)

	t.AppendHeader(table.Row{"Suite", "Status", "Duration", "Results File"})
	for _, outcome := range report.Outcomes {
		t.AppendRow(table.Row{
			outcome.SuiteName,
			strings.ToUpper(string(outcome.Status)),
			outcome.Duration.Round(time.Millisecond),
			outcome.ResultsFile,
		})
	}
	if len(report.Outcomes) == 0 {
		t.AppendRow(table.Row{"(no suites executed)", "", "", ""})
	}
	t.AppendFooter(table.Row{
		"Verdict",
		strings.ToUpper(string(report.Verdict())),
		report.Duration.Round(time.Millisecond),
		fmt.Sprintf("%d/%d passed", report.Stats.Passed, report.Stats.Total),
	})

	if report.Verdict() == types.SuiteStatusPassed {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Render()
}
