package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	acceptor "github.com/selenese/sel-acceptor"
	"github.com/selenese/sel-acceptor/exitcodes"
	"github.com/selenese/sel-acceptor/flags"
	"github.com/selenese/sel-acceptor/results"
	"github.com/selenese/sel-acceptor/server"
	"github.com/selenese/sel-acceptor/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "sel-acceptor"
	app.Usage = "Browser acceptance suite runner"
	app.Description = "sel-acceptor runs HTML test suites against a locally managed automation server"
	app.Flags = flags.Flags
	app.Before = flags.CheckRequired
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err == nil {
			return
		}
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
			return
		}
		cli.HandleExitCoder(cli.Exit(err.Error(), exitCodeFor(err)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler exits for coded errors; anything that reaches here
		// is an unexpected runtime failure.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

// exitCodeFor maps run errors to process exit codes. Only a suite failure
// under the halt-on-failure policy uses the suite-failure code; invalid
// configuration, server start failures and other runtime errors all use the
// runtime-error code.
func exitCodeFor(err error) int {
	switch {
	case acceptor.IsBuildHaltedError(err):
		return exitcodes.SuiteFailure
	case acceptor.IsConfigurationError(err),
		results.IsInvalidBrowserSpecError(err),
		results.IsIOError(err),
		server.IsServerStartError(err):
		return exitcodes.RuntimeErr
	default:
		return exitcodes.RuntimeErr
	}
}

func run(ctx *cli.Context) error {
	log, err := newLogger(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return acceptor.NewConfigurationError("%v", err)
	}
	defer log.Sync() //nolint:errcheck

	if ctx.Bool(flags.Tracing.Name) {
		shutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName(ctx.App.Name),
			otelconfig.WithServiceVersion(ctx.App.Version),
		)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer shutdown()
	}

	if ctx.Bool(flags.ServeMetrics.Name) {
		svc := service.New(log.Named("service"))
		svc.Start(ctx.Context)
		defer svc.Shutdown()
	}

	cfg, err := acceptor.NewConfig(ctx, log)
	if err != nil {
		return err
	}
	log.Debug("Config resolved", zap.String("config", cfg.String()))

	a, err := acceptor.New(cfg)
	if err != nil {
		return err
	}

	_, err = a.Execute(ctx.Context)
	return err
}

func newLogger(levelText string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelText, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg.Build()
}
