// Package server owns the automation server: starting the process, waiting
// for it to accept driver requests, executing suites through it, and
// guaranteeing shutdown when the run scope exits.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPort is the port the automation server listens on when none is
	// configured.
	DefaultPort = 4444

	// DefaultStartTimeout bounds how long we wait for the server process to
	// start answering driver requests.
	DefaultStartTimeout = 30 * time.Second

	driverPath      = "/selenium-server/driver/"
	runSuiteCommand = "runHTMLSuite"
	shutdownCommand = "shutDownSeleniumServer"

	// javaScriptCoreEnvVar carries the custom automation-core directory into
	// the server process. The setting is threaded explicitly through the
	// process environment rather than any process-global state.
	javaScriptCoreEnvVar = "SELENIUM_JAVASCRIPT_DIR"

	// runSuiteGrace is client-side slack on top of the server-enforced suite
	// timeout, so the server gets to report its own timeout first.
	runSuiteGrace = 10 * time.Second

	readyPollInterval = 100 * time.Millisecond
	shutdownTimeout   = 2 * time.Second
	stopWaitTimeout   = 5 * time.Second
)

// SuiteExecution holds the parameters for one suite run against the server.
type SuiteExecution struct {
	Browser     string
	StartURL    string
	SuiteFile   string
	ResultsFile string
	Timeout     time.Duration
	MultiWindow bool
}

// Handle is the narrow surface a running automation server exposes to the
// rest of the orchestrator. It is only valid inside the WithServer scope.
type Handle interface {
	// RunSuite executes one suite and returns the server's status text.
	// It blocks until the server reports completion or the timeout budget
	// (enforced server-side) elapses.
	RunSuite(ctx context.Context, execution SuiteExecution) (string, error)
	// Addr returns the base URL the server is reachable at.
	Addr() string
}

// Lifecycle provides scoped acquisition of an automation server.
type Lifecycle interface {
	// WithServer starts the server, runs fn with a handle to it, and stops
	// the server on every exit path. Stop failures are logged, never
	// escalated, so they cannot mask fn's outcome.
	WithServer(ctx context.Context, fn func(Handle) error) error
}

// ServerStartError wraps any failure to bring the automation server up.
type ServerStartError struct {
	Err error
}

func (e *ServerStartError) Error() string {
	return fmt.Sprintf("automation server failed to start: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ServerStartError) Unwrap() error {
	return e.Err
}

// IsServerStartError checks if the error is or wraps a ServerStartError.
func IsServerStartError(err error) bool {
	var startErr *ServerStartError
	return err != nil && errors.As(err, &startErr)
}

// Config holds the settings applied when the server process is started.
type Config struct {
	Command                []string // server executable and base arguments
	Port                   int
	FirefoxProfileTemplate string
	UserExtensions         string
	SlowResources          bool
	JavaScriptCoreDir      string
	StartTimeout           time.Duration
	Output                 io.Writer // sink for the server's stdout/stderr
	Log                    *zap.Logger
}

// ProcessLifecycle manages an automation server as a child process.
type ProcessLifecycle struct {
	cfg Config
}

// NewProcessLifecycle validates the configuration and returns a lifecycle
// that launches the configured server command.
func NewProcessLifecycle(cfg Config) (*ProcessLifecycle, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("server command is required")
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.StartTimeout == 0 {
		cfg.StartTimeout = DefaultStartTimeout
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &ProcessLifecycle{cfg: cfg}, nil
}

// WithServer implements the Lifecycle interface.
func (l *ProcessLifecycle) WithServer(ctx context.Context, fn func(Handle) error) error {
	handle, err := l.start(ctx)
	if err != nil {
		return &ServerStartError{Err: err}
	}
	defer l.stop(handle)

	return fn(handle)
}

// buildArgs translates the configuration into server command arguments.
// Trusting all TLS certificates is hard-coded policy for test runs.
func (l *ProcessLifecycle) buildArgs() []string {
	args := append([]string{}, l.cfg.Command[1:]...)
	args = append(args, "-port", strconv.Itoa(l.cfg.Port), "-trustAllSSLCertificates")
	if l.cfg.FirefoxProfileTemplate != "" {
		args = append(args, "-firefoxProfileTemplate", l.cfg.FirefoxProfileTemplate)
	}
	if l.cfg.UserExtensions != "" {
		args = append(args, "-userExtensions", l.cfg.UserExtensions)
	}
	if l.cfg.SlowResources {
		args = append(args, "-slowResources")
	}
	return args
}

func (l *ProcessLifecycle) start(ctx context.Context) (*processHandle, error) {
	args := l.buildArgs()
	cmd := exec.Command(l.cfg.Command[0], args...)
	cmd.Stdout = l.cfg.Output
	cmd.Stderr = l.cfg.Output
	if l.cfg.JavaScriptCoreDir != "" {
		cmd.Env = append(os.Environ(), javaScriptCoreEnvVar+"="+l.cfg.JavaScriptCoreDir)
	}

	l.cfg.Log.Info("Starting automation server",
		zap.String("command", cmd.String()),
		zap.Int("port", l.cfg.Port))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launching server command: %w", err)
	}

	handle := &processHandle{
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", l.cfg.Port),
		client:  &http.Client{},
		cmd:     cmd,
		waitCh:  make(chan error, 1),
		log:     l.cfg.Log,
	}
	go func() {
		handle.waitCh <- cmd.Wait()
	}()

	if err := l.waitReady(ctx, handle); err != nil {
		l.stop(handle)
		return nil, err
	}

	l.cfg.Log.Info("Automation server ready", zap.String("addr", handle.Addr()))
	return handle, nil
}

// waitReady polls the driver endpoint until the server answers, the process
// exits, or the start timeout elapses.
func (l *ProcessLifecycle) waitReady(ctx context.Context, handle *processHandle) error {
	deadline := time.NewTimer(l.cfg.StartTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	probeURL := handle.baseURL + driverPath + "?cmd=status"
	for {
		select {
		case err := <-handle.waitCh:
			handle.exited = true
			return fmt.Errorf("server process exited before becoming ready: %v", err)
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("server not ready after %s", l.cfg.StartTimeout)
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, readyPollInterval)
			req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, probeURL, nil)
			if err != nil {
				cancel()
				return err
			}
			resp, err := handle.client.Do(req)
			cancel()
			if err != nil {
				continue // not listening yet
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return nil
		}
	}
}

// stop shuts the server down, politely first, then by force. Errors are
// logged only; cleanup is best-effort and must not mask the run's outcome.
func (l *ProcessLifecycle) stop(handle *processHandle) {
	if handle.exited {
		return
	}

	l.cfg.Log.Info("Stopping automation server", zap.String("addr", handle.Addr()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(shutdownCtx, http.MethodGet,
		handle.baseURL+driverPath+"?cmd="+shutdownCommand, nil)
	if err == nil {
		if resp, reqErr := handle.client.Do(req); reqErr == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
	}

	select {
	case err := <-handle.waitCh:
		if err != nil {
			l.cfg.Log.Warn("Automation server exited with error", zap.Error(err))
		}
	case <-time.After(stopWaitTimeout):
		l.cfg.Log.Warn("Automation server did not exit in time, killing it")
		if err := handle.cmd.Process.Kill(); err != nil {
			l.cfg.Log.Error("Failed to kill automation server", zap.Error(err))
			return
		}
		<-handle.waitCh
	}
	handle.exited = true
}

// processHandle talks to a running server over its HTTP driver endpoint.
type processHandle struct {
	baseURL string
	client  *http.Client
	cmd     *exec.Cmd
	waitCh  chan error
	exited  bool
	log     *zap.Logger
}

// Addr implements the Handle interface.
func (h *processHandle) Addr() string {
	return h.baseURL
}

// RunSuite implements the Handle interface.
func (h *processHandle) RunSuite(ctx context.Context, execution SuiteExecution) (string, error) {
	form := url.Values{}
	form.Set("cmd", runSuiteCommand)
	form.Set("browser", execution.Browser)
	form.Set("startURL", execution.StartURL)
	form.Set("suiteFile", execution.SuiteFile)
	form.Set("resultsFile", execution.ResultsFile)
	form.Set("timeoutInSeconds", strconv.Itoa(int(execution.Timeout.Seconds())))
	form.Set("multiWindow", strconv.FormatBool(execution.MultiWindow))

	// Timeout enforcement belongs to the server; this only bounds a hung
	// connection.
	ctx, cancel := context.WithTimeout(ctx, execution.Timeout+runSuiteGrace)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+driverPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building suite execution request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("suite execution request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading suite execution response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("suite execution request returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}
