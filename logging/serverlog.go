// Package logging captures the automation server's console output for later
// diagnosis, one log file per run.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/acarl005/stripansi"
)

// RunDirectoryPrefix is the standardized prefix for per-run log directories.
const RunDirectoryPrefix = "run-"

// ServerLogFilename is the file the server's stdout and stderr are written to.
const ServerLogFilename = "server.log"

// ServerLogWriter tees an automation server's combined output into a file,
// stripping ANSI escape sequences so the file stays grep-friendly.
// It is safe for concurrent use; stdout and stderr share one writer.
type ServerLogWriter struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewServerLogWriter creates the per-run log directory under baseDir and
// opens the server log file inside it.
func NewServerLogWriter(baseDir, runID string) (*ServerLogWriter, error) {
	if runID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	runDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", runDir, err)
	}

	path := filepath.Join(runDir, ServerLogFilename)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating server log file %s: %w", path, err)
	}

	return &ServerLogWriter{file: file, path: path}, nil
}

// Path returns the location of the server log file.
func (w *ServerLogWriter) Path() string {
	return w.path
}

// Write implements io.Writer. The reported length always matches the input
// so the writer composes with io.MultiWriter and exec pipes.
func (w *ServerLogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.WriteString(stripansi.Strip(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close flushes and closes the underlying file.
func (w *ServerLogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
