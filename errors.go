package acceptor

import (
	"errors"
	"fmt"
)

// ConfigurationError represents an invalid run configuration: a missing
// mandatory field or an auxiliary path that does not exist or is unreadable.
// It is raised at validation time, before the server starts.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Msg)
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError checks if the error is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return err != nil && errors.As(err, &cfgErr)
}

// BuildHaltedError signals that a suite failed while the halt-on-failure
// policy was active: the overall run is failed and remaining suites were
// skipped. The message points at the failing suite's results file.
type BuildHaltedError struct {
	SuiteName   string
	ResultsFile string
}

func (e *BuildHaltedError) Error() string {
	return fmt.Sprintf("tests failed, see results file for details: %s", e.ResultsFile)
}

// IsBuildHaltedError checks if the error is or wraps a BuildHaltedError
func IsBuildHaltedError(err error) bool {
	var haltErr *BuildHaltedError
	return err != nil && errors.As(err, &haltErr)
}
