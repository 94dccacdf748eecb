// Package results manages the per-suite results files the automation server
// writes its reports into.
package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
)

// browserPattern matches a sentinel-prefixed browser identifier such as
// "*firefox" and captures the usable tag.
var browserPattern = regexp.MustCompile(`\*(\w+)`)

const (
	multiWindowLabel   = "multiWindow-"
	slowResourcesLabel = "slowResources-"
)

// InvalidBrowserSpecError indicates the browser identifier could not be
// parsed to synthesize a default results file name.
type InvalidBrowserSpecError struct {
	Browser string
}

func (e *InvalidBrowserSpecError) Error() string {
	return fmt.Sprintf("couldn't parse browser string %q to generate a default results file; specify a results file explicitly", e.Browser)
}

// IsInvalidBrowserSpecError checks if the error is or wraps an InvalidBrowserSpecError.
func IsInvalidBrowserSpecError(err error) bool {
	var specErr *InvalidBrowserSpecError
	return err != nil && errors.As(err, &specErr)
}

// IOError indicates a results file could not be created or written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("can't write to results file %s: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError checks if the error is or wraps an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return err != nil && errors.As(err, &ioErr)
}

// Manager computes and prepares per-suite results file paths.
type Manager struct {
	log *zap.Logger
}

// NewManager creates a results file manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{log: log}
}

// Prepare derives the results file path for a suite and ensures the file
// exists and is writable. The derived path is base + "-" + suiteName,
// resolved against outputDir when relative. Re-derivation with the same
// inputs yields the same path.
func (m *Manager) Prepare(base, outputDir, suiteName string) (string, error) {
	path := base + "-" + suiteName
	if !filepath.IsAbs(path) {
		path = filepath.Join(outputDir, path)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return "", &IOError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &IOError{Path: path, Err: err}
	}

	m.log.Info("Results will go to", zap.String("path", path))
	return path, nil
}

// ExtractBrowserTag pulls the usable browser name out of a sentinel-prefixed
// identifier, e.g. "*firefox" -> "firefox".
func ExtractBrowserTag(browser string) (string, error) {
	match := browserPattern.FindStringSubmatch(browser)
	if match == nil {
		return "", &InvalidBrowserSpecError{Browser: browser}
	}
	return match[1], nil
}

// DefaultBaseName synthesizes the default results base name used when no
// explicit results path is configured:
// "results-" + browserTag + "-" + modifiers + suiteDirName, where modifiers
// carries a label (with trailing dash) per enabled flag.
func DefaultBaseName(browser string, multiWindow, slowResources bool, suiteDirectory string) (string, error) {
	tag, err := ExtractBrowserTag(browser)
	if err != nil {
		return "", err
	}

	modifiers := ""
	if multiWindow {
		modifiers += multiWindowLabel
	}
	if slowResources {
		modifiers += slowResourcesLabel
	}

	return "results-" + tag + "-" + modifiers + filepath.Base(suiteDirectory), nil
}
