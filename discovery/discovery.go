// Package discovery lists the suite files an acceptance run executes.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/selenese/sel-acceptor/types"
)

// SuiteFilePrefix is the naming convention marker: only directory entries
// whose name starts with this token are treated as suites.
const SuiteFilePrefix = "Suite"

// Discovery lists candidate suite files in a directory.
type Discovery struct {
	log *zap.Logger
}

// New creates a Discovery with the given logger.
func New(log *zap.Logger) *Discovery {
	if log == nil {
		log = zap.NewNop()
	}
	return &Discovery{log: log}
}

// List returns the suites found directly in suiteDirectory, non-recursive.
// Entries not matching the naming convention are silently skipped, as are
// subdirectories. Results are in lexicographic order by file name; the
// original listing-order behavior was platform-dependent and is deliberately
// stabilized here.
func (d *Discovery) List(suiteDirectory string) ([]types.SuiteDescriptor, error) {
	entries, err := os.ReadDir(suiteDirectory)
	if err != nil {
		return nil, fmt.Errorf("listing suite directory %s: %w", suiteDirectory, err)
	}

	var suites []types.SuiteDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, SuiteFilePrefix) {
			continue
		}
		suites = append(suites, types.SuiteDescriptor{
			Name: name,
			Path: filepath.Join(suiteDirectory, name),
		})
	}

	d.log.Debug("Discovered suites",
		zap.String("directory", suiteDirectory),
		zap.Int("count", len(suites)))

	return suites, nil
}
