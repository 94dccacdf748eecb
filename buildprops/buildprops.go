// Package buildprops persists build-scoped properties so downstream build
// steps can react to the run outcome, e.g. a failure property set when a
// suite fails under a record-and-continue policy.
package buildprops

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Store reads and writes a key=value properties file.
type Store struct {
	path string
	log  *zap.Logger
}

// NewStore creates a property store backed by the file at path. The file is
// created on first write.
func NewStore(path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("properties file path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Set writes a property, replacing any existing value for the same name.
// The file is rewritten with keys in sorted order.
func (s *Store) Set(name, value string) error {
	if name == "" {
		return fmt.Errorf("property name is required")
	}

	props, err := s.load()
	if err != nil {
		return err
	}
	props[name] = value

	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&builder, "%s=%s\n", key, props[key])
	}

	if err := os.WriteFile(s.path, []byte(builder.String()), 0644); err != nil {
		return fmt.Errorf("writing properties file %s: %w", s.path, err)
	}

	s.log.Debug("Property set", zap.String("name", name), zap.String("value", value), zap.String("file", s.path))
	return nil
}

// Get returns a property value and whether it was present.
func (s *Store) Get(name string) (string, bool, error) {
	props, err := s.load()
	if err != nil {
		return "", false, err
	}
	value, ok := props[name]
	return value, ok, nil
}

func (s *Store) load() (map[string]string, error) {
	props := make(map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return props, nil
		}
		return nil, fmt.Errorf("reading properties file %s: %w", s.path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return props, nil
}
