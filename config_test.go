package acceptor

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zaptest"

	"github.com/selenese/sel-acceptor/flags"
)

func newContext(t *testing.T, args map[string]string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags.Flags {
		require.NoError(t, f.Apply(set))
	}
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	for name, value := range args {
		require.NoError(t, ctx.Set(name, value))
	}
	return ctx
}

func validArgs(t *testing.T) map[string]string {
	t.Helper()
	suiteDir := t.TempDir()
	return map[string]string{
		"suite-directory": suiteDir,
		"browser":         "*firefox",
		"start-url":       "http://localhost:8080",
	}
}

func TestNewConfig(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("valid configuration", func(t *testing.T) {
		args := validArgs(t)
		cfg, err := NewConfig(newContext(t, args), log)
		require.NoError(t, err)
		assert.Equal(t, args["suite-directory"], cfg.SuiteDirectory)
		assert.Equal(t, "*firefox", cfg.Browser)
		assert.True(t, cfg.HaltOnFailure)
		assert.Equal(t, 4444, cfg.Port)
		assert.Equal(t, 1800*time.Second, cfg.Timeout)
		assert.Equal(t, []string{"selenium-server"}, cfg.ServerCommand)
	})

	t.Run("derived results base", func(t *testing.T) {
		args := validArgs(t)
		cfg, err := NewConfig(newContext(t, args), log)
		require.NoError(t, err)
		suiteDirName := filepath.Base(args["suite-directory"])
		assert.Equal(t, "results-firefox-"+suiteDirName, cfg.ResultsBase)
	})

	t.Run("derived results base with modifiers", func(t *testing.T) {
		args := validArgs(t)
		args["multi-window"] = "true"
		args["slow-resources"] = "true"
		cfg, err := NewConfig(newContext(t, args), log)
		require.NoError(t, err)
		suiteDirName := filepath.Base(args["suite-directory"])
		assert.Equal(t, "results-firefox-multiWindow-slowResources-"+suiteDirName, cfg.ResultsBase)
	})

	t.Run("explicit results base wins", func(t *testing.T) {
		args := validArgs(t)
		args["results"] = "my-results"
		cfg, err := NewConfig(newContext(t, args), log)
		require.NoError(t, err)
		assert.Equal(t, "my-results", cfg.ResultsBase)
	})

	t.Run("default properties file in output dir", func(t *testing.T) {
		args := validArgs(t)
		outputDir := t.TempDir()
		args["output-dir"] = outputDir
		cfg, err := NewConfig(newContext(t, args), log)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outputDir, "build.properties"), cfg.PropertiesFile)
	})

	t.Run("missing browser", func(t *testing.T) {
		args := validArgs(t)
		delete(args, "browser")
		_, err := NewConfig(newContext(t, args), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "browser")
	})

	t.Run("missing start URL", func(t *testing.T) {
		args := validArgs(t)
		delete(args, "start-url")
		_, err := NewConfig(newContext(t, args), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("invalid start URL", func(t *testing.T) {
		args := validArgs(t)
		args["start-url"] = "not a url"
		_, err := NewConfig(newContext(t, args), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("suite directory does not exist", func(t *testing.T) {
		args := validArgs(t)
		args["suite-directory"] = filepath.Join(t.TempDir(), "missing")
		_, err := NewConfig(newContext(t, args), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("suite directory is a file", func(t *testing.T) {
		args := validArgs(t)
		file := filepath.Join(t.TempDir(), "suites")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
		args["suite-directory"] = file
		_, err := NewConfig(newContext(t, args), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("missing firefox profile template", func(t *testing.T) {
		args := validArgs(t)
		args["firefox-profile-template"] = filepath.Join(t.TempDir(), "missing")
		_, err := NewConfig(newContext(t, args), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
		assert.Contains(t, err.Error(), "firefox profile template")
	})

	t.Run("server command split on spaces", func(t *testing.T) {
		args := validArgs(t)
		args["server-command"] = "java -jar selenium-server.jar"
		cfg, err := NewConfig(newContext(t, args), log)
		require.NoError(t, err)
		assert.Equal(t, []string{"java", "-jar", "selenium-server.jar"}, cfg.ServerCommand)
	})
}

func TestNewConfigFromFile(t *testing.T) {
	log := zaptest.NewLogger(t)

	writeConfig := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "run.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	t.Run("file supplies required values", func(t *testing.T) {
		suiteDir := t.TempDir()
		path := writeConfig(t, `
suite_directory: `+suiteDir+`
browser: "*chrome"
start_url: http://app.local
halt_on_failure: false
timeout_in_seconds: 600
`)
		cfg, err := NewConfig(newContext(t, map[string]string{"config": path}), log)
		require.NoError(t, err)
		assert.Equal(t, "*chrome", cfg.Browser)
		assert.False(t, cfg.HaltOnFailure)
		assert.Equal(t, 600*time.Second, cfg.Timeout)
	})

	t.Run("flags take precedence over file", func(t *testing.T) {
		suiteDir := t.TempDir()
		path := writeConfig(t, `
suite_directory: `+suiteDir+`
browser: "*chrome"
start_url: http://app.local
`)
		cfg, err := NewConfig(newContext(t, map[string]string{
			"config":  path,
			"browser": "*firefox",
		}), log)
		require.NoError(t, err)
		assert.Equal(t, "*firefox", cfg.Browser)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewConfig(newContext(t, map[string]string{
			"config": filepath.Join(t.TempDir(), "missing.yaml"),
		}), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("malformed file", func(t *testing.T) {
		path := writeConfig(t, "browser: [unclosed")
		_, err := NewConfig(newContext(t, map[string]string{"config": path}), log)
		require.Error(t, err)
		assert.True(t, IsConfigurationError(err))
	})
}
