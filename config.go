package acceptor

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/selenese/sel-acceptor/flags"
	"github.com/selenese/sel-acceptor/results"
)

// Config carries everything a run needs, resolved and validated.
// Values come from CLI flags, optionally overlaid on a YAML file.
type Config struct {
	SuiteDirectory string
	Browser        string
	StartURL       string
	ResultsBase    string
	OutputDir      string

	HaltOnFailure   bool
	FailureProperty string
	PropertiesFile  string

	Port                   int
	Timeout                time.Duration
	JavaScriptCoreDir      string
	MultiWindow            bool
	SlowResources          bool
	FirefoxProfileTemplate string
	UserExtensions         string

	ServerCommand      []string
	ServerStartTimeout time.Duration
	LogDir             string

	Log *zap.Logger
}

// fileConfig mirrors the YAML run-configuration file. Pointer fields
// distinguish "absent" from zero values so flags only lose to values
// the file actually sets.
type fileConfig struct {
	SuiteDirectory         *string `yaml:"suite_directory"`
	Browser                *string `yaml:"browser"`
	StartURL               *string `yaml:"start_url"`
	Results                *string `yaml:"results"`
	OutputDir              *string `yaml:"output_dir"`
	HaltOnFailure          *bool   `yaml:"halt_on_failure"`
	FailureProperty        *string `yaml:"failure_property"`
	PropertiesFile         *string `yaml:"properties_file"`
	Port                   *int    `yaml:"port"`
	TimeoutInSeconds       *int    `yaml:"timeout_in_seconds"`
	JavaScriptCoreDir      *string `yaml:"javascript_core_dir"`
	MultiWindow            *bool   `yaml:"multi_window"`
	SlowResources          *bool   `yaml:"slow_resources"`
	FirefoxProfileTemplate *string `yaml:"firefox_profile_template"`
	UserExtensions         *string `yaml:"user_extensions"`
	ServerCommand          *string `yaml:"server_command"`
	LogDir                 *string `yaml:"log_dir"`
}

// NewConfig builds a validated Config from the CLI context. Flags set on
// the command line take precedence over the configuration file.
func NewConfig(ctx *cli.Context, log *zap.Logger) (*Config, error) {
	cfg := &Config{
		SuiteDirectory:         ctx.String(flags.SuiteDirectory.Name),
		Browser:                ctx.String(flags.Browser.Name),
		StartURL:               ctx.String(flags.StartURL.Name),
		ResultsBase:            ctx.String(flags.Results.Name),
		OutputDir:              ctx.String(flags.OutputDir.Name),
		HaltOnFailure:          ctx.Bool(flags.HaltOnFailure.Name),
		FailureProperty:        ctx.String(flags.FailureProperty.Name),
		PropertiesFile:         ctx.String(flags.PropertiesFile.Name),
		Port:                   ctx.Int(flags.Port.Name),
		Timeout:                time.Duration(ctx.Int(flags.TimeoutInSeconds.Name)) * time.Second,
		JavaScriptCoreDir:      ctx.String(flags.JavaScriptCoreDir.Name),
		MultiWindow:            ctx.Bool(flags.MultiWindow.Name),
		SlowResources:          ctx.Bool(flags.SlowResources.Name),
		FirefoxProfileTemplate: ctx.String(flags.FirefoxProfileTemplate.Name),
		UserExtensions:         ctx.String(flags.UserExtensions.Name),
		ServerCommand:          splitCommand(ctx.String(flags.ServerCommand.Name)),
		ServerStartTimeout:     ctx.Duration(flags.ServerStartTimeout.Name),
		LogDir:                 ctx.String(flags.LogDir.Name),
		Log:                    log,
	}

	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		if err := cfg.applyFile(ctx, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitCommand(command string) []string {
	return strings.Fields(command)
}

// applyFile overlays values from the YAML file for every field the CLI
// did not explicitly set.
func (c *Config) applyFile(ctx *cli.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewConfigurationError("reading config file %s: %v", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return NewConfigurationError("parsing config file %s: %v", path, err)
	}

	setString := func(flagName string, dst *string, src *string) {
		if src != nil && !ctx.IsSet(flagName) {
			*dst = *src
		}
	}
	setBool := func(flagName string, dst *bool, src *bool) {
		if src != nil && !ctx.IsSet(flagName) {
			*dst = *src
		}
	}

	setString(flags.SuiteDirectory.Name, &c.SuiteDirectory, fc.SuiteDirectory)
	setString(flags.Browser.Name, &c.Browser, fc.Browser)
	setString(flags.StartURL.Name, &c.StartURL, fc.StartURL)
	setString(flags.Results.Name, &c.ResultsBase, fc.Results)
	setString(flags.OutputDir.Name, &c.OutputDir, fc.OutputDir)
	setBool(flags.HaltOnFailure.Name, &c.HaltOnFailure, fc.HaltOnFailure)
	setString(flags.FailureProperty.Name, &c.FailureProperty, fc.FailureProperty)
	setString(flags.PropertiesFile.Name, &c.PropertiesFile, fc.PropertiesFile)
	setString(flags.JavaScriptCoreDir.Name, &c.JavaScriptCoreDir, fc.JavaScriptCoreDir)
	setBool(flags.MultiWindow.Name, &c.MultiWindow, fc.MultiWindow)
	setBool(flags.SlowResources.Name, &c.SlowResources, fc.SlowResources)
	setString(flags.FirefoxProfileTemplate.Name, &c.FirefoxProfileTemplate, fc.FirefoxProfileTemplate)
	setString(flags.UserExtensions.Name, &c.UserExtensions, fc.UserExtensions)
	setString(flags.LogDir.Name, &c.LogDir, fc.LogDir)
	if fc.Port != nil && !ctx.IsSet(flags.Port.Name) {
		c.Port = *fc.Port
	}
	if fc.TimeoutInSeconds != nil && !ctx.IsSet(flags.TimeoutInSeconds.Name) {
		c.Timeout = time.Duration(*fc.TimeoutInSeconds) * time.Second
	}
	if fc.ServerCommand != nil && !ctx.IsSet(flags.ServerCommand.Name) {
		c.ServerCommand = splitCommand(*fc.ServerCommand)
	}
	return nil
}

// resolve fills in derived defaults once all sources are merged.
func (c *Config) resolve() error {
	if c.OutputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return NewConfigurationError("determining working directory: %v", err)
		}
		c.OutputDir = cwd
	}
	abs, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return NewConfigurationError("resolving output directory %s: %v", c.OutputDir, err)
	}
	c.OutputDir = abs

	if c.ResultsBase == "" && c.Browser != "" && c.SuiteDirectory != "" {
		base, err := results.DefaultBaseName(c.Browser, c.MultiWindow, c.SlowResources, c.SuiteDirectory)
		if err != nil {
			return err
		}
		c.ResultsBase = base
	}
	if c.PropertiesFile == "" {
		c.PropertiesFile = filepath.Join(c.OutputDir, "build.properties")
	}
	return nil
}

func (c *Config) validate() error {
	if c.Browser == "" {
		return NewConfigurationError("browser must be specified")
	}
	if c.StartURL == "" {
		return NewConfigurationError("start URL must be specified")
	}
	if c.SuiteDirectory == "" {
		return NewConfigurationError("suite directory must be specified")
	}

	if _, err := url.ParseRequestURI(c.StartURL); err != nil {
		return NewConfigurationError("invalid start URL %s: %v", c.StartURL, err)
	}

	info, err := os.Stat(c.SuiteDirectory)
	if err != nil {
		return NewConfigurationError("suite directory %s is not readable: %v", c.SuiteDirectory, err)
	}
	if !info.IsDir() {
		return NewConfigurationError("suite directory %s is not a directory", c.SuiteDirectory)
	}

	for _, check := range []struct {
		label string
		path  string
	}{
		{"firefox profile template", c.FirefoxProfileTemplate},
		{"user extensions file", c.UserExtensions},
		{"javascript core directory", c.JavaScriptCoreDir},
	} {
		if check.path == "" {
			continue
		}
		if _, err := os.Stat(check.path); err != nil {
			return NewConfigurationError("%s %s is not readable: %v", check.label, check.path, err)
		}
	}

	if len(c.ServerCommand) == 0 {
		return NewConfigurationError("server command must be specified")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return NewConfigurationError("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		return NewConfigurationError("timeout must be positive")
	}
	return nil
}

// String summarizes the run configuration for logging, omitting derived
// paths that get logged when they are used.
func (c *Config) String() string {
	return fmt.Sprintf("suiteDirectory=%s browser=%s startURL=%s resultsBase=%s haltOnFailure=%t port=%d timeout=%s",
		c.SuiteDirectory, c.Browser, c.StartURL, c.ResultsBase, c.HaltOnFailure, c.Port, c.Timeout)
}
