package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/selenese/sel-acceptor/server"
)

const EnvVarPrefix = "SEL_ACCEPTOR"

// DefaultTimeoutInSeconds is the suite timeout budget when none is
// configured (30 minutes).
const DefaultTimeoutInSeconds = 1800

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	SuiteDirectory = &cli.StringFlag{
		Name:    "suite-directory",
		Value:   "",
		EnvVars: prefixEnvVars("SUITE_DIRECTORY"),
		Usage:   "Directory containing the test suite files to run",
	}
	Browser = &cli.StringFlag{
		Name:    "browser",
		Value:   "",
		EnvVars: prefixEnvVars("BROWSER"),
		Usage:   "Browser to run, sentinel-prefixed (eg. '*firefox', '*iexplore', '*custom')",
	}
	StartURL = &cli.StringFlag{
		Name:    "start-url",
		Value:   "",
		EnvVars: prefixEnvVars("START_URL"),
		Usage:   "Base URL the suites run against (eg. 'http://app.example.com')",
	}
	Results = &cli.StringFlag{
		Name:    "results",
		Value:   "",
		EnvVars: prefixEnvVars("RESULTS"),
		Usage:   "Base path for per-suite results files. Defaults to a name derived from browser, flags and suite directory.",
	}
	OutputDir = &cli.StringFlag{
		Name:    "output-dir",
		Value:   "",
		EnvVars: prefixEnvVars("OUTPUT_DIR"),
		Usage:   "Directory results files are created in. Ignored when --results is absolute. Defaults to the working directory.",
	}
	HaltOnFailure = &cli.BoolFlag{
		Name:    "halt-on-failure",
		Value:   true,
		EnvVars: prefixEnvVars("HALT_ON_FAILURE"),
		Usage:   "Stop the run on the first failing suite",
	}
	FailureProperty = &cli.StringFlag{
		Name:    "failure-property",
		Value:   "",
		EnvVars: prefixEnvVars("FAILURE_PROPERTY"),
		Usage:   "Build property to set to 'true' when a suite fails and the run continues",
	}
	Port = &cli.IntFlag{
		Name:    "port",
		Value:   server.DefaultPort,
		EnvVars: prefixEnvVars("PORT"),
		Usage:   "Port the automation server listens on",
	}
	TimeoutInSeconds = &cli.IntFlag{
		Name:    "timeout-in-seconds",
		Value:   DefaultTimeoutInSeconds,
		EnvVars: prefixEnvVars("TIMEOUT_IN_SECONDS"),
		Usage:   "Per-suite timeout budget, enforced by the automation server",
	}
	JavaScriptCoreDir = &cli.StringFlag{
		Name:    "javascript-core-dir",
		Value:   "",
		EnvVars: prefixEnvVars("JAVASCRIPT_CORE_DIR"),
		Usage:   "Custom automation-core directory passed to the server, replacing its baked-in version",
	}
	MultiWindow = &cli.BoolFlag{
		Name:    "multi-window",
		Value:   false,
		EnvVars: prefixEnvVars("MULTI_WINDOW"),
		Usage:   "Run the application under test in its own window instead of an embedded iframe",
	}
	SlowResources = &cli.BoolFlag{
		Name:    "slow-resources",
		Value:   false,
		EnvVars: prefixEnvVars("SLOW_RESOURCES"),
		Usage:   "Debugging toggle that slows down the automation server's resource serving",
	}
	FirefoxProfileTemplate = &cli.StringFlag{
		Name:    "firefox-profile-template",
		Value:   "",
		EnvVars: prefixEnvVars("FIREFOX_PROFILE_TEMPLATE"),
		Usage:   "Firefox profile template directory for the automation server",
	}
	UserExtensions = &cli.StringFlag{
		Name:    "user-extensions",
		Value:   "",
		EnvVars: prefixEnvVars("USER_EXTENSIONS"),
		Usage:   "File containing user extensions for the automation server",
	}
	ServerCommand = &cli.StringFlag{
		Name:    "server-command",
		Value:   "selenium-server",
		EnvVars: prefixEnvVars("SERVER_COMMAND"),
		Usage:   "Automation server command to launch (space-separated arguments allowed)",
	}
	ServerStartTimeout = &cli.DurationFlag{
		Name:    "server-start-timeout",
		Value:   server.DefaultStartTimeout,
		EnvVars: prefixEnvVars("SERVER_START_TIMEOUT"),
		Usage:   "How long to wait for the automation server to become ready",
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOG_DIR"),
		Usage:   "Directory for per-run server logs",
	}
	PropertiesFile = &cli.StringFlag{
		Name:    "properties-file",
		Value:   "",
		EnvVars: prefixEnvVars("PROPERTIES_FILE"),
		Usage:   "Properties file the failure property is written to. Defaults to 'build.properties' in the output directory.",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: prefixEnvVars("CONFIG"),
		Usage:   "YAML run-configuration file; flags set on the command line take precedence",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "Log level (debug, info, warn, error)",
	}
	Tracing = &cli.BoolFlag{
		Name:    "tracing",
		Value:   false,
		EnvVars: prefixEnvVars("TRACING"),
		Usage:   "Enable OpenTelemetry trace export",
	}
	ServeMetrics = &cli.BoolFlag{
		Name:    "serve-metrics",
		Value:   false,
		EnvVars: prefixEnvVars("SERVE_METRICS"),
		Usage:   "Serve Prometheus metrics and healthz endpoints for the duration of the run",
	}
)

var requiredFlags = []cli.Flag{
	SuiteDirectory,
	Browser,
	StartURL,
}

var optionalFlags = []cli.Flag{
	Results,
	OutputDir,
	HaltOnFailure,
	FailureProperty,
	Port,
	TimeoutInSeconds,
	JavaScriptCoreDir,
	MultiWindow,
	SlowResources,
	FirefoxProfileTemplate,
	UserExtensions,
	ServerCommand,
	ServerStartTimeout,
	LogDir,
	PropertiesFile,
	ConfigFile,
	LogLevel,
	Tracing,
	ServeMetrics,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

// CheckRequired verifies the mandatory flags are present on the command
// line. The check is skipped when a configuration file may supply values;
// the merged configuration is validated separately.
func CheckRequired(ctx *cli.Context) error {
	if ctx.IsSet(ConfigFile.Name) {
		return nil
	}
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
