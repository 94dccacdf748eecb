// Package exitcodes defines the standard exit codes used by sel-acceptor.
package exitcodes

// Exit code constants used by sel-acceptor
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every suite passes, or when suite failures are
//   recorded without halting the run
// * SuiteFailure (1): Used when a suite fails under the halt-on-failure policy
// * RuntimeErr (2): Used for configuration errors, server start failures and
//   other runtime errors
const (
	Success      = 0 // All suites pass, or failures recorded without halting
	SuiteFailure = 1 // Suite failure halted the run
	RuntimeErr   = 2 // Configuration or runtime errors
)
