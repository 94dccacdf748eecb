package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acceptor "github.com/selenese/sel-acceptor"
	"github.com/selenese/sel-acceptor/exitcodes"
	"github.com/selenese/sel-acceptor/server"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "suite failure halting the run",
			err:  &acceptor.BuildHaltedError{SuiteName: "SuiteA.html", ResultsFile: "results-SuiteA.html"},
			want: exitcodes.SuiteFailure,
		},
		{
			name: "wrapped suite failure",
			err:  errorsJoin(&acceptor.BuildHaltedError{SuiteName: "SuiteA.html"}),
			want: exitcodes.SuiteFailure,
		},
		{
			name: "configuration error",
			err:  acceptor.NewConfigurationError("browser must be specified"),
			want: exitcodes.RuntimeErr,
		},
		{
			name: "server start failure",
			err:  &server.ServerStartError{Err: errors.New("exec: not found")},
			want: exitcodes.RuntimeErr,
		},
		{
			name: "unclassified error",
			err:  errors.New("something broke"),
			want: exitcodes.RuntimeErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("run failed"), err)
}

func TestNewLogger(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			log, err := newLogger(level)
			require.NoError(t, err, "level %s", level)
			require.NotNil(t, log)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := newLogger("verbose")
		require.Error(t, err)
	})
}
