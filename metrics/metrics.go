package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/selenese/sel-acceptor/types"
)

const (
	MetricsNamespace = "selacceptor"
)

var (
	validResults         = []types.SuiteStatus{types.SuiteStatusPassed, types.SuiteStatusFailed}
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	suitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suites_total",
		Help:      "Count of executed suites",
	}, []string{
		"run_id",
		"suite",
		"result",
	})

	suiteDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration_seconds",
		Help:      "Duration of individual suite executions",
	}, []string{
		"run_id",
		"suite",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Verdict of acceptance runs",
	}, []string{
		"run_id",
		"result",
	})

	runSuitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_suites_total",
		Help:      "Total number of suites in a run",
	}, []string{
		"run_id",
	})

	runSuitesPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_suites_passed",
		Help:      "Number of passed suites in a run",
	}, []string{
		"run_id",
	})

	runSuitesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_suites_failed",
		Help:      "Number of failed suites in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of acceptance runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordSuite records the outcome of a single suite execution.
func RecordSuite(runID string, suite string, result types.SuiteStatus, duration time.Duration) {
	if !isValidResult(result) {
		return
	}
	suitesTotal.WithLabelValues(runID, suite, string(result)).Inc()
	suiteDuration.WithLabelValues(runID, suite).Set(duration.Seconds())
}

// RecordRun records the aggregate verdict of a whole acceptance run.
func RecordRun(
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runSuitesTotal.WithLabelValues(runID).Add(float64(total))
	runSuitesPassed.WithLabelValues(runID).Add(float64(passed))
	runSuitesFailed.WithLabelValues(runID).Add(float64(failed))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.SuiteStatus) bool {
	return slices.Contains(validResults, result)
}
