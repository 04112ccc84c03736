package service

import (
	"errors"
	"time"

	"bank-ledger/pkg/apperror"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger operation names used as metric labels.
const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
)

var (
	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total number of ledger operations by outcome",
		},
		[]string{"operation", "result"},
	)

	ledgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations including lock waits",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	ledgerMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_amount_moved_total",
			Help: "Sum of committed amounts by operation",
		},
		[]string{"operation"},
	)

	eventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_event_publish_errors_total",
			Help: "Total number of transaction events dropped after all retries",
		},
	)
)

// observeOperation records duration and outcome. err is read through a
// pointer so it can be deferred against a named return.
func observeOperation(operation string, start time.Time, err *error) {
	ledgerOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	ledgerOperations.WithLabelValues(operation, resultLabel(*err)).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "error"
}
