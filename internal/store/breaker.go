package store

import (
	"context"
	"errors"
	"log/slog"

	gobreaker "github.com/sony/gobreaker/v2"

	"medinsight/internal/metrics"
)

func newBreaker(name string, opts Options, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		// Caller cancellation is not a store failure. Store timeouts still count.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Event store circuit breaker changed state",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordBreakerState(name, int(to))
		},
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}
