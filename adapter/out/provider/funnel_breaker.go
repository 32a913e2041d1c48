// Package provider implements the inbox message listers.
package provider

import (
	"errors"
	"time"

	"funnel_server/pkg/logger"

	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
)

const (
	ProviderIMAP  = "imap"
	ProviderGmail = "gmail"
)

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			var nce *nonCircuitError
			return err == nil || errors.As(err, &nce)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithField("provider", name).Warn("circuit breaker: %s -> %s", from.String(), to.String())
		},
	})
}

// nonCircuitError carries errors the breaker should not count.
type nonCircuitError struct {
	err error
}

func (e *nonCircuitError) Error() string { return e.err.Error() }
func (e *nonCircuitError) Unwrap() error { return e.err }

// execute runs fn through cb. Google API client errors bypass the failure count.
func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := cb.Execute(func() (interface{}, error) {
		v, err := fn()
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != 429 {
			return nil, &nonCircuitError{err: err}
		}
		return v, err
	})
	var nce *nonCircuitError
	if errors.As(err, &nce) {
		return zero, nce.err
	}
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}
