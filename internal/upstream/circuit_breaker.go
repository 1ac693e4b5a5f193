// Newsync - Newsletter Subscription Sync Service
// Copyright 2026 Hyunwoo P. (hyunwoo-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyunwoo-dev/newsync

package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/hyunwoo-dev/newsync/internal/logging"
	"github.com/hyunwoo-dev/newsync/internal/metrics"
	"github.com/hyunwoo-dev/newsync/internal/models"
)

// CircuitBreakerClient wraps Client with the circuit breaker pattern so a
// dead backend stops eating request timeouts.
//
// A rejected call (open circuit) surfaces as ErrServiceUnavailable, the
// same bucket as a backend 5xx, so callers need no breaker-specific
// handling.
//
// DETERMINISM NOTE: gobreaker uses real time for its interval and timeout
// calculations. Tests exercise the wrapped Client directly or trip the
// breaker with real failures.
type CircuitBreakerClient struct {
	client Backend
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// Circuit breaker tuning. Auth errors and denied toggles are reported as
// breaker successes because the backend answered; only unavailability and
// network failures count toward tripping.
const (
	breakerMinRequests  = 10
	breakerFailureRatio = 0.6
)

// NewCircuitBreakerClient wraps a backend client with a circuit breaker.
func NewCircuitBreakerClient(client Backend) *CircuitBreakerClient {
	cbName := "newsletter-backend"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= breakerFailureRatio

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit to newsletter backend")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The backend answered; its answer just wasn't yes.
			return errors.Is(err, ErrAuthRequired)
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a backend call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(operation string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequestsTotal.WithLabelValues(operation, "rejected").Inc()
			logging.Warn().Str("operation", operation).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: circuit breaker open", ErrServiceUnavailable)
		}
		return nil, err
	}
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// FetchSubscriptions retrieves the subscription list with breaker protection.
func (cbc *CircuitBreakerClient) FetchSubscriptions(ctx context.Context, token string) (*FetchResult, error) {
	return castResult[FetchResult](cbc.execute("fetch", func() (interface{}, error) {
		return cbc.client.FetchSubscriptions(ctx, token)
	}))
}

// Toggle subscribes or unsubscribes a category with breaker protection.
func (cbc *CircuitBreakerClient) Toggle(ctx context.Context, token string, category models.CategoryCode, isActive bool, email string) (*ToggleResult, error) {
	return castResult[ToggleResult](cbc.execute("toggle", func() (interface{}, error) {
		return cbc.client.Toggle(ctx, token, category, isActive, email)
	}))
}

// State exposes the current breaker state for the health endpoint.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

// stateToFloat converts circuit breaker state to a numeric metric value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
