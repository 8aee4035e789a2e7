package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/pharmgx-twin-server/internal/domain"
)

// ResilientExplainer wraps the explanation client with a circuit breaker and
// an optional cache. When the breaker is open, cached narratives still serve;
// otherwise the caller degrades to no narrative.
type ResilientExplainer struct {
	client  *ExplainClient
	cache   *CacheClient
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewResilientExplainer creates a resilient explainer. cache may be nil when
// Redis is not configured.
func NewResilientExplainer(client *ExplainClient, cache *CacheClient, logger *logrus.Logger) *ResilientExplainer {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "explain",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientExplainer{
		client:  client,
		cache:   cache,
		breaker: breaker,
		log:     logger,
	}
}

// Explain returns a narrative for the assessment, consulting the cache first
// and recording fresh responses back into it.
func (r *ResilientExplainer) Explain(ctx context.Context, assessment *domain.DrugRiskAssessment) (string, error) {
	if r.cache != nil {
		if text, found, err := r.cache.GetExplanation(ctx, assessment); err == nil && found {
			return text, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Explain(ctx, assessment)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", fmt.Errorf("explain service unavailable (circuit breaker open)")
		}
		return "", fmt.Errorf("explain call failed: %w", err)
	}

	text := result.(string)

	if r.cache != nil {
		if cacheErr := r.cache.SetExplanation(ctx, assessment, text, 0); cacheErr != nil {
			r.log.WithError(cacheErr).Warn("Failed to cache explanation")
		}
	}

	return text, nil
}

// State returns the current circuit breaker state.
func (r *ResilientExplainer) State() gobreaker.State {
	return r.breaker.State()
}

// Counts returns the circuit breaker counters.
func (r *ResilientExplainer) Counts() gobreaker.Counts {
	return r.breaker.Counts()
}
