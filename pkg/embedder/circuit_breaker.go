package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/aggrego/pkg/alert"
	"github.com/soundprediction/aggrego/pkg/config"
)

// CircuitBreakerClient wraps a Client with circuit breaking logic.
//
// Embedding calls are the engine's main transient-failure surface. The
// breaker keeps a flaky provider from stalling every materialization run,
// and fires an alert when it trips.
type CircuitBreakerClient struct {
	client  Client
	cb      *gobreaker.CircuitBreaker
	alerter alert.Alerter
	name    string
}

// NewCircuitBreakerClient creates a new circuit breaker client
func NewCircuitBreakerClient(client Client, cfg config.CircuitBreakerConfig, alerter alert.Alerter, name string) *CircuitBreakerClient {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				msg := fmt.Sprintf("Circuit Breaker '%s' changed status from %s to %s. Too many embedding failures detected.", name, from, to)
				if alerter != nil {
					_ = alerter.Alert(fmt.Sprintf("URGENT: Circuit Breaker Tripped - %s", name), msg)
				}
			}
		},
	}

	return &CircuitBreakerClient{
		client:  client,
		cb:      gobreaker.NewCircuitBreaker(st),
		alerter: alerter,
		name:    name,
	}
}

// Embed implements Client
func (c *CircuitBreakerClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return resp.([][]float32), nil
}

// EmbedSingle implements Client
func (c *CircuitBreakerClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.EmbedSingle(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return resp.([]float32), nil
}

// Dimensions implements Client
func (c *CircuitBreakerClient) Dimensions() int {
	return c.client.Dimensions()
}

// Close implements Client
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}
