package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimitError(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"429 status", errors.New("API error 429: too many requests"), true},
		{"resource exhausted", errors.New("rpc error: code = RESOURCE_EXHAUSTED"), true},
		{"quota", errors.New("quota exceeded for model"), true},
		{"rate_limit", errors.New("rate_limit_error: please slow down"), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsRateLimitError(tc.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected time.Duration
	}{
		{"nil", nil, 0},
		{"please retry", errors.New("429: Please retry in 30s"), 30 * time.Second},
		{"retryDelay field", errors.New("RESOURCE_EXHAUSTED retryDelay: 12s"), 12 * time.Second},
		{"fractional seconds", errors.New("Please retry in 2.5s"), 2500 * time.Millisecond},
		{"no delay", errors.New("429: too many requests"), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractRetryDelay(tc.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, 20*time.Second, cfg.CalculateBackoff(0, 0))
	assert.Equal(t, 30*time.Second, cfg.CalculateBackoff(1, 0))
	assert.Equal(t, 45*time.Second, cfg.CalculateBackoff(2, 0))
}

func TestCalculateBackoff_UsesAPIDelay(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	// API delay plus buffer replaces the initial backoff
	assert.Equal(t, 15*time.Second, cfg.CalculateBackoff(0, 10*time.Second))
}

func TestCalculateBackoff_CappedAtMax(t *testing.T) {
	cfg := NewDefaultRetryConfig()

	assert.Equal(t, cfg.MaxBackoff, cfg.CalculateBackoff(10, 0))
	assert.Equal(t, cfg.MaxBackoff, cfg.CalculateBackoff(0, 10*time.Minute))
}
