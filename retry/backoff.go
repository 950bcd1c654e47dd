package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy delay before retry number attempt (starting at 1)
type BackoffStrategy interface {
	Next(attempt int) time.Duration
}

// BackoffOption tunes a backoff strategy
type BackoffOption func(*backoffConfig)

type backoffConfig struct {
	multiplier float64
	maxDelay   time.Duration
	jitter     float64
}

func defaultBackoffConfig() *backoffConfig {
	return &backoffConfig{
		multiplier: 2.0,
		maxDelay:   5 * time.Second,
		jitter:     0.2,
	}
}

// WithMultiplier exponential growth factor
func WithMultiplier(m float64) BackoffOption {
	return func(c *backoffConfig) {
		if m > 0 {
			c.multiplier = m
		}
	}
}

// WithMaxDelay delay ceiling
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(c *backoffConfig) {
		if d > 0 {
			c.maxDelay = d
		}
	}
}

// WithJitter random spread ratio in [0, 1]
func WithJitter(ratio float64) BackoffOption {
	return func(c *backoffConfig) {
		if ratio >= 0 && ratio <= 1.0 {
			c.jitter = ratio
		}
	}
}

type exponentialBackoff struct {
	base   time.Duration
	config *backoffConfig
}

// ExponentialBackoff delay = base * multiplier^(attempt-1), capped at the max delay
func ExponentialBackoff(base time.Duration, opts ...BackoffOption) BackoffStrategy {
	config := defaultBackoffConfig()
	for _, opt := range opts {
		opt(config)
	}
	return &exponentialBackoff{base: base, config: config}
}

func (b *exponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(b.base) * math.Pow(b.config.multiplier, float64(attempt-1))
	if delay > float64(b.config.maxDelay) {
		delay = float64(b.config.maxDelay)
	}
	if b.config.jitter > 0 {
		delay = applyJitter(delay, b.config.jitter)
	}
	return time.Duration(delay)
}

type constantBackoff struct {
	delay time.Duration
}

// ConstantBackoff same delay before every retry
func ConstantBackoff(delay time.Duration) BackoffStrategy {
	return &constantBackoff{delay: delay}
}

func (b *constantBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.delay
}

type noBackoff struct{}

// NoBackoff retries immediately
func NoBackoff() BackoffStrategy {
	return noBackoff{}
}

func (noBackoff) Next(int) time.Duration {
	return 0
}

// applyJitter picks a value in [delay*(1-jitter), delay*(1+jitter)]
func applyJitter(delay float64, jitter float64) float64 {
	delta := delay * jitter
	result := delay + (rand.Float64()*2-1)*delta
	if result < 0 {
		return 0
	}
	return result
}
