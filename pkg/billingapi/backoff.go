package billingapi

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before retry number attempt (starting at 1).
type Backoff interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier per attempt with optional jitter.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = 200 * time.Millisecond
	}
	maxInterval := e.MaxInterval
	if maxInterval == 0 {
		maxInterval = 5 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}
	if interval > float64(maxInterval) {
		interval = float64(maxInterval)
	}
	return time.Duration(interval)
}

// NoBackoff retries immediately.
type NoBackoff struct{}

func (NoBackoff) NextInterval(int) time.Duration { return 0 }
