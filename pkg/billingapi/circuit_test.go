package billingapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(2, 1, time.Minute)
	cb.now = func() time.Time { return now }

	assert.True(t, cb.Allow())
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.State(), "success resets the failure count")

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State(), "half-open failure reopens")

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())

	cb.RecordFailure()
	cb.RecordFailure()
	cb.Reset()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
}

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	b := ExponentialBackoff{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second}
	assert.Equal(t, time.Duration(0), b.NextInterval(0))
	assert.Equal(t, 100*time.Millisecond, b.NextInterval(1))
	assert.Equal(t, 200*time.Millisecond, b.NextInterval(2))
	assert.Equal(t, 400*time.Millisecond, b.NextInterval(3))
	assert.Equal(t, time.Second, b.NextInterval(10))

	jittered := ExponentialBackoff{InitialInterval: 100 * time.Millisecond, JitterFactor: 0.5}
	for range 20 {
		d := jittered.NextInterval(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), NoBackoff{}.NextInterval(3))
}
