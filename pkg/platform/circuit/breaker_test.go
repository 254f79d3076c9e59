package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestBreaker_InitialState(t *testing.T) {
	b := New("redis")
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.Equal(t, "redis", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("redis", WithThreshold(3))

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure(), "third failure opens")
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())

	assert.False(t, b.RecordFailure(), "already open")
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("redis", WithThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("redis", WithThreshold(2), WithCooldown(time.Minute), WithClock(c.now))

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Allow())

	c.t = c.t.Add(30 * time.Second)
	assert.False(t, b.Allow(), "still cooling down")

	c.t = c.t.Add(31 * time.Second)
	assert.True(t, b.Allow(), "half-open after cooldown")
	assert.False(t, b.IsOpen())

	assert.True(t, b.RecordFailure(), "a single failure reopens")
	assert.False(t, b.Allow())
}

func TestBreaker_HalfOpenSuccessCloses(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := New("redis", WithThreshold(2), WithCooldown(time.Minute), WithClock(c.now))

	b.RecordFailure()
	b.RecordFailure()
	c.t = c.t.Add(2 * time.Minute)
	assert.True(t, b.Allow())

	b.RecordSuccess()
	assert.False(t, b.RecordFailure(), "count restarts after success")
	assert.False(t, b.IsOpen())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("redis", WithThreshold(1))

	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}
