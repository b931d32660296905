package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryGetWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c := NewTTL[float64](5 * time.Second)
	c.Now = func() time.Time { return now }

	c.Put("EURUSD", 1.0845)

	v, ok := c.TryGet("EURUSD")
	require.True(t, ok)
	assert.Equal(t, 1.0845, v)

	now = now.Add(4 * time.Second)
	_, ok = c.TryGet("EURUSD")
	assert.True(t, ok)

	now = now.Add(time.Second) // ровно TTL — уже промах
	_, ok = c.TryGet("EURUSD")
	assert.False(t, ok)
}

func TestMissOnUnknownInstrument(t *testing.T) {
	c := NewTTL[int](time.Second)
	_, ok := c.TryGet("XAUUSD")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := NewTTL[int](time.Minute)
	c.Put("EURUSD", 1)
	c.Put("XAUUSD", 2)

	c.Invalidate("EURUSD")
	_, ok := c.TryGet("EURUSD")
	assert.False(t, ok)
	_, ok = c.TryGet("XAUUSD")
	assert.True(t, ok)

	c.InvalidateAll()
	_, ok = c.TryGet("XAUUSD")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTestingModeDisablesCaching(t *testing.T) {
	SetTestingMode(true)
	defer SetTestingMode(false)

	c := NewTTL[int](time.Minute)
	c.Put("EURUSD", 42)
	assert.Equal(t, 0, c.Len(), "Put must be a no-op in testing mode")

	_, ok := c.TryGet("EURUSD")
	assert.False(t, ok)
}

func TestPutRestampsTime(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	c := NewTTL[int](2 * time.Second)
	c.Now = func() time.Time { return now }

	c.Put("EURUSD", 1)
	now = now.Add(1900 * time.Millisecond)
	c.Put("EURUSD", 2)
	now = now.Add(1900 * time.Millisecond)

	v, ok := c.TryGet("EURUSD")
	require.True(t, ok, "second Put must refresh the stamp")
	assert.Equal(t, 2, v)
}
