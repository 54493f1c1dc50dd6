package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c := New()
	c.Set("agg_state::Karnataka", map[string]float64{"x": 1}, time.Minute)

	v, ok := c.Get("agg_state::Karnataka")
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"x": 1}, v)

	_, ok = c.Get("agg_state::Kerala")
	assert.False(t, ok)
}

func TestCache_ExpiryUsesInjectedClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewWithClock(clock)

	c.Set("overview", 42, time.Hour)

	_, ok := c.Get("overview")
	require.True(t, ok)

	clock.Advance(time.Hour + time.Second)

	_, ok = c.Get("overview")
	assert.False(t, ok)

	// The expired entry is dropped on access, so a later Set starts fresh.
	c.Set("overview", 43, time.Hour)
	v, ok := c.Get("overview")
	require.True(t, ok)
	assert.Equal(t, 43, v)
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)

	c.Invalidate()

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestCache_HitRatio(t *testing.T) {
	c := New()
	assert.Equal(t, 0.0, c.HitRatio())

	c.Set("a", 1, time.Hour)
	c.Get("a")
	c.Get("missing")

	assert.Equal(t, 0.5, c.HitRatio())
}
