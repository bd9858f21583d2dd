package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerNeverGoesNegativeOrAboveDelay(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	tm := NewTimer(c)
	tm.Update(c, 10*time.Second)

	assert.Equal(t, 10*time.Second, tm.TimeLeft(c))

	c.Advance(3 * time.Second)
	left := tm.TimeLeft(c)
	assert.True(t, left >= 0 && left <= tm.Delay())
	assert.Equal(t, 7*time.Second, left)

	c.Advance(100 * time.Second)
	assert.Equal(t, time.Duration(0), tm.TimeLeft(c))
	assert.True(t, tm.HasExpired(c))
}

func TestUpdateNeverShortensAStrongerCooldown(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	tm := NewTimer(c)
	tm.Update(c, 10*time.Second)

	c.Advance(2 * time.Second)
	// A weaker, shorter cooldown must not shorten the 8s remaining.
	tm.Update(c, 1*time.Second)
	assert.Equal(t, 8*time.Second, tm.TimeLeft(c))

	// A stronger cooldown does take effect.
	tm.Update(c, 20*time.Second)
	assert.Equal(t, 20*time.Second, tm.TimeLeft(c))
}

func TestManualClockRejectsBackwardAdvance(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	assert.Panics(t, func() { c.Advance(-1) })
}

func TestDailyAnchorCrossesOncePerDay(t *testing.T) {
	var d DailyAnchor
	day1 := time.Date(2026, 7, 30, 23, 59, 0, 0, time.UTC)
	require.False(t, d.Crossed(day1))
	require.False(t, d.Crossed(day1.Add(30*time.Second)))

	day2 := day1.Add(2 * time.Minute)
	require.True(t, d.Crossed(day2))
	require.False(t, d.Crossed(day2.Add(time.Minute)))
}
