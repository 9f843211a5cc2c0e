package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	require.Equal(t, start, c.Now())

	c.Advance(time.Minute)
	require.Equal(t, start.Add(time.Minute), c.Now())
}

func TestRealClockIsUTC(t *testing.T) {
	require.Equal(t, time.UTC, New().Now().Location())
}
