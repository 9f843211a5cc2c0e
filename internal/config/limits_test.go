package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsHolderNilFallsBackToDefaults(t *testing.T) {
	var h *LimitsHolder
	assert.Equal(t, DefaultLimits(), h.Get())
}

func TestValidateLimitsRejectsNonPositive(t *testing.T) {
	l := DefaultLimits()
	l.GroupPostMax = 0
	assert.Error(t, validateLimits(l))
	assert.NoError(t, validateLimits(DefaultLimits()))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("RATE_LIMIT_MESSAGES_PER_MINUTE", "not-a-number")
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30, cfg.MessagesPerMinute)
	assert.False(t, cfg.IsProduction())
}
