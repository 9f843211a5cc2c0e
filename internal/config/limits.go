package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Limits bounds user supplied text. Lengths are counted in runes.
type Limits struct {
	GroupNameMax     int `mapstructure:"groupNameMax"`
	GroupPostMax     int `mapstructure:"groupPostMax"`
	StatusMax        int `mapstructure:"statusMax"`
	DirectMessageMax int `mapstructure:"directMessageMax"`
}

func DefaultLimits() Limits {
	return Limits{
		GroupNameMax:     100,
		GroupPostMax:     280,
		StatusMax:        280,
		DirectMessageMax: 1000,
	}
}

type LimitsHolder struct {
	current atomic.Value // holds Limits
}

// NewStaticLimits returns a holder that never reloads.
func NewStaticLimits(l Limits) *LimitsHolder {
	h := &LimitsHolder{}
	h.current.Store(l)
	return h
}

// NewLimitsHolder reads limits.yml when present and keeps watching it.
func NewLimitsHolder() (*LimitsHolder, error) {
	v := viper.New()

	v.SetConfigName("limits")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/chirp")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CHIRP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLimits()
	v.SetDefault("limits.groupNameMax", defaults.GroupNameMax)
	v.SetDefault("limits.groupPostMax", defaults.GroupPostMax)
	v.SetDefault("limits.statusMax", defaults.StatusMax)
	v.SetDefault("limits.directMessageMax", defaults.DirectMessageMax)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	var limits Limits
	if err := v.UnmarshalKey("limits", &limits); err != nil {
		return nil, err
	}
	if err := validateLimits(limits); err != nil {
		return nil, err
	}

	holder := NewStaticLimits(limits)
	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Limits
		if err := v.UnmarshalKey("limits", &updated); err != nil {
			zap.L().Warn("limits reload failed", zap.Error(err))
			return
		}
		if err := validateLimits(updated); err != nil {
			zap.L().Warn("invalid limits ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("limits reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *LimitsHolder) Get() Limits {
	if h == nil {
		return DefaultLimits()
	}
	return h.current.Load().(Limits)
}

func validateLimits(l Limits) error {
	if l.GroupNameMax <= 0 || l.GroupPostMax <= 0 || l.StatusMax <= 0 || l.DirectMessageMax <= 0 {
		return errors.New("limits must be positive")
	}
	return nil
}
