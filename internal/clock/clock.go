package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock supplies timestamps to services so tests can pin them.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// New returns the wall clock in UTC.
func New() Clock { return realClock{} }

var Module = fx.Module("clock", fx.Provide(New))
