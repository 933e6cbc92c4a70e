package memory

import (
	"context"
	"time"

	"github.com/raulk/clock"
)

// Delayer stands in for the round trip of a remote call. Swapping it out
// changes how long operations take, never what they do.
type Delayer interface {
	Wait(ctx context.Context) error
}

type fixedDelay struct {
	clock clock.Clock
	d     time.Duration
}

func FixedDelay(c clock.Clock, d time.Duration) Delayer {
	if c == nil {
		c = clock.New()
	}
	return fixedDelay{clock: c, d: d}
}

func (f fixedDelay) Wait(ctx context.Context) error {
	if f.d <= 0 {
		return ctx.Err()
	}
	t := f.clock.Timer(f.d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay completes immediately unless ctx is already done.
var NoDelay Delayer = fixedDelay{d: 0}
