package chrono

import (
	"context"
	"time"
)

// API is the clock used for timestamps and settling delays.
//
// note: fault injection point
type API interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type StandardImpl struct{}

func (StandardImpl) Now() time.Time {
	return time.Now()
}

func (StandardImpl) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frozen never sleeps and always returns the same time, it records the total time it
// was asked to sleep.
type Frozen struct {
	At    time.Time
	Slept time.Duration
}

func (f *Frozen) Now() time.Time {
	return f.At
}

func (f *Frozen) Sleep(ctx context.Context, d time.Duration) error {
	f.Slept += d
	return ctx.Err()
}
