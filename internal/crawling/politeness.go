package crawling

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultPolitenessMin is the shortest pause before a detail request.
	DefaultPolitenessMin = 200 * time.Millisecond
	// DefaultPolitenessMax is the longest pause before a detail request.
	DefaultPolitenessMax = 600 * time.Millisecond
)

// Politeness is a randomized pause taken before each request to a site.
type Politeness struct {
	Min time.Duration
	Max time.Duration
}

// DefaultPoliteness returns the 200-600ms delay used for detail pages.
func DefaultPoliteness() Politeness {
	return Politeness{Min: DefaultPolitenessMin, Max: DefaultPolitenessMax}
}

// Delay picks a duration in [Min, Max].
func (p Politeness) Delay() time.Duration {
	lo := max(p.Min, 0)
	if p.Max <= lo {
		return lo
	}
	return lo + rand.N(p.Max-lo+1)
}

// Wait sleeps for Delay or until ctx is done.
func (p Politeness) Wait(ctx context.Context) error {
	d := p.Delay()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
