package client

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultReconnectDelay is the fixed pause between connection attempts.
// A fixed short delay suits a single-operator dashboard; anything
// fronting real fan-out wants backoff instead.
const DefaultReconnectDelay = 3 * time.Second

// ReconnectPolicy spaces connection attempts at a fixed interval. A
// zero MaxAttempts retries forever.
type ReconnectPolicy struct {
	interval    time.Duration
	maxAttempts int
	clock       clockwork.Clock
}

func NewReconnectPolicy(interval time.Duration, maxAttempts int, clock clockwork.Clock) *ReconnectPolicy {
	if interval <= 0 {
		interval = DefaultReconnectDelay
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ReconnectPolicy{interval: interval, maxAttempts: maxAttempts, clock: clock}
}

// Allow reports whether the numbered attempt (1-based) may proceed.
func (p *ReconnectPolicy) Allow(attempt int) bool {
	return p.maxAttempts <= 0 || attempt <= p.maxAttempts
}

// Wait pauses for the configured interval or until ctx is cancelled.
func (p *ReconnectPolicy) Wait(ctx context.Context) error {
	select {
	case <-p.clock.After(p.interval):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interval reports the configured delay.
func (p *ReconnectPolicy) Interval() time.Duration {
	return p.interval
}
