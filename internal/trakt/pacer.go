package trakt

import (
	"context"
	"sync"
	"time"
)

// Default pacing for the Trakt API: one call every 3s, a 10s cooldown
// after every 10th call, and up to 3 backoff retries on 429.
const (
	defaultInterval      = 3 * time.Second
	defaultCooldown      = 10 * time.Second
	defaultCooldownEvery = 10
	defaultBackoffBase   = 4 * time.Second
	defaultMaxRetries    = 3
)

// pacer serializes outbound calls. Spacing is measured from the completion
// of the previous call, and after every cooldownEvery calls the next call
// waits for the cooldown on top of the normal gap.
//
// mu guards the counters, but wait releases it before sleeping, so the
// spacing guarantee holds only for a single sequential driver.
type pacer struct {
	mu            sync.Mutex
	interval      time.Duration
	cooldown      time.Duration
	cooldownEvery int

	lastDone time.Time
	calls    int
	coolOff  bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newPacer(interval, cooldown time.Duration, every int) *pacer {
	if interval <= 0 {
		interval = defaultInterval
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if every <= 0 {
		every = defaultCooldownEvery
	}
	return &pacer{
		interval:      interval,
		cooldown:      cooldown,
		cooldownEvery: every,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

// wait blocks until the next call is allowed to begin. The caller must
// invoke done once the call has completed.
func (p *pacer) wait(ctx context.Context) error {
	p.mu.Lock()
	gap := p.interval
	if p.coolOff {
		gap += p.cooldown
		p.coolOff = false
	}
	var d time.Duration
	if !p.lastDone.IsZero() {
		d = gap - p.now().Sub(p.lastDone)
	}
	p.mu.Unlock()

	if d > 0 {
		return p.sleep(ctx, d)
	}
	return ctx.Err()
}

// done records the completion of a call and arms the batch cooldown when
// the counter wraps.
func (p *pacer) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastDone = p.now()
	p.calls++
	if p.calls >= p.cooldownEvery {
		p.calls = 0
		p.coolOff = true
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
