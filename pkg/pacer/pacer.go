package pacer

import (
	"context"
	"time"
)

// Pacer schedules frames on a fixed interval. Frames the caller could not
// keep up with are skipped rather than run late in a burst.
type Pacer struct {
	config
	next  time.Time
	frame uint64
}

type Option func(cfg *config)

// WithSafety sets the fraction of an interval that must remain before the
// next scheduled frame for it to still be played.
func WithSafety(safety float64) Option {
	return func(cfg *config) {
		cfg.safety = safety
	}
}

// WithSleepJitter wakes the caller this much before a frame is due, to
// absorb oversleeping.
func WithSleepJitter(jitter time.Duration) Option {
	return func(cfg *config) {
		cfg.jitter = jitter
	}
}

// WithClock replaces the wall clock, which tests use to control time.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(cfg *config) {
		cfg.now = now
		cfg.sleep = sleep
	}
}

type config struct {
	interval time.Duration
	safety   float64
	jitter   time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func New(interval time.Duration, opts ...Option) *Pacer {
	cfg := config{
		interval: interval,
		safety:   0.25,
		jitter:   time.Millisecond,
		now:      time.Now,
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Pacer{
		config: cfg,
		next:   time.Time{},
		frame:  0,
	}
}

// Wait blocks until the next frame is due and returns the time it was
// scheduled for.
func (p *Pacer) Wait(ctx context.Context) (time.Time, error) {
	if p.next.IsZero() {
		p.next = p.now()
	}

	d := p.next.Sub(p.now()) - p.jitter
	if d > 0 {
		if err := p.sleep(ctx, d); err != nil {
			return time.Time{}, err
		}
	} else if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return p.next, nil
}

// Done ends the current frame, schedules the next one and reports how many
// frames were skipped.
func (p *Pacer) Done() int {
	end := p.now()
	safety := time.Duration(p.safety * float64(p.interval))

	advanced := 0
	for p.next.Before(end.Add(safety)) {
		p.next = p.next.Add(p.interval)
		advanced++
	}
	p.frame++

	return max(0, advanced-1)
}

// Frame counts the frames played so far.
func (p *Pacer) Frame() uint64 { return p.frame }

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
