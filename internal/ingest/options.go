package ingest

import (
	"context"
	"time"
)

const (
	defaultBlogLimit    = 5
	defaultChannelLimit = 30
	defaultPause        = 500 * time.Millisecond
)

type settings struct {
	now   func() time.Time
	pause time.Duration
	limit int
	sleep func(context.Context, time.Duration) error
}

// Option customises an ingestor.
type Option func(*settings)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPause sets the delay between consecutive remote fetches.
func WithPause(pause time.Duration) Option {
	return func(s *settings) {
		if pause >= 0 {
			s.pause = pause
		}
	}
}

// WithLimit sets the per-source item limit: articles per blog or videos per
// channel.
func WithLimit(limit int) Option {
	return func(s *settings) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithSleep overrides how pauses are taken.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *settings) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

func newSettings(limit int, opts []Option) settings {
	s := settings{
		now:   time.Now,
		pause: defaultPause,
		limit: limit,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func sleepContext(ctx context.Context, d time.Duration) error {
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

// pacer enforces the pause between consecutive fetches of one run.
type pacer struct {
	s       *settings
	started bool
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}
	return p.s.sleep(ctx, p.s.pause)
}
