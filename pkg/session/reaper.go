package session

import (
	"context"
	"log/slog"
	"time"
)

// Reaper periodically purges expired sessions. Each sweep is isolated: a
// failed or panicking sweep is logged and the next tick retries naturally,
// so a transient store outage can never stop future sweeps.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	log      *slog.Logger
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithReaperLogger sets the logger for sweep outcomes.
func WithReaperLogger(log *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReaper creates a Reaper sweeping at the given interval. A non-positive
// interval falls back to the manager's configured cleanup interval.
func NewReaper(m *Manager, interval time.Duration, opts ...ReaperOption) *Reaper {
	if interval <= 0 {
		interval = m.cfg.CleanupInterval
	}

	r := &Reaper{
		manager:  m,
		interval: interval,
		log:      m.log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run blocks, sweeping on every tick until the context is cancelled. Meant
// to be launched on its own goroutine at startup.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.InfoContext(ctx, "session reaper disabled")
		return
	}

	r.log.InfoContext(ctx, "session reaper started", slog.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoContext(ctx, "session reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.ErrorContext(ctx, "session sweep panicked", slog.Any("panic", rec))
		}
	}()

	count, err := r.manager.ReapExpired(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "session sweep failed", slog.Any("error", err))
		return
	}
	if count > 0 {
		r.log.InfoContext(ctx, "session sweep removed expired sessions", slog.Int64("count", count))
	}
}
