package usecase

import (
	"context"
	"sync"
	"time"

	applogger "SwingDesk/pkg/logger"
)

// MarketClock reports whether the exchange is in session.
type MarketClock interface {
	IsOpen(t time.Time) bool
}

// Refresher rescans the board on a fixed interval, optionally only during market hours.
type Refresher struct {
	board       *BoardService
	clock       MarketClock
	interval    time.Duration
	marketHours bool
	log         *applogger.Logger
	now         func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRefresher(board *BoardService, clock MarketClock, interval time.Duration, marketHoursOnly bool, l *applogger.Logger) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Refresher{
		board:       board,
		clock:       clock,
		interval:    interval,
		marketHours: marketHoursOnly,
		log:         l.Component("refresher"),
		now:         time.Now,
	}
}

// Start runs an initial refresh in the background and then one per interval.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop(ctx)
	r.log.Info("started", applogger.Duration("interval_ms", r.interval), applogger.Bool("market_hours_only", r.marketHours))
	return nil
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)
	r.Tick(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Tick(ctx)
		}
	}
}

// Tick refreshes once unless gated by market hours. The very first board is always built.
func (r *Refresher) Tick(ctx context.Context) bool {
	if _, ok := r.board.Snapshot(); ok && r.marketHours && r.clock != nil && !r.clock.IsOpen(r.now()) {
		r.log.Debug("market closed, skipping refresh")
		return false
	}
	r.board.Refresh(ctx)
	return true
}

// Shutdown stops the loop and waits for an in-flight refresh, bounded by ctx.
func (r *Refresher) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
