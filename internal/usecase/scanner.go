package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	domsvc "SwingDesk/internal/domain/service"
	"SwingDesk/internal/services/engine"
	applogger "SwingDesk/pkg/logger"
	"SwingDesk/pkg/util"
)

// Scanner evaluates a ticker universe and groups the decisions into a board.
type Scanner struct {
	source   drepo.SnapshotSource
	analyzer domsvc.Analyzer
	metrics  drepo.Metrics
	log      *applogger.Logger
	workers  int
	timeout  time.Duration
	now      func() time.Time
}

func NewScanner(source drepo.SnapshotSource, analyzer domsvc.Analyzer, metrics drepo.Metrics, l *applogger.Logger, workers int, timeout time.Duration) *Scanner {
	if workers < 1 {
		workers = 1
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Scanner{
		source:   source,
		analyzer: analyzer,
		metrics:  metrics,
		log:      l.Component("scanner"),
		workers:  workers,
		timeout:  timeout,
		now:      time.Now,
	}
}

type scanResult struct {
	decision models.SetupDecision
	ok       bool
}

// Scan fetches and analyzes every symbol. Tickers without a snapshot are skipped.
// Decisions are grouped in universe order, so equal scores keep that order.
func (s *Scanner) Scan(ctx context.Context, symbols []string) models.Board {
	start := s.now()
	results := make([]scanResult, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers && w < len(symbols); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.evaluate(ctx, symbols[i])
			}
		}()
	}
feed:
	for i := range symbols {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	decisions := make([]models.SetupDecision, 0, len(symbols))
	var skipped []string
	for i, r := range results {
		if !r.ok {
			skipped = append(skipped, util.NormalizeSymbol(symbols[i]))
			continue
		}
		decisions = append(decisions, r.decision)
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordScan(elapsed.Seconds(), len(decisions), len(skipped))
	s.log.Info("scan complete",
		applogger.Int("universe", len(symbols)),
		applogger.Int("scanned", len(decisions)),
		applogger.Int("skipped", len(skipped)),
		applogger.Duration("elapsed_ms", elapsed),
	)

	return models.Board{
		Buckets:     engine.Group(decisions),
		GeneratedAt: start.UTC(),
		Scanned:     len(decisions),
		Skipped:     skipped,
	}
}

// Evaluate fetches and analyzes a single ticker.
func (s *Scanner) Evaluate(ctx context.Context, symbol string) (models.SetupDecision, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	fetchStart := time.Now()
	ind, opt, err := s.source.Fetch(ctx, util.NormalizeSymbol(symbol))
	s.metrics.RecordLatency("fetch", time.Since(fetchStart).Seconds())
	if err != nil {
		return models.SetupDecision{}, err
	}
	d := s.analyzer.Analyze(ind, opt)
	s.metrics.RecordDecision(d.AccountID, string(d.State), d.Score)
	return d, nil
}

func (s *Scanner) evaluate(ctx context.Context, symbol string) scanResult {
	if ctx.Err() != nil {
		s.metrics.RecordSkip("canceled")
		return scanResult{}
	}
	d, err := s.Evaluate(ctx, symbol)
	if err != nil {
		reason := skipReason(err)
		s.metrics.RecordSkip(reason)
		s.log.Warn("skip ticker",
			applogger.String("symbol", symbol),
			applogger.String("reason", reason),
			applogger.Error(err),
		)
		return scanResult{}
	}
	return scanResult{decision: d, ok: true}
}

func (s *Scanner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, drepo.ErrNoSnapshot):
		return "no_snapshot"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
