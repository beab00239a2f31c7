package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
)

type fakeSource struct {
	snaps map[string]models.IndicatorSnapshot
	delay map[string]time.Duration
	calls atomic.Int32
}

func (f *fakeSource) Fetch(ctx context.Context, symbol string) (models.IndicatorSnapshot, models.OptionsSnapshot, error) {
	f.calls.Add(1)
	if d := f.delay[symbol]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return models.IndicatorSnapshot{}, models.OptionsSnapshot{}, ctx.Err()
		}
	}
	s, ok := f.snaps[symbol]
	if !ok {
		return models.IndicatorSnapshot{}, models.OptionsSnapshot{}, fmt.Errorf("%s: %w", symbol, drepo.ErrNoSnapshot)
	}
	return s, models.OptionsSnapshot{}, nil
}

type nopMetrics struct {
	mu    sync.Mutex
	skips map[string]int
	scans int
	sinks int
}

func (m *nopMetrics) RecordScan(float64, int, int) {
	m.mu.Lock()
	m.scans++
	m.mu.Unlock()
}

func (m *nopMetrics) RecordSkip(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skips == nil {
		m.skips = map[string]int{}
	}
	m.skips[reason]++
}

func (m *nopMetrics) RecordDecision(int, string, int) {}

func (m *nopMetrics) RecordSinkError(string) {
	m.mu.Lock()
	m.sinks++
	m.mu.Unlock()
}

func (m *nopMetrics) RecordLatency(string, float64) {}

type fakePublisher struct {
	mu     sync.Mutex
	recs   []*models.DecisionRecord
	err    error
	closed bool
}

func (p *fakePublisher) Publish(ctx context.Context, rec *models.DecisionRecord) error {
	return p.PublishBatch(ctx, []*models.DecisionRecord{rec})
}

func (p *fakePublisher) PublishBatch(_ context.Context, recs []*models.DecisionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.recs = append(p.recs, recs...)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type fakeStore struct {
	fakePublisher
	history []*models.DecisionRecord
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) StoreBatch(ctx context.Context, recs []*models.DecisionRecord) error {
	return s.PublishBatch(ctx, recs)
}

func (s *fakeStore) History(_ context.Context, symbol string, limit int) ([]*models.DecisionRecord, error) {
	var out []*models.DecisionRecord
	for _, r := range s.history {
		if r.Ticker == symbol && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) Health(context.Context) error { return errors.New("unused") }

var (
	_ drepo.SnapshotSource    = (*fakeSource)(nil)
	_ drepo.Metrics           = (*nopMetrics)(nil)
	_ drepo.DecisionPublisher = (*fakePublisher)(nil)
	_ drepo.DecisionStore     = (*fakeStore)(nil)
)

// snap builds a valid snapshot. breakout=true scores in the 90s; otherwise the
// ticker is flat and lands in a low-score bucket.
func snap(symbol string, breakout bool) models.IndicatorSnapshot {
	if breakout {
		return models.IndicatorSnapshot{
			Symbol: symbol, Price: 105, Close: 105, Open: 103, High: 106, Low: 103, PrevClose: 103,
			ChangePct: 1.9,
			Volume:    2000, AvgVol20: 1000, AvgVol50: 1000,
			SMA50: 95, SMA200: 90, EMA9: 10, EMA21: 9,
			RSTrend:      models.RSRising,
			RecentHigh20: 100, RecentLow20: 92,
		}
	}
	return models.IndicatorSnapshot{
		Symbol: symbol, Price: 100, Close: 100, Open: 100, High: 100, Low: 100, PrevClose: 100,
		Volume: 1000, AvgVol20: 1000, AvgVol50: 1000,
		SMA50: 100, SMA200: 100, EMA9: 100, EMA21: 100,
		RSTrend: models.RSFlat,
	}
}
