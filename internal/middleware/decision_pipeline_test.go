package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SwingDesk/internal/domain/models"
	"SwingDesk/internal/services/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeForwarder struct {
	mu   sync.Mutex
	recs []*models.DecisionRecord
	err  error
}

func (f *fakeForwarder) Forward(_ context.Context, recs []*models.DecisionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, recs...)
	return nil
}

func (f *fakeForwarder) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

type countingMetrics struct {
	mu    sync.Mutex
	skips map[string]int
}

func (m *countingMetrics) RecordScan(float64, int, int) {}
func (m *countingMetrics) RecordSkip(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.skips == nil {
		m.skips = map[string]int{}
	}
	m.skips[reason]++
}
func (m *countingMetrics) RecordDecision(int, string, int) {}
func (m *countingMetrics) RecordSinkError(string)          {}
func (m *countingMetrics) RecordLatency(string, float64)   {}

func event(symbol string) *models.SnapshotEvent {
	return &models.SnapshotEvent{Indicators: models.IndicatorSnapshot{
		Symbol: symbol, Price: 100, High: 101, Low: 99, Close: 100, PrevClose: 99,
		Volume: 1_000_000, AvgVol20: 1_000_000, AvgVol50: 1_000_000,
		SMA50: 95, SMA200: 90, EMA9: 99, EMA21: 97, RSTrend: models.RSFlat,
		RecentHigh20: 110, RecentLow20: 90,
	}}
}

func TestDecisionPipeline_Process(t *testing.T) {
	fwd := &fakeForwarder{}
	p := NewDecisionPipeline(engine.New(), fwd, &countingMetrics{}, WithSource("kafka"))

	rec, err := p.Process(context.Background(), event("AAPL"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "AAPL", rec.Ticker)
	assert.Equal(t, "kafka", rec.Source)
	assert.Equal(t, engine.Analyze(event("AAPL").Indicators, models.OptionsSnapshot{}), rec.SetupDecision)
	assert.Equal(t, 1, fwd.count())
}

func TestDecisionPipeline_Validation(t *testing.T) {
	m := &countingMetrics{}
	p := NewDecisionPipeline(engine.New(), &fakeForwarder{}, m)

	cases := map[string]func(*models.SnapshotEvent){
		"missing symbol":   func(e *models.SnapshotEvent) { e.Indicators.Symbol = "" },
		"high below low":   func(e *models.SnapshotEvent) { e.Indicators.High = 98 },
		"negative avg vol": func(e *models.SnapshotEvent) { e.Indicators.AvgVol20 = -1 },
		"negative oi":      func(e *models.SnapshotEvent) { e.Options.OpenInterest = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			ev := event("AAPL")
			mutate(ev)
			_, err := p.Process(context.Background(), ev)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
	_, err := p.Process(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Equal(t, len(cases)+1, m.skips["invalid"])
}

func TestDecisionPipeline_Throttle(t *testing.T) {
	now := time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC)
	p := NewDecisionPipeline(engine.New(), &fakeForwarder{}, &countingMetrics{}, WithMinInterval(time.Second))
	p.now = func() time.Time { return now }

	_, err := p.Process(context.Background(), event("AAPL"))
	require.NoError(t, err)

	_, err = p.Process(context.Background(), event("AAPL"))
	assert.ErrorIs(t, err, ErrThrottled)

	_, err = p.Process(context.Background(), event("MSFT"))
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = p.Process(context.Background(), event("AAPL"))
	assert.NoError(t, err)
}

func TestDecisionPipeline_BuffersAndRedelivers(t *testing.T) {
	fwd := &fakeForwarder{err: errors.New("sink down")}
	p := NewDecisionPipeline(engine.New(), fwd, &countingMetrics{}, WithMinInterval(0), WithBufferSize(4))

	rec, err := p.Process(context.Background(), event("AAPL"))
	require.Error(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, p.Buffered())

	fwd.setErr(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return fwd.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDecisionPipeline_BufferFull(t *testing.T) {
	m := &countingMetrics{}
	p := NewDecisionPipeline(engine.New(), &fakeForwarder{err: errors.New("down")}, m, WithMinInterval(0), WithBufferSize(1))

	_, _ = p.Process(context.Background(), event("AAPL"))
	_, _ = p.Process(context.Background(), event("MSFT"))
	assert.Equal(t, 1, p.Buffered())
	assert.Equal(t, 1, m.skips["buffer_full"])
}
