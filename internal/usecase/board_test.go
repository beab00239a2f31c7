package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"SwingDesk/internal/domain/models"
	"SwingDesk/internal/services/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(src *fakeSource, sink *DecisionSink, maxAge time.Duration) *BoardService {
	s := NewScanner(src, engine.New(), &nopMetrics{}, nil, 2, time.Second)
	return NewBoardService(s, sink, []string{"BRK", "FLAT"}, nil, maxAge, nil)
}

func boardSource() *fakeSource {
	return &fakeSource{snaps: map[string]models.IndicatorSnapshot{
		"BRK":  snap("BRK", true),
		"FLAT": snap("FLAT", false),
	}}
}

func TestBoardService_CurrentCachesUntilStale(t *testing.T) {
	src := boardSource()
	b := newBoard(src, nil, time.Hour)
	now := time.Now()
	b.now = func() time.Time { return now }

	first := b.Current(context.Background())
	assert.Equal(t, 2, first.Scanned)
	assert.EqualValues(t, 2, src.calls.Load())

	b.Current(context.Background())
	assert.EqualValues(t, 2, src.calls.Load())

	now = now.Add(2 * time.Hour)
	b.Current(context.Background())
	assert.EqualValues(t, 4, src.calls.Load())
}

func TestBoardService_Account(t *testing.T) {
	b := newBoard(boardSource(), nil, time.Hour)
	brk := engine.Analyze(snap("BRK", true), models.OptionsSnapshot{})

	v := b.Account(context.Background(), brk.AccountID)
	assert.Equal(t, brk.AccountID, v.Account.ID)
	require.NotEmpty(t, v.Decisions)
	assert.Equal(t, "BRK", v.Decisions[0].Ticker)
	assert.False(t, v.LastUpdated.IsZero())

	unknown := b.Account(context.Background(), 42)
	assert.Equal(t, 1, unknown.Account.ID)

	ref := b.Account(context.Background(), 9)
	assert.Equal(t, "Ref/SOY/401K", ref.Account.Name)
	assert.NotNil(t, ref.Decisions)
	assert.Empty(t, ref.Decisions)
}

func TestBoardService_RefreshSinksAndNotifies(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewDecisionSink(BackendKafka, pub, nil, &nopMetrics{}, nil)
	b := newBoard(boardSource(), sink, time.Hour)

	var got []models.Board
	var mu sync.Mutex
	unsub := b.Subscribe(func(bd models.Board) {
		mu.Lock()
		got = append(got, bd)
		mu.Unlock()
	})

	b.Refresh(context.Background())
	unsub()
	b.Refresh(context.Background())

	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()
	assert.Len(t, pub.recs, 4)
	assert.Equal(t, "scan", pub.recs[0].Source)
}

func TestBoardService_ConcurrentRefreshCoalesces(t *testing.T) {
	src := &fakeSource{
		snaps: map[string]models.IndicatorSnapshot{"BRK": snap("BRK", true)},
		delay: map[string]time.Duration{"BRK": 100 * time.Millisecond},
	}
	s := NewScanner(src, engine.New(), &nopMetrics{}, nil, 1, time.Second)
	b := NewBoardService(s, nil, []string{"BRK"}, nil, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Refresh(context.Background())
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, src.calls.Load())
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.n++
	return nil
}

func TestBoardService_Rescan(t *testing.T) {
	inv := &countingInvalidator{}
	s := NewScanner(boardSource(), engine.New(), &nopMetrics{}, nil, 1, time.Second)
	b := NewBoardService(s, nil, []string{"BRK"}, nil, time.Hour, nil, WithInvalidator(inv))

	b.Rescan(context.Background())
	assert.Equal(t, 1, inv.n)
	_, ok := b.Snapshot()
	assert.True(t, ok)
}
