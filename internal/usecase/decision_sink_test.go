package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SwingDesk/internal/domain/models"
	"SwingDesk/internal/services/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recs(symbols ...string) []*models.DecisionRecord {
	out := make([]*models.DecisionRecord, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, &models.DecisionRecord{SetupDecision: models.SetupDecision{Ticker: s}})
	}
	return out
}

func TestDecisionSink_Forward(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		s := NewDecisionSink("", nil, nil, &nopMetrics{}, nil)
		assert.Equal(t, BackendNone, s.Backend())
		assert.NoError(t, s.Forward(context.Background(), recs("AAPL")))
	})

	t.Run("kafka", func(t *testing.T) {
		pub := &fakePublisher{}
		s := NewDecisionSink(BackendKafka, pub, nil, &nopMetrics{}, nil)
		require.NoError(t, s.Forward(context.Background(), recs("AAPL", "MSFT")))
		assert.Len(t, pub.recs, 2)
	})

	t.Run("clickhouse", func(t *testing.T) {
		store := &fakeStore{}
		s := NewDecisionSink(BackendClickHouse, nil, store, &nopMetrics{}, nil)
		require.NoError(t, s.Forward(context.Background(), recs("AAPL")))
		assert.Len(t, store.recs, 1)
	})

	t.Run("backend error is wrapped and counted", func(t *testing.T) {
		m := &nopMetrics{}
		s := NewDecisionSink(BackendKafka, &fakePublisher{err: errors.New("broker down")}, nil, m, nil)
		err := s.Forward(context.Background(), recs("AAPL"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker down")
		assert.Equal(t, 1, m.sinks)
	})

	t.Run("missing publisher", func(t *testing.T) {
		s := NewDecisionSink(BackendKafka, nil, nil, &nopMetrics{}, nil)
		assert.Error(t, s.Forward(context.Background(), recs("AAPL")))
	})

	t.Run("unknown backend", func(t *testing.T) {
		s := NewDecisionSink("s3", nil, nil, &nopMetrics{}, nil)
		assert.Error(t, s.Forward(context.Background(), recs("AAPL")))
	})
}

func TestDecisionSink_SinkBoardNeverFails(t *testing.T) {
	m := &nopMetrics{}
	s := NewDecisionSink(BackendClickHouse, nil, &fakeStore{fakePublisher: fakePublisher{err: errors.New("down")}}, m, nil)
	at := time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC)
	board := models.Board{
		Buckets:     engine.Group([]models.SetupDecision{{Ticker: "AAPL", AccountID: 1}}),
		GeneratedAt: at,
	}
	assert.NotPanics(t, func() { s.SinkBoard(context.Background(), board, "scan") })
	assert.Equal(t, 1, m.sinks)

	store := &fakeStore{}
	ok := NewDecisionSink(BackendClickHouse, nil, store, m, nil)
	ok.SinkBoard(context.Background(), board, "scan")
	require.Len(t, store.recs, 1)
	assert.Equal(t, at, store.recs[0].EvaluatedAt)
	assert.Equal(t, "scan", store.recs[0].Source)
}

func TestDecisionSink_History(t *testing.T) {
	_, err := NewDecisionSink(BackendKafka, &fakePublisher{}, nil, &nopMetrics{}, nil).
		History(context.Background(), "AAPL", 10)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)

	store := &fakeStore{history: append(recs("AAPL", "MSFT"), recs("AAPL")...)}
	got, err := NewDecisionSink(BackendNone, nil, store, &nopMetrics{}, nil).History(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDecisionSink_Close(t *testing.T) {
	pub, store := &fakePublisher{}, &fakeStore{}
	require.NoError(t, NewDecisionSink(BackendKafka, pub, store, &nopMetrics{}, nil).Close())
	assert.True(t, pub.closed)
	assert.True(t, store.closed)
}
