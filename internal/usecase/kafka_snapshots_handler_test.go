package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"SwingDesk/internal/domain/models"
	mid "SwingDesk/internal/middleware"
	"SwingDesk/internal/services/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(t *testing.T, ind models.IndicatorSnapshot) []byte {
	t.Helper()
	b, err := json.Marshal(models.SnapshotEvent{Indicators: ind})
	require.NoError(t, err)
	return b
}

func TestKafkaSnapshotsHandler(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewDecisionSink(BackendKafka, pub, nil, &nopMetrics{}, nil)
	pipe := mid.NewDecisionPipeline(engine.New(), sink, &nopMetrics{}, mid.WithSource("kafka"), mid.WithMinInterval(time.Hour))
	h := NewKafkaSnapshotsHandler("swingdesk.snapshots", pipe, nil)

	assert.Equal(t, "swingdesk.snapshots", h.Topic())

	require.NoError(t, h.Handle(context.Background(), payload(t, snap("BRK", true))))
	require.Len(t, pub.recs, 1)
	assert.Equal(t, "BRK", pub.recs[0].Ticker)
	assert.Equal(t, "kafka", pub.recs[0].Source)

	// repeated symbol inside the throttle window is dropped without error
	require.NoError(t, h.Handle(context.Background(), payload(t, snap("BRK", true))))
	assert.Len(t, pub.recs, 1)

	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))

	bad := snap("BAD", false)
	bad.Low = 200
	assert.ErrorIs(t, h.Handle(context.Background(), payload(t, bad)), mid.ErrInvalidSnapshot)
}

func TestKafkaSnapshotsHandler_SinkFailureIsDeferred(t *testing.T) {
	sink := NewDecisionSink(BackendKafka, &fakePublisher{err: errors.New("down")}, nil, &nopMetrics{}, nil)
	pipe := mid.NewDecisionPipeline(engine.New(), sink, &nopMetrics{})
	h := NewKafkaSnapshotsHandler("t", pipe, nil)

	assert.NoError(t, h.Handle(context.Background(), payload(t, snap("BRK", true))))
	assert.Equal(t, 1, pipe.Buffered())
}
