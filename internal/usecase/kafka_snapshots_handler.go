package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"SwingDesk/internal/domain/models"
	mid "SwingDesk/internal/middleware"
	pkgkafka "SwingDesk/pkg/kafka"
	applogger "SwingDesk/pkg/logger"
)

// KafkaSnapshotsHandler consumes SnapshotEvent JSON and runs it through the decision pipeline.
type KafkaSnapshotsHandler struct {
	topic string
	pipe  *mid.DecisionPipeline
	log   *applogger.Logger
}

var _ pkgkafka.MessageHandler = (*KafkaSnapshotsHandler)(nil)

func NewKafkaSnapshotsHandler(topic string, pipe *mid.DecisionPipeline, l *applogger.Logger) *KafkaSnapshotsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaSnapshotsHandler{topic: topic, pipe: pipe, log: l.Component("snapshots_handler")}
}

func (h *KafkaSnapshotsHandler) Topic() string { return h.topic }

// Handle returns an error for undecodable or invalid payloads so the consumer
// retries and dead-letters them. Throttled events are dropped. A sink failure is
// not returned: the pipeline has already buffered the decision.
func (h *KafkaSnapshotsHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.SnapshotEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return fmt.Errorf("decode snapshot event: %w", err)
	}

	rec, err := h.pipe.Process(ctx, &ev)
	switch {
	case err == nil:
		h.log.Debug("decision",
			applogger.String("symbol", rec.Ticker),
			applogger.Int("account", rec.AccountID),
			applogger.Int("score", rec.Score),
			applogger.String("trace_id", pkgkafka.TraceID(ctx)),
		)
		return nil
	case errors.Is(err, mid.ErrThrottled):
		return nil
	case errors.Is(err, mid.ErrInvalidSnapshot):
		return err
	default:
		h.log.Warn("sink deferred", applogger.String("symbol", ev.Indicators.Symbol), applogger.Error(err))
		return nil
	}
}
