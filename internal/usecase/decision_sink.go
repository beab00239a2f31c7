package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	applogger "SwingDesk/pkg/logger"
)

const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// ErrHistoryUnavailable means no decision store is configured.
var ErrHistoryUnavailable = errors.New("decision history unavailable")

// DecisionSink routes decisions to the configured backend.
type DecisionSink struct {
	backend string
	pub     drepo.DecisionPublisher
	store   drepo.DecisionStore
	metrics drepo.Metrics
	log     *applogger.Logger
}

// NewDecisionSink builds a sink. pub and store may be nil when their backend is not selected;
// a store is still used for History when present.
func NewDecisionSink(backend string, pub drepo.DecisionPublisher, store drepo.DecisionStore, metrics drepo.Metrics, l *applogger.Logger) *DecisionSink {
	if backend == "" {
		backend = BackendNone
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &DecisionSink{backend: backend, pub: pub, store: store, metrics: metrics, log: l.Component("decision_sink")}
}

func (s *DecisionSink) Backend() string { return s.backend }

// Forward writes records to the backend and returns its error.
func (s *DecisionSink) Forward(ctx context.Context, recs []*models.DecisionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	start := time.Now()
	var err error
	switch s.backend {
	case BackendNone:
		return nil
	case BackendKafka:
		if s.pub == nil {
			return fmt.Errorf("sink %s: publisher not configured", s.backend)
		}
		err = s.pub.PublishBatch(ctx, recs)
	case BackendClickHouse:
		if s.store == nil {
			return fmt.Errorf("sink %s: store not configured", s.backend)
		}
		err = s.store.StoreBatch(ctx, recs)
	default:
		err = fmt.Errorf("unknown backend: %s", s.backend)
	}
	if err != nil {
		s.metrics.RecordSinkError(s.backend)
		return fmt.Errorf("sink %s: %w", s.backend, err)
	}
	s.metrics.RecordLatency("sink_"+s.backend, time.Since(start).Seconds())
	return nil
}

// SinkBoard forwards every decision of a board. Failures are logged and never returned.
func (s *DecisionSink) SinkBoard(ctx context.Context, b models.Board, source string) {
	if s.backend == BackendNone {
		return
	}
	ds := b.Decisions()
	recs := make([]*models.DecisionRecord, 0, len(ds))
	for _, d := range ds {
		recs = append(recs, &models.DecisionRecord{SetupDecision: d, EvaluatedAt: b.GeneratedAt, Source: source})
	}
	if err := s.Forward(ctx, recs); err != nil {
		s.log.Error("sink board failed", applogger.Int("decisions", len(recs)), applogger.Error(err))
	}
}

// History reads a symbol's stored decisions, newest first.
func (s *DecisionSink) History(ctx context.Context, symbol string, limit int) ([]*models.DecisionRecord, error) {
	if s.store == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.store.History(ctx, symbol, limit)
}

// Close releases the backends.
func (s *DecisionSink) Close() error {
	var errs []error
	if s.pub != nil {
		errs = append(errs, s.pub.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}
