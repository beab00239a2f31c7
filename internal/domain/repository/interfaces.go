package repository

import (
	"context"
	"errors"
	"time"

	"SwingDesk/internal/domain/models"
)

// ErrNoSnapshot means the data layer could not produce a snapshot for a ticker.
// Scanners skip the ticker; it is never an engine failure.
var ErrNoSnapshot = errors.New("no snapshot available")

// SnapshotSource supplies the engine inputs for one ticker.
type SnapshotSource interface {
	Fetch(ctx context.Context, symbol string) (models.IndicatorSnapshot, models.OptionsSnapshot, error)
}

// CandleProvider returns daily bars, oldest first.
type CandleProvider interface {
	Name() string
	DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error)
}

type OptionsProvider interface {
	Options(ctx context.Context, symbol string, spot float64) (models.OptionsSnapshot, error)
}

type EarningsProvider interface {
	Earnings(ctx context.Context, symbol string, now time.Time) (models.EarningsInfo, error)
}

type DecisionPublisher interface {
	Publish(ctx context.Context, rec *models.DecisionRecord) error
	PublishBatch(ctx context.Context, recs []*models.DecisionRecord) error
	Close() error
}

type DecisionStore interface {
	Init(ctx context.Context) error // ensure tables
	StoreBatch(ctx context.Context, recs []*models.DecisionRecord) error
	History(ctx context.Context, symbol string, limit int) ([]*models.DecisionRecord, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordScan(seconds float64, scanned, skipped int)
	RecordSkip(reason string)
	RecordDecision(accountID int, state string, score int)
	RecordSinkError(backend string)
	RecordLatency(op string, seconds float64)
}
