package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	"SwingDesk/pkg/logger"
)

// Chain tries candle providers in order and returns the first non-empty series.
type Chain struct {
	providers []drepo.CandleProvider
	log       *logger.Logger
	metrics   drepo.Metrics
}

var _ drepo.CandleProvider = (*Chain)(nil)

func NewChain(log *logger.Logger, metrics drepo.Metrics, providers ...drepo.CandleProvider) *Chain {
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{providers: providers, log: log, metrics: metrics}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	var lastErr error
	for _, p := range c.providers {
		start := time.Now()
		candles, err := p.DailyCandles(ctx, symbol)
		if c.metrics != nil {
			c.metrics.RecordLatency("candles_"+p.Name(), time.Since(start).Seconds())
		}

		switch {
		case errors.Is(err, ErrNotConfigured):
			continue
		case err != nil:
			lastErr = err
			c.log.Warn("candle provider failed",
				logger.String("provider", p.Name()),
				logger.String("symbol", symbol),
				logger.Error(err))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		case len(candles) == 0:
			lastErr = fmt.Errorf("%s: %w", p.Name(), ErrNoData)
			continue
		}
		return candles, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return nil, fmt.Errorf("%s: %w: %v", symbol, ErrNoData, lastErr)
}
