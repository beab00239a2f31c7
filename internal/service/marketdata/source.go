package marketdata

import (
	"context"
	"fmt"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	"SwingDesk/internal/services/features"
	"SwingDesk/pkg/cache"
	"SwingDesk/pkg/logger"
)

// Source composes candles, earnings and options into engine inputs.
type Source struct {
	candles  drepo.CandleProvider
	options  drepo.OptionsProvider
	earnings drepo.EarningsProvider
	cal      *features.TradingCalendar
	log      *logger.Logger
	now      func() time.Time
}

var _ drepo.SnapshotSource = (*Source)(nil)

// NewSource builds a Source. options and earnings may be nil.
func NewSource(candles drepo.CandleProvider, options drepo.OptionsProvider, earnings drepo.EarningsProvider,
	cal *features.TradingCalendar, log *logger.Logger) *Source {
	if log == nil {
		log = logger.Nop()
	}
	return &Source{
		candles:  candles,
		options:  options,
		earnings: earnings,
		cal:      cal,
		log:      log,
		now:      time.Now,
	}
}

func (s *Source) Fetch(ctx context.Context, symbol string) (models.IndicatorSnapshot, models.OptionsSnapshot, error) {
	candles, err := s.candles.DailyCandles(ctx, symbol)
	if err != nil {
		return models.IndicatorSnapshot{}, models.OptionsSnapshot{}, fmt.Errorf("%w: %v", drepo.ErrNoSnapshot, err)
	}

	ind, err := features.BuildSnapshot(symbol, candles)
	if err != nil {
		return models.IndicatorSnapshot{}, models.OptionsSnapshot{}, fmt.Errorf("%w: %s: %v", drepo.ErrNoSnapshot, symbol, err)
	}

	if s.earnings != nil && s.cal != nil {
		now := s.now()
		info, err := s.earnings.Earnings(ctx, symbol, now)
		if err != nil {
			s.log.Debug("earnings lookup failed", logger.String("symbol", symbol), logger.Error(err))
		}
		features.ApplyEarnings(&ind, info, s.cal, now)
	}

	var opt models.OptionsSnapshot
	if s.options != nil {
		if opt, err = s.options.Options(ctx, symbol, ind.Price); err != nil {
			s.log.Debug("options lookup failed", logger.String("symbol", symbol), logger.Error(err))
			opt = models.OptionsSnapshot{}
		}
	}

	return ind, opt, nil
}

// CachedSource memoizes snapshot pairs per symbol.
type CachedSource struct {
	next  drepo.SnapshotSource
	cache cache.Service
	ttl   time.Duration
}

var _ drepo.SnapshotSource = (*CachedSource)(nil)

const snapshotKeyPrefix = "snapshot"

func NewCachedSource(next drepo.SnapshotSource, c cache.Service, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl}
}

type cachedPair struct {
	Indicators models.IndicatorSnapshot `json:"indicators"`
	Options    models.OptionsSnapshot   `json:"options"`
}

func (c *CachedSource) Fetch(ctx context.Context, symbol string) (models.IndicatorSnapshot, models.OptionsSnapshot, error) {
	key := cache.GenerateKey(snapshotKeyPrefix, symbol)
	pair, err := cache.GetOrLoad(ctx, c.cache, key, c.ttl, func(ctx context.Context) (cachedPair, error) {
		ind, opt, err := c.next.Fetch(ctx, symbol)
		return cachedPair{Indicators: ind, Options: opt}, err
	})
	if err != nil {
		return models.IndicatorSnapshot{}, models.OptionsSnapshot{}, err
	}
	return pair.Indicators, pair.Options, nil
}

// Invalidate drops every cached snapshot so the next scan fetches fresh data.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, cache.BuildPattern(snapshotKeyPrefix+":"))
}
