package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/pkg/config"
)

const fmpDefaultURL = "https://financialmodelingprep.com"

// FMP reads daily history from Financial Modeling Prep.
type FMP struct {
	providerBase
}

var _ drepo.CandleProvider = (*FMP)(nil)

func NewFMP(cfg config.Provider, limiter *ratelimit.Limiter) *FMP {
	return &FMP{providerBase: newProviderBase("fmp", fmpDefaultURL, cfg, limiter)}
}

type fmpHistory struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date   string  `json:"date"`
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"historical"`
}

func (f *FMP) DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	if f.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var resp fmpHistory
	q := url.Values{"apikey": {f.apiKey}}
	if err := f.getJSONWithRetry(ctx, "/api/v3/historical-price-full/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, err
	}
	if len(resp.Historical) == 0 {
		return nil, fmt.Errorf("fmp %s: %w", symbol, ErrNoData)
	}

	out := make([]models.Candle, 0, len(resp.Historical))
	for _, h := range resp.Historical {
		ts, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			continue
		}
		out = append(out, models.Candle{
			Time: ts, Symbol: symbol,
			Open: h.Open, High: h.High, Low: h.Low, Close: h.Close, Volume: h.Volume,
		})
	}
	// FMP returns newest first
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if len(out) == 0 {
		return nil, fmt.Errorf("fmp %s: %w", symbol, ErrNoData)
	}
	return out, nil
}
