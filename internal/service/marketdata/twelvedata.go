package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/pkg/config"
)

const twelveDataDefaultURL = "https://api.twelvedata.com"

// TwelveData reads daily history from the Twelve Data time_series endpoint.
type TwelveData struct {
	providerBase
}

var _ drepo.CandleProvider = (*TwelveData)(nil)

func NewTwelveData(cfg config.Provider, limiter *ratelimit.Limiter) *TwelveData {
	return &TwelveData{providerBase: newProviderBase("twelvedata", twelveDataDefaultURL, cfg, limiter)}
}

// Twelve Data encodes numbers as strings.
type tdSeries struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

func (t *TwelveData) DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	if t.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var resp tdSeries
	q := url.Values{
		"symbol":     {symbol},
		"interval":   {"1day"},
		"outputsize": {"365"},
		"order":      {"ASC"},
		"apikey":     {t.apiKey},
	}
	if err := t.getJSONWithRetry(ctx, "/time_series", q, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("twelvedata %s: %s", symbol, resp.Message)
	}

	out := make([]models.Candle, 0, len(resp.Values))
	for _, v := range resp.Values {
		ts, err := time.Parse("2006-01-02", v.Datetime)
		if err != nil {
			continue
		}
		c := models.Candle{Time: ts, Symbol: symbol}
		var perr error
		for _, f := range []struct {
			dst *float64
			src string
		}{{&c.Open, v.Open}, {&c.High, v.High}, {&c.Low, v.Low}, {&c.Close, v.Close}, {&c.Volume, v.Volume}} {
			if *f.dst, perr = strconv.ParseFloat(f.src, 64); perr != nil {
				break
			}
		}
		if perr != nil {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("twelvedata %s: %w", symbol, ErrNoData)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}
