package marketdata

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/pkg/config"
)

const (
	yahooDefaultURL = "https://query1.finance.yahoo.com"
	atmStrikes      = 5
)

// Yahoo reads the public chart and option-chain endpoints. It needs no API key.
type Yahoo struct {
	providerBase
}

var (
	_ drepo.CandleProvider  = (*Yahoo)(nil)
	_ drepo.OptionsProvider = (*Yahoo)(nil)
)

func NewYahoo(cfg config.Provider, limiter *ratelimit.Limiter) *Yahoo {
	return &Yahoo{providerBase: newProviderBase("yahoo", yahooDefaultURL, cfg, limiter)}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) DailyCandles(ctx context.Context, symbol string) ([]models.Candle, error) {
	var resp yahooChart
	q := url.Values{"range": {"2y"}, "interval": {"1d"}, "includePrePost": {"false"}}
	if err := y.getJSONWithRetry(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	res := resp.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	n := len(res.Timestamp)
	if len(quote.Open) != n || len(quote.High) != n || len(quote.Low) != n ||
		len(quote.Close) != n || len(quote.Volume) != n {
		return nil, fmt.Errorf("yahoo %s: data alignment error", symbol)
	}

	out := make([]models.Candle, 0, n)
	for i, ts := range res.Timestamp {
		// Yahoo emits nulls for halted or partial sessions
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		vol := 0.0
		if quote.Volume[i] != nil {
			vol = *quote.Volume[i]
		}
		out = append(out, models.Candle{
			Time:   time.Unix(ts, 0).UTC(),
			Symbol: symbol,
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: vol,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

type yahooContract struct {
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	OpenInterest int64   `json:"openInterest"`
	Volume       int64   `json:"volume"`
}

type yahooOptions struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Quote           struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64           `json:"expirationDate"`
				Calls          []yahooContract `json:"calls"`
				Puts           []yahooContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
	} `json:"optionChain"`
}

// Options summarizes the nearest expiry. The error is informational; the
// returned snapshot is always usable.
func (y *Yahoo) Options(ctx context.Context, symbol string, spot float64) (models.OptionsSnapshot, error) {
	var resp yahooOptions
	if err := y.getJSON(ctx, "/v7/finance/options/"+url.PathEscape(symbol), nil, &resp); err != nil {
		return models.OptionsSnapshot{}, err
	}
	if len(resp.OptionChain.Result) == 0 {
		return models.OptionsSnapshot{}, nil
	}
	res := resp.OptionChain.Result[0]
	if len(res.ExpirationDates) == 0 || len(res.Options) == 0 {
		return models.OptionsSnapshot{}, nil
	}
	if spot <= 0 {
		spot = res.Quote.RegularMarketPrice
	}
	return summarizeChain(spot, res.Options[0].Calls, res.Options[0].Puts), nil
}

// summarizeChain computes median ATM call spread plus total OI and volume.
func summarizeChain(spot float64, calls, puts []yahooContract) models.OptionsSnapshot {
	snap := models.OptionsSnapshot{HasOptions: true, SpreadPct: 1}

	for _, c := range calls {
		snap.OpenInterest += c.OpenInterest
		snap.TotalVolume += c.Volume
	}
	for _, p := range puts {
		snap.OpenInterest += p.OpenInterest
		snap.TotalVolume += p.Volume
	}

	atm := make([]yahooContract, len(calls))
	copy(atm, calls)
	sort.SliceStable(atm, func(i, j int) bool {
		return math.Abs(atm[i].Strike-spot) < math.Abs(atm[j].Strike-spot)
	})
	if len(atm) > atmStrikes {
		atm = atm[:atmStrikes]
	}

	two := decimal.NewFromInt(2)
	var spreads []decimal.Decimal
	for _, c := range atm {
		bid, ask := decimal.NewFromFloat(c.Bid), decimal.NewFromFloat(c.Ask)
		mid := bid.Add(ask).Div(two)
		if !mid.IsPositive() || ask.LessThan(bid) {
			continue
		}
		spreads = append(spreads, ask.Sub(bid).Div(mid))
	}
	if len(spreads) == 0 {
		return snap
	}

	sort.Slice(spreads, func(i, j int) bool { return spreads[i].LessThan(spreads[j]) })
	mid := len(spreads) / 2
	median := spreads[mid]
	if len(spreads)%2 == 0 {
		median = spreads[mid-1].Add(spreads[mid]).Div(two)
	}
	snap.SpreadPct = median.Round(6).InexactFloat64()
	return snap
}
