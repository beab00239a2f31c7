package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"SwingDesk/internal/domain/models"
	drepo "SwingDesk/internal/domain/repository"
	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/pkg/config"
	xhttp "SwingDesk/pkg/http"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	lookBack       = 30 * 24 * time.Hour
	lookAhead      = 90 * 24 * time.Hour
	dateLayout     = "2006-01-02"
)

// Client reads the Finnhub earnings calendar.
type Client struct {
	apiKey  string
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	rps     float64
	burst   float64
}

var _ drepo.EarningsProvider = (*Client)(nil)

// New creates a Finnhub earnings client. Without an API key every lookup
// returns an empty EarningsInfo.
func New(cfg config.Provider, limiter *ratelimit.Limiter) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	burst := float64(cfg.Burst)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
		rps:     cfg.RequestsPerSecond,
		burst:   burst,
	}
}

type earningsCalendar struct {
	EarningsCalendar []struct {
		Date   string `json:"date"`
		Symbol string `json:"symbol"`
		Hour   string `json:"hour"` // bmo, amc, dmh
	} `json:"earningsCalendar"`
}

// Earnings returns the nearest report on or after now's date and the latest before it.
func (c *Client) Earnings(ctx context.Context, symbol string, now time.Time) (models.EarningsInfo, error) {
	if c.apiKey == "" {
		return models.EarningsInfo{}, nil
	}
	if c.limiter != nil && c.rps > 0 {
		if err := c.limiter.Wait(ctx, "finnhub", c.burst, c.rps); err != nil {
			return models.EarningsInfo{}, err
		}
	}

	q := url.Values{
		"symbol": {symbol},
		"from":   {now.Add(-lookBack).Format(dateLayout)},
		"to":     {now.Add(lookAhead).Format(dateLayout)},
		"token":  {c.apiKey},
	}
	var resp earningsCalendar
	if err := c.client.GetJSON(ctx, c.baseURL+"/calendar/earnings", q, &resp); err != nil {
		return models.EarningsInfo{}, fmt.Errorf("finnhub earnings %s: %w", symbol, err)
	}

	today := now.Format(dateLayout)
	var info models.EarningsInfo
	for _, e := range resp.EarningsCalendar {
		if e.Symbol != "" && e.Symbol != symbol {
			continue
		}
		d, err := time.ParseInLocation(dateLayout, e.Date, now.Location())
		if err != nil {
			continue
		}
		d = d.Add(12 * time.Hour)
		if e.Date >= today {
			if info.Next == nil || d.Before(*info.Next) {
				next := d
				info.Next = &next
			}
		} else if info.Last == nil || d.After(*info.Last) {
			last := d
			info.Last = &last
		}
	}
	return info, nil
}
