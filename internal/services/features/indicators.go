package features

import (
	"errors"

	talib "github.com/markcheno/go-talib"

	"SwingDesk/internal/domain/models"
)

// ErrNoCandles is returned when there is nothing to compute indicators from.
var ErrNoCandles = errors.New("no candles")

const (
	pivotWindow = 20
)

// BuildSnapshot computes an IndicatorSnapshot from daily candles ordered oldest first.
// Moving averages that need more history than is available are left at 0.
// Earnings fields are filled separately by ApplyEarnings.
func BuildSnapshot(symbol string, candles []models.Candle) (models.IndicatorSnapshot, error) {
	n := len(candles)
	if n == 0 {
		return models.IndicatorSnapshot{}, ErrNoCandles
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	vols := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		vols[i] = c.Volume
	}

	last := candles[n-1]
	price := last.Close
	prevClose := price
	if n > 1 {
		prevClose = candles[n-2].Close
	}

	s := models.IndicatorSnapshot{
		Symbol:    symbol,
		Price:     price,
		High:      last.High,
		Low:       last.Low,
		Open:      last.Open,
		Close:     price,
		PrevClose: prevClose,
		ChangePct: pctChange(price, prevClose) * 100,

		Volume:   last.Volume,
		AvgVol20: lastSMA(vols, 20),
		AvgVol50: lastSMA(vols, 50),

		SMA50:  lastSMA(closes, 50),
		SMA200: lastSMA(closes, 200),
		EMA9:   lastEMA(closes, 9),
		EMA21:  lastEMA(closes, 21),

		RecentHigh20: windowMax(highs, pivotWindow),
		RecentLow20:  windowMin(lows, pivotWindow),

		GapPctToday: pctChange(last.Open, prevClose),
	}
	if n > 2 {
		s.GapPctPrevDay = pctChange(candles[n-2].Open, candles[n-3].Close)
	}
	s.RSTrend = RSProxy(s.Price, s.SMA50, s.SMA200)

	return s, nil
}

// RSProxy discretizes relative strength from where price sits against its averages.
func RSProxy(price, sma50, sma200 float64) models.RSTrend {
	switch {
	case price > sma50 && sma50 > sma200:
		return models.RSRising
	case price < sma50 && price < sma200:
		return models.RSFalling
	default:
		return models.RSFlat
	}
}

func pctChange(cur, ref float64) float64 {
	if ref <= 0 {
		return 0
	}
	return (cur - ref) / ref
}

func lastSMA(xs []float64, period int) float64 {
	if len(xs) < period {
		return 0
	}
	out := talib.Sma(xs, period)
	return out[len(out)-1]
}

// lastEMA seeds with the SMA of the first period, TA-Lib style.
func lastEMA(xs []float64, period int) float64 {
	if len(xs) < period {
		return 0
	}
	out := talib.Ema(xs, period)
	return out[len(out)-1]
}

// windowMax returns the max of the trailing window, or of everything when shorter.
func windowMax(xs []float64, period int) float64 {
	tail := trailing(xs, period)
	if len(tail) < 2 {
		return tail[0]
	}
	out := talib.Max(tail, len(tail))
	return out[len(out)-1]
}

func windowMin(xs []float64, period int) float64 {
	tail := trailing(xs, period)
	if len(tail) < 2 {
		return tail[0]
	}
	out := talib.Min(tail, len(tail))
	return out[len(out)-1]
}

func trailing(xs []float64, period int) []float64 {
	if len(xs) <= period {
		return xs
	}
	return xs[len(xs)-period:]
}
