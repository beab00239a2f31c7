package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"SwingDesk/internal/domain/models"
)

const (
	earningsBlockShort   = 7
	earningsBlockOptions = 10
)

// Plan is the entry/stop/exit guidance for a decision.
type Plan struct {
	Entry []string
	Stop  []string
	Exit  []string
}

// BuildPlan derives plan lines for the assigned account. Unassigned tickers
// get empty plans.
func BuildPlan(accountID int, ind models.IndicatorSnapshot, pattern models.PatternResult) Plan {
	p := Plan{Entry: []string{}, Stop: []string{}, Exit: []string{}}

	pivot, hasPivot := pattern.Pivot()
	if !hasPivot && ind.RecentHigh20 > 0 {
		pivot, hasPivot = ind.RecentHigh20, true
	}

	switch accountID {
	case 1:
		if hasPivot {
			p.Entry = append(p.Entry, "Buy strength through pivot "+px(pivot))
		}
		p.Entry = append(p.Entry, "Add only above today's high "+px(ind.High))
		p.Stop = append(p.Stop, "Stop below 21 EMA "+px(ind.EMA21))
		p.Exit = append(p.Exit, "Trim into +8-10%", "Exit on a close below 9 EMA "+px(ind.EMA9))
	case 3:
		if hasPivot {
			p.Entry = append(p.Entry,
				"Buy pivot "+px(pivot)+" on volume >= 1.4x average",
				"Do not chase above "+px(pivot*1.05))
			p.Stop = append(p.Stop, "Stop 3% under pivot "+px(pivot*0.97))
		}
		p.Stop = append(p.Stop, "Hard stop 7-8% below entry")
		p.Exit = append(p.Exit, "Take 1/3 at +20%", "Trail the rest under 50 SMA "+px(ind.SMA50))
	case 4:
		p.Entry = append(p.Entry, "Buy the high-volume day or next-day follow through")
		p.Stop = append(p.Stop, "Stop below the volume day's low "+px(ind.Low))
		p.Exit = append(p.Exit, "Trail under 21 EMA "+px(ind.EMA21))
	case 5:
		if hasPivot {
			p.Entry = append(p.Entry, "Alert at pivot "+px(pivot))
		}
		p.Entry = append(p.Entry, "Wait for tight closes before the buy point")
		p.Stop = append(p.Stop, "Stop below base low "+px(ind.RecentLow20))
		p.Exit = append(p.Exit, "Sell into +20-25% or on a close below 50 SMA "+px(ind.SMA50))
	case 6:
		p.Entry = append(p.Entry, "Accumulate near 50 SMA "+px(ind.SMA50))
		p.Stop = append(p.Stop, "Review position below 200 SMA "+px(ind.SMA200))
		p.Exit = append(p.Exit, "Hold while 50 SMA > 200 SMA")
	case 7:
		if hasPivot {
			p.Entry = append(p.Entry, "Calls 30-60 DTE, strike near pivot "+px(pivot))
			p.Stop = append(p.Stop, "Exit if the underlying closes back below "+px(pivot))
		}
		p.Stop = append(p.Stop, "Max loss 50% of premium")
		p.Exit = append(p.Exit, "Take profits at +50-100% premium", "Close before expiry week")
	default:
		return p
	}

	if w := earningsWarning(accountID, ind); w != "" {
		p.Entry = append(p.Entry, w)
	}
	return p
}

func earningsWarning(accountID int, ind models.IndicatorSnapshot) string {
	if ind.DaysToEarnings == nil || *ind.DaysToEarnings < 0 {
		return ""
	}
	days := *ind.DaysToEarnings
	block := earningsBlockShort
	if accountID == 7 {
		block = earningsBlockOptions
	} else if accountID == 6 {
		return ""
	}
	if days > block {
		return ""
	}
	return fmt.Sprintf("Earnings in %d trading days: no new entries", days)
}

func px(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}
