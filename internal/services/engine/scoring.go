package engine

import (
	"fmt"
	"math"

	"SwingDesk/internal/domain/models"
)

// Tags emitted by Score.
const (
	TagExtended      = "Extended"
	TagEarningsNoise = "EarningsNoise"
	TagNoOptions     = "NoOptions"
	TagTightSpread   = "TightSpread"
	TagWideSpread    = "WideSpread"
	TagGoodOI        = "GoodOI"
	TagLowOI         = "LowOI"
	TagOptionsOK     = "OptionsOK"
)

const (
	baseScore = 60

	extendedFromSMA50 = 0.20
	extendedFromEMA21 = 0.15

	optMaxSpreadPct = 0.05
	optMinOI        = 1000

	earningsPenaltyPoints = 12
)

// ScoreResult is the composite score with its audit trail.
type ScoreResult struct {
	Score   int
	Tags    []string
	Reasons []string

	Trend  int
	RS     int
	Volume int
}

// Score computes the bounded 0..100 composite for a snapshot.
// Reasons are ordered pattern, penalty, summary.
func Score(ind models.IndicatorSnapshot, opt models.OptionsSnapshot, pattern models.PatternResult) ScoreResult {
	var tags, reasons []string

	t := trendScore(ind)
	r := rsScore(ind)
	v := volumeScore(ind)
	base := baseScore + t + r + v

	switch pattern.Stage {
	case models.StageBreakout:
		base += 15
		reasons = append(reasons, "Pattern: Breakout")
	case models.StageNearPivot:
		base += 10
		reasons = append(reasons, "Pattern: Near Pivot (Setting Up)")
	case models.StageBase:
		base += 5
		reasons = append(reasons, "Pattern: Base Building")
	}

	if ep := extendedPenalty(ind); ep > 0 {
		base -= ep
		tags = append(tags, TagExtended)
		reasons = append(reasons, fmt.Sprintf("Extended penalty: -%d", ep))
	}

	if isEarningsNoise(ind) {
		base -= earningsPenaltyPoints
		tags = append(tags, TagEarningsNoise)
	}

	optGood, optTags := optionsLiquidity(opt)
	tags = append(tags, optTags...)
	if optGood {
		tags = append(tags, TagOptionsOK)
	}

	reasons = append(reasons, fmt.Sprintf("Trend:%d RS:%d Vol:%d", t, r, v))

	return ScoreResult{
		Score:   clamp(base, 0, 100),
		Tags:    dedupe(tags),
		Reasons: reasons,
		Trend:   t,
		RS:      r,
		Volume:  v,
	}
}

func trendScore(ind models.IndicatorSnapshot) int {
	s := 0
	s += plusMinus(ind.Price > ind.SMA50, 8)
	s += plusMinus(ind.Price > ind.SMA200, 10)
	s += plusMinus(ind.SMA50 > ind.SMA200, 10)
	if ind.EMA9 > ind.EMA21 {
		s += 5
	}
	return clamp(s, -25, 25)
}

func rsScore(ind models.IndicatorSnapshot) int {
	switch ind.RSTrend {
	case models.RSRising:
		return 12
	case models.RSFlat:
		return 4
	default:
		return -10
	}
}

func volumeScore(ind models.IndicatorSnapshot) int {
	s := 0
	if ind.Volume >= 1.5*ind.AvgVol20 {
		s += 8
	}
	if ind.ChangePct > 0 {
		s += 7
	} else {
		s -= 5
	}
	return clamp(s, -15, 15)
}

func extendedPenalty(ind models.IndicatorSnapshot) int {
	p := 0
	if ind.SMA50 > 0 && (ind.Price-ind.SMA50)/ind.SMA50 >= extendedFromSMA50 {
		p += 10
	}
	if ind.EMA21 > 0 && (ind.Price-ind.EMA21)/ind.EMA21 >= extendedFromEMA21 {
		p += 8
	}
	// climactic action: wide range on heavy volume
	if ind.Low > 0 && (ind.High-ind.Low)/ind.Low >= 0.07 && ind.Volume >= 2.0*ind.AvgVol20 {
		p += 6
	}
	return p
}

func isEarningsNoise(ind models.IndicatorSnapshot) bool {
	if ind.EarningsMoveFlag {
		return true
	}
	if ind.DaysToEarnings != nil && *ind.DaysToEarnings <= 3 && math.Abs(ind.GapPctToday) >= 0.06 {
		return true
	}
	return math.Abs(ind.GapPctPrevDay) >= 0.08
}

func optionsLiquidity(opt models.OptionsSnapshot) (bool, []string) {
	if !opt.HasOptions {
		return false, []string{TagNoOptions}
	}

	tight := opt.SpreadPct <= optMaxSpreadPct
	deep := opt.OpenInterest >= optMinOI

	tags := make([]string, 0, 2)
	if tight {
		tags = append(tags, TagTightSpread)
	} else {
		tags = append(tags, TagWideSpread)
	}
	if deep {
		tags = append(tags, TagGoodOI)
	} else {
		tags = append(tags, TagLowOI)
	}
	return tight && deep, tags
}

func plusMinus(cond bool, n int) int {
	if cond {
		return n
	}
	return -n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dedupe keeps the first occurrence of each tag.
func dedupe(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
