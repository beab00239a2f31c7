package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"SwingDesk/internal/domain/models"
)

func TestScore_Flat(t *testing.T) {
	ind := flatSnapshot()
	sr := Score(ind, models.OptionsSnapshot{}, DetectPattern(ind))

	assert.Equal(t, 34, sr.Score)
	assert.Equal(t, []string{TagNoOptions}, sr.Tags)
	assert.Equal(t, []string{"Trend:-25 RS:4 Vol:-5"}, sr.Reasons)
}

func TestScore_ReasonOrder(t *testing.T) {
	ind := flatSnapshot()
	ind.Price, ind.Close, ind.RecentHigh20 = 100, 100, 100 // near pivot
	ind.EMA21 = 80                                         // extended from ema21

	sr := Score(ind, models.OptionsSnapshot{}, DetectPattern(ind))

	assert.Equal(t, []string{
		"Pattern: Near Pivot (Setting Up)",
		"Extended penalty: -8",
		"Trend:-23 RS:4 Vol:-5",
	}, sr.Reasons)
}

func TestScore_EarningsNoise(t *testing.T) {
	t.Run("move flag always penalizes", func(t *testing.T) {
		ind := flatSnapshot()
		ind.EarningsMoveFlag = true
		sr := Score(ind, models.OptionsSnapshot{}, DetectPattern(ind))

		assert.Equal(t, 34-12, sr.Score)
		assert.Contains(t, sr.Tags, TagEarningsNoise)
	})

	t.Run("move flag tags any snapshot", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		for i := 0; i < 300; i++ {
			ind, opt := randomSnapshot(rng)
			ind.EarningsMoveFlag = true
			assert.Contains(t, Score(ind, opt, DetectPattern(ind)).Tags, TagEarningsNoise)
		}
	})

	tests := []struct {
		name    string
		days    *int
		gap     float64
		prevGap float64
		want    bool
	}{
		{"no earnings date", nil, 0.07, 0, false},
		{"near earnings with gap", intPtr(2), 0.07, 0, true},
		{"earnings today with gap down", intPtr(0), -0.06, 0, true},
		{"earnings too far", intPtr(5), 0.07, 0, false},
		{"near earnings small gap", intPtr(2), 0.05, 0, false},
		{"big prior gap up", nil, 0, 0.08, true},
		{"big prior gap down", nil, 0, -0.09, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := flatSnapshot()
			ind.DaysToEarnings = tt.days
			ind.GapPctToday = tt.gap
			ind.GapPctPrevDay = tt.prevGap

			assert.Equal(t, tt.want, isEarningsNoise(ind))
		})
	}
}

func TestOptionsLiquidity(t *testing.T) {
	tests := []struct {
		name string
		opt  models.OptionsSnapshot
		good bool
		tags []string
	}{
		{"no options", models.OptionsSnapshot{HasOptions: false, SpreadPct: 0.01, OpenInterest: 99999}, false, []string{TagNoOptions}},
		{"liquid", models.OptionsSnapshot{HasOptions: true, SpreadPct: 0.03, OpenInterest: 5000}, true, []string{TagTightSpread, TagGoodOI}},
		{"thresholds inclusive", models.OptionsSnapshot{HasOptions: true, SpreadPct: 0.05, OpenInterest: 1000}, true, []string{TagTightSpread, TagGoodOI}},
		{"wide spread", models.OptionsSnapshot{HasOptions: true, SpreadPct: 0.10, OpenInterest: 5000}, false, []string{TagWideSpread, TagGoodOI}},
		{"thin", models.OptionsSnapshot{HasOptions: true, SpreadPct: 0.02, OpenInterest: 999}, false, []string{TagTightSpread, TagLowOI}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good, tags := optionsLiquidity(tt.opt)
			assert.Equal(t, tt.good, good)
			assert.Equal(t, tt.tags, tags)

			ind := flatSnapshot()
			sr := Score(ind, tt.opt, DetectPattern(ind))
			assert.Equal(t, tt.good, contains(sr.Tags, TagOptionsOK))
		})
	}
}

func TestSubScores(t *testing.T) {
	t.Run("trend", func(t *testing.T) {
		up := models.IndicatorSnapshot{Price: 120, SMA50: 110, SMA200: 100, EMA9: 2, EMA21: 1}
		assert.Equal(t, 25, trendScore(up))

		down := models.IndicatorSnapshot{Price: 80, SMA50: 90, SMA200: 100}
		assert.Equal(t, -25, trendScore(down))

		mixed := models.IndicatorSnapshot{Price: 100, SMA50: 90, SMA200: 110, EMA9: 2, EMA21: 1}
		assert.Equal(t, -7, trendScore(mixed))
	})

	t.Run("relative strength", func(t *testing.T) {
		assert.Equal(t, 12, rsScore(models.IndicatorSnapshot{RSTrend: models.RSRising}))
		assert.Equal(t, 4, rsScore(models.IndicatorSnapshot{RSTrend: models.RSFlat}))
		assert.Equal(t, -10, rsScore(models.IndicatorSnapshot{RSTrend: models.RSFalling}))
		assert.Equal(t, -10, rsScore(models.IndicatorSnapshot{RSTrend: "sideways"}))
	})

	t.Run("volume", func(t *testing.T) {
		assert.Equal(t, 15, volumeScore(models.IndicatorSnapshot{Volume: 1500, AvgVol20: 1000, ChangePct: 1}))
		assert.Equal(t, 3, volumeScore(models.IndicatorSnapshot{Volume: 1500, AvgVol20: 1000, ChangePct: -1}))
		assert.Equal(t, -5, volumeScore(models.IndicatorSnapshot{Volume: 1000, AvgVol20: 1000, ChangePct: 0}))
		assert.Equal(t, 7, volumeScore(models.IndicatorSnapshot{Volume: 1000, AvgVol20: 1000, ChangePct: 0.5}))
	})

	t.Run("extended", func(t *testing.T) {
		assert.Equal(t, 10, extendedPenalty(models.IndicatorSnapshot{Price: 120, SMA50: 100}))
		assert.Equal(t, 8, extendedPenalty(models.IndicatorSnapshot{Price: 115, EMA21: 100}))
		assert.Equal(t, 6, extendedPenalty(models.IndicatorSnapshot{High: 107, Low: 100, Volume: 2000, AvgVol20: 1000}))
		assert.Equal(t, 24, extendedPenalty(models.IndicatorSnapshot{
			Price: 130, SMA50: 100, EMA21: 100, High: 110, Low: 100, Volume: 3000, AvgVol20: 1000,
		}))
		assert.Equal(t, 0, extendedPenalty(models.IndicatorSnapshot{Price: 130, High: 110, Volume: 3000}), "zero averages and low are guarded")
	})
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, dedupe([]string{"b", "a", "b", "c", "a"}))
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
