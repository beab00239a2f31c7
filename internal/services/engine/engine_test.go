package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingDesk/internal/domain/models"
)

func intPtr(v int) *int { return &v }

// flatSnapshot scores 34 with no pattern, penalty or options bonus.
func flatSnapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Symbol: "FLAT", Price: 100, Close: 100, Open: 100, High: 100, Low: 100, PrevClose: 100,
		Volume: 1000, AvgVol20: 1000, AvgVol50: 1000,
		SMA50: 100, SMA200: 100, EMA9: 100, EMA21: 100,
		RSTrend: models.RSFlat,
	}
}

func breakoutSnapshot() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		Symbol: "BRK", Price: 105, Close: 105, Open: 103, High: 106, Low: 103, PrevClose: 103,
		ChangePct: 1.9,
		Volume:    2000, AvgVol20: 1000, AvgVol50: 1000,
		SMA50: 95, SMA200: 90, EMA9: 10, EMA21: 9,
		RSTrend:      models.RSRising,
		RecentHigh20: 100, RecentLow20: 92,
	}
}

func TestAnalyze_BreakoutExample(t *testing.T) {
	d := Analyze(breakoutSnapshot(), models.OptionsSnapshot{})

	assert.Equal(t, models.StageBreakout, d.Pattern.Stage)
	pivot, ok := d.Pattern.Pivot()
	require.True(t, ok)
	assert.Equal(t, 100.0, pivot)

	assert.GreaterOrEqual(t, d.Score, 90)
	assert.Contains(t, []models.Grade{models.GradeAPlus, models.GradeA}, d.Grade)

	assert.Equal(t, 3, d.AccountID)
	assert.Equal(t, models.StateReady, d.State)
	assert.Equal(t, "BO_TODAY", d.SetupStage)

	assert.Equal(t, []string{
		"Pattern: Breakout",
		"Extended penalty: -8",
		"Trend:25 RS:12 Vol:15",
	}, d.Reasons)
	assert.ElementsMatch(t, []string{TagExtended, TagNoOptions}, d.Tags)
	assert.Equal(t, "BRK", d.Ticker)
	assert.Equal(t, 105.0, d.Price)
	assert.NotEmpty(t, d.EntryPlan)
}

func TestAnalyze_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		ind, opt := randomSnapshot(rng)
		assert.Equal(t, Analyze(ind, opt), Analyze(ind, opt))
	}
}

func TestAnalyze_ScoreBoundsAndGrade(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		ind, opt := randomSnapshot(rng)
		d := Analyze(ind, opt)

		require.GreaterOrEqual(t, d.Score, 0)
		require.LessOrEqual(t, d.Score, 100)
		require.Equal(t, GradeFromScore(d.Score), d.Grade)
		require.GreaterOrEqual(t, d.AccountID, 0)
		require.LessOrEqual(t, d.AccountID, models.MaxBucketID)
		require.Equal(t, len(d.Tags), len(dedupe(d.Tags)), "tags must be unique")
		require.Regexp(t, `^Trend:-?\d+ RS:-?\d+ Vol:-?\d+$`, d.Reasons[len(d.Reasons)-1])
	}
}

func TestAnalyze_DegradedInput(t *testing.T) {
	d := Analyze(models.IndicatorSnapshot{Symbol: "ZERO"}, models.OptionsSnapshot{})

	assert.Equal(t, models.StageNone, d.Pattern.Stage)
	assert.Equal(t, models.Unassigned, d.AccountID)
	assert.Equal(t, models.StateWatch, d.State)
	assert.Equal(t, "NONE", d.SetupStage)
	assert.Empty(t, d.EntryPlan)
	assert.NotNil(t, d.EntryPlan)
}

func TestGradeFromScore(t *testing.T) {
	tests := []struct {
		score int
		want  models.Grade
	}{
		{100, models.GradeAPlus},
		{90, models.GradeAPlus},
		{89, models.GradeA},
		{80, models.GradeA},
		{79, models.GradeBPlus},
		{75, models.GradeBPlus},
		{74, models.GradeB},
		{65, models.GradeB},
		{64, models.GradeC},
		{55, models.GradeC},
		{54, models.GradeD},
		{0, models.GradeD},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFromScore(tt.score), "score %d", tt.score)
	}

	rank := map[models.Grade]int{
		models.GradeD: 0, models.GradeC: 1, models.GradeB: 2,
		models.GradeBPlus: 3, models.GradeA: 4, models.GradeAPlus: 5,
	}
	for s := 1; s <= 100; s++ {
		assert.GreaterOrEqual(t, rank[GradeFromScore(s)], rank[GradeFromScore(s-1)], "score %d", s)
	}
}

func TestGroup(t *testing.T) {
	in := []models.SetupDecision{
		{Ticker: "A", AccountID: 3, Score: 70},
		{Ticker: "B", AccountID: 3, Score: 90},
		{Ticker: "C", AccountID: 0, Score: 40},
		{Ticker: "D", AccountID: 3, Score: 70},
		{Ticker: "E", AccountID: 6, Score: 61},
	}

	got := Group(in)

	require.Len(t, got, models.MaxBucketID+1)
	for id := 0; id <= models.MaxBucketID; id++ {
		assert.NotNil(t, got[id], "bucket %d", id)
	}

	var tickers []string
	for _, d := range got[3] {
		tickers = append(tickers, d.Ticker)
	}
	assert.Equal(t, []string{"B", "A", "D"}, tickers, "sorted desc, ties keep input order")
	assert.Len(t, got[0], 1)
	assert.Len(t, got[6], 1)
	assert.Empty(t, got[1])

	total := 0
	for _, b := range got {
		total += len(b)
	}
	assert.Equal(t, len(in), total)
}

func randomSnapshot(rng *rand.Rand) (models.IndicatorSnapshot, models.OptionsSnapshot) {
	f := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	trends := []models.RSTrend{models.RSRising, models.RSFlat, models.RSFalling, ""}

	low := f(0, 200)
	ind := models.IndicatorSnapshot{
		Symbol:        "RND",
		Price:         f(0, 250),
		Low:           low,
		High:          low + f(0, 30),
		Volume:        f(0, 5e6),
		AvgVol20:      f(0, 3e6),
		AvgVol50:      f(0, 3e6),
		SMA50:         f(0, 250),
		SMA200:        f(0, 250),
		EMA9:          f(0, 250),
		EMA21:         f(0, 250),
		ChangePct:     f(-10, 10),
		RSTrend:       trends[rng.Intn(len(trends))],
		RecentHigh20:  f(0, 250),
		RecentLow20:   f(0, 200),
		GapPctToday:   f(-0.1, 0.1),
		GapPctPrevDay: f(-0.1, 0.1),
	}
	ind.Close = ind.Price
	if rng.Intn(3) == 0 {
		ind.DaysToEarnings = intPtr(rng.Intn(30))
	}
	ind.EarningsMoveFlag = rng.Intn(10) == 0

	opt := models.OptionsSnapshot{
		HasOptions:   rng.Intn(2) == 0,
		SpreadPct:    f(0, 0.2),
		OpenInterest: rng.Int63n(5000),
		TotalVolume:  rng.Int63n(5000),
	}
	return ind, opt
}
