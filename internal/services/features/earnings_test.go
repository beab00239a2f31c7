package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SwingDesk/internal/domain/models"
)

func nyDate(t *testing.T, y int, m time.Month, d int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(y, m, d, 10, 0, 0, 0, loc)
}

func TestSessionsBetween(t *testing.T) {
	tc := NewTradingCalendar("xnys")

	mon := nyDate(t, 2025, time.March, 3)
	thu := nyDate(t, 2025, time.March, 6)
	fri := nyDate(t, 2025, time.March, 7)
	nextMon := nyDate(t, 2025, time.March, 10)

	assert.Equal(t, 3, tc.SessionsBetween(mon, thu))
	assert.Equal(t, 1, tc.SessionsBetween(fri, nextMon), "weekend is skipped")
	assert.Equal(t, 0, tc.SessionsBetween(mon, mon))
	assert.Equal(t, -3, tc.SessionsBetween(thu, mon))
	assert.False(t, tc.IsTradingDay(nyDate(t, 2025, time.March, 8)))
}

func TestApplyEarnings(t *testing.T) {
	tc := NewTradingCalendar("xnys")
	now := nyDate(t, 2025, time.March, 3)

	t.Run("upcoming", func(t *testing.T) {
		next := nyDate(t, 2025, time.March, 6)
		var s models.IndicatorSnapshot
		ApplyEarnings(&s, models.EarningsInfo{Next: &next}, tc, now)

		require.NotNil(t, s.DaysToEarnings)
		assert.Equal(t, 3, *s.DaysToEarnings)
		assert.False(t, s.EarningsMoveFlag)
	})

	t.Run("just reported", func(t *testing.T) {
		last := nyDate(t, 2025, time.February, 28)
		var s models.IndicatorSnapshot
		ApplyEarnings(&s, models.EarningsInfo{Last: &last}, tc, now)

		assert.Nil(t, s.DaysToEarnings)
		assert.True(t, s.EarningsMoveFlag)
	})

	t.Run("old report", func(t *testing.T) {
		last := nyDate(t, 2025, time.February, 24)
		var s models.IndicatorSnapshot
		ApplyEarnings(&s, models.EarningsInfo{Last: &last}, tc, now)

		assert.False(t, s.EarningsMoveFlag)
	})

	t.Run("unknown", func(t *testing.T) {
		d := 4
		s := models.IndicatorSnapshot{DaysToEarnings: &d, EarningsMoveFlag: true}
		ApplyEarnings(&s, models.EarningsInfo{}, tc, now)

		assert.Nil(t, s.DaysToEarnings)
		assert.False(t, s.EarningsMoveFlag)
	})
}
