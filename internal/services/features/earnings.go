package features

import (
	"time"

	"github.com/scmhub/calendar"

	"SwingDesk/internal/domain/models"
)

// earningsMoveWindow is how many sessions after a report still count as an earnings move.
const earningsMoveWindow = 2

// TradingCalendar counts sessions on an exchange calendar. Falls back to
// Mon-Fri when the MIC is unknown.
type TradingCalendar struct {
	cal *calendar.Calendar
	loc *time.Location
}

func NewTradingCalendar(mic string) *TradingCalendar {
	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}
	if cal == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		return &TradingCalendar{loc: loc}
	}
	return &TradingCalendar{cal: cal, loc: cal.Loc}
}

func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	t = t.In(tc.loc)
	if tc.cal == nil {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(t)
}

// IsOpen reports whether the exchange is in its regular session at t.
func (tc *TradingCalendar) IsOpen(t time.Time) bool {
	if tc.cal == nil {
		t = t.In(tc.loc)
		if !tc.IsTradingDay(t) {
			return false
		}
		mins := t.Hour()*60 + t.Minute()
		return mins >= 9*60+30 && mins < 16*60
	}
	return tc.cal.IsOpen(t)
}

// SessionsBetween counts trading days in (from, to]. Negative when to is before from.
func (tc *TradingCalendar) SessionsBetween(from, to time.Time) int {
	from, to = tc.day(from), tc.day(to)
	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}
	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if tc.IsTradingDay(d) {
			n++
		}
	}
	return sign * n
}

func (tc *TradingCalendar) day(t time.Time) time.Time {
	t = t.In(tc.loc)
	// noon avoids DST edges when stepping by days
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, tc.loc)
}

// ApplyEarnings fills the earnings fields of s relative to now.
func ApplyEarnings(s *models.IndicatorSnapshot, info models.EarningsInfo, tc *TradingCalendar, now time.Time) {
	s.DaysToEarnings = nil
	s.EarningsMoveFlag = false

	if info.Next != nil {
		if d := tc.SessionsBetween(now, *info.Next); d >= 0 {
			s.DaysToEarnings = &d
		}
	}
	if info.Last != nil {
		since := tc.SessionsBetween(*info.Last, now)
		s.EarningsMoveFlag = since >= 0 && since <= earningsMoveWindow
	}
}
