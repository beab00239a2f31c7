package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"SwingDesk/internal/domain/models"
)

func TestBuildPlan(t *testing.T) {
	ind := breakoutSnapshot()
	pattern := DetectPattern(ind)

	t.Run("references the pivot", func(t *testing.T) {
		for _, id := range []int{1, 3, 5, 7} {
			p := BuildPlan(id, ind, pattern)
			assert.True(t, anyContains(p.Entry, "$100.00"), "account %d entry: %v", id, p.Entry)
		}
		p := BuildPlan(3, ind, pattern)
		assert.Contains(t, p.Stop, "Stop 3% under pivot $97.00")
	})

	t.Run("varies by account", func(t *testing.T) {
		seen := map[string]int{}
		for id := 1; id <= 7; id++ {
			if id == 2 {
				continue
			}
			p := BuildPlan(id, ind, pattern)
			key := strings.Join(p.Entry, "|") + strings.Join(p.Stop, "|") + strings.Join(p.Exit, "|")
			_, dup := seen[key]
			assert.False(t, dup, "account %d duplicates account %d", id, seen[key])
			seen[key] = id
		}
	})

	t.Run("falls back to the 20 day high", func(t *testing.T) {
		p := BuildPlan(5, ind, models.PatternResult{Stage: models.StageNone})
		assert.Contains(t, p.Entry, "Alert at pivot $100.00")
	})

	t.Run("unassigned gets empty plan", func(t *testing.T) {
		for _, id := range []int{0, 2, 8, 9} {
			p := BuildPlan(id, ind, pattern)
			assert.Empty(t, p.Entry)
			assert.Empty(t, p.Stop)
			assert.Empty(t, p.Exit)
			assert.NotNil(t, p.Entry)
		}
	})

	t.Run("earnings warning", func(t *testing.T) {
		near := ind
		near.DaysToEarnings = intPtr(5)

		assert.Contains(t, BuildPlan(3, near, pattern).Entry, "Earnings in 5 trading days: no new entries")
		assert.NotContains(t, BuildPlan(6, near, pattern).Entry, "Earnings in 5 trading days: no new entries")

		opt := ind
		opt.DaysToEarnings = intPtr(9)
		assert.Contains(t, BuildPlan(7, opt, pattern).Entry, "Earnings in 9 trading days: no new entries")
		assert.NotContains(t, BuildPlan(3, opt, pattern).Entry, "Earnings in 9 trading days: no new entries")
	})
}

func anyContains(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
