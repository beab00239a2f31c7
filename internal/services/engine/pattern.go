package engine

import "SwingDesk/internal/domain/models"

const (
	nearPivotLow  = 0.97
	nearPivotHigh = 1.02
)

// DetectPattern classifies the snapshot against its 20-day pivot.
// NearPivot is checked before Breakout so a price hugging the pivot reads as
// setting up rather than already broken out.
func DetectPattern(ind models.IndicatorSnapshot) models.PatternResult {
	pivot := ind.RecentHigh20

	switch {
	case pivot > 0 && ind.Price/pivot >= nearPivotLow && ind.Price/pivot <= nearPivotHigh:
		return models.PatternResult{
			Name:       "Consolidation",
			Stage:      models.StageNearPivot,
			Confidence: 0.60,
			PivotPrice: &pivot,
			Notes:      "within -3%/+2% of the 20-day high",
		}
	case pivot > 0 && ind.Price > pivot:
		return models.PatternResult{
			Name:       "Breakout",
			Stage:      models.StageBreakout,
			Confidence: 0.70,
			PivotPrice: &pivot,
			Notes:      "closed above the 20-day high",
		}
	case ind.Price < pivot && ind.Price > ind.SMA50:
		return models.PatternResult{
			Name:       "Base",
			Stage:      models.StageBase,
			Confidence: 0.50,
			PivotPrice: &pivot,
			Notes:      "below pivot, holding above the 50-day",
		}
	}

	return models.PatternResult{Name: "None", Stage: models.StageNone}
}
