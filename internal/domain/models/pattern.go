package models

// Stage is the chart-pattern stage relative to the 20-day pivot.
type Stage string

const (
	StageNone      Stage = "None"
	StageBase      Stage = "Base"
	StageNearPivot Stage = "NearPivot"
	StageBreakout  Stage = "Breakout"
)

type PatternResult struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	PivotPrice *float64 `json:"pivotPrice,omitempty"`
	Stage      Stage    `json:"stage"`
	Notes      string   `json:"notes,omitempty"`
}

// Pivot returns the pivot price and whether one is set.
func (p PatternResult) Pivot() (float64, bool) {
	if p.PivotPrice == nil {
		return 0, false
	}
	return *p.PivotPrice, true
}
