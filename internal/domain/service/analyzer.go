package service

import "SwingDesk/internal/domain/models"

// Analyzer turns one ticker's snapshots into a setup decision. Implementations
// are pure and safe for concurrent use.
type Analyzer interface {
	Analyze(ind models.IndicatorSnapshot, opt models.OptionsSnapshot) models.SetupDecision
}
