package engine

import (
	"sort"

	"SwingDesk/internal/domain/models"
	"SwingDesk/internal/domain/service"
)

// Engine is the stateless decision pipeline. The zero value is ready to use.
type Engine struct{}

var _ service.Analyzer = (*Engine)(nil)

func New() *Engine { return &Engine{} }

func (e *Engine) Analyze(ind models.IndicatorSnapshot, opt models.OptionsSnapshot) models.SetupDecision {
	return Analyze(ind, opt)
}

// Analyze runs pattern detection, scoring, assignment and planning, in that order.
func Analyze(ind models.IndicatorSnapshot, opt models.OptionsSnapshot) models.SetupDecision {
	pattern := DetectPattern(ind)
	sr := Score(ind, opt, pattern)
	a := Assign(ind, opt, sr.Score, sr.Tags, pattern)
	plan := BuildPlan(a.AccountID, ind, pattern)

	return models.SetupDecision{
		AccountID:  a.AccountID,
		Ticker:     ind.Symbol,
		Grade:      GradeFromScore(sr.Score),
		Score:      sr.Score,
		EntryPlan:  plan.Entry,
		StopPlan:   plan.Stop,
		ExitPlan:   plan.Exit,
		Tags:       sr.Tags,
		Pattern:    pattern,
		Reasons:    sr.Reasons,
		Price:      ind.Price,
		ChangePct:  ind.ChangePct,
		State:      a.State,
		SetupStage: a.SetupStage,
	}
}

// Group buckets decisions by account and sorts each bucket by score,
// descending. Ties keep input order. Buckets 0..MaxBucketID are always present.
func Group(decisions []models.SetupDecision) models.Buckets {
	out := make(models.Buckets, models.MaxBucketID+1)
	for id := 0; id <= models.MaxBucketID; id++ {
		out[id] = []models.SetupDecision{}
	}
	for _, d := range decisions {
		out[d.AccountID] = append(out[d.AccountID], d)
	}
	for id := range out {
		bucket := out[id]
		sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].Score > bucket[j].Score })
	}
	return out
}
