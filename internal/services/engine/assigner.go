package engine

import (
	"strings"

	"SwingDesk/internal/domain/models"
)

// Assignment is the bucket, readiness and stage chosen for a ticker.
type Assignment struct {
	AccountID  int
	State      models.State
	SetupStage string
	Rule       string // name of the rule that fired, "" for the fallback
}

type assignInput struct {
	ind     models.IndicatorSnapshot
	opt     models.OptionsSnapshot
	score   int
	tags    map[string]struct{}
	pattern models.PatternResult
}

func (in assignInput) hasTag(tag string) bool {
	_, ok := in.tags[tag]
	return ok
}

func (in assignInput) stage(s models.Stage) bool { return in.pattern.Stage == s }

func (in assignInput) volAbove(mult float64) bool { return in.ind.Volume > mult*in.ind.AvgVol20 }

type rule struct {
	name  string
	match func(in assignInput) bool
	apply func(in assignInput) Assignment
}

func fixed(account int, state models.State, stage string) func(assignInput) Assignment {
	return func(assignInput) Assignment {
		return Assignment{AccountID: account, State: state, SetupStage: stage}
	}
}

// assignmentRules are evaluated top to bottom; the first match wins.
//
// handle_forming has the same predicate as near_pivot and can never fire. It
// stays in place until product decides where NearPivot setups belong.
var assignmentRules = []rule{
	{
		name: "bo_today",
		match: func(in assignInput) bool {
			return in.stage(models.StageBreakout) && in.ind.Volume >= 1.4*in.ind.AvgVol20 && in.score >= 70
		},
		apply: fixed(3, models.StateReady, "BO_TODAY"),
	},
	{
		name:  "bo_recent",
		match: func(in assignInput) bool { return in.stage(models.StageBreakout) && in.score >= 65 },
		apply: fixed(3, models.StateWatch, "BO_RECENT"),
	},
	{
		name:  "near_pivot",
		match: func(in assignInput) bool { return in.stage(models.StageNearPivot) && in.score >= 65 },
		apply: fixed(3, models.StateWatch, "NEAR_PIVOT"),
	},
	{
		name:  "pocket_pivot",
		match: func(in assignInput) bool { return in.score >= 65 && in.volAbove(2.0) },
		apply: fixed(4, models.StateReady, "POCKET_PIVOT"),
	},
	{
		name:  "accumulation",
		match: func(in assignInput) bool { return in.score >= 60 && in.volAbove(1.2) },
		apply: fixed(4, models.StateWatch, "ACCUMULATION"),
	},
	{
		name:  "handle_forming",
		match: func(in assignInput) bool { return in.stage(models.StageNearPivot) && in.score >= 65 },
		apply: fixed(5, models.StateWatch, "HANDLE_FORMING"),
	},
	{
		name:  "base_building",
		match: func(in assignInput) bool { return in.stage(models.StageBase) && in.score >= 55 },
		apply: fixed(5, models.StateWatch, "BASE_BUILDING"),
	},
	{
		name: "long_term_uptrend",
		match: func(in assignInput) bool {
			uptrend := in.ind.Price > in.ind.SMA200 && in.ind.SMA50 > in.ind.SMA200
			return uptrend && (in.hasTag(TagExtended) || in.score >= 60)
		},
		apply: func(in assignInput) Assignment {
			if in.hasTag(TagExtended) {
				return Assignment{AccountID: 6, State: models.StateWatch, SetupStage: "EXTENDED_WAIT"}
			}
			stage := "HOLD/ADD"
			if in.ind.Price < in.ind.SMA50*1.05 {
				stage = "BUYABLE_PULLBACK"
			}
			return Assignment{AccountID: 6, State: models.StateReady, SetupStage: stage}
		},
	},
	{
		name: "momentum_break",
		match: func(in assignInput) bool {
			return in.ind.Close > in.ind.EMA9 && in.ind.Close > in.ind.EMA21 &&
				in.score >= 70 && in.stage(models.StageBreakout)
		},
		apply: fixed(1, models.StateReady, "MOMENTUM_BREAK"),
	},
	{
		name: "options_swing",
		match: func(in assignInput) bool {
			return in.hasTag(TagOptionsOK) && in.score >= 70 &&
				(in.stage(models.StageBreakout) || in.stage(models.StageNearPivot))
		},
		apply: func(in assignInput) Assignment {
			state := models.StateWatch
			if in.stage(models.StageBreakout) {
				state = models.StateReady
			}
			return Assignment{
				AccountID:  7,
				State:      state,
				SetupStage: "OPT_" + strings.ToUpper(string(in.pattern.Stage)),
			}
		},
	},
}

// Assign resolves a scored ticker into exactly one bucket.
func Assign(ind models.IndicatorSnapshot, opt models.OptionsSnapshot, score int, tags []string, pattern models.PatternResult) Assignment {
	in := assignInput{
		ind:     ind,
		opt:     opt,
		score:   score,
		tags:    make(map[string]struct{}, len(tags)),
		pattern: pattern,
	}
	for _, t := range tags {
		in.tags[t] = struct{}{}
	}

	for _, r := range assignmentRules {
		if r.match(in) {
			a := r.apply(in)
			a.Rule = r.name
			return a
		}
	}
	return Assignment{AccountID: models.Unassigned, State: models.StateWatch, SetupStage: "NONE"}
}

// RuleNames lists the assignment rules in evaluation order.
func RuleNames() []string {
	names := make([]string, len(assignmentRules))
	for i, r := range assignmentRules {
		names[i] = r.name
	}
	return names
}
