package models

import "time"

type State string

const (
	StateReady State = "READY"
	StateWatch State = "WATCH"
)

type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
)

// Unassigned is the account id for decisions no rule claimed.
const Unassigned = 0

// SetupDecision is the engine's output for one ticker in one cycle.
type SetupDecision struct {
	AccountID  int           `json:"accountId"`
	Ticker     string        `json:"ticker"`
	Grade      Grade         `json:"grade"`
	Score      int           `json:"score"`
	EntryPlan  []string      `json:"entryPlan"`
	StopPlan   []string      `json:"stopPlan"`
	ExitPlan   []string      `json:"exitPlan"`
	Tags       []string      `json:"tags"`
	Pattern    PatternResult `json:"pattern"`
	Reasons    []string      `json:"reasons"`
	Price      float64       `json:"price"`
	ChangePct  float64       `json:"changePct"`
	State      State         `json:"state"`
	SetupStage string        `json:"setupStage"`
}

// HasTag reports whether the decision carries tag.
func (d SetupDecision) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Buckets maps account id to score-sorted decisions.
type Buckets map[int][]SetupDecision

// Board is one completed scan of the universe.
type Board struct {
	Buckets     Buckets   `json:"buckets"`
	GeneratedAt time.Time `json:"generatedAt"`
	Scanned     int       `json:"scanned"`
	Skipped     []string  `json:"skipped,omitempty"`
}

// Decisions flattens the board in bucket order.
func (b Board) Decisions() []SetupDecision {
	var out []SetupDecision
	for id := 0; id <= MaxBucketID; id++ {
		out = append(out, b.Buckets[id]...)
	}
	return out
}

// DecisionRecord is a persisted decision, as stored in decision history.
type DecisionRecord struct {
	SetupDecision
	EvaluatedAt time.Time `json:"evaluatedAt"`
	Source      string    `json:"source"`
}
