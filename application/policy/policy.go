package policy

import (
	"context"

	"mirage-engine/domain/core/entities"
)

// Action is one move a character can make on a tick
type Action string

const (
	ActionCooperate Action = "cooperate"
	ActionDeceive   Action = "deceive"
	ActionDemand    Action = "demand"
	ActionWithdraw  Action = "withdraw"
	ActionRebel     Action = "rebel"
	ActionSacrifice Action = "sacrifice"
)

// Catalog is the fixed action space in its canonical order. Policies
// that score actions break ties by this order, which keeps runs with
// equal rewards deterministic.
var Catalog = []Action{
	ActionCooperate,
	ActionDeceive,
	ActionDemand,
	ActionWithdraw,
	ActionRebel,
	ActionSacrifice,
}

// Valid reports whether a is one of the catalog actions
func (a Action) Valid() bool {
	for _, known := range Catalog {
		if a == known {
			return true
		}
	}
	return false
}

// RegimeView is the read-only slice of regime state a policy sees
type RegimeView struct {
	Satisfaction float64 `json:"satisfaction"`
	Stability    float64 `json:"stability"`
	Freedom      float64 `json:"freedom"`
	Corruption   float64 `json:"corruption"`
}

// DecisionContext is everything a policy may consult for one decision:
// the character's profile, a bounded window of recent fate scores, and
// a view of the regime the character lives under.
type DecisionContext struct {
	Tick         int               `json:"tick"`
	Profile      entities.Profile  `json:"profile"`
	RecentScores []float64         `json:"recent_scores"`
	Regime       *RegimeView       `json:"regime,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Decision is a policy's answer for one tick
type Decision struct {
	Action    Action  `json:"action"`
	Reward    float64 `json:"reward"`
	Rationale string  `json:"rationale,omitempty"`
}

// DecisionPolicy chooses an action for a character each tick.
// Implementations may be slow or remote; the loop guards every call
// with a deadline and a circuit breaker.
type DecisionPolicy interface {
	// Name identifies the policy in logs and metrics
	Name() string

	// Decide picks an action for the given context
	Decide(ctx context.Context, dctx DecisionContext) (Decision, error)
}
