package policy

import (
	"context"

	pkgerrors "mirage-engine/pkg/errors"
)

// ScriptedPolicy replays a fixed action sequence, cycling when the
// script is shorter than the run. Useful for replaying a known life and
// for exercising the loop in tests.
type ScriptedPolicy struct {
	script []Action
	next   int
}

// NewScriptedPolicy creates a policy that replays the given actions
func NewScriptedPolicy(script ...Action) (*ScriptedPolicy, error) {
	if len(script) == 0 {
		return nil, pkgerrors.NewValidationError("script", "script cannot be empty")
	}
	for _, action := range script {
		if !action.Valid() {
			return nil, pkgerrors.NewValidationError("script", "unknown action: "+string(action))
		}
	}
	return &ScriptedPolicy{script: script}, nil
}

// Name identifies the policy in logs and metrics
func (p *ScriptedPolicy) Name() string { return "scripted" }

// Decide returns the next scripted action with its rule-table reward
func (p *ScriptedPolicy) Decide(_ context.Context, dctx DecisionContext) (Decision, error) {
	action := p.script[p.next%len(p.script)]
	p.next++
	return Decision{
		Action: action,
		Reward: Reward(action, dctx.Profile),
	}, nil
}
