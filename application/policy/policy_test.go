package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

func profileWith(social valueobjects.SocialVector) entities.Profile {
	return entities.Profile{
		CharacterID: valueobjects.NewCharacterID(),
		Name:        "test subject",
		Social:      social,
	}
}

func TestRulePolicy_PicksHighestReward(t *testing.T) {
	p := NewRulePolicy()

	// high reputation and trust make cooperation dominant
	dctx := DecisionContext{
		Profile: profileWith(valueobjects.SocialVector{Reputation: 0.9, Trust: 0.9}),
	}
	decision, err := p.Decide(context.Background(), dctx)
	require.NoError(t, err)
	assert.Equal(t, ActionCooperate, decision.Action)
	assert.InDelta(t, 2.7, decision.Reward, 1e-9)
}

func TestRulePolicy_DeterministicTieBreak(t *testing.T) {
	p := NewRulePolicy()
	dctx := DecisionContext{Profile: profileWith(valueobjects.SocialVector{})}

	first, err := p.Decide(context.Background(), dctx)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Decide(context.Background(), dctx)
		require.NoError(t, err)
		assert.Equal(t, first.Action, again.Action)
		assert.Equal(t, first.Reward, again.Reward)
	}
}

func TestReward_Table(t *testing.T) {
	profile := profileWith(valueobjects.SocialVector{
		Reputation: 0.4, Trust: 0.6, Wealth: 0.3, Status: 0.2,
	})

	assert.InDelta(t, 1.4, Reward(ActionCooperate, profile), 1e-9)
	assert.InDelta(t, -0.1, Reward(ActionDeceive, profile), 1e-9)
	assert.InDelta(t, 0.2, Reward(ActionDemand, profile), 1e-9)
	assert.InDelta(t, -0.2, Reward(ActionWithdraw, profile), 1e-9)
	assert.InDelta(t, -0.1, Reward(ActionRebel, profile), 1e-9)
	assert.InDelta(t, 0.3, Reward(ActionSacrifice, profile), 1e-9)
}

func TestConsequenceFor_CarriesRewardAsFateDelta(t *testing.T) {
	consequence := ConsequenceFor(ActionDeceive, -0.1)
	assert.InDelta(t, -0.1, consequence.FateDelta, 1e-9)
	require.NotNil(t, consequence.Relationship)
	assert.Negative(t, consequence.Relationship.Trust)

	rebel := ConsequenceFor(ActionRebel, 0.5)
	require.NotNil(t, rebel.Regime)
	assert.Negative(t, rebel.Regime.Stability)
}

func TestScriptedPolicy_CyclesScript(t *testing.T) {
	p, err := NewScriptedPolicy(ActionCooperate, ActionRebel)
	require.NoError(t, err)

	dctx := DecisionContext{Profile: profileWith(valueobjects.SocialVector{})}
	actions := make([]Action, 0, 4)
	for i := 0; i < 4; i++ {
		d, err := p.Decide(context.Background(), dctx)
		require.NoError(t, err)
		actions = append(actions, d.Action)
	}
	assert.Equal(t, []Action{ActionCooperate, ActionRebel, ActionCooperate, ActionRebel}, actions)

	_, err = NewScriptedPolicy()
	assert.Error(t, err)
	_, err = NewScriptedPolicy(Action("meditate"))
	assert.Error(t, err)
}

// slowPolicy never answers within any reasonable deadline
type slowPolicy struct{ delay time.Duration }

func (s *slowPolicy) Name() string { return "slow" }
func (s *slowPolicy) Decide(ctx context.Context, _ DecisionContext) (Decision, error) {
	select {
	case <-time.After(s.delay):
		return Decision{Action: ActionWithdraw}, nil
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// faultyPolicy fails a fixed number of times before answering
type faultyPolicy struct{ failures int }

func (f *faultyPolicy) Name() string { return "faulty" }
func (f *faultyPolicy) Decide(context.Context, DecisionContext) (Decision, error) {
	if f.failures > 0 {
		f.failures--
		return Decision{}, pkgerrors.ErrPolicyTimeout
	}
	return Decision{Action: ActionCooperate, Reward: 1}, nil
}

func TestGuardedPolicy_TimeoutSurfacesAsDomainError(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.PolicyTimeout = 20 * time.Millisecond
	cfg.PolicyMaxRetries = 0

	guard := NewGuardedPolicy(&slowPolicy{delay: time.Second}, cfg, nil)
	_, err := guard.Decide(context.Background(), DecisionContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrPolicyTimeout)
	assert.True(t, pkgerrors.IsRetryable(err))
}

func TestGuardedPolicy_RetriesRetryableFailures(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.PolicyMaxRetries = 1

	guard := NewGuardedPolicy(&faultyPolicy{failures: 1}, cfg, nil)
	decision, err := guard.Decide(context.Background(), DecisionContext{})
	require.NoError(t, err)
	assert.Equal(t, ActionCooperate, decision.Action)
}

func TestGuardedPolicy_RejectsUnknownAction(t *testing.T) {
	bad, err := NewScriptedPolicy(ActionCooperate)
	require.NoError(t, err)
	bad.script = []Action{Action("transcend")}

	guard := NewGuardedPolicy(bad, nil, nil)
	_, err = guard.Decide(context.Background(), DecisionContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrPolicyFailure)
}
