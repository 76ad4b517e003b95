package policy

import (
	"context"
	"fmt"

	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
)

// RulePolicy scores every catalog action against the character's
// current social standing and picks the highest reward. Ties resolve
// to the earlier catalog entry, so identical contexts always produce
// identical decisions.
type RulePolicy struct{}

// NewRulePolicy creates the default rule-table policy
func NewRulePolicy() *RulePolicy { return &RulePolicy{} }

// Name identifies the policy in logs and metrics
func (p *RulePolicy) Name() string { return "rule-table" }

// Decide scores the catalog and returns the argmax
func (p *RulePolicy) Decide(_ context.Context, dctx DecisionContext) (Decision, error) {
	best := Decision{Action: Catalog[0], Reward: Reward(Catalog[0], dctx.Profile)}
	for _, action := range Catalog[1:] {
		if r := Reward(action, dctx.Profile); r > best.Reward {
			best = Decision{Action: action, Reward: r}
		}
	}
	best.Rationale = fmt.Sprintf("best of %d actions at tick %d", len(Catalog), dctx.Tick)
	return best, nil
}

// Reward is the rule table: each action's expected payoff given the
// character's social standing.
func Reward(action Action, profile entities.Profile) float64 {
	social := profile.Social
	switch action {
	case ActionCooperate:
		return 2*social.Reputation + social.Trust
	case ActionDeceive:
		return 0.5 - social.Trust
	case ActionDemand:
		return social.Wealth - 0.1
	case ActionWithdraw:
		return -0.2
	case ActionRebel:
		return social.Status - 0.3
	case ActionSacrifice:
		return (social.Reputation+social.Trust)/2 - 0.2
	default:
		return 0
	}
}

// ConsequenceFor translates a decided action into the state deltas the
// loop applies: a fate delta proportional to the reward plus the
// action's characteristic emotional, social and relational shifts.
func ConsequenceFor(action Action, reward float64) entities.Consequence {
	consequence := entities.Consequence{FateDelta: reward}

	switch action {
	case ActionCooperate:
		consequence.Emotion = valueobjects.EmotionVector{Joy: 0.05}
		consequence.Social = valueobjects.SocialVector{Trust: 0.05, Reputation: 0.05}
		consequence.Relationship = &entities.RelationshipDelta{Trust: 0.05, Intensity: 0.02}
	case ActionDeceive:
		consequence.Emotion = valueobjects.EmotionVector{Anger: 0.05}
		consequence.Social = valueobjects.SocialVector{Trust: -0.1}
		consequence.Relationship = &entities.RelationshipDelta{Trust: -0.1, Conflict: 0.05, Intensity: 0.03}
	case ActionDemand:
		consequence.Social = valueobjects.SocialVector{Wealth: 0.05, Reputation: -0.02}
		consequence.Relationship = &entities.RelationshipDelta{Conflict: 0.03, Influence: 0.02}
	case ActionWithdraw:
		consequence.Emotion = valueobjects.EmotionVector{Sadness: 0.05}
		consequence.Relationship = &entities.RelationshipDelta{Intensity: -0.05}
	case ActionRebel:
		consequence.Emotion = valueobjects.EmotionVector{Anger: 0.1}
		consequence.Social = valueobjects.SocialVector{Status: 0.05, Trust: -0.05}
		consequence.Regime = &entities.RegimeImpact{Stability: -0.01, Freedom: 0.01}
	case ActionSacrifice:
		consequence.Emotion = valueobjects.EmotionVector{Sadness: 0.05, Joy: 0.02}
		consequence.Social = valueobjects.SocialVector{Reputation: 0.08, Wealth: -0.05}
		consequence.Relationship = &entities.RelationshipDelta{Trust: 0.08, Intensity: 0.05}
		consequence.Regime = &entities.RegimeImpact{Satisfaction: 0.01}
	}
	return consequence
}

// EventTypeFor classifies the node a decided action produces
func EventTypeFor(action Action) entities.EventType {
	switch action {
	case ActionCooperate, ActionDemand, ActionSacrifice:
		return entities.EventTypeSocial
	case ActionDeceive, ActionRebel:
		return entities.EventTypeDecision
	case ActionWithdraw:
		return entities.EventTypeEmotional
	default:
		return entities.EventTypeDecision
	}
}

// TagsFor returns the narrative tags a decided action stamps on its node
func TagsFor(action Action) []string {
	switch action {
	case ActionRebel:
		return []string{"rebellion"}
	case ActionSacrifice:
		return []string{"sacrifice"}
	case ActionDeceive:
		return []string{"betrayal"}
	default:
		return nil
	}
}
