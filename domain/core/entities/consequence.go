package entities

import "mirage-engine/domain/core/valueobjects"

// Consequence is the payload an action applies to world state after a
// tick's node and event have been inserted. All deltas are additive.
type Consequence struct {
	FateDelta  float64                    `json:"fate_delta"`
	Emotion    valueobjects.EmotionVector `json:"emotion"`
	Social     valueobjects.SocialVector  `json:"social"`
	Attributes map[string]float64         `json:"attributes,omitempty"`

	// Relationship holds the scalar deltas applied to the actor→target
	// relationship when the action involves another character.
	Relationship *RelationshipDelta `json:"relationship,omitempty"`

	// Regime holds the deltas applied to the shared regime aggregates.
	Regime *RegimeImpact `json:"regime,omitempty"`
}

// RelationshipDelta carries additive changes to relationship scalars
type RelationshipDelta struct {
	Trust     float64 `json:"trust"`
	Conflict  float64 `json:"conflict"`
	Intensity float64 `json:"intensity"`
	Influence float64 `json:"influence"`
}

// RegimeImpact carries additive changes to regime aggregates, plus an
// optional population shift between social classes.
type RegimeImpact struct {
	Satisfaction float64 `json:"satisfaction"`
	Corruption   float64 `json:"corruption"`
	Stability    float64 `json:"stability"`
	Prosperity   float64 `json:"prosperity"`
	Freedom      float64 `json:"freedom"`
	TechLevel    float64 `json:"tech_level"`

	// FromClass/ToClass move PopulationShift ratio between two classes;
	// ratios are re-normalized afterwards so they keep summing to 1.
	FromClass       string  `json:"from_class,omitempty"`
	ToClass         string  `json:"to_class,omitempty"`
	PopulationShift float64 `json:"population_shift,omitempty"`
}

// IsZero reports whether the impact would leave the regime unchanged
func (r *RegimeImpact) IsZero() bool {
	if r == nil {
		return true
	}
	return r.Satisfaction == 0 && r.Corruption == 0 && r.Stability == 0 &&
		r.Prosperity == 0 && r.Freedom == 0 && r.TechLevel == 0 &&
		r.PopulationShift == 0
}
