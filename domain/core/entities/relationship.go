package entities

import (
	"time"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// SocialInteraction is one entry in a relationship's history log
type SocialInteraction struct {
	EventID   valueobjects.EventID `json:"event_id"`
	Action    string               `json:"action"`
	Delta     RelationshipDelta    `json:"delta"`
	Timestamp time.Time            `json:"timestamp"`
}

// Relationship is the directed social link from one character to
// another. Trust, conflict and intensity live in [0,1]; influence is
// signed in [-1,1]. Updates clamp by default so repeated interactions
// saturate instead of overflowing.
type Relationship struct {
	sourceID  valueobjects.CharacterID
	targetID  valueobjects.CharacterID
	trust     float64
	conflict  float64
	intensity float64
	influence float64
	isActive  bool
	history   []SocialInteraction
	createdAt time.Time
	updatedAt time.Time
}

// NewRelationship creates a neutral relationship between two characters
func NewRelationship(sourceID, targetID valueobjects.CharacterID) (*Relationship, error) {
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("character_id", "both endpoints are required")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewValidationError("target_id", "a relationship cannot be self-directed")
	}

	now := time.Now()
	return &Relationship{
		sourceID:  sourceID,
		targetID:  targetID,
		trust:     0.5,
		conflict:  0.0,
		intensity: 0.1,
		influence: 0.0,
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructRelationship recreates a relationship from stored data
func ReconstructRelationship(
	sourceID, targetID valueobjects.CharacterID,
	trust, conflict, intensity, influence float64,
	isActive bool,
	history []SocialInteraction,
	createdAt, updatedAt time.Time,
) *Relationship {
	return &Relationship{
		sourceID:  sourceID,
		targetID:  targetID,
		trust:     trust,
		conflict:  conflict,
		intensity: intensity,
		influence: influence,
		isActive:  isActive,
		history:   history,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// SourceID returns the relationship's owning character
func (r *Relationship) SourceID() valueobjects.CharacterID { return r.sourceID }

// TargetID returns the character the relationship points at
func (r *Relationship) TargetID() valueobjects.CharacterID { return r.targetID }

// Trust returns the trust scalar in [0,1]
func (r *Relationship) Trust() float64 { return r.trust }

// Conflict returns the conflict scalar in [0,1]
func (r *Relationship) Conflict() float64 { return r.conflict }

// Intensity returns how strongly the two lives are entangled, in [0,1]
func (r *Relationship) Intensity() float64 { return r.intensity }

// Influence returns the signed influence scalar in [-1,1]
func (r *Relationship) Influence() float64 { return r.influence }

// IsActive reports whether the relationship is still live
func (r *Relationship) IsActive() bool { return r.isActive }

// CreatedAt returns when the relationship formed
func (r *Relationship) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the relationship last changed
func (r *Relationship) UpdatedAt() time.Time { return r.updatedAt }

// History returns a copy of the interaction log, oldest first
func (r *Relationship) History() []SocialInteraction {
	out := make([]SocialInteraction, len(r.history))
	copy(out, r.history)
	return out
}

// Apply folds an interaction's deltas into the relationship scalars and
// appends it to the history log. Clamping follows the domain config.
func (r *Relationship) Apply(eventID valueobjects.EventID, action string, delta RelationshipDelta, at time.Time, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if !r.isActive {
		return pkgerrors.NewValidationError("relationship", "cannot update a severed relationship")
	}

	r.trust += delta.Trust
	r.conflict += delta.Conflict
	r.intensity += delta.Intensity
	r.influence += delta.Influence
	if cfg.ClampRelationshipScalars {
		r.trust = valueobjects.Clamp01(r.trust)
		r.conflict = valueobjects.Clamp01(r.conflict)
		r.intensity = valueobjects.Clamp01(r.intensity)
		r.influence = valueobjects.Clamp(r.influence, -1, 1)
	}

	r.history = append(r.history, SocialInteraction{
		EventID:   eventID,
		Action:    action,
		Delta:     delta,
		Timestamp: at,
	})
	r.updatedAt = at
	return nil
}

// Sever deactivates the relationship; the history log is preserved
func (r *Relationship) Sever() {
	if !r.isActive {
		return
	}
	r.isActive = false
	r.updatedAt = time.Now()
}
