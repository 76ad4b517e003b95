package entities

import (
	"strings"
	"time"

	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// CausalEvent is an interaction between an actor character and an
// optional target character. An event may cite an earlier event,
// anywhere in the world, as its cause; the origin edges together with
// event timestamps form a DAG across characters.
type CausalEvent struct {
	id            valueobjects.EventID
	actorID       valueobjects.CharacterID
	targetID      *valueobjects.CharacterID
	action        string
	context       map[string]interface{}
	result        map[string]interface{}
	originEvent   *valueobjects.EventID
	description   string
	impactScore   float64
	emotionImpact valueobjects.EmotionVector
	socialImpact  valueobjects.SocialVector
	isPublic      bool
	tags          []string
	location      string
	duration      time.Duration
	timestamp     time.Time

	// seq is the graph store's insertion-order counter
	seq uint64
}

// NewCausalEvent creates a causal event with field validation
func NewCausalEvent(
	actorID valueobjects.CharacterID,
	targetID *valueobjects.CharacterID,
	action string,
	impactScore float64,
	emotionImpact valueobjects.EmotionVector,
	socialImpact valueobjects.SocialVector,
	originEvent *valueobjects.EventID,
	tags []string,
	timestamp time.Time,
) (*CausalEvent, error) {
	if actorID.IsZero() {
		return nil, pkgerrors.NewValidationError("actor_id", "actor is required")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, pkgerrors.NewValidationError("action", "action is required")
	}
	if !valueobjects.IsFinite(impactScore) {
		return nil, pkgerrors.NewValidationError("impact_score", "impact score must be finite")
	}
	if targetID != nil && targetID.Equals(actorID) {
		return nil, pkgerrors.NewValidationError("target_id", "an event cannot target its own actor")
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return &CausalEvent{
		id:            valueobjects.NewEventID(),
		actorID:       actorID,
		targetID:      targetID,
		action:        action,
		context:       make(map[string]interface{}),
		result:        make(map[string]interface{}),
		originEvent:   originEvent,
		impactScore:   impactScore,
		emotionImpact: emotionImpact,
		socialImpact:  socialImpact,
		isPublic:      true,
		tags:          normalizeTags(tags),
		timestamp:     timestamp,
	}, nil
}

// ID returns the event's unique identifier
func (e *CausalEvent) ID() valueobjects.EventID { return e.id }

// ActorID returns the acting character
func (e *CausalEvent) ActorID() valueobjects.CharacterID { return e.actorID }

// TargetID returns the target character, nil for solo events
func (e *CausalEvent) TargetID() *valueobjects.CharacterID { return e.targetID }

// Action returns the event's action name
func (e *CausalEvent) Action() string { return e.action }

// OriginEvent returns the causing event, nil for spontaneous events
func (e *CausalEvent) OriginEvent() *valueobjects.EventID { return e.originEvent }

// Description returns the free-form description
func (e *CausalEvent) Description() string { return e.description }

// ImpactScore returns the signed impact magnitude; negative is adverse
func (e *CausalEvent) ImpactScore() float64 { return e.impactScore }

// EmotionImpact returns the emotional impact vector
func (e *CausalEvent) EmotionImpact() valueobjects.EmotionVector { return e.emotionImpact }

// SocialImpact returns the social impact vector
func (e *CausalEvent) SocialImpact() valueobjects.SocialVector { return e.socialImpact }

// IsPublic reports whether the event is visible to observers
func (e *CausalEvent) IsPublic() bool { return e.isPublic }

// Tags returns a copy of the normalized tag set
func (e *CausalEvent) Tags() []string {
	tags := make([]string, len(e.tags))
	copy(tags, e.tags)
	return tags
}

// Location returns where the event happened
func (e *CausalEvent) Location() string { return e.location }

// Duration returns how long the event lasted
func (e *CausalEvent) Duration() time.Duration { return e.duration }

// Timestamp returns the event's simulated time
func (e *CausalEvent) Timestamp() time.Time { return e.timestamp }

// Seq returns the insertion-order counter assigned by the graph store
func (e *CausalEvent) Seq() uint64 { return e.seq }

// SetSeq is called by the graph store when the event is inserted
func (e *CausalEvent) SetSeq(seq uint64) { e.seq = seq }

// SetDescription sets the free-form description
func (e *CausalEvent) SetDescription(description string) { e.description = description }

// SetLocation sets where the event happened
func (e *CausalEvent) SetLocation(location string) { e.location = location }

// SetDuration sets how long the event lasted
func (e *CausalEvent) SetDuration(d time.Duration) { e.duration = d }

// SetPrivate hides the event from public observers
func (e *CausalEvent) SetPrivate() { e.isPublic = false }

// SetContext records a context entry
func (e *CausalEvent) SetContext(key string, value interface{}) { e.context[key] = value }

// SetResult records a result entry
func (e *CausalEvent) SetResult(key string, value interface{}) { e.result[key] = value }

// Context returns a copy of the context payload
func (e *CausalEvent) Context() map[string]interface{} {
	out := make(map[string]interface{}, len(e.context))
	for k, v := range e.context {
		out[k] = v
	}
	return out
}

// Result returns a copy of the result payload
func (e *CausalEvent) Result() map[string]interface{} {
	out := make(map[string]interface{}, len(e.result))
	for k, v := range e.result {
		out[k] = v
	}
	return out
}
