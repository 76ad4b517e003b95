package validators

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// NodeDraft is the unvalidated input for a destiny node insert
type NodeDraft struct {
	CharacterID valueobjects.CharacterID
	EventName   string `validate:"required"`
	EventType   string `validate:"required,oneof=emotional social decision health fortune"`
	Decision    string
	Result      string
	Consequence entities.Consequence
	ImpactLevel float64
	Probability float64 `validate:"gte=0,lte=1"`
	ParentID    *valueobjects.NodeID
	Tags        []string
	Timestamp   time.Time
}

// EventDraft is the unvalidated input for a causal event insert
type EventDraft struct {
	ActorID       valueobjects.CharacterID
	TargetID      *valueobjects.CharacterID
	Action        string `validate:"required"`
	ImpactScore   float64
	EmotionImpact valueobjects.EmotionVector
	SocialImpact  valueobjects.SocialVector
	OriginEvent   *valueobjects.EventID
	Tags          []string
	Location      string
	Duration      time.Duration `validate:"gte=0"`
	Timestamp     time.Time
}

// EventValidator checks node and event drafts against the domain rules
// before they reach the graph. Structural rules that need graph state,
// dangling references and ordering against the origin, stay in the
// aggregate; everything checkable from the draft alone is checked here.
type EventValidator struct {
	cfg      *config.DomainConfig
	validate *validator.Validate
}

// NewEventValidator creates a validator with the given domain config
func NewEventValidator(cfg *config.DomainConfig) *EventValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EventValidator{
		cfg:      cfg,
		validate: validator.New(),
	}
}

// ValidateNodeDraft checks every field of a node draft, collecting all
// failures so callers can report them together.
func (v *EventValidator) ValidateNodeDraft(draft NodeDraft) error {
	validationErrors := pkgerrors.NewValidationErrors()

	if draft.CharacterID.IsZero() {
		validationErrors.Add("character_id", "character is required")
	}
	if err := v.validate.Struct(draft); err != nil {
		v.collect(validationErrors, err)
	}
	if len(draft.EventName) > v.cfg.MaxNameLength {
		validationErrors.Add("event_name", fmt.Sprintf("event name exceeds %d characters", v.cfg.MaxNameLength))
	}
	if !valueobjects.IsFinite(draft.ImpactLevel, draft.Consequence.FateDelta) {
		validationErrors.Add("impact_level", "impact and fate delta must be finite")
	}
	v.validateTags(validationErrors, draft.Tags)

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// ValidateEventDraft checks every field of a causal event draft
func (v *EventValidator) ValidateEventDraft(draft EventDraft) error {
	validationErrors := pkgerrors.NewValidationErrors()

	if draft.ActorID.IsZero() {
		validationErrors.Add("actor_id", "actor is required")
	}
	if draft.TargetID != nil && draft.TargetID.Equals(draft.ActorID) {
		validationErrors.Add("target_id", "an event cannot target its own actor")
	}
	if err := v.validate.Struct(draft); err != nil {
		v.collect(validationErrors, err)
	}
	if !valueobjects.IsFinite(
		draft.ImpactScore,
		draft.EmotionImpact.Joy, draft.EmotionImpact.Anger,
		draft.EmotionImpact.Sadness, draft.EmotionImpact.Fear,
		draft.SocialImpact.Reputation, draft.SocialImpact.Trust,
		draft.SocialImpact.Wealth, draft.SocialImpact.Status,
	) {
		validationErrors.Add("impact_score", "impact vectors must be finite")
	}
	v.validateTags(validationErrors, draft.Tags)

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// BuildNode validates a draft and constructs the destiny node
func (v *EventValidator) BuildNode(draft NodeDraft) (*entities.DestinyNode, error) {
	if err := v.ValidateNodeDraft(draft); err != nil {
		return nil, err
	}
	return entities.NewDestinyNode(
		draft.CharacterID,
		draft.EventName,
		entities.EventType(draft.EventType),
		draft.Decision,
		draft.Result,
		draft.Consequence,
		draft.ImpactLevel,
		draft.Probability,
		draft.ParentID,
		draft.Tags,
		draft.Timestamp,
	)
}

// BuildEvent validates a draft and constructs the causal event
func (v *EventValidator) BuildEvent(draft EventDraft) (*entities.CausalEvent, error) {
	if err := v.ValidateEventDraft(draft); err != nil {
		return nil, err
	}
	evt, err := entities.NewCausalEvent(
		draft.ActorID,
		draft.TargetID,
		draft.Action,
		draft.ImpactScore,
		draft.EmotionImpact,
		draft.SocialImpact,
		draft.OriginEvent,
		draft.Tags,
		draft.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if draft.Location != "" {
		evt.SetLocation(draft.Location)
	}
	if draft.Duration > 0 {
		evt.SetDuration(draft.Duration)
	}
	return evt, nil
}

func (v *EventValidator) validateTags(out *pkgerrors.ValidationErrors, tags []string) {
	if len(tags) > v.cfg.MaxTagsPerNode {
		out.Add("tags", fmt.Sprintf("cannot have more than %d tags", v.cfg.MaxTagsPerNode))
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			out.Add("tags", "tag cannot be empty")
			continue
		}
		if len(tag) > v.cfg.MaxTagLength {
			out.Add("tags", fmt.Sprintf("tag %q exceeds %d characters", tag, v.cfg.MaxTagLength))
		}
	}
}

// collect folds validator library failures into the domain error list
func (v *EventValidator) collect(out *pkgerrors.ValidationErrors, err error) {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out.Add("draft", err.Error())
		return
	}
	for _, fe := range fieldErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out.Add(field, field+" is required")
		case "oneof":
			out.Add(field, field+" must be one of: "+fe.Param())
		case "gte":
			out.Add(field, field+" must be >= "+fe.Param())
		case "lte":
			out.Add(field, field+" must be <= "+fe.Param())
		default:
			out.Add(field, field+" is invalid")
		}
	}
}
