package services

import (
	"context"

	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// SocialService maintains the directed relationships between characters.
// Interactions fold a causal event's relationship deltas into the
// actor→target link, creating it on first contact.
type SocialService struct {
	relationships ports.RelationshipRepository
	cfg           *config.DomainConfig
	logger        *zap.Logger
}

// NewSocialService creates a social service
func NewSocialService(relationships ports.RelationshipRepository, cfg *config.DomainConfig, logger *zap.Logger) *SocialService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialService{
		relationships: relationships,
		cfg:           cfg,
		logger:        logger,
	}
}

// RecordInteraction applies a causal event to the actor→target
// relationship and persists the result. Events without a target are
// rejected; directed-ness means the reverse link is untouched.
func (s *SocialService) RecordInteraction(ctx context.Context, event *entities.CausalEvent, delta entities.RelationshipDelta) (*entities.Relationship, error) {
	target := event.TargetID()
	if target == nil {
		return nil, pkgerrors.NewValidationError("target_id", "interaction requires a target character")
	}

	relationship, err := s.relationships.Get(ctx, event.ActorID(), *target)
	if pkgerrors.IsNotFound(err) {
		relationship, err = entities.NewRelationship(event.ActorID(), *target)
	}
	if err != nil {
		return nil, err
	}

	if err := relationship.Apply(event.ID(), event.Action(), delta, event.Timestamp(), s.cfg); err != nil {
		return nil, err
	}
	if err := s.relationships.Save(ctx, relationship); err != nil {
		return nil, err
	}

	s.logger.Debug("interaction recorded",
		zap.String("source_id", event.ActorID().String()),
		zap.String("target_id", target.String()),
		zap.String("action", event.Action()),
		zap.Float64("trust", relationship.Trust()),
	)
	return relationship, nil
}

// Sever deactivates the directed relationship from source to target.
// The history log survives for later inspection.
func (s *SocialService) Sever(ctx context.Context, sourceID, targetID valueobjects.CharacterID) error {
	relationship, err := s.relationships.Get(ctx, sourceID, targetID)
	if err != nil {
		return err
	}
	relationship.Sever()
	return s.relationships.Save(ctx, relationship)
}

// Network returns every relationship a character holds
func (s *SocialService) Network(ctx context.Context, sourceID valueobjects.CharacterID) ([]*entities.Relationship, error) {
	return s.relationships.GetBySource(ctx, sourceID)
}
