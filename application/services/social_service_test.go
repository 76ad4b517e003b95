package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-engine/application/policy"
	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/infrastructure/persistence/memory"
	pkgerrors "mirage-engine/pkg/errors"
)

func interactionEvent(t *testing.T, actor, target valueobjects.CharacterID, action string) *entities.CausalEvent {
	t.Helper()
	evt, err := entities.NewCausalEvent(
		actor, &target, action, 1.0,
		valueobjects.EmotionVector{}, valueobjects.SocialVector{},
		nil, nil, time.Now(),
	)
	require.NoError(t, err)
	return evt
}

func TestSocialService_FirstContactCreatesRelationship(t *testing.T) {
	svc := NewSocialService(memory.NewRelationshipRepository(), nil, nil)
	actor := valueobjects.NewCharacterID()
	target := valueobjects.NewCharacterID()

	evt := interactionEvent(t, actor, target, string(policy.ActionCooperate))
	rel, err := svc.RecordInteraction(context.Background(), evt, entities.RelationshipDelta{Trust: 0.2})
	require.NoError(t, err)

	assert.InDelta(t, 0.7, rel.Trust(), 1e-9)
	assert.Len(t, rel.History(), 1)
	assert.Equal(t, string(policy.ActionCooperate), rel.History()[0].Action)

	stored, err := svc.Network(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].TargetID().Equals(target))
}

func TestSocialService_RepeatedInteractionsSaturate(t *testing.T) {
	svc := NewSocialService(memory.NewRelationshipRepository(), nil, nil)
	actor := valueobjects.NewCharacterID()
	target := valueobjects.NewCharacterID()

	ctx := context.Background()
	var rel *entities.Relationship
	var err error
	for i := 0; i < 10; i++ {
		evt := interactionEvent(t, actor, target, string(policy.ActionCooperate))
		rel, err = svc.RecordInteraction(ctx, evt, entities.RelationshipDelta{Trust: 0.3})
		require.NoError(t, err)
	}

	assert.Equal(t, 1.0, rel.Trust())
	assert.Len(t, rel.History(), 10)
}

func TestSocialService_DirectedLinksAreIndependent(t *testing.T) {
	svc := NewSocialService(memory.NewRelationshipRepository(), nil, nil)
	actor := valueobjects.NewCharacterID()
	target := valueobjects.NewCharacterID()

	ctx := context.Background()
	evt := interactionEvent(t, actor, target, string(policy.ActionDeceive))
	_, err := svc.RecordInteraction(ctx, evt, entities.RelationshipDelta{Trust: -0.4, Conflict: 0.3})
	require.NoError(t, err)

	// The reverse direction was never touched.
	reverse, err := svc.Network(ctx, target)
	require.NoError(t, err)
	assert.Empty(t, reverse)
}

func TestSocialService_RejectsTargetlessEvents(t *testing.T) {
	svc := NewSocialService(memory.NewRelationshipRepository(), config.DefaultDomainConfig(), nil)
	actor := valueobjects.NewCharacterID()

	evt, err := entities.NewCausalEvent(
		actor, nil, string(policy.ActionWithdraw), 0,
		valueobjects.EmotionVector{}, valueobjects.SocialVector{},
		nil, nil, time.Now(),
	)
	require.NoError(t, err)

	_, err = svc.RecordInteraction(context.Background(), evt, entities.RelationshipDelta{})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestSocialService_SeveredLinkRejectsUpdates(t *testing.T) {
	svc := NewSocialService(memory.NewRelationshipRepository(), nil, nil)
	actor := valueobjects.NewCharacterID()
	target := valueobjects.NewCharacterID()

	ctx := context.Background()
	evt := interactionEvent(t, actor, target, string(policy.ActionCooperate))
	_, err := svc.RecordInteraction(ctx, evt, entities.RelationshipDelta{Trust: 0.1})
	require.NoError(t, err)

	require.NoError(t, svc.Sever(ctx, actor, target))

	evt = interactionEvent(t, actor, target, string(policy.ActionCooperate))
	_, err = svc.RecordInteraction(ctx, evt, entities.RelationshipDelta{Trust: 0.1})
	assert.True(t, pkgerrors.IsValidation(err))
}
