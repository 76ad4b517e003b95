package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	domainservices "mirage-engine/domain/services"
	"mirage-engine/infrastructure/persistence/memory"
	pkgerrors "mirage-engine/pkg/errors"
)

func graphWithLife(t *testing.T, characterID valueobjects.CharacterID, impacts ...float64) *aggregates.DestinyGraph {
	t.Helper()
	graph := aggregates.NewDestinyGraph(nil)
	var parentID *valueobjects.NodeID
	base := time.Now()
	for i, impact := range impacts {
		node, err := entities.NewDestinyNode(
			characterID, "step", entities.EventTypeDecision,
			"", "", entities.Consequence{},
			impact, 1.0, parentID, nil, base.Add(time.Duration(i)*time.Hour),
		)
		require.NoError(t, err)
		require.NoError(t, graph.AddNode(node))
		id := node.ID()
		parentID = &id
	}
	return graph
}

func newMintService() (*MintService, *memory.ArtifactRepository, *memory.TickPublisher) {
	artifacts := memory.NewArtifactRepository()
	publisher := memory.NewTickPublisher()
	svc := NewMintService(artifacts, domainservices.NewRarityEvaluator(nil), publisher, nil)
	return svc, artifacts, publisher
}

func TestMintService_MintsAndPublishes(t *testing.T) {
	svc, artifacts, publisher := newMintService()
	characterID := valueobjects.NewCharacterID()
	graph := graphWithLife(t, characterID, 1, -2, 3)

	result, err := svc.Mint(context.Background(), graph, characterID)
	require.NoError(t, err)
	assert.False(t, result.Existing)
	assert.Equal(t, 1, result.Artifact.Generation())
	assert.Equal(t, 3, result.Artifact.EventCount())
	assert.NotEmpty(t, result.Artifact.ContentHash())

	stored, err := artifacts.GetByTokenID(context.Background(), result.Artifact.TokenID())
	require.NoError(t, err)
	assert.Equal(t, result.Artifact.ContentHash(), stored.ContentHash())

	stream := publisher.Stream()
	require.Len(t, stream, 1)
	assert.Equal(t, "artifact.minted", stream[0].GetEventType())
}

func TestMintService_IdempotentOnUnchangedTree(t *testing.T) {
	svc, _, publisher := newMintService()
	characterID := valueobjects.NewCharacterID()
	graph := graphWithLife(t, characterID, 2, 2)

	first, err := svc.Mint(context.Background(), graph, characterID)
	require.NoError(t, err)
	second, err := svc.Mint(context.Background(), graph, characterID)
	require.NoError(t, err)

	assert.True(t, second.Existing)
	assert.Equal(t, first.Artifact.TokenID(), second.Artifact.TokenID())
	// no second mint event
	assert.Len(t, publisher.Stream(), 1)
}

func TestMintService_NewGenerationAfterTreeGrows(t *testing.T) {
	svc, _, _ := newMintService()
	characterID := valueobjects.NewCharacterID()
	graph := graphWithLife(t, characterID, 1)

	first, err := svc.Mint(context.Background(), graph, characterID)
	require.NoError(t, err)

	rootID := graph.NodesByCharacter(characterID)[0].ID()
	child, err := entities.NewDestinyNode(
		characterID, "new chapter", entities.EventTypeFortune,
		"", "", entities.Consequence{},
		4.0, 1.0, &rootID, nil, time.Now().Add(time.Hour),
	)
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(child))

	second, err := svc.Mint(context.Background(), graph, characterID)
	require.NoError(t, err)
	assert.False(t, second.Existing)
	assert.NotEqual(t, first.Artifact.ContentHash(), second.Artifact.ContentHash())
	assert.Equal(t, 2, second.Artifact.Generation())
}

func TestMintService_EmptyTreeRefused(t *testing.T) {
	svc, _, _ := newMintService()
	graph := aggregates.NewDestinyGraph(nil)

	_, err := svc.Mint(context.Background(), graph, valueobjects.NewCharacterID())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrSnapshotEmpty)
}

func TestSnapshotHash_StableAcrossCalls(t *testing.T) {
	characterID := valueobjects.NewCharacterID()
	graph := graphWithLife(t, characterID, 1, 2, 3)

	snap, err := graph.Snapshot(characterID)
	require.NoError(t, err)
	first, err := SnapshotHash(snap)
	require.NoError(t, err)

	again, err := graph.Snapshot(characterID)
	require.NoError(t, err)
	second, err := SnapshotHash(again)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}
