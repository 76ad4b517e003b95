package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
)

func buildChain(t *testing.T, graph *aggregates.DestinyGraph, characterID valueobjects.CharacterID, impacts ...float64) []*entities.DestinyNode {
	t.Helper()
	var chain []*entities.DestinyNode
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
		chain = append(chain, node)
	}
	return chain
}

func TestFateScorer_SingleRootScoresItsOwnImpact(t *testing.T) {
	graph := aggregates.NewDestinyGraph(nil)
	characterID := valueobjects.NewCharacterID()
	chain := buildChain(t, graph, characterID, 0)

	scorer := NewFateScorer(nil)
	score, err := scorer.ScoreNode(graph, chain[0].ID())
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestFateScorer_EmptyChainScoresZero(t *testing.T) {
	scorer := NewFateScorer(nil)
	assert.Zero(t, scorer.ScoreChain(nil))
}

func TestFateScorer_RecomputeIsBitIdentical(t *testing.T) {
	graph := aggregates.NewDestinyGraph(nil)
	characterID := valueobjects.NewCharacterID()
	chain := buildChain(t, graph, characterID, 2.0, -1.5, 3.25, 0.1)

	scorer := NewFateScorer(nil)
	tip := chain[len(chain)-1].ID()

	first, err := scorer.ScoreNode(graph, tip)
	require.NoError(t, err)
	second, err := scorer.ScoreNode(graph, tip)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFateScorer_RecentModeWeighsTipMost(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.DecayMode = config.DecayRecent
	cfg.DecayLambda = 1.0

	graph := aggregates.NewDestinyGraph(cfg)
	characterID := valueobjects.NewCharacterID()
	chain := buildChain(t, graph, characterID, 0, 10)

	scorer := NewFateScorer(cfg)
	score, err := scorer.ScoreNode(graph, chain[1].ID())
	require.NoError(t, err)
	// tip impact 10 dominates the weighted mean
	assert.Greater(t, score, 5.0)
}

func TestFateScorer_FoundationalModeWeighsRootMost(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.DecayMode = config.DecayFoundational
	cfg.DecayLambda = 1.0

	graph := aggregates.NewDestinyGraph(cfg)
	characterID := valueobjects.NewCharacterID()
	chain := buildChain(t, graph, characterID, 10, 0)

	scorer := NewFateScorer(cfg)
	score, err := scorer.ScoreNode(graph, chain[1].ID())
	require.NoError(t, err)
	assert.Greater(t, score, 5.0)
}

func TestFateScorer_UniformImpactsScoreThatImpact(t *testing.T) {
	graph := aggregates.NewDestinyGraph(nil)
	characterID := valueobjects.NewCharacterID()
	chain := buildChain(t, graph, characterID, 4, 4, 4)

	scorer := NewFateScorer(nil)
	score, err := scorer.ScoreNode(graph, chain[2].ID())
	require.NoError(t, err)
	assert.InDelta(t, 4.0, score, 1e-9)
}

func TestFateScorer_ScoreDelta(t *testing.T) {
	graph := aggregates.NewDestinyGraph(nil)
	characterID := valueobjects.NewCharacterID()
	chain := buildChain(t, graph, characterID, 1, 5)

	scorer := NewFateScorer(nil)

	rootDelta, err := scorer.ScoreDelta(graph, chain[0].ID())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rootDelta, 1e-9)

	tipDelta, err := scorer.ScoreDelta(graph, chain[1].ID())
	require.NoError(t, err)
	tipScore, err := scorer.ScoreNode(graph, chain[1].ID())
	require.NoError(t, err)
	assert.InDelta(t, tipScore-1.0, tipDelta, 1e-9)
}
