package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

func snapshotOf(nodes ...aggregates.NodeSnapshot) *aggregates.GraphSnapshot {
	return &aggregates.GraphSnapshot{
		CharacterID: valueobjects.NewCharacterID().String(),
		NodeCount:   len(nodes),
		Nodes:       nodes,
	}
}

func plainNode(impact float64) aggregates.NodeSnapshot {
	return aggregates.NodeSnapshot{
		NodeID:      valueobjects.NewNodeID().String(),
		EventName:   "step",
		EventType:   "decision",
		ImpactLevel: impact,
	}
}

func TestRarityEvaluator_EmptySnapshotRejected(t *testing.T) {
	e := NewRarityEvaluator(nil)

	_, err := e.Evaluate(nil)
	assert.ErrorIs(t, err, pkgerrors.ErrSnapshotEmpty)

	_, err = e.Evaluate(snapshotOf())
	assert.ErrorIs(t, err, pkgerrors.ErrSnapshotEmpty)
}

func TestRarityEvaluator_QuietLifeIsCommon(t *testing.T) {
	e := NewRarityEvaluator(nil)

	eval, err := e.Evaluate(snapshotOf(plainNode(1), plainNode(1)))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, eval.Score, 1e-9)
	assert.Equal(t, valueobjects.TierCommon, eval.Tier)
}

func TestRarityEvaluator_Deterministic(t *testing.T) {
	e := NewRarityEvaluator(nil)
	snap := snapshotOf(plainNode(1), plainNode(-3), plainNode(5))

	first, err := e.Evaluate(snap)
	require.NoError(t, err)
	second, err := e.Evaluate(snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRarityEvaluator_NodeCountBonusSteps(t *testing.T) {
	e := NewRarityEvaluator(nil)

	lifeOf := func(n int) *aggregates.GraphSnapshot {
		nodes := make([]aggregates.NodeSnapshot, 0, n)
		for i := 0; i < n; i++ {
			nodes = append(nodes, plainNode(1))
		}
		return snapshotOf(nodes...)
	}

	// equal impacts keep the variance bonus at zero, so the score
	// isolates the node-count steps: none through 5, +5 through 10,
	// +10 beyond that
	for count, want := range map[int]float64{5: 50, 6: 55, 7: 55, 10: 55, 11: 60, 12: 60} {
		eval, err := e.Evaluate(lifeOf(count))
		require.NoError(t, err)
		assert.InDelta(t, want, eval.Score, 1e-9, "node count %d", count)
	}
}

func TestRarityEvaluator_CriticalsAndCombosRaiseScore(t *testing.T) {
	e := NewRarityEvaluator(nil)

	critical := plainNode(4)
	critical.IsCritical = true
	critical.Tags = []string{"betrayal"}
	martyr := plainNode(-4)
	martyr.IsCritical = true
	martyr.Tags = []string{"sacrifice"}

	eval, err := e.Evaluate(snapshotOf(critical, martyr))
	require.NoError(t, err)
	// base 50 + 2 criticals (10) + combo (8) + stddev bonus
	assert.Greater(t, eval.Score, 68.0)
	assert.Equal(t, 2, eval.Criticals)
	assert.True(t, eval.Tier.AtLeast(valueobjects.TierRare))
}

func TestRarityEvaluator_ScoreClampsAtHundred(t *testing.T) {
	e := NewRarityEvaluator(nil)

	nodes := make([]aggregates.NodeSnapshot, 0, 25)
	for i := 0; i < 25; i++ {
		n := plainNode(float64(i%2) * 10)
		n.IsCritical = true
		nodes = append(nodes, n)
	}
	nodes[0].Tags = []string{"miracle"}
	nodes[1].Tags = []string{"disaster", "rebellion"}

	eval, err := e.Evaluate(snapshotOf(nodes...))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, eval.Score, 1e-9)
	assert.Equal(t, valueobjects.TierLegendary, eval.Tier)
}

func TestRarityEvaluator_TierBoundaries(t *testing.T) {
	e := NewRarityEvaluator(nil)
	assert.Equal(t, valueobjects.TierCommon, e.tier(49.99))
	assert.Equal(t, valueobjects.TierRare, e.tier(50))
	assert.Equal(t, valueobjects.TierEpic, e.tier(75))
	assert.Equal(t, valueobjects.TierLegendary, e.tier(90))
}

func TestTrendPredictor(t *testing.T) {
	p := NewTrendPredictor(nil)

	assert.Equal(t, TrendRising, p.Classify([]float64{1, 2, 3, 4}))
	assert.Equal(t, TrendFalling, p.Classify([]float64{4, 3, 2, 1}))
	assert.Equal(t, TrendStable, p.Classify([]float64{2, 2, 2}))
	assert.Equal(t, TrendStable, p.Classify([]float64{5}))

	next := p.PredictNext([]float64{10, 20, 30})
	assert.InDelta(t, 40.0, next, 1e-9)

	// extrapolation clamps to the fate range
	assert.InDelta(t, 100.0, p.PredictNext([]float64{80, 95}), 1e-9)
}
