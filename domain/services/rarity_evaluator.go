package services

import (
	"math"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// RarityEvaluator scores a graph snapshot for minting. The evaluation
// is a pure function of the snapshot: the same unchanged tree always
// yields the same score and tier.
//
// Scoring starts from a base of 50 and rewards long lives, turning
// points, dramatic swings in impact, and narrative tag pairings.
type RarityEvaluator struct {
	cfg *config.DomainConfig
}

// tagCombos rewards tag pairings that mark a dramatic life. A combo
// fires when both tags appear anywhere in the tree.
var tagCombos = []struct {
	first, second string
	bonus         float64
}{
	{"betrayal", "sacrifice", 8},
	{"miracle", "disaster", 8},
	{"rebellion", "", 4},
}

// NewRarityEvaluator creates an evaluator with the given domain config
func NewRarityEvaluator(cfg *config.DomainConfig) *RarityEvaluator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &RarityEvaluator{cfg: cfg}
}

// Evaluation is the rarity verdict for one snapshot
type Evaluation struct {
	Score      float64                 `json:"score"`
	Tier       valueobjects.RarityTier `json:"tier"`
	NodeCount  int                     `json:"node_count"`
	Criticals  int                     `json:"criticals"`
	ImpactSpan float64                 `json:"impact_span"`
}

// Evaluate scores a snapshot and classifies it into a tier
func (e *RarityEvaluator) Evaluate(snap *aggregates.GraphSnapshot) (*Evaluation, error) {
	if snap == nil || len(snap.Nodes) == 0 {
		return nil, pkgerrors.ErrSnapshotEmpty
	}

	score := 50.0

	switch {
	case len(snap.Nodes) > 10:
		score += 10
	case len(snap.Nodes) > 5:
		score += 5
	}

	criticals := 0
	impacts := make([]float64, 0, len(snap.Nodes))
	tags := make(map[string]bool)
	for _, node := range snap.Nodes {
		if node.IsCritical {
			criticals++
		}
		impacts = append(impacts, node.ImpactLevel)
		for _, tag := range node.Tags {
			tags[tag] = true
		}
	}
	score += 5 * float64(criticals)

	sigma := stddev(impacts)
	score += math.Min(15, 5*sigma)

	for _, combo := range tagCombos {
		if tags[combo.first] && (combo.second == "" || tags[combo.second]) {
			score += combo.bonus
		}
	}

	score = valueobjects.Clamp(score, 0, 100)
	return &Evaluation{
		Score:      score,
		Tier:       e.tier(score),
		NodeCount:  len(snap.Nodes),
		Criticals:  criticals,
		ImpactSpan: sigma,
	}, nil
}

func (e *RarityEvaluator) tier(score float64) valueobjects.RarityTier {
	switch {
	case score >= e.cfg.RarityLegendaryThreshold:
		return valueobjects.TierLegendary
	case score >= e.cfg.RarityEpicThreshold:
		return valueobjects.TierEpic
	case score >= e.cfg.RarityRareThreshold:
		return valueobjects.TierRare
	default:
		return valueobjects.TierCommon
	}
}

// stddev is the population standard deviation
func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range vs {
		mean += v
	}
	mean /= float64(len(vs))

	variance := 0.0
	for _, v := range vs {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(vs))
	return math.Sqrt(variance)
}
