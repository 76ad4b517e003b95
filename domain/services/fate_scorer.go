package services

import (
	"math"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
)

// FateScorer folds a node's ancestor chain into a single fate score.
//
// The score is the weighted mean of impact levels along the root-to-node
// path. Weights decay exponentially with distance: in foundational mode
// the root weighs most, in recent mode the chain tip does. Scoring a
// node always re-folds its full chain, so scoring after an insert and
// recomputing from scratch produce bit-identical results.
type FateScorer struct {
	cfg *config.DomainConfig
}

// NewFateScorer creates a scorer with the given domain config
func NewFateScorer(cfg *config.DomainConfig) *FateScorer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &FateScorer{cfg: cfg}
}

// ScoreChain folds an ordered root-to-node chain into a fate score.
// An empty chain scores zero.
func (s *FateScorer) ScoreChain(chain []*entities.DestinyNode) float64 {
	if len(chain) == 0 {
		return 0
	}

	var weighted, total float64
	for depth, node := range chain {
		w := s.weight(depth, len(chain))
		weighted += node.ImpactLevel() * w
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// ScoreNode folds the given node's ancestor chain into a fate score
func (s *FateScorer) ScoreNode(graph *aggregates.DestinyGraph, id valueobjects.NodeID) (float64, error) {
	chain, err := graph.GetAncestorChain(id)
	if err != nil {
		return 0, err
	}
	return s.ScoreChain(chain), nil
}

// ScoreDelta returns how much a node changed the fate score relative to
// its parent's chain. For a root node the delta is the root's own score.
func (s *FateScorer) ScoreDelta(graph *aggregates.DestinyGraph, id valueobjects.NodeID) (float64, error) {
	chain, err := graph.GetAncestorChain(id)
	if err != nil {
		return 0, err
	}
	score := s.ScoreChain(chain)
	if len(chain) < 2 {
		return score, nil
	}
	return score - s.ScoreChain(chain[:len(chain)-1]), nil
}

func (s *FateScorer) weight(depth, chainLen int) float64 {
	switch s.cfg.DecayMode {
	case config.DecayFoundational:
		return math.Exp(-s.cfg.DecayLambda * float64(depth))
	default:
		return math.Exp(-s.cfg.DecayLambda * float64(chainLen-1-depth))
	}
}
