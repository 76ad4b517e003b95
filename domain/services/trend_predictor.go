package services

import "mirage-engine/domain/config"

// Trend classifies the direction of a fate trajectory
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// trendEpsilon is the slope band treated as flat
const trendEpsilon = 0.05

// TrendPredictor extrapolates a character's fate trajectory from the
// recent score history with an ordinary least-squares fit over the
// configured context window.
type TrendPredictor struct {
	cfg *config.DomainConfig
}

// NewTrendPredictor creates a predictor with the given domain config
func NewTrendPredictor(cfg *config.DomainConfig) *TrendPredictor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &TrendPredictor{cfg: cfg}
}

// Slope fits a line to the last ContextWindow scores and returns its
// slope, score change per tick. Fewer than two points fit flat.
func (p *TrendPredictor) Slope(scores []float64) float64 {
	if p.cfg.ContextWindow > 0 && len(scores) > p.cfg.ContextWindow {
		scores = scores[len(scores)-p.cfg.ContextWindow:]
	}
	n := len(scores)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range scores {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denom
}

// PredictNext extrapolates the next score, clamped to the fate range
func (p *TrendPredictor) PredictNext(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	next := scores[len(scores)-1] + p.Slope(scores)
	if next < p.cfg.MinFateScore {
		return p.cfg.MinFateScore
	}
	if next > p.cfg.MaxFateScore {
		return p.cfg.MaxFateScore
	}
	return next
}

// Classify labels the trajectory's direction
func (p *TrendPredictor) Classify(scores []float64) Trend {
	slope := p.Slope(scores)
	switch {
	case slope > trendEpsilon:
		return TrendRising
	case slope < -trendEpsilon:
		return TrendFalling
	default:
		return TrendStable
	}
}
