package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mirage-engine/domain/config"
)

func TestTrendPredictor_Slope(t *testing.T) {
	p := NewTrendPredictor(nil)

	assert.Equal(t, 0.0, p.Slope(nil))
	assert.Equal(t, 0.0, p.Slope([]float64{1.0}))
	assert.InDelta(t, 0.5, p.Slope([]float64{0, 0.5, 1.0, 1.5}), 1e-9)
	assert.InDelta(t, -1.0, p.Slope([]float64{3, 2, 1}), 1e-9)
}

func TestTrendPredictor_SlopeUsesOnlyContextWindow(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.ContextWindow = 3
	p := NewTrendPredictor(cfg)

	// Early collapse falls outside the window; only the tail counts.
	scores := []float64{10, -10, 1, 2, 3}
	assert.InDelta(t, 1.0, p.Slope(scores), 1e-9)
}

func TestTrendPredictor_PredictNextClampsToFateRange(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	p := NewTrendPredictor(cfg)

	assert.Equal(t, 0.0, p.PredictNext(nil))

	high := p.PredictNext([]float64{cfg.MaxFateScore - 1, cfg.MaxFateScore})
	assert.LessOrEqual(t, high, cfg.MaxFateScore)

	low := p.PredictNext([]float64{cfg.MinFateScore + 1, cfg.MinFateScore})
	assert.GreaterOrEqual(t, low, cfg.MinFateScore)
}

func TestTrendPredictor_Classify(t *testing.T) {
	p := NewTrendPredictor(nil)

	assert.Equal(t, TrendRising, p.Classify([]float64{0, 1, 2}))
	assert.Equal(t, TrendFalling, p.Classify([]float64{2, 1, 0}))
	assert.Equal(t, TrendStable, p.Classify([]float64{1, 1.01, 1}))
	assert.Equal(t, TrendStable, p.Classify([]float64{1}))
}
