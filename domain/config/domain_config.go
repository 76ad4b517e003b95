package config

import (
	"fmt"
	"time"
)

// DecayMode selects how ancestor-chain weights fall off when folding
// impact levels into a fate score.
type DecayMode string

const (
	// DecayFoundational weighs nodes near the root most: exp(-lambda*depth)
	DecayFoundational DecayMode = "foundational"

	// DecayRecent weighs nodes near the chain tip most:
	// exp(-lambda*(chainLen-1-depth))
	DecayRecent DecayMode = "recent"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Graph constraints
	MaxNodesPerCharacter int
	MaxEventsPerSession  int
	MaxTagsPerNode       int
	MaxTagLength         int
	MaxNameLength        int

	// Fate scoring
	DecayMode   DecayMode
	DecayLambda float64

	// Character state
	MinFateScore float64
	MaxFateScore float64
	// Ticks whose absolute fate delta exceeds this mark the node critical
	CriticalFateDelta float64

	// Relationship scalars. When clamping is off, conflict and influence
	// are left unbounded; trust and intensity always clamp to [0,1].
	ClampRelationshipScalars bool

	// Regime aggregates
	PopulationRatioTolerance float64

	// Decision loop
	ContextWindow    int
	MaxAge           int
	PolicyTimeout    time.Duration
	PolicyMaxRetries int

	// Regime keeper
	RegimeSendTimeout  time.Duration
	RegimeMaxRetries   int
	RegimeRetryBackoff time.Duration

	// Rarity thresholds (score is clamped to [0,100])
	RarityRareThreshold      float64
	RarityEpicThreshold      float64
	RarityLegendaryThreshold float64
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerCharacter: 10000,
		MaxEventsPerSession:  50000,
		MaxTagsPerNode:       20,
		MaxTagLength:         50,
		MaxNameLength:        200,

		DecayMode:   DecayRecent,
		DecayLambda: 0.15,

		MinFateScore:      0,
		MaxFateScore:      100,
		CriticalFateDelta: 1.0,

		ClampRelationshipScalars: true,

		PopulationRatioTolerance: 0.001,

		ContextWindow:    10,
		MaxAge:           80,
		PolicyTimeout:    2 * time.Second,
		PolicyMaxRetries: 1,

		RegimeSendTimeout:  time.Second,
		RegimeMaxRetries:   3,
		RegimeRetryBackoff: 50 * time.Millisecond,

		RarityRareThreshold:      50,
		RarityEpicThreshold:      75,
		RarityLegendaryThreshold: 90,
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.DecayMode != DecayFoundational && c.DecayMode != DecayRecent {
		return fmt.Errorf("invalid decay mode: %q", c.DecayMode)
	}
	if c.DecayLambda < 0 {
		return fmt.Errorf("decay lambda must be non-negative: %f", c.DecayLambda)
	}
	if c.MaxAge <= 0 {
		return fmt.Errorf("max age must be positive: %d", c.MaxAge)
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("context window must be non-negative: %d", c.ContextWindow)
	}
	if c.PolicyMaxRetries < 0 {
		return fmt.Errorf("policy max retries must be non-negative: %d", c.PolicyMaxRetries)
	}
	if !(c.RarityRareThreshold < c.RarityEpicThreshold &&
		c.RarityEpicThreshold < c.RarityLegendaryThreshold) {
		return fmt.Errorf("rarity thresholds must be strictly increasing")
	}
	return nil
}
