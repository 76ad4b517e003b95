package valueobjects

// RarityTier is the ordered classification of a minted artifact
type RarityTier string

const (
	TierCommon    RarityTier = "common"
	TierRare      RarityTier = "rare"
	TierEpic      RarityTier = "epic"
	TierLegendary RarityTier = "legendary"
)

var tierOrder = map[RarityTier]int{
	TierCommon:    0,
	TierRare:      1,
	TierEpic:      2,
	TierLegendary: 3,
}

// Rank returns the tier's position in the ordering, Common being lowest
func (t RarityTier) Rank() int {
	return tierOrder[t]
}

// AtLeast reports whether t ranks at or above other
func (t RarityTier) AtLeast(other RarityTier) bool {
	return t.Rank() >= other.Rank()
}

// Valid reports whether t is one of the known tiers
func (t RarityTier) Valid() bool {
	_, ok := tierOrder[t]
	return ok
}
