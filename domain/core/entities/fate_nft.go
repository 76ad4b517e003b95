package entities

import (
	"time"

	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// FateArtifact is the collectible minted from a character's destiny
// tree snapshot. The content hash is deterministic over the snapshot,
// so minting the same unchanged tree twice yields the same artifact.
type FateArtifact struct {
	tokenID     string
	characterID valueobjects.CharacterID
	contentHash string
	tier        valueobjects.RarityTier
	rarityScore float64
	generation  int
	eventCount  int
	price       float64
	isOnSale    bool
	mintedAt    time.Time
	updatedAt   time.Time
}

// NewFateArtifact creates a minted artifact
func NewFateArtifact(
	tokenID string,
	characterID valueobjects.CharacterID,
	contentHash string,
	tier valueobjects.RarityTier,
	rarityScore float64,
	generation, eventCount int,
	mintedAt time.Time,
) (*FateArtifact, error) {
	if tokenID == "" {
		return nil, pkgerrors.NewValidationError("token_id", "token id is required")
	}
	if characterID.IsZero() {
		return nil, pkgerrors.NewValidationError("character_id", "character is required")
	}
	if contentHash == "" {
		return nil, pkgerrors.NewValidationError("content_hash", "content hash is required")
	}
	if !tier.Valid() {
		return nil, pkgerrors.NewValidationError("tier", "unknown rarity tier")
	}
	if rarityScore < 0 || rarityScore > 100 {
		return nil, pkgerrors.NewValidationError("rarity_score", "rarity score must be in [0,100]")
	}
	if mintedAt.IsZero() {
		mintedAt = time.Now()
	}

	return &FateArtifact{
		tokenID:     tokenID,
		characterID: characterID,
		contentHash: contentHash,
		tier:        tier,
		rarityScore: rarityScore,
		generation:  generation,
		eventCount:  eventCount,
		mintedAt:    mintedAt,
		updatedAt:   mintedAt,
	}, nil
}

// ReconstructFateArtifact recreates an artifact from stored data
func ReconstructFateArtifact(
	tokenID string,
	characterID valueobjects.CharacterID,
	contentHash string,
	tier valueobjects.RarityTier,
	rarityScore float64,
	generation, eventCount int,
	price float64,
	isOnSale bool,
	mintedAt, updatedAt time.Time,
) *FateArtifact {
	return &FateArtifact{
		tokenID:     tokenID,
		characterID: characterID,
		contentHash: contentHash,
		tier:        tier,
		rarityScore: rarityScore,
		generation:  generation,
		eventCount:  eventCount,
		price:       price,
		isOnSale:    isOnSale,
		mintedAt:    mintedAt,
		updatedAt:   updatedAt,
	}
}

// TokenID returns the artifact's token identifier
func (a *FateArtifact) TokenID() string { return a.tokenID }

// CharacterID returns the character the artifact was minted from
func (a *FateArtifact) CharacterID() valueobjects.CharacterID { return a.characterID }

// ContentHash returns the deterministic snapshot hash
func (a *FateArtifact) ContentHash() string { return a.contentHash }

// Tier returns the rarity tier
func (a *FateArtifact) Tier() valueobjects.RarityTier { return a.tier }

// RarityScore returns the rarity score in [0,100]
func (a *FateArtifact) RarityScore() float64 { return a.rarityScore }

// Generation returns which mint of this character the artifact is
func (a *FateArtifact) Generation() int { return a.generation }

// EventCount returns the node count of the snapshot at mint time
func (a *FateArtifact) EventCount() int { return a.eventCount }

// Price returns the listing price, zero when not listed
func (a *FateArtifact) Price() float64 { return a.price }

// IsOnSale reports whether the artifact is listed for sale
func (a *FateArtifact) IsOnSale() bool { return a.isOnSale }

// MintedAt returns when the artifact was minted
func (a *FateArtifact) MintedAt() time.Time { return a.mintedAt }

// UpdatedAt returns when the artifact last changed
func (a *FateArtifact) UpdatedAt() time.Time { return a.updatedAt }

// ListForSale puts the artifact on the market at the given price
func (a *FateArtifact) ListForSale(price float64) error {
	if price <= 0 {
		return pkgerrors.NewValidationError("price", "listing price must be positive")
	}
	a.price = price
	a.isOnSale = true
	a.updatedAt = time.Now()
	return nil
}

// Unlist takes the artifact off the market
func (a *FateArtifact) Unlist() {
	if !a.isOnSale {
		return
	}
	a.isOnSale = false
	a.price = 0
	a.updatedAt = time.Now()
}
