package entities

import (
	"strings"
	"time"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// Character is a simulated life whose decisions grow a destiny tree.
// This is a rich domain model with encapsulated business logic; it is
// mutated only by the decision loop under its turn-taking discipline.
type Character struct {
	id          valueobjects.CharacterID
	ownerID     string
	name        string
	birth       string
	regimeID    valueobjects.RegimeID
	personality valueobjects.PersonalityVector
	emotion     valueobjects.EmotionVector
	social      valueobjects.SocialVector
	attributes  map[string]float64
	fateScore   float64
	age         int
	archived    bool
	createdAt   time.Time
	updatedAt   time.Time
	lastRunAt   *time.Time
	version     int
}

// Profile is the flattened snapshot handed to the decision policy
type Profile struct {
	CharacterID valueobjects.CharacterID       `json:"character_id"`
	Name        string                         `json:"name"`
	Age         int                            `json:"age"`
	Personality valueobjects.PersonalityVector `json:"personality"`
	Emotion     valueobjects.EmotionVector     `json:"emotion"`
	Social      valueobjects.SocialVector      `json:"social"`
	Attributes  map[string]float64             `json:"attributes"`
	FateScore   float64                        `json:"fate_score"`
}

// NewCharacter creates a new character with business rule validation
func NewCharacter(ownerID, name, birth string, regimeID valueobjects.RegimeID, personality valueobjects.PersonalityVector) (*Character, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("owner_id", "owner cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("name", "name cannot be empty")
	}
	if birth == "" {
		return nil, pkgerrors.NewValidationError("birth", "birth descriptor cannot be empty")
	}

	now := time.Now()
	return &Character{
		id:          valueobjects.NewCharacterID(),
		ownerID:     ownerID,
		name:        name,
		birth:       birth,
		regimeID:    regimeID,
		personality: personality.Clamped(),
		emotion:     valueobjects.DefaultEmotion(),
		social:      valueobjects.DefaultSocial(),
		attributes:  make(map[string]float64),
		createdAt:   now,
		updatedAt:   now,
		version:     1,
	}, nil
}

// ReconstructCharacter recreates a character from stored data
func ReconstructCharacter(
	id valueobjects.CharacterID,
	ownerID, name, birth string,
	regimeID valueobjects.RegimeID,
	personality valueobjects.PersonalityVector,
	emotion valueobjects.EmotionVector,
	social valueobjects.SocialVector,
	attributes map[string]float64,
	fateScore float64,
	age int,
	archived bool,
	createdAt, updatedAt time.Time,
) *Character {
	if attributes == nil {
		attributes = make(map[string]float64)
	}
	return &Character{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		birth:       birth,
		regimeID:    regimeID,
		personality: personality,
		emotion:     emotion,
		social:      social,
		attributes:  attributes,
		fateScore:   fateScore,
		age:         age,
		archived:    archived,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		version:     1,
	}
}

// ID returns the character's unique identifier
func (c *Character) ID() valueobjects.CharacterID { return c.id }

// OwnerID returns the owning user's identifier
func (c *Character) OwnerID() string { return c.ownerID }

// Name returns the character's name
func (c *Character) Name() string { return c.name }

// Birth returns the birth descriptor
func (c *Character) Birth() string { return c.birth }

// RegimeID returns the regime this character lives under
func (c *Character) RegimeID() valueobjects.RegimeID { return c.regimeID }

// Personality returns the five-factor personality vector
func (c *Character) Personality() valueobjects.PersonalityVector { return c.personality }

// Emotion returns the current emotional state
func (c *Character) Emotion() valueobjects.EmotionVector { return c.emotion }

// Social returns the current social standing
func (c *Character) Social() valueobjects.SocialVector { return c.social }

// FateScore returns the cumulative fate score
func (c *Character) FateScore() float64 { return c.fateScore }

// Age returns the simulated age
func (c *Character) Age() int { return c.age }

// IsArchived reports whether the character has been soft-deleted
func (c *Character) IsArchived() bool { return c.archived }

// Version returns the entity version for optimistic locking
func (c *Character) Version() int { return c.version }

// CreatedAt returns when the character was created
func (c *Character) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns when the character was last updated
func (c *Character) UpdatedAt() time.Time { return c.updatedAt }

// LastRunAt returns when the character was last simulated, if ever
func (c *Character) LastRunAt() *time.Time { return c.lastRunAt }

// Attribute returns a named attribute, defaulting to 0.5 when unset
func (c *Character) Attribute(name string) float64 {
	if v, ok := c.attributes[name]; ok {
		return v
	}
	return 0.5
}

// Attributes returns a copy of the attribute map
func (c *Character) Attributes() map[string]float64 {
	attrs := make(map[string]float64, len(c.attributes))
	for k, v := range c.attributes {
		attrs[k] = v
	}
	return attrs
}

// Profile produces the decision-context snapshot of this character
func (c *Character) Profile() Profile {
	return Profile{
		CharacterID: c.id,
		Name:        c.name,
		Age:         c.age,
		Personality: c.personality,
		Emotion:     c.emotion,
		Social:      c.social,
		Attributes:  c.Attributes(),
		FateScore:   c.fateScore,
	}
}

// ApplyConsequence mutates the character state from a tick's consequence
// payload. Fate score clamps to the configured range; emotion and social
// vectors clamp to [0,1].
func (c *Character) ApplyConsequence(consequence Consequence, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if c.archived {
		return pkgerrors.NewValidationError("character", "cannot mutate an archived character")
	}

	c.emotion = c.emotion.Add(consequence.Emotion)
	c.social = c.social.Add(consequence.Social)
	for name, delta := range consequence.Attributes {
		c.attributes[name] = valueobjects.Clamp01(c.Attribute(name) + delta)
	}
	c.fateScore = valueobjects.Clamp(
		c.fateScore+consequence.FateDelta,
		cfg.MinFateScore,
		cfg.MaxFateScore,
	)

	now := time.Now()
	c.lastRunAt = &now
	c.updatedAt = now
	c.version++
	return nil
}

// AdvanceAge moves simulated time forward by one step
func (c *Character) AdvanceAge() {
	c.age++
	c.updatedAt = time.Now()
}

// Archive soft-deletes the character; the destiny tree is preserved
func (c *Character) Archive() {
	if c.archived {
		return
	}
	c.archived = true
	c.updatedAt = time.Now()
	c.version++
}
