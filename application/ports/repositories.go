package ports

import (
	"context"

	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/domain/events"
)

// CharacterRepository defines the interface for character persistence.
// This is a port in hexagonal architecture - the domain doesn't know
// about the implementation.
type CharacterRepository interface {
	// Save persists a character (create or update)
	Save(ctx context.Context, character *entities.Character) error

	// GetByID retrieves a character by its ID
	GetByID(ctx context.Context, id valueobjects.CharacterID) (*entities.Character, error)

	// GetByOwnerID retrieves all characters belonging to a user
	GetByOwnerID(ctx context.Context, ownerID string) ([]*entities.Character, error)

	// GetByRegimeID retrieves all characters living under a regime
	GetByRegimeID(ctx context.Context, regimeID valueobjects.RegimeID) ([]*entities.Character, error)

	// Delete removes a character
	Delete(ctx context.Context, id valueobjects.CharacterID) error
}

// RegimeRepository defines the interface for regime persistence
type RegimeRepository interface {
	// Save persists a regime (create or update)
	Save(ctx context.Context, regime *entities.Regime) error

	// GetByID retrieves a regime by its ID
	GetByID(ctx context.Context, id valueobjects.RegimeID) (*entities.Regime, error)

	// List retrieves every known regime
	List(ctx context.Context) ([]*entities.Regime, error)

	// Delete removes a regime
	Delete(ctx context.Context, id valueobjects.RegimeID) error
}

// RelationshipRepository defines the interface for relationship persistence
type RelationshipRepository interface {
	// Save persists a relationship (create or update)
	Save(ctx context.Context, relationship *entities.Relationship) error

	// Get retrieves the directed relationship from source to target
	Get(ctx context.Context, sourceID, targetID valueobjects.CharacterID) (*entities.Relationship, error)

	// GetBySource retrieves every relationship a character holds
	GetBySource(ctx context.Context, sourceID valueobjects.CharacterID) ([]*entities.Relationship, error)
}

// ArtifactRepository defines the interface for minted artifact persistence
type ArtifactRepository interface {
	// Save persists an artifact
	Save(ctx context.Context, artifact *entities.FateArtifact) error

	// GetByTokenID retrieves an artifact by token
	GetByTokenID(ctx context.Context, tokenID string) (*entities.FateArtifact, error)

	// GetByContentHash retrieves the artifact minted from a snapshot hash,
	// if one exists; minting uses this for idempotence
	GetByContentHash(ctx context.Context, hash string) (*entities.FateArtifact, error)

	// GetByCharacterID retrieves every artifact minted from a character
	GetByCharacterID(ctx context.Context, characterID valueobjects.CharacterID) ([]*entities.FateArtifact, error)
}

// InteractionRecorder folds a cross-character causal event into the
// actor's directed relationship with its target
type InteractionRecorder interface {
	// RecordInteraction applies the delta to the actor→target link,
	// creating the relationship on first contact
	RecordInteraction(ctx context.Context, event *entities.CausalEvent, delta entities.RelationshipDelta) (*entities.Relationship, error)
}

// EventStore defines the interface for domain event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// GetEventsByType retrieves events of a specific type
	GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error)
}

// TickPublisher defines the interface for the produced event stream.
// Implementations must preserve tick order per session.
type TickPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events in order
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// MetricsPublisher defines the interface for emitting run metrics
type MetricsPublisher interface {
	// Count adds to a named counter
	Count(ctx context.Context, name string, value float64, dimensions map[string]string)

	// Gauge records a point-in-time value
	Gauge(ctx context.Context, name string, value float64, dimensions map[string]string)

	// Timing records a duration in milliseconds
	Timing(ctx context.Context, name string, millis float64, dimensions map[string]string)

	// Flush pushes buffered metrics out
	Flush(ctx context.Context) error
}

// RegimeLock defines the interface for exclusive regime write access.
// Distributed deployments back this with conditional writes; local runs
// use the in-process keeper.
type RegimeLock interface {
	// Acquire takes the lock for the given regime, or fails fast
	Acquire(ctx context.Context, regimeID valueobjects.RegimeID, ownerID string) error

	// Release frees the lock; releasing an unheld lock is a no-op
	Release(ctx context.Context, regimeID valueobjects.RegimeID, ownerID string) error
}
