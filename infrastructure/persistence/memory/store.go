// Package memory provides map-backed implementations of the
// persistence ports. They are the default for local runs and tests;
// the dynamodb package provides the durable equivalents.
package memory

import (
	"context"
	"sync"

	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/domain/events"
	pkgerrors "mirage-engine/pkg/errors"
)

// CharacterRepository is a map-backed character store
type CharacterRepository struct {
	mu         sync.RWMutex
	characters map[valueobjects.CharacterID]*entities.Character
}

// NewCharacterRepository creates an empty character store
func NewCharacterRepository() *CharacterRepository {
	return &CharacterRepository{
		characters: make(map[valueobjects.CharacterID]*entities.Character),
	}
}

func (r *CharacterRepository) Save(_ context.Context, character *entities.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.characters[character.ID()] = character
	return nil
}

func (r *CharacterRepository) GetByID(_ context.Context, id valueobjects.CharacterID) (*entities.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	character, ok := r.characters[id]
	if !ok {
		return nil, pkgerrors.ErrCharacterNotFound.WithDetail("character_id", id.String())
	}
	return character, nil
}

func (r *CharacterRepository) GetByOwnerID(_ context.Context, ownerID string) ([]*entities.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Character
	for _, character := range r.characters {
		if character.OwnerID() == ownerID {
			out = append(out, character)
		}
	}
	return out, nil
}

func (r *CharacterRepository) GetByRegimeID(_ context.Context, regimeID valueobjects.RegimeID) ([]*entities.Character, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Character
	for _, character := range r.characters {
		if character.RegimeID().Equals(regimeID) {
			out = append(out, character)
		}
	}
	return out, nil
}

func (r *CharacterRepository) Delete(_ context.Context, id valueobjects.CharacterID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.characters[id]; !ok {
		return pkgerrors.ErrCharacterNotFound.WithDetail("character_id", id.String())
	}
	delete(r.characters, id)
	return nil
}

// RegimeRepository is a map-backed regime store
type RegimeRepository struct {
	mu      sync.RWMutex
	regimes map[valueobjects.RegimeID]*entities.Regime
}

// NewRegimeRepository creates an empty regime store
func NewRegimeRepository() *RegimeRepository {
	return &RegimeRepository{regimes: make(map[valueobjects.RegimeID]*entities.Regime)}
}

func (r *RegimeRepository) Save(_ context.Context, regime *entities.Regime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regimes[regime.ID()] = regime
	return nil
}

func (r *RegimeRepository) GetByID(_ context.Context, id valueobjects.RegimeID) (*entities.Regime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	regime, ok := r.regimes[id]
	if !ok {
		return nil, pkgerrors.ErrRegimeNotFound.WithDetail("regime_id", id.String())
	}
	return regime, nil
}

func (r *RegimeRepository) List(_ context.Context) ([]*entities.Regime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Regime, 0, len(r.regimes))
	for _, regime := range r.regimes {
		out = append(out, regime)
	}
	return out, nil
}

func (r *RegimeRepository) Delete(_ context.Context, id valueobjects.RegimeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regimes[id]; !ok {
		return pkgerrors.ErrRegimeNotFound.WithDetail("regime_id", id.String())
	}
	delete(r.regimes, id)
	return nil
}

type relationshipKey struct {
	source valueobjects.CharacterID
	target valueobjects.CharacterID
}

// RelationshipRepository is a map-backed relationship store
type RelationshipRepository struct {
	mu            sync.RWMutex
	relationships map[relationshipKey]*entities.Relationship
}

// NewRelationshipRepository creates an empty relationship store
func NewRelationshipRepository() *RelationshipRepository {
	return &RelationshipRepository{
		relationships: make(map[relationshipKey]*entities.Relationship),
	}
}

func (r *RelationshipRepository) Save(_ context.Context, relationship *entities.Relationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := relationshipKey{relationship.SourceID(), relationship.TargetID()}
	r.relationships[key] = relationship
	return nil
}

func (r *RelationshipRepository) Get(_ context.Context, sourceID, targetID valueobjects.CharacterID) (*entities.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	relationship, ok := r.relationships[relationshipKey{sourceID, targetID}]
	if !ok {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError, "RELATIONSHIP_NOT_FOUND",
			"no relationship between the given characters",
		).WithDetail("source_id", sourceID.String()).WithDetail("target_id", targetID.String())
	}
	return relationship, nil
}

func (r *RelationshipRepository) GetBySource(_ context.Context, sourceID valueobjects.CharacterID) ([]*entities.Relationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Relationship
	for key, relationship := range r.relationships {
		if key.source.Equals(sourceID) {
			out = append(out, relationship)
		}
	}
	return out, nil
}

// ArtifactRepository is a map-backed artifact store indexed by token
// and by content hash for idempotent minting.
type ArtifactRepository struct {
	mu       sync.RWMutex
	byToken  map[string]*entities.FateArtifact
	byHash   map[string]*entities.FateArtifact
	byOrigin map[valueobjects.CharacterID][]*entities.FateArtifact
}

// NewArtifactRepository creates an empty artifact store
func NewArtifactRepository() *ArtifactRepository {
	return &ArtifactRepository{
		byToken:  make(map[string]*entities.FateArtifact),
		byHash:   make(map[string]*entities.FateArtifact),
		byOrigin: make(map[valueobjects.CharacterID][]*entities.FateArtifact),
	}
}

func (r *ArtifactRepository) Save(_ context.Context, artifact *entities.FateArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, fresh := r.byToken[artifact.TokenID()]; !fresh {
		r.byOrigin[artifact.CharacterID()] = append(r.byOrigin[artifact.CharacterID()], artifact)
	}
	r.byToken[artifact.TokenID()] = artifact
	r.byHash[artifact.ContentHash()] = artifact
	return nil
}

func (r *ArtifactRepository) GetByTokenID(_ context.Context, tokenID string) (*entities.FateArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifact, ok := r.byToken[tokenID]
	if !ok {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError, "ARTIFACT_NOT_FOUND",
			"no artifact with the given token",
		).WithDetail("token_id", tokenID)
	}
	return artifact, nil
}

func (r *ArtifactRepository) GetByContentHash(_ context.Context, hash string) (*entities.FateArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifact, ok := r.byHash[hash]
	if !ok {
		return nil, pkgerrors.NewDomainError(
			pkgerrors.DomainNotFoundError, "ARTIFACT_NOT_FOUND",
			"no artifact with the given content hash",
		).WithDetail("content_hash", hash)
	}
	return artifact, nil
}

func (r *ArtifactRepository) GetByCharacterID(_ context.Context, characterID valueobjects.CharacterID) ([]*entities.FateArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifacts := r.byOrigin[characterID]
	out := make([]*entities.FateArtifact, len(artifacts))
	copy(out, artifacts)
	return out, nil
}

// EventStore is a map-backed domain event log
type EventStore struct {
	mu     sync.RWMutex
	stream []events.DomainEvent
}

// NewEventStore creates an empty event store
func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) SaveEvents(_ context.Context, evts []events.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = append(s.stream, evts...)
	return nil
}

func (s *EventStore) GetEvents(_ context.Context, aggregateID string) ([]events.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.DomainEvent
	for _, evt := range s.stream {
		if evt.GetAggregateID() == aggregateID {
			out = append(out, evt)
		}
	}
	return out, nil
}

func (s *EventStore) GetEventsByType(_ context.Context, eventType string, limit int) ([]events.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.DomainEvent
	for _, evt := range s.stream {
		if evt.GetEventType() == eventType {
			out = append(out, evt)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// TickPublisher buffers published events in order; local runs read the
// produced stream straight off it.
type TickPublisher struct {
	mu     sync.Mutex
	stream []events.DomainEvent
}

// NewTickPublisher creates an empty in-process publisher
func NewTickPublisher() *TickPublisher {
	return &TickPublisher{}
}

func (p *TickPublisher) Publish(_ context.Context, evt events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stream = append(p.stream, evt)
	return nil
}

func (p *TickPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, evt := range evts {
		if err := p.Publish(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

// Stream returns a copy of everything published so far, in order
func (p *TickPublisher) Stream() []events.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.DomainEvent, len(p.stream))
	copy(out, p.stream)
	return out
}

// RegimeLock is a map-backed single-process lock. It mirrors the
// DynamoDB lock's semantics, including re-entrancy for the same owner.
type RegimeLock struct {
	mu     sync.Mutex
	owners map[valueobjects.RegimeID]string
}

// NewRegimeLock creates an empty in-process regime lock
func NewRegimeLock() *RegimeLock {
	return &RegimeLock{owners: make(map[valueobjects.RegimeID]string)}
}

func (l *RegimeLock) Acquire(_ context.Context, regimeID valueobjects.RegimeID, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, held := l.owners[regimeID]; held && holder != ownerID {
		return pkgerrors.ErrRegimeContention.WithDetail("regime_id", regimeID.String())
	}
	l.owners[regimeID] = ownerID
	return nil
}

func (l *RegimeLock) Release(_ context.Context, regimeID valueobjects.RegimeID, ownerID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, held := l.owners[regimeID]; held && holder == ownerID {
		delete(l.owners, regimeID)
	}
	return nil
}
