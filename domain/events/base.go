package events

import (
	"time"

	"mirage-engine/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Graph events

// DestinyNodeAdded is raised when a destiny node joins a character's tree
type DestinyNodeAdded struct {
	BaseEvent
	NodeID      valueobjects.NodeID      `json:"node_id"`
	CharacterID valueobjects.CharacterID `json:"character_id"`
	ParentID    *valueobjects.NodeID     `json:"parent_id,omitempty"`
	EventName   string                   `json:"event_name"`
	ImpactLevel float64                  `json:"impact_level"`
}

// NewDestinyNodeAdded creates a DestinyNodeAdded event
func NewDestinyNodeAdded(nodeID valueobjects.NodeID, characterID valueobjects.CharacterID, parentID *valueobjects.NodeID, eventName string, impact float64, timestamp time.Time) DestinyNodeAdded {
	return DestinyNodeAdded{
		BaseEvent: BaseEvent{
			AggregateID: characterID.String(),
			EventType:   "graph.node_added",
			Timestamp:   timestamp,
			Version:     1,
		},
		NodeID:      nodeID,
		CharacterID: characterID,
		ParentID:    parentID,
		EventName:   eventName,
		ImpactLevel: impact,
	}
}

// CausalEventRecorded is raised when a causal event is appended to the graph
type CausalEventRecorded struct {
	BaseEvent
	EventID     valueobjects.EventID      `json:"event_id"`
	ActorID     valueobjects.CharacterID  `json:"actor_id"`
	TargetID    *valueobjects.CharacterID `json:"target_id,omitempty"`
	OriginEvent *valueobjects.EventID     `json:"origin_event,omitempty"`
	Action      string                    `json:"action"`
	ImpactScore float64                   `json:"impact_score"`
}

// NewCausalEventRecorded creates a CausalEventRecorded event
func NewCausalEventRecorded(eventID valueobjects.EventID, actorID valueobjects.CharacterID, targetID *valueobjects.CharacterID, origin *valueobjects.EventID, action string, impact float64, timestamp time.Time) CausalEventRecorded {
	return CausalEventRecorded{
		BaseEvent: BaseEvent{
			AggregateID: actorID.String(),
			EventType:   "graph.event_recorded",
			Timestamp:   timestamp,
			Version:     1,
		},
		EventID:     eventID,
		ActorID:     actorID,
		TargetID:    targetID,
		OriginEvent: origin,
		Action:      action,
		ImpactScore: impact,
	}
}

// Session events

// TickCompleted is raised after a successful decision-loop tick.
// These form the produced event stream; delivery order matches tick order.
type TickCompleted struct {
	BaseEvent
	SessionID   valueobjects.SessionID   `json:"session_id"`
	CharacterID valueobjects.CharacterID `json:"character_id"`
	Tick        int                      `json:"tick"`
	Age         int                      `json:"age"`
	Action      string                   `json:"action"`
	Reward      float64                  `json:"reward"`
	FateDelta   float64                  `json:"fate_delta"`
	FateScore   float64                  `json:"fate_score"`
}

// NewTickCompleted creates a TickCompleted event
func NewTickCompleted(sessionID valueobjects.SessionID, characterID valueobjects.CharacterID, tick, age int, action string, reward, fateDelta, fateScore float64, timestamp time.Time) TickCompleted {
	return TickCompleted{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   "session.tick_completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:   sessionID,
		CharacterID: characterID,
		Tick:        tick,
		Age:         age,
		Action:      action,
		Reward:      reward,
		FateDelta:   fateDelta,
		FateScore:   fateScore,
	}
}

// SessionCompleted is raised when a session reaches its end bound
type SessionCompleted struct {
	BaseEvent
	SessionID   valueobjects.SessionID   `json:"session_id"`
	CharacterID valueobjects.CharacterID `json:"character_id"`
	Ticks       int                      `json:"ticks"`
	FinalScore  float64                  `json:"final_score"`
}

// NewSessionCompleted creates a SessionCompleted event
func NewSessionCompleted(sessionID valueobjects.SessionID, characterID valueobjects.CharacterID, ticks int, finalScore float64, timestamp time.Time) SessionCompleted {
	return SessionCompleted{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   "session.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:   sessionID,
		CharacterID: characterID,
		Ticks:       ticks,
		FinalScore:  finalScore,
	}
}

// SessionFailed is raised when a session transitions to its failed state
type SessionFailed struct {
	BaseEvent
	SessionID   valueobjects.SessionID   `json:"session_id"`
	CharacterID valueobjects.CharacterID `json:"character_id"`
	Tick        int                      `json:"tick"`
	Reason      string                   `json:"reason"`
}

// NewSessionFailed creates a SessionFailed event
func NewSessionFailed(sessionID valueobjects.SessionID, characterID valueobjects.CharacterID, tick int, reason string, timestamp time.Time) SessionFailed {
	return SessionFailed{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   "session.failed",
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:   sessionID,
		CharacterID: characterID,
		Tick:        tick,
		Reason:      reason,
	}
}

// Artifact events

// ArtifactMinted is raised when a fate artifact is minted from a snapshot
type ArtifactMinted struct {
	BaseEvent
	TokenID     string                   `json:"token_id"`
	CharacterID valueobjects.CharacterID `json:"character_id"`
	Tier        valueobjects.RarityTier  `json:"tier"`
	RarityScore float64                  `json:"rarity_score"`
	ContentHash string                   `json:"content_hash"`
}

// NewArtifactMinted creates an ArtifactMinted event
func NewArtifactMinted(tokenID string, characterID valueobjects.CharacterID, tier valueobjects.RarityTier, score float64, hash string, timestamp time.Time) ArtifactMinted {
	return ArtifactMinted{
		BaseEvent: BaseEvent{
			AggregateID: tokenID,
			EventType:   "artifact.minted",
			Timestamp:   timestamp,
			Version:     1,
		},
		TokenID:     tokenID,
		CharacterID: characterID,
		Tier:        tier,
		RarityScore: score,
		ContentHash: hash,
	}
}
