package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// identifier is the shared representation behind all typed IDs.
// Value objects are immutable and have no identity beyond their value.
type identifier struct {
	value string
}

func newIdentifier() identifier {
	return identifier{value: uuid.New().String()}
}

func parseIdentifier(id string) (identifier, error) {
	if id == "" {
		return identifier{}, errors.New("identifier cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return identifier{}, errors.New("identifier must be a valid UUID")
	}
	return identifier{value: id}, nil
}

// String returns the string representation
func (id identifier) String() string {
	return id.value
}

// IsZero checks if the identifier is the zero value
func (id identifier) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id identifier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *identifier) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("identifier must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// NodeID identifies one destiny node
type NodeID struct{ identifier }

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID { return NodeID{newIdentifier()} }

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	v, err := parseIdentifier(id)
	return NodeID{v}, err
}

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool { return id.value == other.value }

// EventID identifies one causal event
type EventID struct{ identifier }

// NewEventID creates a new random EventID
func NewEventID() EventID { return EventID{newIdentifier()} }

// NewEventIDFromString creates an EventID from an existing string
func NewEventIDFromString(id string) (EventID, error) {
	v, err := parseIdentifier(id)
	return EventID{v}, err
}

// Equals checks if two EventIDs are equal
func (id EventID) Equals(other EventID) bool { return id.value == other.value }

// CharacterID identifies one simulated character
type CharacterID struct{ identifier }

// NewCharacterID creates a new random CharacterID
func NewCharacterID() CharacterID { return CharacterID{newIdentifier()} }

// NewCharacterIDFromString creates a CharacterID from an existing string
func NewCharacterIDFromString(id string) (CharacterID, error) {
	v, err := parseIdentifier(id)
	return CharacterID{v}, err
}

// Equals checks if two CharacterIDs are equal
func (id CharacterID) Equals(other CharacterID) bool { return id.value == other.value }

// RegimeID identifies one regime
type RegimeID struct{ identifier }

// NewRegimeID creates a new random RegimeID
func NewRegimeID() RegimeID { return RegimeID{newIdentifier()} }

// NewRegimeIDFromString creates a RegimeID from an existing string
func NewRegimeIDFromString(id string) (RegimeID, error) {
	v, err := parseIdentifier(id)
	return RegimeID{v}, err
}

// Equals checks if two RegimeIDs are equal
func (id RegimeID) Equals(other RegimeID) bool { return id.value == other.value }

// SessionID identifies one simulation session
type SessionID struct{ identifier }

// NewSessionID creates a new random SessionID
func NewSessionID() SessionID { return SessionID{newIdentifier()} }

// Equals checks if two SessionIDs are equal
func (id SessionID) Equals(other SessionID) bool { return id.value == other.value }
