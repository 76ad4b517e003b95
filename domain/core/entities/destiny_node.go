package entities

import (
	"sort"
	"strings"
	"time"

	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// EventType classifies a destiny node
type EventType string

const (
	EventTypeEmotional EventType = "emotional"
	EventTypeSocial    EventType = "social"
	EventTypeDecision  EventType = "decision"
	EventTypeHealth    EventType = "health"
	EventTypeFortune   EventType = "fortune"
)

// DestinyNode is one decision point in a character's life tree.
// Nodes form a tree per character: one parent, many children, a single
// root at the character's first node.
type DestinyNode struct {
	id          valueobjects.NodeID
	characterID valueobjects.CharacterID
	eventName   string
	eventType   EventType
	decision    string
	result      string
	consequence Consequence
	description string
	impactLevel float64
	isCritical  bool
	parentID    *valueobjects.NodeID
	probability float64
	importance  float64
	tags        []string
	timestamp   time.Time

	// seq is the graph store's insertion-order counter, the
	// deterministic tie-break for equal timestamps
	seq uint64
}

// NewDestinyNode creates a destiny node with field validation.
// Tags are treated as a set: duplicates collapse, order is normalized.
func NewDestinyNode(
	characterID valueobjects.CharacterID,
	eventName string,
	eventType EventType,
	decision, result string,
	consequence Consequence,
	impactLevel, probability float64,
	parentID *valueobjects.NodeID,
	tags []string,
	timestamp time.Time,
) (*DestinyNode, error) {
	if characterID.IsZero() {
		return nil, pkgerrors.NewValidationError("character_id", "character is required")
	}
	eventName = strings.TrimSpace(eventName)
	if eventName == "" {
		return nil, pkgerrors.NewValidationError("event_name", "event name is required")
	}
	if probability < 0 || probability > 1 {
		return nil, pkgerrors.NewValidationError("probability", "probability must be in [0,1]")
	}
	if !valueobjects.IsFinite(impactLevel) {
		return nil, pkgerrors.NewValidationError("impact_level", "impact level must be finite")
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return &DestinyNode{
		id:          valueobjects.NewNodeID(),
		characterID: characterID,
		eventName:   eventName,
		eventType:   eventType,
		decision:    decision,
		result:      result,
		consequence: consequence,
		impactLevel: impactLevel,
		parentID:    parentID,
		probability: probability,
		tags:        normalizeTags(tags),
		timestamp:   timestamp,
	}, nil
}

// ID returns the node's unique identifier
func (n *DestinyNode) ID() valueobjects.NodeID { return n.id }

// CharacterID returns the owning character
func (n *DestinyNode) CharacterID() valueobjects.CharacterID { return n.characterID }

// EventName returns the node's event name
func (n *DestinyNode) EventName() string { return n.eventName }

// EventType returns the node's classification
func (n *DestinyNode) EventType() EventType { return n.eventType }

// Decision returns the chosen decision
func (n *DestinyNode) Decision() string { return n.decision }

// Result returns the outcome description
func (n *DestinyNode) Result() string { return n.result }

// Consequence returns the consequence payload
func (n *DestinyNode) Consequence() Consequence { return n.consequence }

// Description returns the free-form description
func (n *DestinyNode) Description() string { return n.description }

// ImpactLevel returns the signed impact magnitude; negative is adverse
func (n *DestinyNode) ImpactLevel() float64 { return n.impactLevel }

// IsCritical reports whether the node is a turning point
func (n *DestinyNode) IsCritical() bool { return n.isCritical }

// ParentID returns the parent node, nil for the root
func (n *DestinyNode) ParentID() *valueobjects.NodeID { return n.parentID }

// IsRoot reports whether the node is the tree root
func (n *DestinyNode) IsRoot() bool { return n.parentID == nil }

// Probability returns the event's occurrence probability
func (n *DestinyNode) Probability() float64 { return n.probability }

// Importance returns the current importance score
func (n *DestinyNode) Importance() float64 { return n.importance }

// Tags returns a copy of the normalized tag set
func (n *DestinyNode) Tags() []string {
	tags := make([]string, len(n.tags))
	copy(tags, n.tags)
	return tags
}

// HasTag reports whether the node carries the given tag
func (n *DestinyNode) HasTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, t := range n.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Timestamp returns the node's simulated time
func (n *DestinyNode) Timestamp() time.Time { return n.timestamp }

// Seq returns the insertion-order counter assigned by the graph store
func (n *DestinyNode) Seq() uint64 { return n.seq }

// SetSeq is called by the graph store when the node is inserted
func (n *DestinyNode) SetSeq(seq uint64) { n.seq = seq }

// SetDescription sets the free-form description
func (n *DestinyNode) SetDescription(description string) { n.description = description }

// MarkCritical flags the node as a turning point
func (n *DestinyNode) MarkCritical() { n.isCritical = true }

// SetImportance records a recomputed importance score
func (n *DestinyNode) SetImportance(score float64) { n.importance = score }

// normalizeTags lowercases, trims, de-duplicates and sorts tags
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
