package aggregates

import (
	"sort"
	"time"

	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/domain/events"
	pkgerrors "mirage-engine/pkg/errors"
)

// DestinyGraph is the aggregate root holding every destiny node and
// causal event of one simulated world. Nodes form one tree per
// character; causal events form a DAG across characters through their
// origin references. The aggregate is the single consistency boundary:
// all structural invariants are checked here, on insert, so reads
// never have to re-validate.
//
// The graph is not safe for concurrent use; sessions serialize access
// through the decision loop.
type DestinyGraph struct {
	id    valueobjects.SessionID
	nodes map[valueobjects.NodeID]*entities.DestinyNode
	evts  map[valueobjects.EventID]*entities.CausalEvent

	// children indexes node IDs by parent for O(1) child lookups;
	// roots indexes each character's single root node.
	children map[valueobjects.NodeID][]valueobjects.NodeID
	roots    map[valueobjects.CharacterID]valueobjects.NodeID

	// perCharacter counts nodes per character for limit enforcement
	perCharacter map[valueobjects.CharacterID]int

	// seq is the monotonically increasing insertion counter; it breaks
	// ordering ties between equal timestamps deterministically.
	seq uint64

	cfg *config.DomainConfig

	uncommittedEvents []events.DomainEvent
}

// NewDestinyGraph creates an empty graph for one simulated world
func NewDestinyGraph(cfg *config.DomainConfig) *DestinyGraph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &DestinyGraph{
		id:           valueobjects.NewSessionID(),
		nodes:        make(map[valueobjects.NodeID]*entities.DestinyNode),
		evts:         make(map[valueobjects.EventID]*entities.CausalEvent),
		children:     make(map[valueobjects.NodeID][]valueobjects.NodeID),
		roots:        make(map[valueobjects.CharacterID]valueobjects.NodeID),
		perCharacter: make(map[valueobjects.CharacterID]int),
		cfg:          cfg,
	}
}

// ID returns the graph's session identifier
func (g *DestinyGraph) ID() valueobjects.SessionID { return g.id }

// NodeCount returns the number of destiny nodes in the graph
func (g *DestinyGraph) NodeCount() int { return len(g.nodes) }

// EventCount returns the number of causal events in the graph
func (g *DestinyGraph) EventCount() int { return len(g.evts) }

// AddNode inserts a destiny node into its character's tree.
//
// Invariants enforced here: the parent must already exist, belong to
// the same character, and not be later than the node; each character
// has exactly one root, and the node count per character stays within
// the configured limit. On success the parent's importance is
// recomputed to reflect its new child.
func (g *DestinyGraph) AddNode(node *entities.DestinyNode) error {
	if err := g.checkNode(node); err != nil {
		return err
	}
	g.applyNode(node)
	return nil
}

// CheckTick verifies a node/event pair would insert cleanly, without
// mutating the graph. Callers use it to sequence side effects between
// validation and insert.
func (g *DestinyGraph) CheckTick(node *entities.DestinyNode, evt *entities.CausalEvent) error {
	if err := g.checkNode(node); err != nil {
		return err
	}
	return g.checkEvent(evt)
}

// AppendTick inserts a destiny node and its causal event as one unit.
// Both inserts are checked before either lands, so a rejected tick
// leaves the graph exactly as it was.
func (g *DestinyGraph) AppendTick(node *entities.DestinyNode, evt *entities.CausalEvent) error {
	if err := g.checkNode(node); err != nil {
		return err
	}
	if err := g.checkEvent(evt); err != nil {
		return err
	}
	g.applyNode(node)
	g.applyEvent(evt)
	return nil
}

func (g *DestinyGraph) checkNode(node *entities.DestinyNode) error {
	if node == nil {
		return pkgerrors.NewValidationError("node", "node is required")
	}
	if _, exists := g.nodes[node.ID()]; exists {
		return pkgerrors.NewValidationError("node_id", "node already inserted")
	}
	if g.perCharacter[node.CharacterID()] >= g.cfg.MaxNodesPerCharacter {
		return pkgerrors.NewValidationError("character_id", "node limit reached for character")
	}

	if node.ParentID() == nil {
		if rootID, has := g.roots[node.CharacterID()]; has {
			return pkgerrors.ErrDuplicateRoot.
				WithDetail("character_id", node.CharacterID().String()).
				WithDetail("existing_root", rootID.String())
		}
		return nil
	}

	parent, ok := g.nodes[*node.ParentID()]
	if !ok {
		return pkgerrors.ErrDanglingReference.
			WithDetail("parent_id", node.ParentID().String())
	}
	if !parent.CharacterID().Equals(node.CharacterID()) {
		return pkgerrors.NewValidationError("parent_id", "parent belongs to a different character")
	}
	if parent.Timestamp().After(node.Timestamp()) {
		return pkgerrors.NewValidationError("timestamp", "node cannot predate its parent")
	}
	return nil
}

func (g *DestinyGraph) applyNode(node *entities.DestinyNode) {
	g.seq++
	node.SetSeq(g.seq)
	g.nodes[node.ID()] = node
	g.perCharacter[node.CharacterID()]++
	if node.ParentID() == nil {
		g.roots[node.CharacterID()] = node.ID()
	} else {
		parentID := *node.ParentID()
		g.children[parentID] = append(g.children[parentID], node.ID())
		g.recomputeImportance(g.nodes[parentID])
	}
	g.recomputeImportance(node)

	g.raise(events.NewDestinyNodeAdded(
		node.ID(), node.CharacterID(), node.ParentID(),
		node.EventName(), node.ImpactLevel(), node.Timestamp(),
	))
}

// AddEvent appends a causal event to the cross-character DAG.
//
// The origin event, when cited, must already exist and must not be
// later than the new event; since every origin predates its citer,
// cycles cannot form and the chain walk in GetCausalChain terminates.
// A backwards-pointing origin is a malformed input, rejected as a
// validation failure before any state changes.
func (g *DestinyGraph) AddEvent(evt *entities.CausalEvent) error {
	if err := g.checkEvent(evt); err != nil {
		return err
	}
	g.applyEvent(evt)
	return nil
}

func (g *DestinyGraph) checkEvent(evt *entities.CausalEvent) error {
	if evt == nil {
		return pkgerrors.NewValidationError("event", "event is required")
	}
	if _, exists := g.evts[evt.ID()]; exists {
		return pkgerrors.NewValidationError("event_id", "event already recorded")
	}
	if len(g.evts) >= g.cfg.MaxEventsPerSession {
		return pkgerrors.NewValidationError("event", "event limit reached for session")
	}

	if evt.OriginEvent() != nil {
		origin, ok := g.evts[*evt.OriginEvent()]
		if !ok {
			return pkgerrors.ErrDanglingReference.
				WithDetail("origin_event", evt.OriginEvent().String())
		}
		if origin.Timestamp().After(evt.Timestamp()) {
			return pkgerrors.NewValidationError("origin_event", "origin cannot be later than the event citing it")
		}
	}
	return nil
}

func (g *DestinyGraph) applyEvent(evt *entities.CausalEvent) {
	g.seq++
	evt.SetSeq(g.seq)
	g.evts[evt.ID()] = evt

	g.raise(events.NewCausalEventRecorded(
		evt.ID(), evt.ActorID(), evt.TargetID(), evt.OriginEvent(),
		evt.Action(), evt.ImpactScore(), evt.Timestamp(),
	))
}

// GetNode returns a destiny node by ID
func (g *DestinyGraph) GetNode(id valueobjects.NodeID) (*entities.DestinyNode, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, pkgerrors.ErrNodeNotFound.WithDetail("node_id", id.String())
	}
	return node, nil
}

// GetEvent returns a causal event by ID
func (g *DestinyGraph) GetEvent(id valueobjects.EventID) (*entities.CausalEvent, error) {
	evt, ok := g.evts[id]
	if !ok {
		return nil, pkgerrors.ErrEventNotFound.WithDetail("event_id", id.String())
	}
	return evt, nil
}

// Root returns a character's root node, if the character has any nodes
func (g *DestinyGraph) Root(characterID valueobjects.CharacterID) (*entities.DestinyNode, error) {
	rootID, ok := g.roots[characterID]
	if !ok {
		return nil, pkgerrors.ErrNodeNotFound.
			WithDetail("character_id", characterID.String())
	}
	return g.nodes[rootID], nil
}

// Children returns a node's children ordered by timestamp, with the
// insertion counter breaking ties. The order is stable across runs.
func (g *DestinyGraph) Children(id valueobjects.NodeID) ([]*entities.DestinyNode, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, pkgerrors.ErrNodeNotFound.WithDetail("node_id", id.String())
	}
	ids := g.children[id]
	out := make([]*entities.DestinyNode, 0, len(ids))
	for _, childID := range ids {
		out = append(out, g.nodes[childID])
	}
	sortNodes(out)
	return out, nil
}

// GetAncestorChain returns the path from the character's root down to
// the given node, inclusive at both ends. Cost is O(depth).
func (g *DestinyGraph) GetAncestorChain(id valueobjects.NodeID) ([]*entities.DestinyNode, error) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, pkgerrors.ErrNodeNotFound.WithDetail("node_id", id.String())
	}

	var chain []*entities.DestinyNode
	for {
		chain = append(chain, node)
		if len(chain) > len(g.nodes) {
			return nil, pkgerrors.ErrCycleDetected.WithDetail("node_id", id.String())
		}
		if node.ParentID() == nil {
			break
		}
		parent, ok := g.nodes[*node.ParentID()]
		if !ok {
			return nil, pkgerrors.ErrDanglingReference.
				WithDetail("parent_id", node.ParentID().String())
		}
		node = parent
	}

	// reverse in place: walked tip-to-root, callers want root-to-tip
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// GetCausalChain returns the origin chain ending at the given event,
// oldest first. Cost is O(chain length).
func (g *DestinyGraph) GetCausalChain(id valueobjects.EventID) ([]*entities.CausalEvent, error) {
	evt, ok := g.evts[id]
	if !ok {
		return nil, pkgerrors.ErrEventNotFound.WithDetail("event_id", id.String())
	}

	var chain []*entities.CausalEvent
	for {
		chain = append(chain, evt)
		if len(chain) > len(g.evts) {
			return nil, pkgerrors.ErrCycleDetected.WithDetail("event_id", id.String())
		}
		if evt.OriginEvent() == nil {
			break
		}
		origin, ok := g.evts[*evt.OriginEvent()]
		if !ok {
			return nil, pkgerrors.ErrDanglingReference.
				WithDetail("origin_event", evt.OriginEvent().String())
		}
		evt = origin
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// NodesByCharacter returns every node of one character's tree, ordered
// by timestamp with the insertion counter breaking ties.
func (g *DestinyGraph) NodesByCharacter(characterID valueobjects.CharacterID) []*entities.DestinyNode {
	out := make([]*entities.DestinyNode, 0, g.perCharacter[characterID])
	for _, node := range g.nodes {
		if node.CharacterID().Equals(characterID) {
			out = append(out, node)
		}
	}
	sortNodes(out)
	return out
}

// CriticalNodes returns a character's turning points in tree order
func (g *DestinyGraph) CriticalNodes(characterID valueobjects.CharacterID) []*entities.DestinyNode {
	var out []*entities.DestinyNode
	for _, node := range g.NodesByCharacter(characterID) {
		if node.IsCritical() {
			out = append(out, node)
		}
	}
	return out
}

// EventsByActor returns every causal event a character initiated,
// ordered by timestamp then insertion.
func (g *DestinyGraph) EventsByActor(characterID valueobjects.CharacterID) []*entities.CausalEvent {
	var out []*entities.CausalEvent
	for _, evt := range g.evts {
		if evt.ActorID().Equals(characterID) {
			out = append(out, evt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp().Equal(out[j].Timestamp()) {
			return out[i].Timestamp().Before(out[j].Timestamp())
		}
		return out[i].Seq() < out[j].Seq()
	})
	return out
}

// recomputeImportance rescores a node from its own weight and its
// current child count: impact + 2 for a turning point + 0.5 per child,
// clamped to [0,10].
func (g *DestinyGraph) recomputeImportance(node *entities.DestinyNode) {
	score := node.ImpactLevel()
	if node.IsCritical() {
		score += 2
	}
	score += 0.5 * float64(len(g.children[node.ID()]))
	node.SetImportance(valueobjects.Clamp(score, 0, 10))
}

// MarkCritical flags a node as a turning point and rescores it
func (g *DestinyGraph) MarkCritical(id valueobjects.NodeID) error {
	node, ok := g.nodes[id]
	if !ok {
		return pkgerrors.ErrNodeNotFound.WithDetail("node_id", id.String())
	}
	node.MarkCritical()
	g.recomputeImportance(node)
	return nil
}

func (g *DestinyGraph) raise(evt events.DomainEvent) {
	g.uncommittedEvents = append(g.uncommittedEvents, evt)
}

// GetUncommittedEvents returns events raised since the last commit
func (g *DestinyGraph) GetUncommittedEvents() []events.DomainEvent {
	return g.uncommittedEvents
}

// MarkEventsAsCommitted clears the uncommitted event list
func (g *DestinyGraph) MarkEventsAsCommitted() {
	g.uncommittedEvents = nil
}

func sortNodes(nodes []*entities.DestinyNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].Timestamp().Equal(nodes[j].Timestamp()) {
			return nodes[i].Timestamp().Before(nodes[j].Timestamp())
		}
		return nodes[i].Seq() < nodes[j].Seq()
	})
}

// Snapshot types. A snapshot is the canonical, order-stable view of one
// character's tree used for hashing and minting: nodes appear in
// insertion order and tags are already normalized, so serializing the
// same unchanged tree twice yields identical bytes.

// NodeSnapshot is one node's canonical form
type NodeSnapshot struct {
	NodeID      string    `json:"node_id"`
	ParentID    string    `json:"parent_id,omitempty"`
	EventName   string    `json:"event_name"`
	EventType   string    `json:"event_type"`
	Decision    string    `json:"decision,omitempty"`
	Result      string    `json:"result,omitempty"`
	ImpactLevel float64   `json:"impact_level"`
	IsCritical  bool      `json:"is_critical"`
	Probability float64   `json:"probability"`
	Importance  float64   `json:"importance"`
	Tags        []string  `json:"tags,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// GraphSnapshot is the canonical view of one character's destiny tree
type GraphSnapshot struct {
	CharacterID string         `json:"character_id"`
	NodeCount   int            `json:"node_count"`
	Nodes       []NodeSnapshot `json:"nodes"`
}

// Snapshot produces the canonical snapshot of one character's tree.
// An empty tree is reported as an error so minting can refuse it.
func (g *DestinyGraph) Snapshot(characterID valueobjects.CharacterID) (*GraphSnapshot, error) {
	nodes := g.NodesByCharacter(characterID)
	if len(nodes) == 0 {
		return nil, pkgerrors.ErrSnapshotEmpty.
			WithDetail("character_id", characterID.String())
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Seq() < nodes[j].Seq() })

	snap := &GraphSnapshot{
		CharacterID: characterID.String(),
		NodeCount:   len(nodes),
		Nodes:       make([]NodeSnapshot, 0, len(nodes)),
	}
	for _, node := range nodes {
		ns := NodeSnapshot{
			NodeID:      node.ID().String(),
			EventName:   node.EventName(),
			EventType:   string(node.EventType()),
			Decision:    node.Decision(),
			Result:      node.Result(),
			ImpactLevel: node.ImpactLevel(),
			IsCritical:  node.IsCritical(),
			Probability: node.Probability(),
			Importance:  node.Importance(),
			Tags:        node.Tags(),
			Timestamp:   node.Timestamp().UTC(),
		}
		if node.ParentID() != nil {
			ns.ParentID = node.ParentID().String()
		}
		snap.Nodes = append(snap.Nodes, ns)
	}
	return snap, nil
}
