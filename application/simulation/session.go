package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mirage-engine/application/policy"
	"mirage-engine/application/ports"
	"mirage-engine/domain/config"
	"mirage-engine/domain/core/aggregates"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/validators"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/domain/events"
	"mirage-engine/domain/services"
	pkgerrors "mirage-engine/pkg/errors"
)

// SessionState is the lifecycle state of a simulation session
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateRunning   SessionState = "running"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
	StateFailed    SessionState = "failed"
)

// Terminal reports whether the state admits no further transitions
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Session drives one character's life, tick by tick. Each tick asks
// the policy for an action, grows the destiny tree by one node, applies
// the consequence to the character and the shared regime, and publishes
// a tick event. A tick either lands completely or not at all: the node
// and its causal event are built and checked together before either is
// inserted, and the regime update is applied between check and insert
// so a contested regime leaves the graph untouched.
//
// The session serializes its own ticks; concurrency in the engine comes
// from running many sessions, not from parallel ticks within one.
type Session struct {
	id        valueobjects.SessionID
	character *entities.Character
	graph     *aggregates.DestinyGraph
	policy    policy.DecisionPolicy
	validator *validators.EventValidator
	scorer    *services.FateScorer
	predictor *services.TrendPredictor
	keeper    *RegimeKeeper
	publisher ports.TickPublisher
	metrics   ports.MetricsPublisher
	social    ports.InteractionRecorder
	peers     []valueobjects.CharacterID
	logger    *zap.Logger
	cfg       *config.DomainConfig

	mu      sync.Mutex
	cond    *sync.Cond
	state   SessionState
	tick    int
	tipNode *valueobjects.NodeID
	tipEvt  *valueobjects.EventID
	scores  []float64
	failure error
}

// SessionParams bundles the collaborators a session needs. Peers lists
// the other characters of the world; actions that carry a relationship
// delta pick their target from it, round-robin by tick, and the social
// recorder folds the delta into the actor→target link.
type SessionParams struct {
	Character *entities.Character
	Graph     *aggregates.DestinyGraph
	Policy    policy.DecisionPolicy
	Keeper    *RegimeKeeper
	Publisher ports.TickPublisher
	Metrics   ports.MetricsPublisher
	Social    ports.InteractionRecorder
	Peers     []valueobjects.CharacterID
	Logger    *zap.Logger
	Config    *config.DomainConfig
}

// NewSession creates an idle session for one character
func NewSession(p SessionParams) (*Session, error) {
	if p.Character == nil {
		return nil, pkgerrors.NewValidationError("character", "character is required")
	}
	if p.Policy == nil {
		return nil, pkgerrors.NewValidationError("policy", "policy is required")
	}
	if p.Config == nil {
		p.Config = config.DefaultDomainConfig()
	}
	if p.Graph == nil {
		p.Graph = aggregates.NewDestinyGraph(p.Config)
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}

	s := &Session{
		id:        valueobjects.NewSessionID(),
		character: p.Character,
		graph:     p.Graph,
		policy:    p.Policy,
		validator: validators.NewEventValidator(p.Config),
		scorer:    services.NewFateScorer(p.Config),
		predictor: services.NewTrendPredictor(p.Config),
		keeper:    p.Keeper,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		social:    p.Social,
		peers:     peersOf(p),
		logger: p.Logger.With(
			zap.String("character_id", p.Character.ID().String()),
		),
		cfg:   p.Config,
		state: StateIdle,
	}
	s.cond = sync.NewCond(&s.mu)
	s.logger = s.logger.With(zap.String("session_id", s.id.String()))
	return s, nil
}

// peersOf copies the peer list, dropping the character itself so it
// never targets its own relationships
func peersOf(p SessionParams) []valueobjects.CharacterID {
	peers := make([]valueobjects.CharacterID, 0, len(p.Peers))
	for _, id := range p.Peers {
		if !id.Equals(p.Character.ID()) {
			peers = append(peers, id)
		}
	}
	return peers
}

// ID returns the session identifier
func (s *Session) ID() valueobjects.SessionID { return s.id }

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tick returns how many ticks have landed
func (s *Session) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// Graph returns the destiny graph the session grows
func (s *Session) Graph() *aggregates.DestinyGraph { return s.graph }

// Character returns the simulated character
func (s *Session) Character() *entities.Character { return s.character }

// DestinyScore folds the chain ending at the current tip node into a
// decay-weighted fate score. Zero before the first tick.
func (s *Session) DestinyScore() (float64, error) {
	s.mu.Lock()
	tip := s.tipNode
	s.mu.Unlock()
	if tip == nil {
		return 0, nil
	}
	return s.scorer.ScoreNode(s.graph, *tip)
}

// Trend classifies the direction of the character's recent fate scores
func (s *Session) Trend() services.Trend {
	return s.predictor.Classify(s.recentScores())
}

// Failure returns the error that failed the session, if any
func (s *Session) Failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Run executes up to maxTicks ticks, honoring pause and stop. It
// returns nil when the session completes and the failing error when a
// tick fails terminally.
func (s *Session) Run(ctx context.Context, maxTicks int) error {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return pkgerrors.ErrSessionTerminal
	}
	if s.state == StateRunning {
		s.mu.Unlock()
		return pkgerrors.ErrSessionNotRunning.WithDetail("reason", "already running")
	}
	s.state = StateRunning
	s.mu.Unlock()

	for i := 0; i < maxTicks; i++ {
		if err := s.waitRunnable(ctx); err != nil {
			return err
		}
		if s.State().Terminal() {
			break
		}
		if s.character.Age() >= s.cfg.MaxAge {
			break
		}

		if err := s.step(ctx); err != nil {
			if pkgerrors.IsValidation(err) {
				// a rejected tick leaves no trace; the session carries on
				s.logger.Warn("tick rejected", zap.Int("tick", s.tick), zap.Error(err))
				continue
			}
			s.fail(ctx, err)
			return err
		}
	}

	s.complete(ctx)
	return nil
}

// Pause suspends the loop after the in-flight tick
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return pkgerrors.ErrSessionNotRunning.WithDetail("state", string(s.state))
	}
	s.state = StatePaused
	return nil
}

// Resume continues a paused loop
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return pkgerrors.ErrSessionNotRunning.WithDetail("state", string(s.state))
	}
	s.state = StateRunning
	s.cond.Broadcast()
	return nil
}

// Stop ends the session early; the life so far remains mintable
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return
	}
	s.state = StateCompleted
	s.cond.Broadcast()
}

func (s *Session) waitRunnable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.state == StatePaused {
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				s.cond.Broadcast()
			case <-done:
			}
		}()
		s.cond.Wait()
		close(done)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

// step executes one tick: decide, record, apply, publish
func (s *Session) step(ctx context.Context) error {
	started := time.Now()

	// 1. assemble the decision context
	dctx := policy.DecisionContext{
		Tick:         s.tick,
		Profile:      s.character.Profile(),
		RecentScores: s.recentScores(),
	}
	if s.keeper != nil {
		view, err := s.keeper.View(ctx)
		if err != nil {
			return err
		}
		dctx.Regime = &view
	}

	// 2. ask the policy
	decision, err := s.policy.Decide(ctx, dctx)
	if err != nil {
		return err
	}

	// 3. build the tick's node and causal event; nothing is inserted
	// until both have validated
	consequence := policy.ConsequenceFor(decision.Action, decision.Reward)
	now := time.Now()
	node, err := s.validator.BuildNode(validators.NodeDraft{
		CharacterID: s.character.ID(),
		EventName:   fmt.Sprintf("%s at age %d", decision.Action, s.character.Age()),
		EventType:   string(policy.EventTypeFor(decision.Action)),
		Decision:    string(decision.Action),
		Consequence: consequence,
		ImpactLevel: decision.Reward,
		Probability: 1.0,
		ParentID:    s.tipNode,
		Tags:        policy.TagsFor(decision.Action),
		Timestamp:   now,
	})
	if err != nil {
		return err
	}
	target := s.pickTarget(consequence)
	evt, err := s.validator.BuildEvent(validators.EventDraft{
		ActorID:       s.character.ID(),
		TargetID:      target,
		Action:        string(decision.Action),
		ImpactScore:   decision.Reward,
		EmotionImpact: consequence.Emotion,
		SocialImpact:  consequence.Social,
		OriginEvent:   s.tipEvt,
		Tags:          policy.TagsFor(decision.Action),
		Timestamp:     now,
	})
	if err != nil {
		return err
	}
	if err := s.graph.CheckTick(node, evt); err != nil {
		return err
	}

	// 4. apply the consequence to the shared world, then grow the
	// graph; ticks are serialized, so a pair that passed CheckTick
	// still inserts cleanly after the regime update
	if s.keeper != nil && consequence.Regime != nil {
		if err := s.keeper.Apply(ctx, consequence.Regime); err != nil {
			return err
		}
	}
	if err := s.graph.AppendTick(node, evt); err != nil {
		return err
	}
	evtID := evt.ID()
	s.tipEvt = &evtID
	if consequence.FateDelta > s.cfg.CriticalFateDelta || consequence.FateDelta < -s.cfg.CriticalFateDelta {
		if err := s.graph.MarkCritical(node.ID()); err != nil {
			return err
		}
	}
	if err := s.character.ApplyConsequence(consequence, s.cfg); err != nil {
		return err
	}
	s.character.AdvanceAge()
	s.recordInteraction(ctx, evt, consequence)

	s.mu.Lock()
	s.tick++
	tick := s.tick
	id := node.ID()
	s.tipNode = &id
	s.scores = append(s.scores, s.character.FateScore())
	s.mu.Unlock()

	s.publishTick(ctx, tick, decision, consequence, now)
	s.count(ctx, "simulation.tick", 1)
	s.timing(ctx, "simulation.tick_duration", time.Since(started))

	s.logger.Debug("tick completed",
		zap.Int("tick", tick),
		zap.String("action", string(decision.Action)),
		zap.Float64("reward", decision.Reward),
		zap.Float64("fate_score", s.character.FateScore()),
	)
	return nil
}

// pickTarget chooses the tick's interaction partner: actions carrying a
// relationship delta rotate through the peer list, everything else is
// directed at no one
func (s *Session) pickTarget(consequence entities.Consequence) *valueobjects.CharacterID {
	if consequence.Relationship == nil || len(s.peers) == 0 {
		return nil
	}
	peer := s.peers[s.tick%len(s.peers)]
	return &peer
}

// recordInteraction folds the tick's relationship delta into the
// actor→target link. The social ledger is best-effort: a failed update
// never fails the tick that produced it.
func (s *Session) recordInteraction(ctx context.Context, evt *entities.CausalEvent, consequence entities.Consequence) {
	if s.social == nil || evt.TargetID() == nil || consequence.Relationship == nil {
		return
	}
	if _, err := s.social.RecordInteraction(ctx, evt, *consequence.Relationship); err != nil {
		s.logger.Warn("interaction record failed",
			zap.String("target_id", evt.TargetID().String()),
			zap.Error(err),
		)
		s.count(ctx, "simulation.social_failures", 1)
	}
}

func (s *Session) recentScores() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	window := s.cfg.ContextWindow
	if window <= 0 || len(s.scores) <= window {
		out := make([]float64, len(s.scores))
		copy(out, s.scores)
		return out
	}
	out := make([]float64, window)
	copy(out, s.scores[len(s.scores)-window:])
	return out
}

func (s *Session) publishTick(ctx context.Context, tick int, decision policy.Decision, consequence entities.Consequence, at time.Time) {
	if s.publisher == nil {
		return
	}
	evt := events.NewTickCompleted(
		s.id, s.character.ID(), tick, s.character.Age(),
		string(decision.Action), decision.Reward,
		consequence.FateDelta, s.character.FateScore(), at,
	)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		// the stream is best-effort; a lost tick event never fails the tick
		s.logger.Warn("tick publish failed", zap.Int("tick", tick), zap.Error(err))
		s.count(ctx, "simulation.publish_failures", 1)
	}
}

func (s *Session) complete(ctx context.Context) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateCompleted
	ticks := s.tick
	s.mu.Unlock()

	if s.publisher != nil {
		evt := events.NewSessionCompleted(s.id, s.character.ID(), ticks, s.character.FateScore(), time.Now())
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("session completion publish failed", zap.Error(err))
		}
	}
	s.count(ctx, "simulation.sessions_completed", 1)
	s.logger.Info("session completed",
		zap.Int("ticks", ticks),
		zap.Float64("final_score", s.character.FateScore()),
		zap.String("trend", string(s.Trend())),
	)
}

func (s *Session) fail(ctx context.Context, cause error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateFailed
	s.failure = cause
	tick := s.tick
	s.mu.Unlock()

	if s.publisher != nil {
		evt := events.NewSessionFailed(s.id, s.character.ID(), tick, cause.Error(), time.Now())
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("session failure publish failed", zap.Error(err))
		}
	}
	s.count(ctx, "simulation.sessions_failed", 1)
	s.logger.Error("session failed", zap.Int("tick", tick), zap.Error(cause))
}

func (s *Session) count(ctx context.Context, name string, value float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.Count(ctx, name, value, map[string]string{"session_id": s.id.String()})
}

func (s *Session) timing(ctx context.Context, name string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.Timing(ctx, name, float64(d.Milliseconds()), map[string]string{"session_id": s.id.String()})
}
