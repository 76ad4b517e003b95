package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirage-engine/application/policy"
	"mirage-engine/application/services"
	"mirage-engine/application/simulation"
	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/validators"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/domain/events"
	domainservices "mirage-engine/domain/services"
	"mirage-engine/infrastructure/persistence/memory"
)

// world bundles the in-memory backends a full run needs
type world struct {
	cfg           *config.DomainConfig
	characters    *memory.CharacterRepository
	regimes       *memory.RegimeRepository
	relationships *memory.RelationshipRepository
	artifacts     *memory.ArtifactRepository
	publisher     *memory.TickPublisher
	keepers       *simulation.KeeperRegistry
	mint          *services.MintService
	social        *services.SocialService
	regime        *entities.Regime
}

func newWorld(t *testing.T) *world {
	t.Helper()
	cfg := config.DefaultDomainConfig()

	regime, err := entities.NewRegime("Duskfall", "oligarchy", []entities.SocialClass{
		{Name: "gentry", WealthLevel: 0.8, PopulationRatio: 0.2, Influence: 0.7},
		{Name: "commons", WealthLevel: 0.3, PopulationRatio: 0.8, Influence: 0.2},
	})
	require.NoError(t, err)

	w := &world{
		cfg:           cfg,
		characters:    memory.NewCharacterRepository(),
		regimes:       memory.NewRegimeRepository(),
		relationships: memory.NewRelationshipRepository(),
		artifacts:     memory.NewArtifactRepository(),
		publisher:     memory.NewTickPublisher(),
		keepers:       simulation.NewKeeperRegistry(cfg, zap.NewNop()),
		regime:        regime,
	}
	w.mint = services.NewMintService(
		w.artifacts,
		domainservices.NewRarityEvaluator(cfg),
		w.publisher,
		zap.NewNop(),
	)
	w.social = services.NewSocialService(w.relationships, cfg, zap.NewNop())
	require.NoError(t, w.regimes.Save(context.Background(), regime))
	t.Cleanup(w.keepers.Close)
	return w
}

func (w *world) newCitizen(t *testing.T, name string) *entities.Character {
	t.Helper()
	character, err := entities.NewCharacter(
		"it-owner", name, "1200-01-01",
		w.regime.ID(), valueobjects.DefaultPersonality(),
	)
	require.NoError(t, err)
	require.NoError(t, w.characters.Save(context.Background(), character))
	return character
}

func (w *world) newSession(t *testing.T, character *entities.Character, peers ...valueobjects.CharacterID) *simulation.Session {
	t.Helper()
	session, err := simulation.NewSession(simulation.SessionParams{
		Character: character,
		Policy:    policy.NewGuardedPolicy(policy.NewRulePolicy(), w.cfg, zap.NewNop()),
		Keeper:    w.keepers.Keeper(w.regime),
		Publisher: w.publisher,
		Social:    w.social,
		Peers:     peers,
		Config:    w.cfg,
	})
	require.NoError(t, err)
	return session
}

func TestFullLifecycle_SimulateThenMint(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	character := w.newCitizen(t, "mira")
	session := w.newSession(t, character)

	const ticks = 25
	require.NoError(t, session.Run(ctx, ticks))
	assert.Equal(t, simulation.StateCompleted, session.State())
	assert.Equal(t, ticks, session.Tick())
	assert.Equal(t, ticks, character.Age())

	graph := session.Graph()
	assert.Equal(t, ticks, graph.NodeCount())
	assert.Equal(t, ticks, graph.EventCount())

	// The life forms a single chain from root to tip.
	root, err := graph.Root(character.ID())
	require.NoError(t, err)
	assert.True(t, root.ParentID() == nil)

	score, err := session.DestinyScore()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, w.cfg.MinFateScore)
	assert.LessOrEqual(t, score, w.cfg.MaxFateScore)

	result, err := w.mint.Mint(ctx, graph, character.ID())
	require.NoError(t, err)
	assert.False(t, result.Existing)
	assert.Equal(t, 1, result.Artifact.Generation())
	assert.Equal(t, ticks, result.Artifact.EventCount())
	assert.True(t, result.Artifact.Tier().Valid())

	// Re-minting the unchanged tree is idempotent.
	again, err := w.mint.Mint(ctx, graph, character.ID())
	require.NoError(t, err)
	assert.True(t, again.Existing)
	assert.Equal(t, result.Artifact.TokenID(), again.Artifact.TokenID())

	stored, err := w.artifacts.GetByCharacterID(ctx, character.ID())
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestFullLifecycle_TickStreamOrdered(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	character := w.newCitizen(t, "oren")
	session := w.newSession(t, character)
	require.NoError(t, session.Run(ctx, 10))

	var ticks []int
	var sawCompleted bool
	for _, evt := range w.publisher.Stream() {
		switch e := evt.(type) {
		case events.TickCompleted:
			if e.SessionID.Equals(session.ID()) {
				ticks = append(ticks, e.Tick)
			}
		case events.SessionCompleted:
			sawCompleted = true
		}
	}

	require.Len(t, ticks, 10)
	for i, tick := range ticks {
		assert.Equal(t, i+1, tick)
	}
	assert.True(t, sawCompleted)
}

func TestFullLifecycle_ConcurrentLivesShareRegime(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	const citizens = 4
	const ticks = 15

	sessions := make([]*simulation.Session, citizens)
	for i := range sessions {
		sessions[i] = w.newSession(t, w.newCitizen(t, fmt.Sprintf("citizen-%d", i)))
	}

	errs := make(chan error, citizens)
	for _, session := range sessions {
		go func(s *simulation.Session) {
			errs <- s.Run(ctx, ticks)
		}(session)
	}
	for range sessions {
		select {
		case err := <-errs:
			require.NoError(t, err)
		case <-time.After(30 * time.Second):
			t.Fatal("sessions did not finish")
		}
	}

	// Every life completed and stayed isolated in its own tree.
	for _, session := range sessions {
		assert.Equal(t, simulation.StateCompleted, session.State())
		assert.Equal(t, ticks, session.Graph().NodeCount())
	}

	// The shared regime absorbed every impact serially; class ratios
	// still form a distribution.
	assert.InDelta(t, 1.0, w.regime.PopulationRatioSum(), 1e-9)
	assert.GreaterOrEqual(t, w.regime.Stability(), 0.0)
	assert.LessOrEqual(t, w.regime.Stability(), 1.0)

	// Minting each life yields distinct artifacts with bumped
	// generations per character, not across characters.
	for _, session := range sessions {
		result, err := w.mint.Mint(ctx, session.Graph(), session.Character().ID())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Artifact.Generation())
	}
}

func TestFullLifecycle_SocialFabricForms(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	ana := w.newCitizen(t, "ana")
	bram := w.newCitizen(t, "bram")

	anaSession := w.newSession(t, ana, bram.ID())
	bramSession := w.newSession(t, bram, ana.ID())
	require.NoError(t, anaSession.Run(ctx, 8))
	require.NoError(t, bramSession.Run(ctx, 8))

	// both lives interacted, so each holds a directed link to the other
	for _, pair := range []struct {
		source, target valueobjects.CharacterID
	}{
		{ana.ID(), bram.ID()},
		{bram.ID(), ana.ID()},
	} {
		network, err := w.social.Network(ctx, pair.source)
		require.NoError(t, err)
		require.Len(t, network, 1)
		assert.True(t, network[0].TargetID().Equals(pair.target))
		assert.NotEmpty(t, network[0].History())
		assert.True(t, network[0].IsActive())
	}
}

func TestFullLifecycle_GrownTreeMintsNewGeneration(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	character := w.newCitizen(t, "sela")
	session := w.newSession(t, character)
	require.NoError(t, session.Run(ctx, 5))

	first, err := w.mint.Mint(ctx, session.Graph(), character.ID())
	require.NoError(t, err)

	// The character's story grows past the minted snapshot, so the next
	// mint is a new artifact.
	graph := session.Graph()
	snap, err := graph.Snapshot(character.ID())
	require.NoError(t, err)
	tip, err := valueobjects.NewNodeIDFromString(snap.Nodes[len(snap.Nodes)-1].NodeID)
	require.NoError(t, err)

	node, err := validators.NewEventValidator(w.cfg).BuildNode(validators.NodeDraft{
		CharacterID: character.ID(),
		EventName:   "a late discovery",
		EventType:   "fortune",
		ImpactLevel: 2.5,
		Probability: 1.0,
		ParentID:    &tip,
		Timestamp:   time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, graph.AddNode(node))

	second, err := w.mint.Mint(ctx, graph, character.ID())
	require.NoError(t, err)
	assert.False(t, second.Existing)
	assert.NotEqual(t, first.Artifact.TokenID(), second.Artifact.TokenID())
	assert.Equal(t, 2, second.Artifact.Generation())
}
