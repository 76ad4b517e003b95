package sagas

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mirage-engine/application/policy"
	"mirage-engine/application/services"
	"mirage-engine/application/simulation"
	"mirage-engine/domain/config"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	domainservices "mirage-engine/domain/services"
	"mirage-engine/infrastructure/persistence/memory"
)

func TestSaga_RunsStepsInOrder(t *testing.T) {
	var order []string
	saga := NewSaga("test", zap.NewNop()).
		AddStep(Step{Name: "one", Execute: func(context.Context) error {
			order = append(order, "one")
			return nil
		}}).
		AddStep(Step{Name: "two", Execute: func(context.Context) error {
			order = append(order, "two")
			return nil
		}})

	require.NoError(t, saga.Execute(context.Background()))
	assert.Equal(t, []string{"one", "two"}, order)
	assert.Equal(t, StateCompleted, saga.State())
}

func TestSaga_CompensatesCompletedStepsInReverse(t *testing.T) {
	var undone []string
	saga := NewSaga("test", zap.NewNop()).
		AddStep(Step{
			Name:    "one",
			Execute: func(context.Context) error { return nil },
			Compensate: func(context.Context) error {
				undone = append(undone, "one")
				return nil
			},
		}).
		AddStep(Step{
			Name:    "two",
			Execute: func(context.Context) error { return nil },
			Compensate: func(context.Context) error {
				undone = append(undone, "two")
				return nil
			},
		}).
		AddStep(Step{
			Name:    "boom",
			Execute: func(context.Context) error { return errors.New("boom") },
		})

	err := saga.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"two", "one"}, undone)
	assert.Equal(t, StateCompensated, saga.State())
}

func TestSaga_RetriesBeforeFailing(t *testing.T) {
	attempts := 0
	saga := NewSaga("test", zap.NewNop()).
		AddStep(Step{
			Name:       "flaky",
			MaxRetries: 2,
			Execute: func(context.Context) error {
				attempts++
				if attempts < 3 {
					return errors.New("transient")
				}
				return nil
			},
		})

	require.NoError(t, saga.Execute(context.Background()))
	assert.Equal(t, 3, attempts)
}

type lifeFixture struct {
	saga       *LifeSaga
	session    *simulation.Session
	characters *memory.CharacterRepository
	eventStore *memory.EventStore
}

func newLifeFixture(t *testing.T) lifeFixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	characters := memory.NewCharacterRepository()
	artifacts := memory.NewArtifactRepository()
	eventStore := memory.NewEventStore()

	mint := services.NewMintService(
		artifacts,
		domainservices.NewRarityEvaluator(cfg),
		memory.NewTickPublisher(),
		zap.NewNop(),
	)

	character, err := entities.NewCharacter(
		"saga-owner", "vael", "1200-01-01",
		valueobjects.NewRegimeID(), valueobjects.DefaultPersonality(),
	)
	require.NoError(t, err)

	session, err := simulation.NewSession(simulation.SessionParams{
		Character: character,
		Policy:    policy.NewRulePolicy(),
		Config:    cfg,
	})
	require.NoError(t, err)

	return lifeFixture{
		saga:       NewLifeSaga(characters, eventStore, mint, zap.NewNop()),
		session:    session,
		characters: characters,
		eventStore: eventStore,
	}
}

func TestLifeSaga_SimulatesPersistsAndMints(t *testing.T) {
	f := newLifeFixture(t)

	result, err := f.saga.Run(context.Background(), f.session, 12, true)
	require.NoError(t, err)

	assert.Equal(t, 12, result.Ticks)
	require.NotNil(t, result.Artifact)
	assert.Equal(t, 1, result.Artifact.Generation())

	stored, err := f.characters.GetByID(context.Background(), result.Character.ID())
	require.NoError(t, err)
	assert.Equal(t, 12, stored.Age())
}

func TestLifeSaga_JournalsGraphEvents(t *testing.T) {
	f := newLifeFixture(t)

	result, err := f.saga.Run(context.Background(), f.session, 6, false)
	require.NoError(t, err)

	// one node-added and one event-recorded entry per tick, and the
	// graph holds nothing back once the store accepted them
	added, err := f.eventStore.GetEventsByType(context.Background(), "graph.node_added", 0)
	require.NoError(t, err)
	assert.Len(t, added, 6)

	recorded, err := f.eventStore.GetEvents(context.Background(), result.Character.ID().String())
	require.NoError(t, err)
	assert.Len(t, recorded, 12)

	assert.Empty(t, f.session.Graph().GetUncommittedEvents())
}

func TestLifeSaga_SkipsMintWhenDisabled(t *testing.T) {
	f := newLifeFixture(t)

	result, err := f.saga.Run(context.Background(), f.session, 5, false)
	require.NoError(t, err)
	assert.Nil(t, result.Artifact)
	assert.Equal(t, 5, result.Ticks)
}
