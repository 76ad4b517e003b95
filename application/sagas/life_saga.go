package sagas

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/application/services"
	"mirage-engine/application/simulation"
	"mirage-engine/domain/core/entities"
)

// LifeResult is what a finished life saga leaves behind
type LifeResult struct {
	Character *entities.Character
	Ticks     int
	Score     float64
	Artifact  *entities.FateArtifact
}

// LifeSaga runs one character's life end to end: simulate the session,
// persist the outcome and the events the graph raised along the way,
// then mint an artifact from the final tree. A failed persist or mint
// archives the character so half-finished lives don't linger as
// playable.
type LifeSaga struct {
	characters ports.CharacterRepository
	eventStore ports.EventStore
	mint       *services.MintService
	logger     *zap.Logger
}

// NewLifeSaga creates a life saga factory
func NewLifeSaga(characters ports.CharacterRepository, eventStore ports.EventStore, mint *services.MintService, logger *zap.Logger) *LifeSaga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifeSaga{characters: characters, eventStore: eventStore, mint: mint, logger: logger}
}

// Run simulates the session for up to maxTicks and mints the result.
// When mint is false the saga stops after persisting the character.
func (l *LifeSaga) Run(ctx context.Context, session *simulation.Session, maxTicks int, mint bool) (*LifeResult, error) {
	character := session.Character()
	result := &LifeResult{Character: character}

	saga := NewSaga("life", l.logger.With(
		zap.String("character_id", character.ID().String()),
	))

	saga.AddStep(Step{
		Name: "simulate",
		Execute: func(ctx context.Context) error {
			if err := session.Run(ctx, maxTicks); err != nil {
				return err
			}
			result.Ticks = session.Tick()
			score, err := session.DestinyScore()
			if err != nil {
				return err
			}
			result.Score = score
			return nil
		},
	})

	saga.AddStep(Step{
		Name:       "persist",
		MaxRetries: 2,
		RetryDelay: 100 * time.Millisecond,
		Execute: func(ctx context.Context) error {
			if err := l.characters.Save(ctx, character); err != nil {
				return err
			}
			// journal the graph's domain events; committed only once
			// the store has accepted them, so a retry resends the batch
			if l.eventStore != nil {
				uncommitted := session.Graph().GetUncommittedEvents()
				if len(uncommitted) > 0 {
					if err := l.eventStore.SaveEvents(ctx, uncommitted); err != nil {
						return err
					}
					session.Graph().MarkEventsAsCommitted()
				}
			}
			return nil
		},
		Compensate: func(ctx context.Context) error {
			character.Archive()
			return l.characters.Save(ctx, character)
		},
	})

	if mint {
		saga.AddStep(Step{
			Name: "mint",
			Execute: func(ctx context.Context) error {
				minted, err := l.mint.Mint(ctx, session.Graph(), character.ID())
				if err != nil {
					return err
				}
				result.Artifact = minted.Artifact
				return nil
			},
		})
	}

	if err := saga.Execute(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
