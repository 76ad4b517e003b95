package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mirage-engine/application/policy"
	"mirage-engine/application/sagas"
	"mirage-engine/application/simulation"
	"mirage-engine/domain/core/entities"
	"mirage-engine/domain/core/valueobjects"
	"mirage-engine/infrastructure/config"
	"mirage-engine/infrastructure/di"
	"mirage-engine/infrastructure/persistence/schema"
)

type runOptions struct {
	characters int
	ticks      int
	owner      string
	regimeName string
	mint       bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirage",
		Short: "Causal life simulation engine",
		Long: `Mirage simulates character lives as causal decision trees, scores
their destinies, and mints rarity-graded artifacts from the results.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newInitCommand())
	return cmd
}

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the DynamoDB tables the engine persists to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := di.ProvideLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			awsCfg, err := di.ProvideAWSConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to load AWS config: %w", err)
			}
			return schema.EnsureTables(ctx, di.ProvideDynamoDBClient(awsCfg), cfg, logger)
		},
	}
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate character lives under a shared regime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.characters, "characters", 3, "number of characters to simulate")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 40, "maximum ticks per session")
	cmd.Flags().StringVar(&opts.owner, "owner", "local", "owner id for created characters")
	cmd.Flags().StringVar(&opts.regimeName, "regime", "Duskfall", "name of the shared regime")
	cmd.Flags().BoolVar(&opts.mint, "mint", true, "mint an artifact from each finished life")

	return cmd
}

func runSimulation(parent context.Context, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()
	logger := container.Logger

	regime, err := entities.NewRegime(opts.regimeName, "oligarchy", []entities.SocialClass{
		{Name: "gentry", WealthLevel: 0.8, PopulationRatio: 0.2, Influence: 0.7, Education: 0.7, Health: 0.7, Happiness: 0.6, Mobility: 0.3},
		{Name: "commons", WealthLevel: 0.3, PopulationRatio: 0.8, Influence: 0.2, Education: 0.4, Health: 0.5, Happiness: 0.4, Mobility: 0.2},
	})
	if err != nil {
		return err
	}
	// this process owns the regime record for the whole run
	if err := container.RegimeLock.Acquire(ctx, regime.ID(), opts.owner); err != nil {
		return fmt.Errorf("failed to acquire regime lock: %w", err)
	}
	defer func() {
		if err := container.RegimeLock.Release(context.Background(), regime.ID(), opts.owner); err != nil {
			logger.Warn("failed to release regime lock", zap.Error(err))
		}
	}()
	if err := container.Regimes.Save(ctx, regime); err != nil {
		return fmt.Errorf("failed to save regime: %w", err)
	}
	keeper := container.Keepers.Keeper(regime)

	characters := make([]*entities.Character, 0, opts.characters)
	citizenIDs := make([]valueobjects.CharacterID, 0, opts.characters)
	for i := 0; i < opts.characters; i++ {
		character, err := entities.NewCharacter(
			opts.owner,
			fmt.Sprintf("citizen-%02d", i+1),
			time.Now().Format("2006-01-02"),
			regime.ID(),
			valueobjects.DefaultPersonality(),
		)
		if err != nil {
			return err
		}
		if err := container.Characters.Save(ctx, character); err != nil {
			return fmt.Errorf("failed to save character: %w", err)
		}
		characters = append(characters, character)
		citizenIDs = append(citizenIDs, character.ID())
	}

	sessions := make([]*simulation.Session, 0, len(characters))
	for _, character := range characters {
		session, err := simulation.NewSession(simulation.SessionParams{
			Character: character,
			Policy:    policy.NewGuardedPolicy(policy.NewRulePolicy(), container.DomainConfig, logger),
			Keeper:    keeper,
			Publisher: container.Publisher,
			Metrics:   container.Metrics,
			Social:    container.SocialService,
			Peers:     citizenIDs,
			Logger:    logger,
			Config:    container.DomainConfig,
		})
		if err != nil {
			return err
		}
		sessions = append(sessions, session)
	}

	logger.Info("simulation starting",
		zap.Int("characters", len(sessions)),
		zap.Int("max_ticks", opts.ticks),
		zap.String("regime", regime.Name()),
	)

	results := make([]*sagas.LifeResult, len(sessions))
	err = container.Tracer.TraceFunction(ctx, "simulate", func(ctx context.Context) error {
		var wg sync.WaitGroup
		for i, session := range sessions {
			wg.Add(1)
			go func(i int, s *simulation.Session) {
				defer wg.Done()
				result, err := container.LifeSaga.Run(ctx, s, opts.ticks, opts.mint)
				if err != nil {
					logger.Error("life failed",
						zap.String("session_id", s.ID().String()),
						zap.Error(err),
					)
					return
				}
				results[i] = result
			}(i, session)
		}
		wg.Wait()
		return nil
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result == nil {
			continue
		}
		fmt.Printf("%s: %d ticks, age %d, destiny %.3f\n",
			result.Character.Name(), result.Ticks, result.Character.Age(), result.Score)
		if network, err := container.SocialService.Network(ctx, result.Character.ID()); err == nil && len(network) > 0 {
			fmt.Printf("  bonds %d\n", len(network))
		}
		if result.Artifact != nil {
			fmt.Printf("  minted %s tier=%s score=%.1f generation=%d\n",
				result.Artifact.TokenID(), result.Artifact.Tier(),
				result.Artifact.RarityScore(), result.Artifact.Generation())
		}
	}

	fmt.Printf("regime %s: stability=%.3f satisfaction=%.3f freedom=%.3f\n",
		regime.Name(), regime.Stability(), regime.Satisfaction(), regime.Freedom())

	if err := container.Regimes.Save(ctx, regime); err != nil {
		logger.Warn("failed to persist regime", zap.Error(err))
	}
	if err := container.Metrics.Flush(ctx); err != nil {
		logger.Warn("failed to flush metrics", zap.Error(err))
	}
	return nil
}
