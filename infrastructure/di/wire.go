//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"mirage-engine/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideCharacterRepository,
	ProvideRegimeRepository,
	ProvideRelationshipRepository,
	ProvideArtifactRepository,
	ProvideEventStore,
	ProvideRegimeLock,
	ProvideTickPublisher,
	ProvideMetrics,
	ProvideTracer,
	ProvideKeeperRegistry,
	ProvideRarityEvaluator,
	ProvideFateScorer,
	ProvideMintService,
	ProvideSocialService,
	ProvideLifeSaga,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
