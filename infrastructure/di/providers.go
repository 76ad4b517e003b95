package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/application/sagas"
	"mirage-engine/application/services"
	"mirage-engine/application/simulation"
	domaincfg "mirage-engine/domain/config"
	domainservices "mirage-engine/domain/services"
	"mirage-engine/infrastructure/config"
	"mirage-engine/infrastructure/messaging/eventbridge"
	"mirage-engine/infrastructure/persistence/dynamodb"
	"mirage-engine/infrastructure/persistence/memory"
	"mirage-engine/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideDomainConfig extracts the domain knobs from the runtime config
func ProvideDomainConfig(cfg *config.Config) *domaincfg.DomainConfig {
	return cfg.DomainConfig()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCharacterRepository creates the character store, wrapped with
// the read-through cache when it is backed by DynamoDB
func ProvideCharacterRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.CharacterRepository {
	if !cfg.UseDynamoDB {
		return memory.NewCharacterRepository()
	}
	inner := dynamodb.NewCharacterRepository(client, cfg.CharacterTable, logger)
	return NewCachingCharacterRepository(inner, NewInMemoryCache())
}

// ProvideRegimeRepository creates the regime store
func ProvideRegimeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RegimeRepository {
	if !cfg.UseDynamoDB {
		return memory.NewRegimeRepository()
	}
	return dynamodb.NewRegimeRepository(client, cfg.RegimeTable, logger)
}

// ProvideRelationshipRepository creates the relationship store
func ProvideRelationshipRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RelationshipRepository {
	if !cfg.UseDynamoDB {
		return memory.NewRelationshipRepository()
	}
	return dynamodb.NewRelationshipRepository(client, cfg.CharacterTable, logger)
}

// ProvideArtifactRepository creates the artifact store
func ProvideArtifactRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.ArtifactRepository {
	if !cfg.UseDynamoDB {
		return memory.NewArtifactRepository()
	}
	return dynamodb.NewArtifactRepository(client, cfg.ArtifactTable, logger)
}

// ProvideEventStore creates the domain event store
func ProvideEventStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.EventStore {
	if !cfg.UseDynamoDB {
		return memory.NewEventStore()
	}
	return dynamodb.NewEventStore(client, cfg.EventTable, logger)
}

// ProvideRegimeLock creates the regime lock appropriate for the run
func ProvideRegimeLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.RegimeLock {
	if !cfg.UseDynamoDB {
		return memory.NewRegimeLock()
	}
	return dynamodb.NewRegimeLock(client, cfg.LockTable, logger)
}

// ProvideTickPublisher creates the produced event stream. Local runs
// buffer in process; otherwise ticks go out on EventBridge.
func ProvideTickPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.TickPublisher {
	if !cfg.UseDynamoDB {
		return memory.NewTickPublisher()
	}
	return eventbridge.NewEventBridgePublisher(client, cfg.EventBusName, logger)
}

// ProvideMetrics creates the metrics publisher
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.MetricsPublisher {
	if !cfg.EnableMetrics {
		return observability.NewNoopMetrics()
	}
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	return observability.NewCloudWatchMetrics(namespace, client, logger)
}

// ProvideTracer creates the tracer
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("mirage-engine")
}

// ProvideKeeperRegistry creates the per-regime keeper registry
func ProvideKeeperRegistry(domainCfg *domaincfg.DomainConfig, logger *zap.Logger) *simulation.KeeperRegistry {
	return simulation.NewKeeperRegistry(domainCfg, logger)
}

// ProvideRarityEvaluator creates the rarity evaluator
func ProvideRarityEvaluator(domainCfg *domaincfg.DomainConfig) *domainservices.RarityEvaluator {
	return domainservices.NewRarityEvaluator(domainCfg)
}

// ProvideFateScorer creates the fate scorer
func ProvideFateScorer(domainCfg *domaincfg.DomainConfig) *domainservices.FateScorer {
	return domainservices.NewFateScorer(domainCfg)
}

// ProvideMintService creates the mint service
func ProvideMintService(
	artifacts ports.ArtifactRepository,
	evaluator *domainservices.RarityEvaluator,
	publisher ports.TickPublisher,
	logger *zap.Logger,
) *services.MintService {
	return services.NewMintService(artifacts, evaluator, publisher, logger)
}

// ProvideLifeSaga creates the life saga factory
func ProvideLifeSaga(
	characters ports.CharacterRepository,
	eventStore ports.EventStore,
	mint *services.MintService,
	logger *zap.Logger,
) *sagas.LifeSaga {
	return sagas.NewLifeSaga(characters, eventStore, mint, logger)
}

// ProvideSocialService creates the social service
func ProvideSocialService(
	relationships ports.RelationshipRepository,
	domainCfg *domaincfg.DomainConfig,
	logger *zap.Logger,
) *services.SocialService {
	return services.NewSocialService(relationships, domainCfg, logger)
}
