package di

import (
	"go.uber.org/zap"

	"mirage-engine/application/ports"
	"mirage-engine/application/sagas"
	"mirage-engine/application/services"
	"mirage-engine/application/simulation"
	domaincfg "mirage-engine/domain/config"
	domainservices "mirage-engine/domain/services"
	"mirage-engine/infrastructure/config"
	"mirage-engine/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	DomainConfig  *domaincfg.DomainConfig
	Logger        *zap.Logger
	Tracer        *observability.Tracer
	Characters    ports.CharacterRepository
	Regimes       ports.RegimeRepository
	Relationships ports.RelationshipRepository
	Artifacts     ports.ArtifactRepository
	EventStore    ports.EventStore
	RegimeLock    ports.RegimeLock
	Publisher     ports.TickPublisher
	Metrics       ports.MetricsPublisher
	Keepers       *simulation.KeeperRegistry
	Scorer        *domainservices.FateScorer
	Evaluator     *domainservices.RarityEvaluator
	MintService   *services.MintService
	SocialService *services.SocialService
	LifeSaga      *sagas.LifeSaga
}

// Close releases resources the container owns
func (c *Container) Close() {
	if c.Keepers != nil {
		c.Keepers.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}
