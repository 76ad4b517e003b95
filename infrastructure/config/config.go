package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	domaincfg "mirage-engine/domain/config"
)

// Config holds all application configuration, loaded from the
// environment. Domain tuning knobs are exposed here too so deployments
// can reshape runs without a rebuild; DomainConfig() converts them into
// the domain layer's view.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// AWS configuration
	AWSRegion      string `env:"AWS_REGION" envDefault:"us-west-2"`
	CharacterTable string `env:"CHARACTER_TABLE" envDefault:"mirage-characters"`
	RegimeTable    string `env:"REGIME_TABLE" envDefault:"mirage-regimes"`
	ArtifactTable  string `env:"ARTIFACT_TABLE" envDefault:"mirage-artifacts"`
	EventTable     string `env:"EVENT_TABLE" envDefault:"mirage-events"`
	LockTable      string `env:"LOCK_TABLE" envDefault:"mirage-locks"`
	EventBusName   string `env:"EVENT_BUS_NAME" envDefault:"mirage-ticks"`

	// UseDynamoDB switches persistence from in-memory to DynamoDB
	UseDynamoDB bool `env:"USE_DYNAMODB" envDefault:"false"`

	// Metrics
	EnableMetrics    bool   `env:"ENABLE_METRICS" envDefault:"false"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"MirageEngine"`

	// Simulation tuning
	DecayMode        string        `env:"DECAY_MODE" envDefault:"recent"`
	DecayLambda      float64       `env:"DECAY_LAMBDA" envDefault:"0.15"`
	MaxAge           int           `env:"MAX_AGE" envDefault:"80"`
	ContextWindow    int           `env:"CONTEXT_WINDOW" envDefault:"10"`
	PolicyTimeout    time.Duration `env:"POLICY_TIMEOUT" envDefault:"2s"`
	PolicyMaxRetries int           `env:"POLICY_MAX_RETRIES" envDefault:"1"`
	ClampScalars     bool          `env:"CLAMP_RELATIONSHIP_SCALARS" envDefault:"true"`
}

// LoadConfig loads and validates configuration from the environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.UseDynamoDB {
		if c.CharacterTable == "" || c.RegimeTable == "" || c.ArtifactTable == "" {
			return fmt.Errorf("dynamodb table names are required when USE_DYNAMODB is set")
		}
	}
	return c.DomainConfig().Validate()
}

// DomainConfig converts the tunable knobs into the domain layer's view
func (c *Config) DomainConfig() *domaincfg.DomainConfig {
	cfg := domaincfg.DefaultDomainConfig()
	cfg.DecayMode = domaincfg.DecayMode(c.DecayMode)
	cfg.DecayLambda = c.DecayLambda
	cfg.MaxAge = c.MaxAge
	cfg.ContextWindow = c.ContextWindow
	cfg.PolicyTimeout = c.PolicyTimeout
	cfg.PolicyMaxRetries = c.PolicyMaxRetries
	cfg.ClampRelationshipScalars = c.ClampScalars
	return cfg
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
