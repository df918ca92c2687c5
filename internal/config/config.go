package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Pipeline *pipelineConfig
	Objects  *objectStoreConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"curator"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	HealthAddress   string `envconfig:"CURATOR_HEALTH_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"CURATOR_METRICS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"CURATOR_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"CURATOR_MIGRATIONS_FOLDER" default:""`
	EventTopic      string `envconfig:"CURATOR_EVENT_TOPIC" default:""`
	TransformerURL  string `envconfig:"CURATOR_TRANSFORMER_URL" default:"http://localhost:8090"`
}

type pipelineConfig struct {
	// LeaseMaxAge is the staleness window after which an unreleased lease
	// may be reclaimed by any worker. Time-based only.
	LeaseMaxAge       time.Duration `envconfig:"CURATOR_LEASE_MAX_AGE" default:"15m"`
	ReclaimInterval   time.Duration `envconfig:"CURATOR_LEASE_RECLAIM_INTERVAL" default:"1m"`
	RetryPollInterval time.Duration `envconfig:"CURATOR_RETRY_POLL_INTERVAL" default:"10s"`
	RetryBaseBackoff  time.Duration `envconfig:"CURATOR_RETRY_BASE_BACKOFF" default:"30s"`
	MaxRetries        int           `envconfig:"CURATOR_MAX_RETRIES" default:"3"`
	GateMaxAttempts   int           `envconfig:"CURATOR_GATE_MAX_ATTEMPTS" default:"10"`
	DedupThreshold    float64       `envconfig:"CURATOR_DEDUP_THRESHOLD" default:"0.85"`
	AutoMapThreshold  float64       `envconfig:"CURATOR_AUTOMAP_THRESHOLD" default:"0.9"`
}

type objectStoreConfig struct {
	Endpoint  string `envconfig:"CURATOR_OBJECTS_ENDPOINT" default:""`
	AccessKey string `envconfig:"CURATOR_OBJECTS_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"CURATOR_OBJECTS_SECRET_KEY" default:""`
	Bucket    string `envconfig:"CURATOR_OBJECTS_BUCKET" default:"curator-documents"`
	UseSSL    bool   `envconfig:"CURATOR_OBJECTS_USE_SSL" default:"true"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a config suitable for local development and tests:
// an in-memory sqlite database and default pipeline tuning.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "file::memory:?cache=shared"
	return cfg
}
