// Package config loads the review ingestor configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	defaultServerPort      = 8070
	defaultServerTimeout   = 30 * time.Second
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 5 * time.Minute
	defaultRedisAddress    = "localhost:6379"
	defaultLinkDelay       = 2 * time.Second
	defaultStaleRunAfter   = 30 * time.Minute
	defaultMetadataTimeout = 15 * time.Second
	defaultSearchTimeout   = 20 * time.Second
	defaultSearchEndpoint  = "https://serpapi.com/search.json"
	defaultSearchEngine    = "google"
	defaultMarketplaceHost = "amazon.com"
	defaultRetryAttempts   = 3
	defaultScheduleCron    = "0 3 * * *"
	defaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultAcceptLanguage  = "en-US,en;q=0.9"
	defaultLogLevel        = "info"
	defaultConfigFileName  = "config.yml"
	maxPort                = 65535
	minLinkDelay           = 0
)

// Config is the full service configuration.
type Config struct {
	Debug     bool            `env:"APP_DEBUG" yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"  yaml:"host"`
	Port         int           `env:"SERVER_PORT"  yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"` //nolint:gosec // DB connection config
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis connection configuration for run event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" yaml:"level"`
}

type ProvidersConfig struct {
	Metadata MetadataProviderConfig `yaml:"metadata"`
	Search   SearchProviderConfig   `yaml:"search"`
}

type MetadataProviderConfig struct {
	UserAgent      string        `env:"METADATA_USER_AGENT" yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
	Timeout        time.Duration `env:"METADATA_TIMEOUT"    yaml:"timeout"`
}

type SearchProviderConfig struct {
	APIKey          string        `env:"SERPAPI_KEY"      yaml:"api_key"` //nolint:gosec // provider credential
	Endpoint        string        `env:"SERPAPI_ENDPOINT" yaml:"endpoint"`
	Engine          string        `yaml:"engine"`
	MarketplaceHost string        `yaml:"marketplace_host"`
	Timeout         time.Duration `env:"SERPAPI_TIMEOUT"  yaml:"timeout"`
	RetryAttempts   int           `yaml:"retry_attempts"`
}

// IngestConfig tunes the extraction orchestrator.
type IngestConfig struct {
	// LinkDelay is the pause between consecutive links in a run. Zero selects the 2s default.
	LinkDelay time.Duration `env:"INGEST_LINK_DELAY" yaml:"link_delay"`
	// StaleRunAfter lets a new run reclaim a register that has seen no heartbeat for this long.
	// Zero selects the 30m default. It must exceed LinkDelay.
	StaleRunAfter time.Duration `env:"INGEST_STALE_RUN_AFTER" yaml:"stale_run_after"`
}

type ScheduleConfig struct {
	Enabled      bool   `env:"SCHEDULE_ENABLED" yaml:"enabled"`
	Cron         string `env:"SCHEDULE_CRON"    yaml:"cron"`
	SkipExisting *bool  `yaml:"skip_existing"`
}

// ShouldSkipExisting reports the scheduled run mode. Scheduled runs are incremental unless configured otherwise.
func (s ScheduleConfig) ShouldSkipExisting() bool {
	if s.SkipExisting == nil {
		return true
	}
	return *s.SkipExisting
}

// Load reads the configuration file at path and validates it.
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}

	return cfg, nil
}

// DefaultPath returns the config path honouring CONFIG_PATH.
func DefaultPath() string {
	return GetConfigPath(defaultConfigFileName)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Ingest.LinkDelay < minLinkDelay {
		return errors.New("ingest.link_delay must not be negative")
	}
	if c.Ingest.StaleRunAfter < 0 {
		return errors.New("ingest.stale_run_after must not be negative")
	}
	if c.Ingest.StaleRunAfter > 0 && c.Ingest.LinkDelay >= c.Ingest.StaleRunAfter {
		return errors.New("ingest.link_delay must be shorter than ingest.stale_run_after")
	}
	if c.Schedule.Enabled {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron is invalid: %w", err)
		}
	}
	return nil
}

func setDefaults(cfg *Config) {
	setServerDefaults(&cfg.Server)
	setDatabaseDefaults(&cfg.Database)
	setProviderDefaults(&cfg.Providers)

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Ingest.LinkDelay == 0 {
		cfg.Ingest.LinkDelay = defaultLinkDelay
	}
	if cfg.Ingest.StaleRunAfter == 0 {
		cfg.Ingest.StaleRunAfter = defaultStaleRunAfter
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = defaultScheduleCron
	}
}

func setServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = defaultServerPort
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = defaultServerTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = defaultServerTimeout
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = []string{"http://localhost:3000"}
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = defaultDatabasePort
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = defaultMaxOpenConns
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultMaxIdleConns
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = defaultConnMaxLifetime
	}
}

func setProviderDefaults(p *ProvidersConfig) {
	if p.Metadata.UserAgent == "" {
		p.Metadata.UserAgent = defaultUserAgent
	}
	if p.Metadata.AcceptLanguage == "" {
		p.Metadata.AcceptLanguage = defaultAcceptLanguage
	}
	if p.Metadata.Timeout == 0 {
		p.Metadata.Timeout = defaultMetadataTimeout
	}
	if p.Search.Endpoint == "" {
		p.Search.Endpoint = defaultSearchEndpoint
	}
	if p.Search.Engine == "" {
		p.Search.Engine = defaultSearchEngine
	}
	if p.Search.MarketplaceHost == "" {
		p.Search.MarketplaceHost = defaultMarketplaceHost
	}
	if p.Search.Timeout == 0 {
		p.Search.Timeout = defaultSearchTimeout
	}
	if p.Search.RetryAttempts == 0 {
		p.Search.RetryAttempts = defaultRetryAttempts
	}
}
