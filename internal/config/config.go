// Package config provides configuration management for the research agent.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the research agent.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Kafka contains Kafka task queue and event publishing settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Workflow contains research workflow tuning settings.
	Workflow WorkflowConfig `mapstructure:"workflow"`
	// Retention contains stored-topic retention settings.
	Retention RetentionConfig `mapstructure:"retention"`
	// Sources contains external source API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password, loaded from the environment only.
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 25).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 5).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Namespace is the metric name prefix.
	Namespace string `mapstructure:"namespace"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// KafkaConfig holds Kafka task queue configuration.
type KafkaConfig struct {
	// Enabled enables the Kafka task queue. When disabled, workflows run
	// inline in the API process.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// TaskTopic is the topic research tasks are enqueued to.
	TaskTopic string `mapstructure:"task_topic"`
	// EventTopic is the topic workflow progress events are published to.
	EventTopic string `mapstructure:"event_topic"`
	// GroupID is the consumer group for workers.
	GroupID string `mapstructure:"group_id"`
	// BatchTimeout is the maximum time to wait before flushing a produce batch.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// WorkflowConfig holds research workflow tuning.
type WorkflowConfig struct {
	// GatherLimit is the total number of articles to collect across sources.
	GatherLimit int `mapstructure:"gather_limit"`
	// ResultLimit is the number of top articles to process and persist.
	ResultLimit int `mapstructure:"result_limit"`
}

// RetentionConfig holds stored-topic retention settings.
type RetentionConfig struct {
	// Enabled enables the background retention cleaner.
	Enabled bool `mapstructure:"enabled"`
	// Interval is how often the cleaner runs.
	Interval time.Duration `mapstructure:"interval"`
	// MaxAge is how long finished topics are kept.
	MaxAge time.Duration `mapstructure:"max_age"`
}

// SourcesConfig holds external source API configurations.
type SourcesConfig struct {
	// Wikipedia contains Wikipedia API settings.
	Wikipedia WikipediaSourceConfig `mapstructure:"wikipedia"`
	// NewsAPI contains NewsAPI settings.
	NewsAPI NewsAPISourceConfig `mapstructure:"newsapi"`
	// HackerNews contains Hacker News (Algolia) settings.
	HackerNews HackerNewsSourceConfig `mapstructure:"hackernews"`
	// Reddit contains Reddit settings.
	Reddit RedditSourceConfig `mapstructure:"reddit"`
}

// WikipediaSourceConfig holds Wikipedia source settings.
type WikipediaSourceConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	SearchURL string        `mapstructure:"search_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// NewsAPISourceConfig holds NewsAPI source settings. The API key is
// loaded from the environment only.
type NewsAPISourceConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"-"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// HackerNewsSourceConfig holds Hacker News source settings.
type HackerNewsSourceConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// RedditSourceConfig holds Reddit source settings.
type RedditSourceConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url"`
	Subreddits []string      `mapstructure:"subreddits"`
	UserAgent  string        `mapstructure:"user_agent"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RateLimit  float64       `mapstructure:"rate_limit"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("RESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/research-agent")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, env vars and defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets use mapstructure:"-" so they never come from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv("RESEARCH_DATABASE_PASSWORD")
	cfg.Sources.NewsAPI.APIKey = os.Getenv("RESEARCH_SOURCES_NEWSAPI_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "research")
	v.SetDefault("database.name", "research_agent")
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "1m")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "research_agent")
	v.SetDefault("metrics.path", "/metrics")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.task_topic", "research.tasks")
	v.SetDefault("kafka.event_topic", "research.workflow.events")
	v.SetDefault("kafka.group_id", "research-agent-workers")
	v.SetDefault("kafka.batch_timeout", "100ms")

	// Workflow defaults
	v.SetDefault("workflow.gather_limit", 10)
	v.SetDefault("workflow.result_limit", 5)

	// Retention defaults
	v.SetDefault("retention.enabled", false)
	v.SetDefault("retention.interval", "1h")
	v.SetDefault("retention.max_age", "720h")

	// Source defaults
	v.SetDefault("sources.wikipedia.enabled", true)
	v.SetDefault("sources.wikipedia.timeout", "30s")
	v.SetDefault("sources.wikipedia.rate_limit", 5)
	v.SetDefault("sources.newsapi.enabled", true)
	v.SetDefault("sources.newsapi.timeout", "30s")
	v.SetDefault("sources.newsapi.rate_limit", 5)
	v.SetDefault("sources.hackernews.enabled", true)
	v.SetDefault("sources.hackernews.timeout", "30s")
	v.SetDefault("sources.hackernews.rate_limit", 5)
	v.SetDefault("sources.reddit.enabled", true)
	v.SetDefault("sources.reddit.timeout", "30s")
	v.SetDefault("sources.reddit.rate_limit", 5)
	v.SetDefault("sources.reddit.subreddits", []string{
		"technology", "science", "news", "worldnews", "todayilearned",
	})
	v.SetDefault("sources.reddit.user_agent", "Inquiro-ResearchAgent/1.0")
}

// Validate checks the configuration for invalid or inconsistent values.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.TaskTopic == "" {
			return fmt.Errorf("kafka task_topic is required when kafka is enabled")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("kafka group_id is required when kafka is enabled")
		}
	}

	if c.Workflow.GatherLimit <= 0 {
		return fmt.Errorf("workflow gather_limit must be positive")
	}
	if c.Workflow.ResultLimit <= 0 {
		return fmt.Errorf("workflow result_limit must be positive")
	}

	if c.Retention.Enabled {
		if c.Retention.Interval <= 0 {
			return fmt.Errorf("retention interval must be positive when retention is enabled")
		}
		if c.Retention.MaxAge <= 0 {
			return fmt.Errorf("retention max_age must be positive when retention is enabled")
		}
	}

	return nil
}
