package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

const (
	defaultQueryTimeout = 5 * time.Second
	defaultMaxConns     = 10
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost     string   `toml:"postgres_host"`
	PostgresPort     string   `toml:"postgres_port"`
	PostgresDBName   string   `toml:"postgres_db_name"`
	PostgresSSLMode  string   `toml:"postgres_ssl_mode"`
	PostgresMaxConns int32    `toml:"postgres_max_conns"`
	PostgresMinConns int32    `toml:"postgres_min_conns"`
	QueryTimeout     Duration `toml:"query_timeout"`

	// redis (request rate limiting)
	RedisHost              string `toml:"redis_host"`
	RedisPort              string `toml:"redis_port"`
	RateLimitAllowedPerMin int    `toml:"rate_limit_allowed_per_min"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	AllowedOrigins []string `toml:"allowed_origins"`
	MCPEnabled     bool     `toml:"mcp_enabled"`
}

// Duration is a time.Duration decoded from strings like "5s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section for env,
// with defaults applied and validated.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for in-memory TOML content.
func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.PostgresSSLMode == "" {
		c.PostgresSSLMode = "disable"
	}
	if c.PostgresMaxConns == 0 {
		c.PostgresMaxConns = defaultMaxConns
	}
	if c.QueryTimeout.Duration == 0 {
		c.QueryTimeout.Duration = defaultQueryTimeout
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
		errs = append(errs, errors.New("postgres host, port and db name must be set"))
	}
	if c.PostgresMinConns < 0 || c.PostgresMinConns > c.PostgresMaxConns {
		errs = append(errs, fmt.Errorf("invalid pool size: min %d, max %d", c.PostgresMinConns, c.PostgresMaxConns))
	}
	if c.QueryTimeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("invalid query timeout: %s", c.QueryTimeout.Duration))
	}
	if c.RateLimitAllowedPerMin < 0 {
		errs = append(errs, fmt.Errorf("invalid rate limit: %d", c.RateLimitAllowedPerMin))
	}
	if c.RateLimitAllowedPerMin > 0 && (c.RedisHost == "" || c.RedisPort == "") {
		errs = append(errs, errors.New("rate limiting needs redis host and port"))
	}
	return errors.Join(errs...)
}

// Secrets are never read from the config file.
type Secrets struct {
	PostgresUser     string `env:"POSTGRES_USER, default=postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	SentryDSN        string `env:"SENTRY_DSN"`
	RedisPassword    string `env:"SERJ_REDIS_PASS"`
	HoneycombEnabled bool   `env:"HONEYCOMB_ENABLED, default=false"`
	HoneycombAPIKey  string `env:"HONEYCOMB_API_KEY"`
	OtelServiceName  string `env:"OTEL_SERVICE_NAME, default=trainingstats"`
}

func LoadSecrets(ctx context.Context) (*Secrets, error) {
	return loadSecrets(ctx, envconfig.OsLookuper())
}

func loadSecrets(ctx context.Context, lookuper envconfig.Lookuper) (*Secrets, error) {
	var s Secrets
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &s,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env secrets: %w", err)
	}
	return &s, nil
}
