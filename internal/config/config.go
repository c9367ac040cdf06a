// Package config loads and validates site service configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/marketing-site/internal/spam"
)

// EnvironmentProduction is the server.environment value that hides error details.
const EnvironmentProduction = "production"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Spam       SpamConfig       `mapstructure:"spam"`
	Revalidate RevalidateConfig `mapstructure:"revalidate"`
	Preview    PreviewConfig    `mapstructure:"preview"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Redis      RedisConfig      `mapstructure:"redis"`
	CDN        CDNConfig        `mapstructure:"cdn"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	Events     EventsConfig     `mapstructure:"events"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int    `mapstructure:"port"`
	Environment           string `mapstructure:"environment"`
	BaseURL               string `mapstructure:"base_url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

// DatabaseConfig controls access to Postgres. URL wins over the discrete fields.
type DatabaseConfig struct {
	URL              string `mapstructure:"url"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	User             string `mapstructure:"user"`
	Password         string `mapstructure:"password"`
	Name             string `mapstructure:"name"`
	SSLMode          string `mapstructure:"sslmode"`
	MaxConns         int32  `mapstructure:"max_conns"`
	IdleTimeoutMS    int    `mapstructure:"idle_timeout_ms"`
	ConnectTimeoutMS int    `mapstructure:"connect_timeout_ms"`
	RetryAttempts    int    `mapstructure:"retry_attempts"`
	RetryDelayMS     int    `mapstructure:"retry_delay_ms"`
	SlowQueryMS      int    `mapstructure:"slow_query_ms"`
	AutoMigrate      bool   `mapstructure:"auto_migrate"`
	// Driver selects "postgres" or "memory" (local development without a database).
	Driver string `mapstructure:"driver"`
}

// SpamConfig tunes the contact message heuristic.
type SpamConfig struct {
	Keywords  []string `mapstructure:"keywords"`
	MaxLinks  int      `mapstructure:"max_links"`
	MinLength int      `mapstructure:"min_length"`
}

// RevalidateConfig holds the CMS webhook shared secret.
type RevalidateConfig struct {
	Secret string `mapstructure:"secret"`
}

// PreviewConfig holds the draft-mode secret and cookie name.
type PreviewConfig struct {
	Secret     string `mapstructure:"secret"`
	CookieName string `mapstructure:"cookie_name"`
}

// CORSConfig lists the browser origins allowed to post forms.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig controls per-client form throttling. RPS <= 0 disables it.
// TrustedProxies counts the reverse proxies that append to X-Forwarded-For;
// with zero the limiter keys on the connection peer.
type RateLimitConfig struct {
	RPS            float64 `mapstructure:"rps"`
	Burst          int     `mapstructure:"burst"`
	TrustedProxies int     `mapstructure:"trusted_proxies"`
}

// RedisConfig points at the render cache shared with the page renderers.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	Channel   string `mapstructure:"channel"`
}

// CDNConfig enables CloudFront invalidations when DistributionID is set.
type CDNConfig struct {
	DistributionID string `mapstructure:"distribution_id"`
	Region         string `mapstructure:"region"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
}

// NotifyConfig controls the SES email sent for new contacts.
type NotifyConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Region    string   `mapstructure:"region"`
	AccessKey string   `mapstructure:"access_key"`
	SecretKey string   `mapstructure:"secret_key"`
	From      string   `mapstructure:"from"`
	FromName  string   `mapstructure:"from_name"`
	To        []string `mapstructure:"to"`
}

// PubSubConfig holds metadata for lead event publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// EventsConfig sizes the asynchronous lead event pipeline.
type EventsConfig struct {
	QueueDepth int `mapstructure:"queue_depth"`
	Workers    int `mapstructure:"workers"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelemetryConfig names the service in traces and sets the sampling ratio.
type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Load builds a Config from disk/environment. A .env file in the working
// directory is applied first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindAliases(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Database.applyPoolDefaults(cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.base_url", "http://localhost:3000")
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.retry_attempts", 5)
	v.SetDefault("database.retry_delay_ms", 5000)
	v.SetDefault("database.slow_query_ms", 500)
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("spam.keywords", spam.DefaultKeywords)
	v.SetDefault("spam.max_links", spam.DefaultMaxLinks)
	v.SetDefault("spam.min_length", spam.DefaultMinLength)
	v.SetDefault("preview.cookie_name", "site_preview")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("rate_limit.rps", 1.0)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("rate_limit.trusted_proxies", 0)
	v.SetDefault("redis.key_prefix", "page:")
	v.SetDefault("redis.channel", "site:revalidate")
	v.SetDefault("cdn.region", "us-east-1")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_name", "Website")
	v.SetDefault("events.queue_depth", 64)
	v.SetDefault("events.workers", 2)
	v.SetDefault("logging.development", true)
	v.SetDefault("telemetry.service_name", "marketing-site")
	v.SetDefault("telemetry.sample_ratio", 1.0)

	// Unmarshal only sees env overrides for keys viper already knows about.
	for _, key := range []string{
		"database.url", "database.host", "database.user", "database.password", "database.name",
		"revalidate.secret", "preview.secret",
		"redis.addr", "redis.password",
		"cdn.distribution_id", "cdn.access_key", "cdn.secret_key",
		"notify.access_key", "notify.secret_key", "notify.from",
		"pubsub.project_id", "pubsub.topic_name",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("database.max_conns", 0)
	v.SetDefault("database.idle_timeout_ms", 0)
	v.SetDefault("database.connect_timeout_ms", 0)
	v.SetDefault("redis.db", 0)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.to", []string{})
}

// bindAliases maps the unprefixed variable names common on hosting platforms.
func bindAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"server.port":        {"SITE_SERVER_PORT", "PORT"},
		"server.environment": {"SITE_SERVER_ENVIRONMENT", "APP_ENV"},
		"server.base_url":    {"SITE_SERVER_BASE_URL", "BASE_URL"},
		"database.url":       {"SITE_DATABASE_URL", "DATABASE_URL"},
		"revalidate.secret":  {"SITE_REVALIDATE_SECRET", "REVALIDATE_SECRET"},
		"preview.secret":     {"SITE_PREVIEW_SECRET", "PREVIEW_SECRET"},
		"redis.addr":         {"SITE_REDIS_ADDR", "REDIS_ADDR"},
	}
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("database.driver must be postgres or memory, got %q", c.Database.Driver)
	}
	if c.Database.RetryAttempts <= 0 {
		return fmt.Errorf("database.retry_attempts must be > 0")
	}
	if c.Database.RetryDelayMS < 0 {
		return fmt.Errorf("database.retry_delay_ms must be >= 0")
	}
	if c.Spam.MaxLinks <= 0 || c.Spam.MinLength <= 0 {
		return fmt.Errorf("spam.max_links and spam.min_length must be > 0")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst must be > 0 when rate limiting is enabled")
	}
	if c.RateLimit.TrustedProxies < 0 {
		return fmt.Errorf("rate_limit.trusted_proxies must be >= 0")
	}
	if c.Events.QueueDepth <= 0 || c.Events.Workers <= 0 {
		return fmt.Errorf("events.queue_depth and events.workers must be > 0")
	}
	if c.Notify.Enabled && (c.Notify.From == "" || len(c.Notify.To) == 0) {
		return fmt.Errorf("notify.from and notify.to must be set when notifications are enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be between 0 and 1")
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, EnvironmentProduction)
}

// RequestTimeout converts the request budget into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

func (d *DatabaseConfig) applyPoolDefaults(production bool) {
	maxConns, idle, connect := int32(5), 10000, 5000
	if production {
		maxConns, idle, connect = 20, 30000, 2000
	}
	if d.MaxConns <= 0 {
		d.MaxConns = maxConns
	}
	if d.IdleTimeoutMS <= 0 {
		d.IdleTimeoutMS = idle
	}
	if d.ConnectTimeoutMS <= 0 {
		d.ConnectTimeoutMS = connect
	}
}

// ConnString resolves the connection string: URL first, discrete fields as fallback.
func (d DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	host := d.Host
	if host == "" {
		host = "localhost"
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + strconv.Itoa(port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// IdleTimeout returns the pool idle timeout.
func (d DatabaseConfig) IdleTimeout() time.Duration {
	return time.Duration(d.IdleTimeoutMS) * time.Millisecond
}

// ConnectTimeout returns the per-connection dial timeout.
func (d DatabaseConfig) ConnectTimeout() time.Duration {
	return time.Duration(d.ConnectTimeoutMS) * time.Millisecond
}

// RetryDelay returns the fixed wait between connection probes.
func (d DatabaseConfig) RetryDelay() time.Duration {
	return time.Duration(d.RetryDelayMS) * time.Millisecond
}

// SlowQueryThreshold returns the duration above which queries are logged as slow.
func (d DatabaseConfig) SlowQueryThreshold() time.Duration {
	return time.Duration(d.SlowQueryMS) * time.Millisecond
}
