package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	ierr "github.com/funduq/funduq/internal/errors"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig   `mapstructure:"deployment"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Moyasar      MoyasarConfig      `mapstructure:"moyasar"`
	Subscription SubscriptionConfig `mapstructure:"subscription"`
	Reprocess    ReprocessConfig    `mapstructure:"reprocess"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

type DeploymentConfig struct {
	Mode        string `mapstructure:"mode"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	Debug           bool          `mapstructure:"debug"`
}

type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	FluentdEnabled bool   `mapstructure:"fluentd_enabled"`
	FluentdHost    string `mapstructure:"fluentd_host"`
	FluentdPort    int    `mapstructure:"fluentd_port"`
}

type PostgresConfig struct {
	Host                   string        `mapstructure:"host"`
	Port                   int           `mapstructure:"port"`
	User                   string        `mapstructure:"user"`
	Password               string        `mapstructure:"password"`
	DBName                 string        `mapstructure:"dbname"`
	SSLMode                string        `mapstructure:"sslmode"`
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool          `mapstructure:"auto_migrate"`
	StatementTimeout       time.Duration `mapstructure:"statement_timeout"`
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	UseTLS   bool          `mapstructure:"use_tls"`
	PoolSize int           `mapstructure:"pool_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	ClientID      string   `mapstructure:"client_id"`
	Topic         string   `mapstructure:"topic"`
	TLS           bool     `mapstructure:"tls"`
	UseSASL       bool     `mapstructure:"use_sasl"`
	SASLMechanism string   `mapstructure:"sasl_mechanism"`
	SASLUser      string   `mapstructure:"sasl_user"`
	SASLPassword  string   `mapstructure:"sasl_password"`
}

// MoyasarConfig is the gateway configuration. It is read once at startup and
// passed by pointer into the payment client and webhook verifier.
type MoyasarConfig struct {
	PublishableKey      string        `mapstructure:"publishable_key"`
	SecretKey           string        `mapstructure:"secret_key"`
	BaseURL             string        `mapstructure:"base_url"`
	DefaultCurrency     string        `mapstructure:"default_currency"`
	SupportedNetworks   []string      `mapstructure:"supported_networks"`
	WebhookSecret       string        `mapstructure:"webhook_secret"`
	ConnectTimeout      time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`
	DefaultInstallments int           `mapstructure:"default_installments"`
	EnabledMethods      []string      `mapstructure:"enabled_methods"`
	UserAgent           string        `mapstructure:"user_agent"`
}

// MethodEnabled reports whether a payment source type may be used
func (c MoyasarConfig) MethodEnabled(method string) bool {
	return lo.Contains(c.EnabledMethods, method)
}

type SubscriptionConfig struct {
	MonthlyPrice decimal.Decimal `mapstructure:"monthly_price"`
	YearlyPrice  decimal.Decimal `mapstructure:"yearly_price"`
	Description  string          `mapstructure:"description"`
}

type ReprocessConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

type RateLimitConfig struct {
	PaymentsPerSecond float64 `mapstructure:"payments_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// NewConfig loads configuration from .env, the environment and defaults, then
// validates it. Missing gateway credentials stop the process here.
func NewConfig() (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("failed to load .env file: %v\n", err)
	}

	v := newViper()

	var cfg Configuration
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read configuration").
			Mark(ierr.ErrConfiguration)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetDefaultConfig returns the defaults without reading the environment or
// validating. Used to bootstrap the global logger and in tests.
func GetDefaultConfig() *Configuration {
	v := viper.New()
	setDefaults(v)

	var cfg Configuration
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	cfg.normalize()
	return &cfg
}

func (c *Configuration) Validate() error {
	if c.Moyasar.SecretKey == "" {
		return ierr.NewError("moyasar secret key is not configured").
			WithHint("Set FUNDUQ_MOYASAR_SECRET_KEY").
			Mark(ierr.ErrConfiguration)
	}
	if c.Moyasar.BaseURL == "" {
		return ierr.NewError("moyasar base url is not configured").
			WithHint("Set FUNDUQ_MOYASAR_BASE_URL").
			Mark(ierr.ErrConfiguration)
	}
	if c.Moyasar.ConnectTimeout <= 0 {
		return ierr.NewErrorf("invalid moyasar connect timeout: %s", c.Moyasar.ConnectTimeout).
			WithHint("FUNDUQ_MOYASAR_CONNECT_TIMEOUT must be a positive duration").
			Mark(ierr.ErrConfiguration)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return ierr.NewError("kafka is enabled without brokers").
			WithHint("Set FUNDUQ_KAFKA_BROKERS or disable kafka").
			Mark(ierr.ErrConfiguration)
	}
	return nil
}

// GetDSN returns the lib/pq connection string
func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c *Configuration) normalize() {
	c.Moyasar.SupportedNetworks = cleanList(c.Moyasar.SupportedNetworks)
	c.Moyasar.EnabledMethods = cleanList(c.Moyasar.EnabledMethods)
	c.Kafka.Brokers = cleanList(c.Kafka.Brokers)
	c.Moyasar.BaseURL = strings.TrimRight(c.Moyasar.BaseURL, "/")
}

// cleanList trims and lower-cases comma separated values and drops blanks.
func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			out = append(out, strings.ToLower(strings.TrimSpace(part)))
		}
	}
	return lo.Uniq(lo.Compact(out))
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FUNDUQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "local")
	v.SetDefault("deployment.environment", "development")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.fluentd_enabled", false)
	v.SetDefault("logging.fluentd_host", "")
	v.SetDefault("logging.fluentd_port", 24224)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "funduq")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "funduq")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 20)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.auto_migrate", true)
	v.SetDefault("postgres.statement_timeout", 10*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.use_tls", false)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.timeout", 5*time.Second)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "inmemory")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.client_id", "funduq")
	v.SetDefault("kafka.topic", "payments")
	v.SetDefault("kafka.tls", false)
	v.SetDefault("kafka.use_sasl", false)
	v.SetDefault("kafka.sasl_mechanism", "")
	v.SetDefault("kafka.sasl_user", "")
	v.SetDefault("kafka.sasl_password", "")

	v.SetDefault("moyasar.publishable_key", "")
	v.SetDefault("moyasar.secret_key", "")
	v.SetDefault("moyasar.base_url", "https://api.moyasar.com/v1")
	v.SetDefault("moyasar.default_currency", "SAR")
	v.SetDefault("moyasar.supported_networks", "mada,visa,mastercard")
	v.SetDefault("moyasar.webhook_secret", "")
	v.SetDefault("moyasar.connect_timeout", 15*time.Second)
	v.SetDefault("moyasar.read_timeout", 10*time.Second)
	v.SetDefault("moyasar.write_timeout", 10*time.Second)
	v.SetDefault("moyasar.default_installments", 0)
	v.SetDefault("moyasar.enabled_methods", "creditcard,stcpay,redirect")
	v.SetDefault("moyasar.user_agent", "funduq-pms/1.0")

	v.SetDefault("subscription.monthly_price", "99")
	v.SetDefault("subscription.yearly_price", "999")
	v.SetDefault("subscription.description", "Funduq premium")

	v.SetDefault("reprocess.concurrency", 4)
	v.SetDefault("reprocess.max_retries", 3)
	v.SetDefault("reprocess.initial_backoff", 500*time.Millisecond)

	v.SetDefault("rate_limit.payments_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
}
