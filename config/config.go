package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	HTTP          HTTPConfig          `yaml:"http"`
	GRPC          GRPCConfig          `yaml:"grpc"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Booking       BookingConfig       `yaml:"booking"`
	Worker        WorkerConfig        `yaml:"worker"`
	Payment       PaymentConfig       `yaml:"payment"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Log           LogConfig           `yaml:"log"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	Env  string `yaml:"env"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"ssl_mode"`
	SQLitePath  string `yaml:"sqlite_path"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL is the pgx5:// form golang-migrate expects.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingEventsTopic string   `yaml:"booking_events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	ProductsCacheTTL int    `yaml:"products_cache_ttl_seconds"`
	CancelCutoffDays int    `yaml:"cancel_cutoff_days"`
	DefaultCurrency  string `yaml:"default_currency"`
}

type WorkerConfig struct {
	RefundSweepSeconds int `yaml:"refund_sweep_seconds"`
	RefundBatchSize    int `yaml:"refund_batch_size"`
}

const (
	PaymentProviderStripe = "stripe"
	PaymentProviderMock   = "mock"
)

type PaymentConfig struct {
	Provider        string `yaml:"provider"`
	StripeSecretKey string `yaml:"stripe_secret_key"`
	WebhookSecret   string `yaml:"webhook_secret"`
	SuccessURL      string `yaml:"success_url"`
	CancelURL       string `yaml:"cancel_url"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LogConfig struct {
	File string `yaml:"file"`
}

type ObservabilityConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

func defaults() Config {
	return Config{
		App:      AppConfig{Name: "travelbooking", Env: "development"},
		HTTP:     HTTPConfig{Address: ":8080"},
		GRPC:     GRPCConfig{Address: ":9090"},
		Database: DatabaseConfig{Driver: DriverPostgres, Port: 5432, SSLMode: "disable"},
		Kafka: KafkaConfig{
			BookingEventsTopic: "booking-events",
			NotificationsTopic: "booking-notifications",
			GroupID:            "travelbooking-worker",
		},
		Booking: BookingConfig{ProductsCacheTTL: 60, CancelCutoffDays: 1, DefaultCurrency: "usd"},
		Worker:  WorkerConfig{RefundSweepSeconds: 60, RefundBatchSize: 50},
		Payment: PaymentConfig{Provider: PaymentProviderMock},
		SMTP:    SMTPConfig{Port: 587},
	}
}

// LoadConfig reads the YAML file at path over the defaults, then applies
// environment overrides (a .env file in the working directory is loaded first).
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.App.Env, "APP_ENV")
	setString(&c.HTTP.Address, "HTTP_ADDRESS")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.Host, "DATABASE_HOST")
	setString(&c.Database.User, "DATABASE_USER")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Database.Name, "DATABASE_NAME")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Payment.Provider, "PAYMENT_PROVIDER")
	setString(&c.Payment.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Payment.WebhookSecret, "STRIPE_WEBHOOK_SECRET")
	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.Observability.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		c.SMTP.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverSQLite && c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
	}
	switch c.Payment.Provider {
	case PaymentProviderMock:
	case PaymentProviderStripe:
		if c.Payment.StripeSecretKey == "" {
			return fmt.Errorf("payment.stripe_secret_key is required for the stripe provider")
		}
	default:
		return fmt.Errorf("unsupported payment provider %q", c.Payment.Provider)
	}
	if c.Booking.CancelCutoffDays < 0 {
		return fmt.Errorf("booking.cancel_cutoff_days must not be negative")
	}
	if c.Worker.RefundSweepSeconds <= 0 {
		return fmt.Errorf("worker.refund_sweep_seconds must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
