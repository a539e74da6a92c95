package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	LiveKit  LiveKitConfig
	Storage  StorageConfig
	Rollover RolloverConfig
	Realtime RealtimeConfig
	Pubsub   PubsubConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"; sqlite is meant for local development
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"`
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"meeting_stats"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath  string `envconfig:"DB_SQLITE_PATH" default:"meeting_stats.db"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	// ConnectTimeout bounds the boot-time connection retries
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"30s"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// JWTConfig holds JWT configuration. Tokens are issued by the
// authentication service; this service only verifies them.
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
}

// LiveKitConfig holds LiveKit webhook configuration
type LiveKitConfig struct {
	APIKey        string `envconfig:"LIVEKIT_API_KEY"`
	APISecret     string `envconfig:"LIVEKIT_API_SECRET"`
	AllowUnsigned bool   `envconfig:"LIVEKIT_WEBHOOK_ALLOW_UNSIGNED" default:"false"`
}

// StorageConfig holds baseline archive storage configuration
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"meeting-stats"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// RolloverConfig holds the monthly baseline rollover schedule
type RolloverConfig struct {
	Enabled  bool          `envconfig:"ROLLOVER_ENABLED" default:"true"`
	Schedule string        `envconfig:"ROLLOVER_SCHEDULE" default:"0 0 1 * *"`
	Timeout  time.Duration `envconfig:"ROLLOVER_TIMEOUT" default:"5m"`
}

// RealtimeConfig holds event relay configuration
type RealtimeConfig struct {
	TicketTTL    time.Duration `envconfig:"REALTIME_TICKET_TTL" default:"30s"`
	PingInterval time.Duration `envconfig:"REALTIME_PING_INTERVAL" default:"30s"`
	SendBuffer   int           `envconfig:"REALTIME_SEND_BUFFER" default:"16"`
}

// PubsubConfig selects the fan-out backend for real-time updates
type PubsubConfig struct {
	Driver string `envconfig:"PUBSUB_DRIVER" default:"memory"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	sections := []interface{}{
		&config.Server,
		&config.Database,
		&config.Redis,
		&config.JWT,
		&config.LiveKit,
		&config.Storage,
		&config.Rollover,
		&config.Realtime,
		&config.Pubsub,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWT.AccessSecret == "" || c.JWT.AccessSecret == "your-access-secret-change-in-production" {
			return fmt.Errorf("JWT_ACCESS_SECRET must be set in production")
		}
		if c.LiveKit.AllowUnsigned {
			return fmt.Errorf("LIVEKIT_WEBHOOK_ALLOW_UNSIGNED cannot be enabled in production")
		}
		if c.Database.Driver == "sqlite" {
			return fmt.Errorf("DB_DRIVER=sqlite is not supported in production")
		}
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Pubsub.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown PUBSUB_DRIVER %q", c.Pubsub.Driver)
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("REALTIME_SEND_BUFFER must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
