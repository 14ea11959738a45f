package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Staff identity (JWT supplied by the identity provider)
	JWT JWTConfig

	// Customer access-token chain
	Tokens TokenConfig

	// Queue behaviour
	Queue QueueConfig

	// Kafka notification pipeline
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Email delivery
	Email EmailConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL values for derived state kept in Redis
	NotifiedSetTTL   time.Duration
	ServingIndexTTL  time.Duration
	DirectoryCacheTTL time.Duration
}

// JWTConfig holds configuration for verifying staff identity tokens
type JWTConfig struct {
	Secret string
}

// TokenConfig holds configuration for the customer access-token chain
type TokenConfig struct {
	Secret         string
	PermissionTTL  time.Duration
	QueueFormTTL   time.Duration
	QueueStatusTTL time.Duration
}

// QueueConfig holds queue behaviour configuration
type QueueConfig struct {
	// NotifyThreshold is how many tickets from the front of the line
	// receive a proximity notification.
	NotifyThreshold int
}

// KafkaConfig holds Kafka configuration for the notification pipeline
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	ConsumerGroupID   string
	ConsumerWorkers   int
	Enabled           bool
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	QueueRequests   int           `json:"queue_requests"`
	StaffRequests   int           `json:"staff_requests"`
	DisplayRequests int           `json:"display_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// EmailConfig holds email configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "campusq_db"),
			User:     getEnv("DB_USER", "campusq_user"),
			Password: getEnv("DB_PASSWORD", "campusq_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			NotifiedSetTTL:    getDurationEnv("REDIS_NOTIFIED_SET_TTL", 12*time.Hour),
			ServingIndexTTL:   getDurationEnv("REDIS_SERVING_INDEX_TTL", 12*time.Hour),
			DirectoryCacheTTL: getDurationEnv("REDIS_DIRECTORY_CACHE_TTL", 1*time.Minute),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "staff-identity-secret"),
		},

		Tokens: TokenConfig{
			Secret:         getEnv("TOKEN_SECRET", "queue-token-secret"),
			PermissionTTL:  getDurationEnv("TOKEN_PERMISSION_TTL", 5*time.Minute),
			QueueFormTTL:   getDurationEnv("TOKEN_QUEUE_FORM_TTL", 10*time.Minute),
			QueueStatusTTL: getDurationEnv("TOKEN_QUEUE_STATUS_TTL", 8*time.Hour),
		},

		Queue: QueueConfig{
			NotifyThreshold: getIntEnv("QUEUE_NOTIFY_THRESHOLD", 4),
		},

		Kafka: KafkaConfig{
			Brokers:           getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "queue-notifications"),
			ConsumerGroupID:   getEnv("KAFKA_CONSUMER_GROUP", "campusq-notification-workers"),
			ConsumerWorkers:   getIntEnv("KAFKA_CONSUMER_WORKERS", 3),
			Enabled:           getBoolEnv("KAFKA_ENABLED", true),
		},

		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			QueueRequests:   getIntEnv("RATE_LIMIT_QUEUE_REQUESTS", 30),
			StaffRequests:   getIntEnv("RATE_LIMIT_STAFF_REQUESTS", 200),
			DisplayRequests: getIntEnv("RATE_LIMIT_DISPLAY_REQUESTS", 300),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@campusq.edu"),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
