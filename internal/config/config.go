package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Kiosk behaviour
	Kiosk KioskConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Scheduled maintenance
	Scheduler SchedulerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	AutoMigrate bool

	// TrustedProxies may set X-Forwarded-For / X-Real-IP. Empty trusts none.
	TrustedProxies []string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	AdminTokenExpiry   time.Duration // lifetime of the PIN-elevated admin token
}

// KioskConfig holds front-desk behaviour settings
type KioskConfig struct {
	DwellSeconds          int // how long the UI keeps an outcome on screen
	MembershipDefaultDays int // expiration offset for newly created members
}

// RateLimitConfig holds one limit per guarded endpoint
type RateLimitConfig struct {
	CheckIn RateLimit // kiosk code lookups, per client address
	Login   RateLimit // password logins, per client address
	Unlock  RateLimit // admin PIN attempts, per organization
}

// RateLimit is a token bucket: sustained rate plus burst
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
}

// SchedulerConfig holds cron expressions for maintenance jobs
type SchedulerConfig struct {
	Enabled            bool
	TokenCleanupSpec   string
	RevokedTokenMaxAge time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AutoMigrate:    getEnvAsBool("AUTO_MIGRATE", true),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", nil),
		},
		Database: databaseFromEnv(),
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 2592000)) * time.Second,
			AdminTokenExpiry:   time.Duration(getEnvAsInt("JWT_ADMIN_TOKEN_EXPIRY", 900)) * time.Second,
		},
		Kiosk: KioskConfig{
			DwellSeconds:          getEnvAsInt("KIOSK_DWELL_SECONDS", 5),
			MembershipDefaultDays: getEnvAsInt("MEMBERSHIP_DEFAULT_DAYS", 30),
		},
		RateLimit: RateLimitConfig{
			CheckIn: RateLimit{
				RequestsPerSecond: getEnvAsFloat("KIOSK_RATE_LIMIT_RPS", 2),
				Burst:             getEnvAsInt("KIOSK_RATE_LIMIT_BURST", 10),
			},
			Login: RateLimit{
				RequestsPerSecond: getEnvAsFloat("LOGIN_RATE_LIMIT_RPS", 0.2),
				Burst:             getEnvAsInt("LOGIN_RATE_LIMIT_BURST", 5),
			},
			Unlock: RateLimit{
				RequestsPerSecond: getEnvAsFloat("UNLOCK_RATE_LIMIT_RPS", 0.05),
				Burst:             getEnvAsInt("UNLOCK_RATE_LIMIT_BURST", 5),
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
		},
		Scheduler: SchedulerConfig{
			Enabled:            getEnvAsBool("SCHEDULER_ENABLED", true),
			TokenCleanupSpec:   getEnv("TOKEN_CLEANUP_CRON", "0 30 3 * * *"),
			RevokedTokenMaxAge: time.Duration(getEnvAsInt("REVOKED_TOKEN_MAX_AGE_HOURS", 168)) * time.Hour,
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDatabase loads only the database section, for tools that do not serve
// traffic (migrations, maintenance).
func LoadDatabase() (DatabaseConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := databaseFromEnv()
	if cfg.URL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:                getEnv("DATABASE_URL", ""),
		MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
		MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	if c.JWT.Secret == c.JWT.RefreshSecret {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	if c.Kiosk.DwellSeconds <= 0 {
		return fmt.Errorf("KIOSK_DWELL_SECONDS must be positive")
	}

	if c.Kiosk.MembershipDefaultDays < 0 {
		return fmt.Errorf("MEMBERSHIP_DEFAULT_DAYS cannot be negative")
	}

	limits := []struct {
		prefix string
		limit  RateLimit
	}{
		{"KIOSK", c.RateLimit.CheckIn},
		{"LOGIN", c.RateLimit.Login},
		{"UNLOCK", c.RateLimit.Unlock},
	}
	for _, l := range limits {
		if l.limit.RequestsPerSecond <= 0 || l.limit.Burst <= 0 {
			return fmt.Errorf("%s_RATE_LIMIT_RPS and %s_RATE_LIMIT_BURST must be positive", l.prefix, l.prefix)
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
