package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Storage
	StorageBackend  string // "postgres" or "memory"
	DatabaseURL     string
	DatabaseName    string
	DatabaseMaxConn int32

	// Settlement and betting
	SettlementWorkers int
	BetRatePerSecond  float64 // 0 disables per-user limiting
	BetRateBurst      int

	// Credentials and tokens
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	// Bootstrap admin, created at startup when both are set
	BootstrapAdminUsername string
	BootstrapAdminPassword string

	// Notifications (optional)
	NATSURL           string
	NATSSubjectPrefix string
	DiscordToken      string
	DiscordChannelID  string
	BigWinThreshold   int64 // payouts at or above this are announced; 0 disables

	// Observability
	MetricsAddr string
	LogLevel    string
	LogFormat   string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// DatabaseConnString returns DATABASE_URL with DATABASE_NAME applied
func (c *Config) DatabaseConnString() string {
	return ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from a .env file, if present, and environment variables
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	config := &Config{
		StorageBackend: getEnv("STORAGE_BACKEND", BackendPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseName:   os.Getenv("DATABASE_NAME"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		BootstrapAdminUsername: os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),

		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "matka"),
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID:  os.Getenv("DISCORD_CHANNEL_ID"),

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),

		Environment: getEnv("ENVIRONMENT", "development"),
	}

	var err error
	if config.SettlementWorkers, err = getEnvInt("SETTLEMENT_WORKERS", 8); err != nil {
		return nil, err
	}
	if config.BetRatePerSecond, err = getEnvFloat("BET_RATE_PER_SECOND", 0); err != nil {
		return nil, err
	}
	if config.BetRateBurst, err = getEnvInt("BET_RATE_BURST", 5); err != nil {
		return nil, err
	}
	if config.BcryptCost, err = getEnvInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}
	maxConn, err := getEnvInt("DATABASE_MAX_CONNS", 20)
	if err != nil {
		return nil, err
	}
	config.DatabaseMaxConn = int32(maxConn)
	bigWin, err := getEnvInt("DISCORD_BIG_WIN_THRESHOLD", 0)
	if err != nil {
		return nil, err
	}
	config.BigWinThreshold = int64(bigWin)
	if config.JWTTTL, err = getEnvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" && c.Environment != "test" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.SettlementWorkers < 1 {
		return fmt.Errorf("SETTLEMENT_WORKERS must be at least 1")
	}
	if c.Environment == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
