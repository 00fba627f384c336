package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds broadcast-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Operator/admin bearer auth
	JWTSecret string

	// Device pairing
	PairingTokenTTL  time.Duration // PAIRING_TOKEN_TTL, default 5m
	DeviceStaleAfter time.Duration // DEVICE_STALE_AFTER, default 1h

	// Mux live-stream provider
	MuxTokenID     string
	MuxTokenSecret string
	MuxAPIBaseURL  string // override for tests

	// LiveKit room tokens
	LiveKitAPIKey    string
	LiveKitAPISecret string
	LiveKitURL       string

	// WebSocket signaling wakeup channel
	WSReadBufferSize  int
	WSWriteBufferSize int
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	tokenTTL, err := time.ParseDuration(getEnv("PAIRING_TOKEN_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("config: PAIRING_TOKEN_TTL: %w", err)
	}
	staleAfter, err := time.ParseDuration(getEnv("DEVICE_STALE_AFTER", "1h"))
	if err != nil {
		return nil, fmt.Errorf("config: DEVICE_STALE_AFTER: %w", err)
	}

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8090"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		PairingTokenTTL:   tokenTTL,
		DeviceStaleAfter:  staleAfter,
		MuxTokenID:        getEnv("MUX_TOKEN_ID", ""),
		MuxTokenSecret:    getEnv("MUX_TOKEN_SECRET", ""),
		MuxAPIBaseURL:     getEnv("MUX_API_BASE_URL", "https://api.mux.com"),
		LiveKitAPIKey:     getEnv("LIVEKIT_API_KEY", ""),
		LiveKitAPISecret:  getEnv("LIVEKIT_API_SECRET", ""),
		LiveKitURL:        getEnv("LIVEKIT_URL", ""),
		WSReadBufferSize:  readBuf,
		WSWriteBufferSize: writeBuf,
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "broadcast_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns a postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
