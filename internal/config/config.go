package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// RedisHost empty disables Redis: caches fall back to process memory and
	// the rate limiter is off.
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	SnapshotTTL       time.Duration
	SnapshotQueueSize int

	RateLimit  int
	RateWindow time.Duration
}

// Load reads a .env file when present, then the environment, falling back to
// defaults for anything unset or malformed.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: envOr("PORT", "8080"),

		DBHost:     envOr("DB_HOST", "localhost"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     envOr("DB_USER", "ascend_user"),
		DBPassword: envOr("DB_PASSWORD", ""),
		DBName:     envOr("DB_NAME", "ascend_db"),

		RedisHost:     envOr("REDIS_HOST", ""),
		RedisPort:     envOr("REDIS_PORT", "6379"),
		RedisPassword: envOr("REDIS_PASSWORD", ""),
		RedisDB:       envIntOr("REDIS_DB", 0),

		JWTSecret: envOr("JWT_SECRET", ""),
		JWTIssuer: envOr("JWT_ISSUER", "ascend-engine"),
		TokenTTL:  envDurationOr("TOKEN_TTL", 24*time.Hour),

		SnapshotTTL:       envDurationOr("SNAPSHOT_TTL", 15*time.Minute),
		SnapshotQueueSize: envIntOr("SNAPSHOT_QUEUE_SIZE", 100),

		RateLimit:  envIntOr("RATE_LIMIT", 100),
		RateWindow: envDurationOr("RATE_WINDOW", time.Minute),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	if c.DBHost == "" || c.DBName == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET cannot be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if c.SnapshotQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("SNAPSHOT_QUEUE_SIZE must be positive, got %d", c.SnapshotQueueSize))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT and RATE_WINDOW must be positive"))
	}
	return errors.Join(errs...)
}

// DatabaseURL builds the connection URL with credentials and database name
// escaped, so any character is allowed in them.
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
