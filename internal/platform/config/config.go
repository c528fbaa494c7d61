package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends for voter and candidate records.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process level configuration. Values come from the
// environment, optionally preloaded from a .env file.
type Server struct {
	Addr         string        `env:"EVOTE_ADDR" envDefault:":3000"`
	Environment  string        `env:"EVOTE_ENV" envDefault:"development"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	Backend      string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"3s"`
	SeedDemo     bool          `env:"SEED_DEMO" envDefault:"false"`
	VoterImport  string        `env:"VOTER_IMPORT_FILE"`

	JWT      JWTConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// JWTConfig configures verification of voter access tokens.
type JWTConfig struct {
	SigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"evote"`
	Audience   string        `env:"JWT_AUDIENCE" envDefault:"evote-api"`
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" envDefault:"1h"`
}

// DatabaseConfig configures the postgres backend.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"20"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig configures the audit sink. Empty Brokers keeps audit events
// in memory only.
type KafkaConfig struct {
	Brokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic string   `env:"KAFKA_AUDIT_TOPIC" envDefault:"evote.audit"`
	Partitions int32    `env:"KAFKA_AUDIT_PARTITIONS" envDefault:"3"`
}

// IsProduction reports whether the process runs with production defaults.
func (s Server) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// FromEnv loads .env (if present) and parses the environment.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Kafka.Brokers = cleanList(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start.
func (s Server) Validate() error {
	switch s.Backend {
	case BackendMemory:
	case BackendPostgres:
		if s.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendRedis:
		if s.Redis.URL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", s.Backend)
	}
	if s.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if s.IsProduction() && s.JWT.SigningKey == "dev-secret-key-change-in-production" {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if s.SeedDemo && s.IsProduction() {
		return errors.New("SEED_DEMO is not allowed in production")
	}
	return nil
}

// cleanList trims entries and drops blanks and repeats, keeping order.
func cleanList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
