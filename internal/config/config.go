// Package config reads the storyline binary settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends accepted in STORYLINE_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds every setting of the storyline binary. Command-line flags
// override these values.
type Config struct {
	Store            string        `env:"STORYLINE_STORE" envDefault:"file"`
	Dir              string        `env:"STORYLINE_DIR" envDefault:".storyline/checkpoints"`
	RedisAddr        string        `env:"STORYLINE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string        `env:"STORYLINE_REDIS_PASSWORD"`
	RedisDB          int           `env:"STORYLINE_REDIS_DB" envDefault:"0"`
	RedisTTL         time.Duration `env:"STORYLINE_REDIS_TTL"`
	SQLitePath       string        `env:"STORYLINE_SQLITE_PATH" envDefault:"storyline.db"`
	CheckpointPrefix string        `env:"STORYLINE_CHECKPOINT_PREFIX"`
	CheckpointKey    string        `env:"STORYLINE_CHECKPOINT_KEY"`
	FallbackKeys     []string      `env:"STORYLINE_CHECKPOINT_FALLBACK_KEYS" envSeparator:","`
	StrictOptions    bool          `env:"STORYLINE_STRICT_OPTIONS"`
	LogLevel         string        `env:"STORYLINE_LOG_LEVEL" envDefault:"info"`
	HTTPAddr         string        `env:"STORYLINE_HTTP_ADDR" envDefault:":8080"`
}

// Load reads the optional dotenv files and then the process environment.
// Process variables win over dotenv values. Missing dotenv files are ignored.
func Load(dotenvFiles ...string) (Config, error) {
	environment := make(map[string]string)
	for _, file := range dotenvFiles {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("read %s: %w", file, err)
		}
		for k, v := range values {
			environment[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environment[k] = v
		}
	}
	return Parse(environment)
}

// Parse builds a Config from an explicit environment.
func Parse(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the env tags cannot express.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.Store)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	return nil
}
