package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,       default=8080"`
	Env           string `env:"ENV,        default=development"`
	LogLevel      string `env:"LOG_LEVEL,  default=info"`
	JWTSecret     string `env:"JWT_SECRET"`
	JWTTTLMinutes int    `env:"JWT_TTL_MINUTES, default=60"`

	// SeedAdmin creates a development admin account at startup. Never enable
	// in production.
	SeedAdmin bool `env:"SEED_ADMIN, default=false"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sweetshop"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// TokenTTL returns the configured token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
