// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
//
// Precedence (highest first): environment variables, YAML file, defaults.
// Environment variables map to keys by lowercasing and splitting on the first
// underscore: MONGO_URI -> mongo.uri, AUTH_JWT_SECRET -> auth.jwt_secret.
// Only variables whose first segment names a config section are read.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	Mongo  MongoConfig  `koanf:"mongo"`
	Redis  RedisConfig  `koanf:"redis"`
	Auth   AuthConfig   `koanf:"auth"`
	TMDB   TMDBConfig   `koanf:"tmdb"`
	Log    LogConfig    `koanf:"log"`
	CORS   CORSConfig   `koanf:"cors"`
}

type ServerConfig struct {
	Port            string        `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type MongoConfig struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
}

// AuthConfig carries the single owner account. All three fields are required.
type AuthConfig struct {
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
	JWTSecret string `koanf:"jwt_secret"`
}

type TMDBConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

// IsEnabled reports whether metadata enrichment is configured. Without a key
// every lookup quietly no-ops.
func (c TMDBConfig) IsEnabled() bool {
	return c.APIKey != ""
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	AllowedMethods []string `koanf:"allowed_methods"`
	AllowedHeaders []string `koanf:"allowed_headers"`
}

// envSections are the config sections environment variables may target.
var envSections = map[string]bool{
	"server": true,
	"mongo":  true,
	"redis":  true,
	"auth":   true,
	"tmdb":   true,
	"log":    true,
	"cors":   true,
}

// Load reads the YAML file at configPath (skipped when empty), layers
// environment variables on top, applies defaults and validates.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configPath, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	// MONGO_URI -> mongo.uri; underscores after the first stay in the
	// field name (AUTH_JWT_SECRET -> auth.jwt_secret). Variables outside
	// the known sections are ignored so the rest of the process
	// environment never bleeds into the config. CORS keys are the only
	// list-typed ones; their values split on commas.
	if err := k.Load(env.ProviderWithValue("", ".", func(s, v string) (string, interface{}) {
		parts := strings.SplitN(strings.ToLower(s), "_", 2)
		if len(parts) != 2 || !envSections[parts[0]] {
			return "", nil
		}
		key := parts[0] + "." + parts[1]
		if parts[0] == "cors" {
			items := strings.Split(v, ",")
			for i := range items {
				items[i] = strings.TrimSpace(items[i])
			}
			return key, items
		}
		return key, v
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "tastetrail"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.TMDB.BaseURL == "" {
		cfg.TMDB.BaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Authorization", "Content-Type"}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}
	if c.Auth.Password == "" {
		return fmt.Errorf("auth.password is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}
