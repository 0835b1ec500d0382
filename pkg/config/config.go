package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for board-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Database configuration (MongoDB)
	Database DatabaseConfig `yaml:"database"`

	// SharedAPIKey grants read access to connections and queries regardless
	// of owner when presented via the X-API-Key header.
	SharedAPIKey string `yaml:"-" env:"API_KEY"` // Secret - not in YAML

	// CredentialsKey encrypts the credential secret field on connections.
	// Must be a 32-byte key, base64 encoded. Generate with: openssl rand -base64 32
	// Server will fail to start if this is not set.
	CredentialsKey string `yaml:"-" env:"CREDENTIALS_KEY"` // Secret - not in YAML
}

// DatabaseConfig holds MongoDB configuration.
type DatabaseConfig struct {
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost:27017"`
	User         string `yaml:"user" env:"DB_USER" env-default:""`
	Password     string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database     string `yaml:"database" env:"DB_NAME" env-default:"board_engine"`
	URI          string `yaml:"-" env:"DB_URI"` // Full connection string; overrides the parts above
	MaxPoolSize  uint64 `yaml:"max_pool_size" env:"DB_MAX_POOL_SIZE" env-default:"25"`
	MinPoolSize  uint64 `yaml:"min_pool_size" env:"DB_MIN_POOL_SIZE" env-default:"5"`
	DirectConn   bool   `yaml:"direct" env:"DB_DIRECT" env-default:"false"`
	ReplicaSet   string `yaml:"replica_set" env:"DB_REPLICA_SET" env-default:""`
}

// ConnectionURI returns the MongoDB connection string, preferring an
// explicitly configured URI over assembled parts.
func (d *DatabaseConfig) ConnectionURI() string {
	if d.URI != "" {
		return d.URI
	}
	u := &url.URL{
		Scheme: "mongodb",
		Host:   d.Host,
		Path:   "/" + d.Database,
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	q := url.Values{}
	if d.ReplicaSet != "" {
		q.Set("replicaSet", d.ReplicaSet)
	}
	if d.DirectConn {
		q.Set("directConnection", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Load reads configuration from config.yaml (if present) and the environment.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if cfg.CredentialsKey == "" {
		return nil, fmt.Errorf("CREDENTIALS_KEY must be set")
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}
