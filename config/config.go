package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Auth      AuthConfig      `yaml:"auth"`
	Store     StoreConfig     `yaml:"store"`
	Solver    SolverConfig    `yaml:"solver"`
	Schema    SchemaConfig    `yaml:"schema"`
	Market    MarketConfig    `yaml:"market"`
	Citations CitationsConfig `yaml:"citations"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Users     []User          `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type StoreConfig struct {
	// MaxSessions caps the in-memory store; oldest sessions are evicted
	// past the cap. 0 means unlimited.
	MaxSessions int `yaml:"max_sessions"`
}

type SolverConfig struct {
	// TieBreak names the party whose value wins discrete fields on an
	// exact leverage tie: "investor" or "company".
	TieBreak string `yaml:"tie_break"`

	// DefaultConfidence is the trace confidence when no skill overrides it.
	DefaultConfidence float64 `yaml:"default_confidence"`
}

type SchemaConfig struct {
	// CatalogPath optionally points at a YAML overlay extending the
	// builtin clause catalog.
	CatalogPath string `yaml:"catalog_path"`
}

type MarketConfig struct {
	// DatasetPath optionally points at a YAML file of percentile
	// benchmarks keyed by (clause, stage, region).
	DatasetPath string `yaml:"dataset_path"`
}

type CitationsConfig struct {
	// BaseURL of the snippet retrieval service. Empty means the builtin
	// static index serves all lookups.
	BaseURL        string `yaml:"base_url"`
	APIToken       string `yaml:"api_token"`
	Seed           string `yaml:"seed"` // shared secret for ingest checksums
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ArchiveConfig struct {
	// Enabled turns on audit archiving of persisted rounds to object storage.
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Store.MaxSessions == 0 {
		cfg.Store.MaxSessions = 200
	}
	if cfg.Solver.TieBreak == "" {
		cfg.Solver.TieBreak = "investor"
	}
	if cfg.Solver.DefaultConfidence == 0 {
		cfg.Solver.DefaultConfidence = 0.85
	}
	if cfg.Citations.TimeoutSeconds == 0 {
		cfg.Citations.TimeoutSeconds = 30
	}

	return &cfg, nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
