package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

// FileNames are the configuration files probed by Load, in order.
var FileNames = []string{"nova.json", "nova.yaml", "nova.yml"}

// SeedAdmin describes an administrator provisioned at startup when missing.
type SeedAdmin struct {
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Config holds the complete Nova configuration
type Config struct {
	// Server settings
	Host        string   `json:"host,omitempty" yaml:"host,omitempty"`
	Port        int      `json:"port,omitempty" yaml:"port,omitempty"`
	Env         string   `json:"env,omitempty" yaml:"env,omitempty"`
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`

	// Logging
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty" yaml:"log_file,omitempty"`

	// Auth settings
	JWTSecret  string        `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	TokenTTL   time.Duration `json:"-" yaml:"-"`
	BcryptCost int           `json:"bcrypt_cost,omitempty" yaml:"bcrypt_cost,omitempty"`

	// Storage settings
	Store         string `json:"store,omitempty" yaml:"store,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	MongoURI      string `json:"mongo_uri,omitempty" yaml:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty" yaml:"mongo_database,omitempty"`

	// Embedded PostgreSQL settings
	EmbeddedPG bool   `json:"embedded_pg,omitempty" yaml:"embedded_pg,omitempty"`
	PGPort     uint16 `json:"pg_port,omitempty" yaml:"pg_port,omitempty"`
	DataDir    string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`

	Seed *SeedAdmin `json:"seed_admin,omitempty" yaml:"seed_admin,omitempty"`
}

// MinTokenTTL is the shortest accepted token lifetime.
const MinTokenTTL = time.Minute

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreMemory, StorePostgres, StoreMongo)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (set NOVA_JWT_SECRET or jwt_secret)")
	}
	if c.TokenTTL < MinTokenTTL {
		return fmt.Errorf("token ttl must be at least %s, got %s", MinTokenTTL, c.TokenTTL)
	}
	if c.Store == StorePostgres && c.DatabaseURL == "" && !c.EmbeddedPG {
		return fmt.Errorf("postgres store needs database_url or embedded_pg")
	}
	if c.Store == StoreMongo && c.MongoURI == "" {
		return fmt.Errorf("mongo store needs mongo_uri")
	}
	return nil
}

// Load loads configuration from nova.json / nova.yaml (if present) with fallback to
// environment variables. A .env file in the working directory is read first.
// The config file takes precedence over environment variables for any fields that are set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	for _, name := range FileNames {
		loaded, err := loadFile(name, cfg)
		if err != nil {
			return nil, err
		}
		if loaded {
			break
		}
	}

	if err := applyEnvFallbacks(cfg); err != nil {
		return nil, err
	}
	setDefaults(cfg)

	return cfg, nil
}

func loadFile(name string, cfg *Config) (bool, error) {
	data, err := os.ReadFile(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}

	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		var f fileConfig
		if err := yaml.Unmarshal(data, &f); err != nil {
			return false, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if err := f.apply(cfg); err != nil {
			return false, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	default:
		var f fileConfig
		if err := json.Unmarshal(data, &f); err != nil {
			return false, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		if err := f.apply(cfg); err != nil {
			return false, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}
	return true, nil
}

// fileConfig mirrors Config with token_ttl written as a duration string ("720h").
type fileConfig struct {
	Config   `yaml:",inline"`
	TokenTTL string `json:"token_ttl,omitempty" yaml:"token_ttl,omitempty"`
}

func (f *fileConfig) apply(cfg *Config) error {
	*cfg = f.Config
	if f.TokenTTL == "" {
		return nil
	}
	ttl, err := cast.ToDurationE(f.TokenTTL)
	if err != nil {
		return fmt.Errorf("token_ttl: %w", err)
	}
	cfg.TokenTTL = ttl
	return nil
}

// MarshalJSON writes token_ttl as a duration string so saved files round-trip.
func (c Config) MarshalJSON() ([]byte, error) {
	type plain Config
	out := struct {
		plain
		TokenTTL string `json:"token_ttl,omitempty"`
	}{plain: plain(c)}
	if c.TokenTTL > 0 {
		out.TokenTTL = c.TokenTTL.String()
	}
	return json.Marshal(out)
}

// applyEnvFallbacks applies environment variable values to any unset config fields.
// The variable names used by the original Node deployment (PORT, JWT_SECRET,
// MONGO_URI, NODE_ENV) are honoured after the NOVA_ ones.
//
// A bare number of seconds is not a duration: NOVA_TOKEN_TTL=30 parses as 30ns
// and is then rejected by Validate.
func applyEnvFallbacks(cfg *Config) error {
	if cfg.Host == "" {
		cfg.Host = getEnv("NOVA_HOST", "")
	}
	if cfg.Port == 0 {
		cfg.Port = getEnvInt("NOVA_PORT", getEnvInt("PORT", 0))
	}
	if cfg.Env == "" {
		cfg.Env = getEnv("NOVA_ENV", getEnv("NODE_ENV", ""))
	}
	if len(cfg.CORSOrigins) == 0 {
		if v := getEnv("NOVA_CORS_ORIGINS", ""); v != "" {
			cfg.CORSOrigins = splitList(v)
		}
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = getEnv("NOVA_LOG_LEVEL", "")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = getEnv("NOVA_LOG_FILE", "")
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = getEnv("NOVA_JWT_SECRET", getEnv("JWT_SECRET", ""))
	}
	if cfg.TokenTTL == 0 {
		if v := getEnv("NOVA_TOKEN_TTL", ""); v != "" {
			ttl, err := cast.ToDurationE(v)
			if err != nil {
				return fmt.Errorf("NOVA_TOKEN_TTL: %w", err)
			}
			cfg.TokenTTL = ttl
		}
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = getEnvInt("NOVA_BCRYPT_COST", 0)
	}

	if cfg.Store == "" {
		cfg.Store = getEnv("NOVA_STORE", "")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getEnv("NOVA_DATABASE_URL", getEnv("DATABASE_URL", ""))
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = getEnv("NOVA_MONGO_URI", getEnv("MONGO_URI", ""))
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = getEnv("NOVA_MONGO_DATABASE", "")
	}

	if !cfg.EmbeddedPG {
		cfg.EmbeddedPG = cast.ToBool(getEnv("NOVA_EMBEDDED_PG", ""))
	}
	if cfg.PGPort == 0 {
		cfg.PGPort = uint16(getEnvInt("NOVA_PG_PORT", 0))
	}
	if cfg.DataDir == "" {
		cfg.DataDir = getEnv("NOVA_DATA_DIR", "")
	}

	if cfg.Seed == nil {
		seed := SeedAdmin{
			Username: getEnv("NOVA_SEED_ADMIN_USERNAME", ""),
			Email:    getEnv("NOVA_SEED_ADMIN_EMAIL", ""),
			Password: getEnv("NOVA_SEED_ADMIN_PASSWORD", ""),
		}
		if seed.Email != "" && seed.Password != "" {
			cfg.Seed = &seed
		}
	}
	return nil
}

// setDefaults sets default values for any empty fields
func setDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.Env == "" {
		cfg.Env = EnvDevelopment
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.Store == "" {
		cfg.Store = StoreMemory
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = "nova"
	}
	if cfg.PGPort == 0 {
		cfg.PGPort = 5432
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Seed != nil && cfg.Seed.Username == "" {
		cfg.Seed.Username = strings.SplitN(cfg.Seed.Email, "@", 2)[0]
	}
}

// Save writes cfg as indented JSON to path.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// getEnv gets an environment variable or returns the default value
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt gets an environment variable as an integer or returns the default value
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := cast.ToIntE(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
