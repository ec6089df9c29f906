package pg

import (
	"github.com/mohamedmalandi/nova/internal/config"
)

// DefaultVersion is the PostgreSQL release downloaded by embedded-postgres.
const DefaultVersion = "16.9.0"

// Config holds the configuration for the embedded PostgreSQL database
type Config struct {
	Port        uint16
	Username    string
	Password    string
	Database    string
	DataDir     string
	Version     string
	RuntimePath string // Optional: unique runtime path to avoid conflicts
}

// DefaultConfig returns the default configuration for nova
func DefaultConfig() Config {
	return Config{
		Port:     5432,
		Username: "nova",
		Password: "nova",
		Database: "nova",
		DataDir:  "./data",
		Version:  DefaultVersion,
	}
}

// FromConfig derives the embedded database settings from the server config.
func FromConfig(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg.PGPort != 0 {
		c.Port = cfg.PGPort
	}
	if cfg.DataDir != "" {
		c.DataDir = cfg.DataDir
	}
	return c
}
