package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/server"
)

var (
	// Flags that override config file/env vars
	flagHost        string
	flagPort        int
	flagEnv         string
	flagLogLevel    string
	flagStore       string
	flagDatabaseURL string
	flagMongoURI    string
	flagEmbeddedPG  bool
	flagPgPort      uint16
	flagDataDir     string
	flagJwtSecret   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Nova server",
	Long: `Start the Nova HTTP API on the configured store.

Configuration is read from nova.json (or nova.yaml), then NOVA_* environment
variables, then these flags. With --embedded-pg a local PostgreSQL is started
and migrated before the API comes up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration (file + env vars)
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Apply flag overrides (flags take precedence over file and env vars)
		applyFlagOverrides(cmd, cfg)

		if err := configureLog(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		srv := server.New(cfg)
		return srv.Start(context.Background())
	},
}

// applyFlagOverrides applies command-line flag values to the config
// Flags take precedence over both file and environment variable values
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagEnv != "" {
		cfg.Env = flagEnv
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagStore != "" {
		cfg.Store = flagStore
	}
	if flagDatabaseURL != "" {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if flagMongoURI != "" {
		cfg.MongoURI = flagMongoURI
	}
	if cmd.Flags().Changed("embedded-pg") {
		cfg.EmbeddedPG = flagEmbeddedPG
	}
	if cfg.EmbeddedPG && !cmd.Flags().Changed("store") && cfg.Store == config.StoreMemory {
		cfg.Store = config.StorePostgres
	}
	if flagPgPort != 0 {
		cfg.PGPort = flagPgPort
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagJwtSecret != "" {
		cfg.JWTSecret = flagJwtSecret
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	// Server configuration
	cmd.Flags().StringVar(&flagHost, "host", "", "Host to bind to (overrides config file and env vars)")
	cmd.Flags().IntVar(&flagPort, "port", 0, "Port to listen on (overrides config file and env vars)")
	cmd.Flags().StringVar(&flagEnv, "env", "", "Environment: development or production")
	cmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")

	// Storage configuration
	cmd.Flags().StringVar(&flagStore, "store", "", "Store backend: memory, postgres or mongo")
	cmd.Flags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection URL")
	cmd.Flags().StringVar(&flagMongoURI, "mongo-uri", "", "MongoDB connection URI")
	cmd.Flags().BoolVar(&flagEmbeddedPG, "embedded-pg", false, "Run an embedded PostgreSQL (implies --store postgres)")
	cmd.Flags().Uint16Var(&flagPgPort, "pg-port", 0, "Embedded PostgreSQL port")
	cmd.Flags().StringVar(&flagDataDir, "data-dir", "", "Data directory for embedded PostgreSQL")

	// Auth configuration
	cmd.Flags().StringVar(&flagJwtSecret, "jwt-secret", "", "Secret for signing admin tokens (overrides config file and env vars)")
}
