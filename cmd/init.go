package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/pg"
	"github.com/mohamedmalandi/nova/internal/store/postgres"
)

var initFlags struct {
	store      string
	embeddedPG bool
	dataDir    string
	pgPort     uint16
	force      bool
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write nova.json and prepare the database",
	Long: `Creates nova.json with a fresh JWT secret.

For the postgres store with --embedded-pg (the default) the embedded
database is started once and the schema migrations are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Initializing Nova...")

		path := config.FileNames[0]
		if _, err := os.Stat(path); err == nil && !initFlags.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg, err := defaultConfig()
		if err != nil {
			return err
		}

		if cfg.Store == config.StorePostgres && cfg.EmbeddedPG {
			if err := initDatabase(cfg); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
		}

		if err := config.Save(cfg, path); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		fmt.Printf("Store: %s\n", cfg.Store)
		if cfg.EmbeddedPG {
			fmt.Printf("Data directory: %s\n", cfg.DataDir)
		}
		fmt.Printf("Configuration written to: %s\n", path)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  ./nova admin add")
		fmt.Println("  ./nova serve")
		return nil
	},
}

// defaultConfig builds the configuration written by init.
func defaultConfig() (*config.Config, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, err
	}
	cfg := &config.Config{
		Port:       5000,
		Env:        config.EnvDevelopment,
		JWTSecret:  secret,
		TokenTTL:   30 * 24 * time.Hour,
		BcryptCost: 10,
		Store:      initFlags.store,
	}
	if cfg.Store == config.StorePostgres {
		cfg.EmbeddedPG = initFlags.embeddedPG
		if cfg.EmbeddedPG {
			cfg.DataDir = initFlags.dataDir
			cfg.PGPort = initFlags.pgPort
		}
	}
	switch cfg.Store {
	case config.StoreMemory, config.StorePostgres:
	case config.StoreMongo:
		cfg.MongoURI = "mongodb://localhost:27017"
		cfg.MongoDatabase = "nova"
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	return cfg, nil
}

// initDatabase starts the embedded database once and applies migrations.
func initDatabase(cfg *config.Config) error {
	database := pg.NewEmbeddedDatabase(pg.FromConfig(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	if err := database.Start(ctx); err != nil {
		return fmt.Errorf("failed to start database: %w", err)
	}
	defer database.Stop()

	if err := postgres.Migrate(database.ConnectionString()); err != nil {
		return err
	}
	fmt.Printf("Database initialized successfully!\n")
	return nil
}

// generateSecret returns 32 random bytes, hex encoded.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initFlags.store, "store", config.StorePostgres, "Store backend: memory, postgres or mongo")
	initCmd.Flags().BoolVar(&initFlags.embeddedPG, "embedded-pg", true, "Use an embedded PostgreSQL for the postgres store")
	initCmd.Flags().StringVar(&initFlags.dataDir, "data-dir", "./data", "Data directory for embedded PostgreSQL")
	initCmd.Flags().Uint16Var(&initFlags.pgPort, "pg-port", 5432, "Embedded PostgreSQL port")
	initCmd.Flags().BoolVar(&initFlags.force, "force", false, "Overwrite an existing nova.json")
}
