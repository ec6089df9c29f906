package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
	Long: `Apply or roll back the PostgreSQL schema migrations.

Migrations also run automatically when "nova serve" opens a postgres store.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabaseURL(func(dsn string) error {
			if err := postgres.Migrate(dsn); err != nil {
				return err
			}
			return printVersion(dsn)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (default 1 step)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := cast.ToIntE(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive number, got %q", args[0])
			}
			steps = n
		}
		return withDatabaseURL(func(dsn string) error {
			if err := postgres.Rollback(dsn, steps); err != nil {
				return err
			}
			return printVersion(dsn)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabaseURL(printVersion)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

// withDatabaseURL runs fn against the configured PostgreSQL, starting the
// embedded one when needed.
func withDatabaseURL(fn func(dsn string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := configureLog(cfg); err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrations apply to the postgres store only (store is %q)", cfg.Store)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	stop, err := resolveDatabaseURL(ctx, cfg)
	if err != nil {
		return err
	}
	defer stop()

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url is not set")
	}
	return fn(cfg.DatabaseURL)
}

func printVersion(dsn string) error {
	version, dirty, err := postgres.MigrationVersion(dsn)
	if err != nil {
		return err
	}
	switch {
	case version == 0:
		fmt.Println("Schema version: none")
	case dirty:
		fmt.Printf("Schema version: %d (dirty)\n", version)
	default:
		fmt.Printf("Schema version: %d\n", version)
	}
	return nil
}
