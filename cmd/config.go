package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/prompt"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure Nova settings",
	Long: `Interactively configure Nova settings and save them to nova.json.

Existing values from nova.json and the environment are offered as defaults.`,
	RunE: runConfigWizard,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// runConfigWizard runs the interactive configuration wizard
func runConfigWizard(cmd *cobra.Command, args []string) error {
	banner("Nova Configuration Wizard")
	fmt.Println("Your configuration will be saved to nova.json")
	fmt.Println()

	// Load existing config if it exists
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reader := prompt.NewReader()
	if err := promptConfig(reader, cfg); err != nil {
		return err
	}

	fmt.Println()

	// Sanity check the configuration
	if warnings := validateConfig(cfg); len(warnings) > 0 {
		fmt.Println("⚠️  Configuration Warnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	printSummary(cfg)

	confirm, err := reader.Bool("Save this configuration to nova.json?", true)
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := config.Save(cfg, config.FileNames[0]); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved to nova.json")
	fmt.Println()
	fmt.Println("You can now start Nova with:")
	fmt.Println("  ./nova serve")
	fmt.Println()
	return nil
}

// promptConfig asks for each setting, offering the current value.
func promptConfig(reader *prompt.Reader, cfg *config.Config) error {
	var err error
	if cfg.Port, err = reader.Int("HTTP port", cfg.Port); err != nil {
		return err
	}
	if cfg.Env, err = reader.String("Environment (development/production)", cfg.Env); err != nil {
		return err
	}
	if cfg.Store, err = reader.String("Store (memory/postgres/mongo)", cfg.Store); err != nil {
		return err
	}

	switch cfg.Store {
	case config.StorePostgres:
		if cfg.EmbeddedPG, err = reader.Bool("Run embedded PostgreSQL", cfg.EmbeddedPG || cfg.DatabaseURL == ""); err != nil {
			return err
		}
		if !cfg.EmbeddedPG {
			if cfg.DatabaseURL, err = reader.String("PostgreSQL URL", cfg.DatabaseURL); err != nil {
				return err
			}
		}
	case config.StoreMongo:
		if cfg.MongoURI, err = reader.String("MongoDB URI", cfg.MongoURI); err != nil {
			return err
		}
		if cfg.MongoDatabase, err = reader.String("MongoDB database", cfg.MongoDatabase); err != nil {
			return err
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		if secret, err = generateSecret(); err != nil {
			return err
		}
	}
	if cfg.JWTSecret, err = reader.String("JWT secret", secret); err != nil {
		return err
	}

	origins, err := reader.String("Allowed CORS origins (comma separated)", strings.Join(cfg.CORSOrigins, ","))
	if err != nil {
		return err
	}
	cfg.CORSOrigins = nil
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	return nil
}

func printSummary(cfg *config.Config) {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Port: %d\n", cfg.Port)
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Store: %s\n", cfg.Store)
	switch cfg.Store {
	case config.StorePostgres:
		if cfg.EmbeddedPG {
			fmt.Printf("  PostgreSQL: embedded (port %d, data in %s)\n", cfg.PGPort, cfg.DataDir)
		} else {
			fmt.Printf("  PostgreSQL: %s\n", valueOrEmpty(cfg.DatabaseURL))
		}
	case config.StoreMongo:
		fmt.Printf("  MongoDB: %s / %s\n", valueOrEmpty(cfg.MongoURI), cfg.MongoDatabase)
	}
	fmt.Printf("  JWT secret: %s\n", maskString(cfg.JWTSecret))
	fmt.Printf("  CORS origins: %s\n", valueOrEmpty(strings.Join(cfg.CORSOrigins, ", ")))
	fmt.Println()
}

// validateConfig performs sanity checks beyond config.Validate and returns
// human readable warnings.
func validateConfig(cfg *config.Config) []string {
	var warnings []string

	if err := cfg.Validate(); err != nil {
		warnings = append(warnings, err.Error())
	}
	if cfg.JWTSecret != "" && len(cfg.JWTSecret) < 32 {
		warnings = append(warnings, "JWT secret is shorter than 32 characters - tokens are easier to forge")
	}
	if cfg.Store == config.StoreMemory {
		warnings = append(warnings, "Memory store keeps data only while the server runs")
	}
	if cfg.IsProduction() {
		for _, o := range cfg.CORSOrigins {
			if o == "*" {
				warnings = append(warnings, "Production allows requests from any origin (cors_origins contains *)")
				break
			}
		}
		if cfg.Store == config.StorePostgres && cfg.EmbeddedPG {
			warnings = append(warnings, "Embedded PostgreSQL is meant for development")
		}
	}
	return warnings
}

// valueOrEmpty returns the value or "(not set)" if empty
func valueOrEmpty(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

// maskString masks a string for display (e.g., passwords)
func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
