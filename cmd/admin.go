package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamedmalandi/nova/internal/admin"
	"github.com/mohamedmalandi/nova/internal/config"
	"github.com/mohamedmalandi/nova/internal/prompt"
)

var adminFlags struct {
	username string
	email    string
	password string
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin users",
	Long:  `Manage the administrators allowed to create, edit and remove products and events.`,
}

var adminAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new admin user",
	Long: `Add a new admin user to the configured store.

You will be prompted for any of username, email and password not given as
flags. Adding an email that already exists leaves that admin unchanged.`,
	RunE: runAdminAdd,
}

var adminChangePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change an admin user's password",
	Long: `Change an admin user's password.

You will be prompted for the email address and new password.`,
	RunE: runAdminChangePassword,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all admin users",
	Long:  `List all admin users in the configured store.`,
	RunE:  runAdminList,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminAddCmd)
	adminCmd.AddCommand(adminChangePasswordCmd)
	adminCmd.AddCommand(adminListCmd)

	adminAddCmd.Flags().StringVar(&adminFlags.username, "username", "", "Username (defaults to the part of the email before @)")
	adminAddCmd.Flags().StringVar(&adminFlags.email, "email", "", "Email address")
	adminAddCmd.Flags().StringVar(&adminFlags.password, "password", "", "Password (prompted with hidden input when omitted)")
	adminChangePasswordCmd.Flags().StringVar(&adminFlags.email, "email", "", "Email address")
}

func banner(title string) {
	fmt.Println("===========================================")
	fmt.Println(title)
	fmt.Println("===========================================")
	fmt.Println()
}

// loadAdminConfig loads the config and warns when changes would not persist.
func loadAdminConfig() (*config.Config, *admin.Hasher, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := configureLog(cfg); err != nil {
		return nil, nil, err
	}
	if cfg.Store == config.StoreMemory {
		fmt.Println("Warning: store is \"memory\"; changes are discarded when this command exits.")
		fmt.Println("Set store to postgres or mongo in nova.json or NOVA_STORE.")
		fmt.Println()
	}
	hasher, err := admin.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	return cfg, hasher, nil
}

// readNewPassword prompts for a password and its confirmation.
func readNewPassword(reader *prompt.Reader, label string) (string, error) {
	password, err := reader.Password(label)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	if err := reader.ConfirmPassword("Confirm "+label, password); err != nil {
		return "", err
	}
	return password, nil
}

// runAdminAdd adds a new admin user
func runAdminAdd(cmd *cobra.Command, args []string) error {
	banner("Add Admin User")

	cfg, hasher, err := loadAdminConfig()
	if err != nil {
		return err
	}

	reader := prompt.NewReader()
	email := adminFlags.email
	if email == "" {
		if email, err = reader.Email("Email", ""); err != nil {
			return err
		}
	}
	password := adminFlags.password
	if password == "" {
		if password, err = readNewPassword(reader, "password"); err != nil {
			return err
		}
	}

	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	backend, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	a, created, err := admin.Provision(ctx, backend, hasher, adminFlags.username, email, password)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if created {
		fmt.Printf("✓ Admin user created successfully!\n")
	} else {
		fmt.Printf("Admin user already exists; nothing changed.\n")
	}
	fmt.Printf("  Username: %s\n", a.Username)
	fmt.Printf("  Email: %s\n", a.Email)
	fmt.Printf("  ID: %s\n", a.ID)
	fmt.Printf("  Created: %s\n", a.CreatedAt.Format(time.RFC3339))
	return nil
}

// runAdminChangePassword changes an admin user's password
func runAdminChangePassword(cmd *cobra.Command, args []string) error {
	banner("Change Admin Password")

	cfg, hasher, err := loadAdminConfig()
	if err != nil {
		return err
	}

	reader := prompt.NewReader()
	email := adminFlags.email
	if email == "" {
		if email, err = reader.Email("Email", ""); err != nil {
			return err
		}
	}
	newPassword, err := readNewPassword(reader, "new password")
	if err != nil {
		return err
	}

	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	backend, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := admin.ChangePassword(ctx, backend, hasher, email, newPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("✓ Password updated successfully for: %s\n", email)
	return nil
}

// runAdminList lists all admin users
func runAdminList(cmd *cobra.Command, args []string) error {
	banner("Admin Users")

	cfg, _, err := loadAdminConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	backend, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	admins, err := backend.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admin users found.")
		fmt.Println()
		fmt.Println("Create an admin user with:")
		fmt.Println("  ./nova admin add")
		return nil
	}

	fmt.Printf("Found %d admin user(s):\n", len(admins))
	fmt.Println()
	for i, a := range admins {
		fmt.Printf("%d. %s <%s>\n", i+1, a.Username, a.Email)
		fmt.Printf("   ID: %s\n", a.ID)
		fmt.Printf("   Created: %s\n", a.CreatedAt.Format(time.RFC3339))
		fmt.Printf("   Updated: %s\n", a.UpdatedAt.Format(time.RFC3339))
		fmt.Println()
	}
	return nil
}
