package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/hospital-management/internal/auth"
	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/frahmantamala/hospital-management/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	seedAdminEmail    string
	seedAdminName     string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the default roles and a super admin",
	Long: `Write the built-in role catalog and, when an admin email is given, make sure that
account exists and holds SUPER_ADMIN. The password is read from --admin-password or
SEED_ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := logger.LoggerWrapper()

		app, err := newApplication(cfg, lg)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if err := app.Registry.Seed(ctx, role.DefaultRoles()); err != nil {
			return fmt.Errorf("failed to seed roles: %w", err)
		}
		fmt.Println("Seeded roles:", len(role.DefaultRoles()))

		if seedAdminEmail == "" {
			return nil
		}
		return seedSuperAdmin(ctx, app)
	},
}

func seedSuperAdmin(ctx context.Context, app *Application) error {
	existing, err := app.Users.FindByEmail(ctx, seedAdminEmail)
	if err != nil {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	userID := int64(0)
	if existing != nil {
		fmt.Println("admin user already exists; will ensure roles")
		userID = existing.ID
	} else {
		password := seedAdminPassword
		if password == "" {
			password = os.Getenv("SEED_ADMIN_PASSWORD")
		}
		registered, err := app.Auth.Register(ctx, auth.RegisterDTO{
			Email:    seedAdminEmail,
			Password: password,
			Name:     seedAdminName,
		})
		if err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		userID = registered.User.ID
		fmt.Println("Seeded admin user:", registered.User.Email)
	}

	if _, err := app.Users.AssignRoles(ctx, userID, []string{role.SuperAdmin}, true); err != nil {
		return fmt.Errorf("failed to grant %s: %w", role.SuperAdmin, err)
	}
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "", "email of the super admin to create")
	seedCmd.Flags().StringVar(&seedAdminName, "admin-name", "Super Admin", "display name of the super admin")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password of the super admin (defaults to $SEED_ADMIN_PASSWORD)")
}
