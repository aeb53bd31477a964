package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/frahmantamala/hospital-management/internal/role"
	"github.com/frahmantamala/hospital-management/pkg/logger"
	"github.com/spf13/cobra"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Role administration commands",
	Long:  `Inspect and change the role catalog directly, acting as an operator with SUPER_ADMIN rights.`,
}

var listRolesCmd = &cobra.Command{
	Use:   "list",
	Short: "List every role with its scope and permissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			roles, err := app.Roles.ListRoles(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCOPE\tPERMISSIONS")
			for _, r := range roles {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Scope, strings.Join(r.Permissions, ","))
			}
			return w.Flush()
		})
	},
}

var (
	upsertScope       string
	upsertPermissions []string
)

var upsertRoleCmd = &cobra.Command{
	Use:   "upsert [name]",
	Short: "Create a role or replace its permission set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApplication(cmd, func(ctx context.Context, app *Application) error {
			dto := role.UpsertRoleDTO{Name: args[0], Permissions: upsertPermissions}
			if dto.Permissions == nil {
				dto.Permissions = []string{}
			}
			if upsertScope != "" {
				dto.Scope = &upsertScope
			}

			updated, err := app.Roles.UpsertRole(ctx, dto, true)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s): %s\n", updated.Name, updated.Scope, strings.Join(updated.Permissions, ","))
			return nil
		})
	},
}

func withApplication(cmd *cobra.Command, fn func(ctx context.Context, app *Application) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := newApplication(cfg, logger.LoggerWrapper())
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, app)
}

func init() {
	upsertRoleCmd.Flags().StringVar(&upsertScope, "scope", "", "GLOBAL or BRANCH; omitted keeps the stored scope")
	upsertRoleCmd.Flags().StringSliceVarP(&upsertPermissions, "permission", "p", nil, "permission key, repeatable")

	roleCmd.AddCommand(listRolesCmd)
	roleCmd.AddCommand(upsertRoleCmd)
}
