package bootstrap

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruidolp/newposter-sub002/apps/cli/internal/provision"
	"github.com/ruidolp/newposter-sub002/apps/cli/internal/settings"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Notes/constraints:
// - "schema" applies the embedded DDL. Statements are idempotent so reruns are safe.
// - "demo" assumes the schema exists and check-or-creates the default tenant and its owner.

// Command groups bootstrap helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap platform resources (schema, demo tenant, owner user)",
	}

	cmd.AddCommand(schemaCommand())
	cmd.AddCommand(demoCommand())
	return cmd
}

func schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := settings.FromCommand(cmd)
			if err != nil {
				return err
			}
			pool, err := s.Pool(ctx)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			if err := persistence.BootstrapSchema(ctx, pool); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema applied.")
			return nil
		},
	}
}

func demoCommand() *cobra.Command {
	var (
		tenantSlug    string
		tenantName    string
		ownerEmail    string
		ownerFullName string
		ownerPassword string
	)

	c := &cobra.Command{
		Use:   "demo",
		Short: "Create the default tenant and its owner user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := settings.FromCommand(cmd)
			if err != nil {
				return err
			}
			hasher, err := s.Hasher()
			if err != nil {
				return err
			}
			pool, err := s.Pool(ctx)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			t, err := provision.EnsureTenant(ctx, persistence.NewTenantStore(pool), tenantSlug, tenantName)
			if err != nil {
				return err
			}

			hash, err := hasher.Hash(ownerPassword)
			if err != nil {
				return err
			}
			user, created, err := provision.EnsureUser(ctx, persistence.NewUserStore(pool), persistence.CreateUserParams{
				TenantID:     t.ID,
				Email:        ownerEmail,
				FullName:     ownerFullName,
				Role:         auth.RoleOwner,
				PasswordHash: hash,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Bootstrap complete. Tenant: %s (%s) | Owner: %s (%s)\n", t.Slug, t.ID, user.Email, user.ID)
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "Note: owner already existed; password left unchanged.")
			}
			return nil
		},
	}

	c.Flags().StringVar(&tenantSlug, "tenant-slug", "demo-store", "slug for the default tenant")
	c.Flags().StringVar(&tenantName, "tenant-name", "Demo Store", "display name for the default tenant")
	c.Flags().StringVar(&ownerEmail, "owner-email", "", "owner user email")
	c.Flags().StringVar(&ownerFullName, "owner-full-name", "Store Owner", "owner user full name")
	c.Flags().StringVar(&ownerPassword, "owner-password", "", "owner user password")

	_ = c.MarkFlagRequired("owner-email")
	_ = c.MarkFlagRequired("owner-password")

	return c
}
