package tenantcmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ruidolp/newposter-sub002/apps/cli/internal/provision"
	"github.com/ruidolp/newposter-sub002/apps/cli/internal/settings"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Command groups tenant-related helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant utilities (create/deactivate/add-user)",
	}

	cmd.AddCommand(createCommand())
	cmd.AddCommand(deactivateCommand())
	cmd.AddCommand(addUserCommand())
	return cmd
}

func createCommand() *cobra.Command {
	var (
		tenantSlug string
		tenantName string
		plan       string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant (no-op when an active tenant already uses the slug)",
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

			store := persistence.NewTenantStore(pool)
			t, err := provision.EnsureTenant(ctx, store, tenantSlug, tenantName)
			if err != nil {
				return err
			}
			if plan != "" && plan != t.Plan {
				if t, err = store.Update(ctx, t.ID, persistence.UpdateTenantParams{Plan: &plan}); err != nil {
					return fmt.Errorf("set plan: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant: %s (%s) plan=%s\n", t.Slug, t.ID, t.Plan)
			return nil
		},
	}

	c.Flags().StringVar(&tenantSlug, "slug", "", "tenant slug (subdomain label)")
	c.Flags().StringVar(&tenantName, "name", "", "display name (defaults to the slug)")
	c.Flags().StringVar(&plan, "plan", "", "billing plan label")
	_ = c.MarkFlagRequired("slug")

	return c
}

func deactivateCommand() *cobra.Command {
	var tenantID string

	c := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate a tenant and evict it from the shared tenant cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid tenant id: %w", err)
			}

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

			cache, closeCache, err := s.TenantCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			t, err := provision.DeactivateTenant(ctx, persistence.NewTenantStore(pool), cache, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s (%s) deactivated.\n", t.Slug, t.ID)
			return nil
		},
	}

	c.Flags().StringVar(&tenantID, "id", "", "tenant UUID")
	_ = c.MarkFlagRequired("id")
	return c
}

func addUserCommand() *cobra.Command {
	var (
		tenantSlug string
		email      string
		fullName   string
		password   string
		roleName   string
	)

	c := &cobra.Command{
		Use:   "add-user",
		Short: "Create a staff user inside a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := auth.ParseRole(roleName)
			if err != nil {
				return err
			}

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

			t, err := persistence.NewTenantStore(pool).FindActiveBySlug(ctx, tenantSlug)
			if err != nil {
				return fmt.Errorf("tenant %q: %w", tenantSlug, err)
			}

			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			user, created, err := provision.EnsureUser(ctx, persistence.NewUserStore(pool), persistence.CreateUserParams{
				TenantID:     t.ID,
				Email:        email,
				FullName:     fullName,
				Role:         role,
				PasswordHash: hash,
			})
			if err != nil {
				return err
			}

			status := "created"
			if !created {
				status = "already exists"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s (%s) role=%s in %s: %s\n", user.Email, user.ID, user.Role, t.Slug, status)
			return nil
		},
	}

	c.Flags().StringVar(&tenantSlug, "tenant", "", "tenant slug")
	c.Flags().StringVar(&email, "email", "", "user email")
	c.Flags().StringVar(&fullName, "full-name", "", "user full name")
	c.Flags().StringVar(&password, "password", "", "initial password")
	c.Flags().StringVar(&roleName, "role", "CASHIER", "CASHIER, STAFF, ADMIN or OWNER")

	_ = c.MarkFlagRequired("tenant")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")

	return c
}
