package superadmin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ruidolp/newposter-sub002/apps/cli/internal/settings"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Command groups platform operator helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Platform operator accounts",
	}

	cmd.AddCommand(createCommand())
	return cmd
}

func createCommand() *cobra.Command {
	var (
		email    string
		fullName string
		password string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a superadmin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("email is required")
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
			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			pool, err := s.Pool(ctx)
			if err != nil {
				return err
			}
			defer persistence.ClosePool(pool)

			admin, err := persistence.NewSuperadminStore(pool).Create(ctx, persistence.CreateSuperadminParams{
				Email:        email,
				FullName:     fullName,
				PasswordHash: hash,
			})
			if err != nil {
				if errors.Is(err, persistence.ErrSuperadminConflict) {
					return fmt.Errorf("superadmin %s already exists", email)
				}
				return fmt.Errorf("create superadmin: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Superadmin %s (%s) created.\n", admin.Email, admin.ID)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "operator email")
	c.Flags().StringVar(&fullName, "full-name", "", "operator full name")
	c.Flags().StringVar(&password, "password", "", "initial password")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")

	return c
}
