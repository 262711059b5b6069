package auth

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ruidolp/newposter-sub002/apps/cli/internal/settings"
	"github.com/ruidolp/newposter-sub002/platform/go/auth/devtoken"
)

func tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed token with the API secrets from the environment",
	}

	cmd.AddCommand(sessionTokenCommand())
	cmd.AddCommand(superadminTokenCommand())
	return cmd
}

func sessionTokenCommand() *cobra.Command {
	var (
		params   devtoken.SessionParams
		asCookie bool
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Mint a tenant session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.FromCommand(cmd)
			if err != nil {
				return err
			}
			codecs, err := s.Codecs()
			if err != nil {
				return err
			}

			token, err := devtoken.BuildSessionToken(codecs.Session, params)
			if err != nil {
				return err
			}
			return printToken(cmd.OutOrStdout(), token, asCookie)
		},
	}

	cmd.Flags().StringVar(&params.UserID, "user-id", "", "user UUID (sub)")
	cmd.Flags().StringVar(&params.TenantID, "tenant-id", "", "tenant UUID")
	cmd.Flags().StringVar(&params.TenantSlug, "tenant-slug", "", "tenant slug")
	cmd.Flags().StringVar(&params.Role, "role", "CASHIER", "CASHIER, STAFF, ADMIN or OWNER")
	cmd.Flags().BoolVar(&asCookie, "cookie", false, "print a Cookie header value instead of the bare token")

	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("tenant-id")
	_ = cmd.MarkFlagRequired("tenant-slug")

	return cmd
}

func superadminTokenCommand() *cobra.Command {
	var (
		adminID  string
		asCookie bool
	)

	cmd := &cobra.Command{
		Use:   "superadmin",
		Short: "Mint a superadmin token",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.FromCommand(cmd)
			if err != nil {
				return err
			}
			codecs, err := s.Codecs()
			if err != nil {
				return err
			}

			token, err := devtoken.BuildSuperadminToken(codecs.Superadmin, adminID)
			if err != nil {
				return err
			}
			return printToken(cmd.OutOrStdout(), token, asCookie)
		},
	}

	cmd.Flags().StringVar(&adminID, "admin-id", "", "superadmin UUID")
	cmd.Flags().BoolVar(&asCookie, "cookie", false, "print a Cookie header value instead of the bare token")
	_ = cmd.MarkFlagRequired("admin-id")

	return cmd
}

func printToken(w io.Writer, token devtoken.Token, asCookie bool) error {
	if asCookie {
		_, err := fmt.Fprintf(w, "%s=%s\n", token.CookieName, token.Value)
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n# expires %s\n", token.Value, token.ExpiresAt.UTC().Format(time.RFC3339))
	return err
}
