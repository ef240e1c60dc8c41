package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/retailctl/internal/guard"
	"github.com/felixgeelhaar/retailctl/internal/session"
	"github.com/felixgeelhaar/retailctl/internal/tui"
	"github.com/felixgeelhaar/retailctl/internal/ux"
)

// missingFlags mirrors cobra's wording so the usage exit code applies.
func missingFlags(names ...string) error {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Errorf("required flag(s) %s not set", strings.Join(quoted, ", "))
}

func newLoginCmd(a *app) *cobra.Command {
	var creds session.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the backend",
		Long: `Sign in with your RetailShop credentials. The returned token and your
user record are stored so later commands and the web console share the
session.

Missing credentials are asked for interactively when running in a terminal.

Examples:
  retailctl login
  retailctl login --username mona --password '...'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.restore(ctx); err != nil {
				return err
			}

			if creds.Username == "" || creds.Password == "" {
				if !tui.ShouldPrompt() {
					var missing []string
					if creds.Username == "" {
						missing = append(missing, "username")
					}
					if creds.Password == "" {
						missing = append(missing, "password")
					}
					return missingFlags(missing...)
				}
				if err := tui.PromptLogin(&creds); err != nil {
					return err
				}
			}

			u, err := a.store.Login(ctx, creds)
			if err != nil {
				return ux.FormatError(ux.EnhanceError(err), "login failed")
			}
			return a.render(u, func() string {
				return tui.Success(a.styles, fmt.Sprintf("Signed in as %s (%s)", u.Username, u.Role))
			})
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Long:  `Remove the stored token and user. Running it while signed out is harmless.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.restore(ctx); err != nil {
				return err
			}
			if err := a.store.Logout(ctx); err != nil {
				return err
			}
			a.println(tui.Success(a.styles, "Signed out"))
			return nil
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var reg session.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a backend account",
		Long: `Create an account on the backend. Registration does not sign you in;
run 'retailctl login' afterwards.

Without --username, --email and --password a form is shown in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}

			if reg.Username == "" || reg.Email == "" || reg.Password == "" {
				if !tui.ShouldPrompt() {
					return missingFlags("username", "email", "password")
				}
				if err := tui.RegistrationForm(&reg).Run(); err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
			}

			if _, err := a.store.Register(ctx, reg); err != nil {
				return ux.FormatError(ux.EnhanceError(err), "registration failed")
			}
			a.println(tui.Success(a.styles, fmt.Sprintf("Account %s created. Run 'retailctl login' to sign in.", reg.Username)))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&reg.Username, "username", "", "username")
	f.StringVar(&reg.Email, "email", "", "email address")
	f.StringVar(&reg.Password, "password", "", "password")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	f.StringVar(&reg.Role, "role", "", "requested role (VIEWER, STAFF, MANAGER, ADMIN)")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	var pc session.PasswordChange

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.authorize(ctx, guard.AuthGate{}); err != nil {
				return err
			}

			if pc.Current == "" || pc.New == "" {
				if !tui.ShouldPrompt() {
					return missingFlags("current", "new")
				}
				if err := tui.PasswordForm(&pc).Run(); err != nil {
					return fmt.Errorf("prompt failed: %w", err)
				}
			}

			if err := a.store.ChangePassword(ctx, pc); err != nil {
				return ux.FormatError(ux.EnhanceError(err), "password change failed")
			}
			a.println(tui.Success(a.styles, "Password changed"))
			return nil
		},
	}

	cmd.Flags().StringVar(&pc.Current, "current", "", "current password")
	cmd.Flags().StringVar(&pc.New, "new", "", "new password")
	return cmd
}
