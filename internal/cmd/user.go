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

func newWhoamiCmd(a *app) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the user of the stored session, its role and the views it may open.

With --remote the profile is fetched from the backend instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.authorize(ctx, guard.AuthGate{}); err != nil {
				return err
			}

			if remote {
				p, err := a.client.GetProfile(ctx)
				if err != nil {
					return ux.FormatError(ux.EnhanceError(err), "fetching profile")
				}
				return a.render(p, func() string {
					return strings.Join([]string{
						fmt.Sprintf("ID:       %v", p.ID),
						fmt.Sprintf("Username: %s", p.Username),
						fmt.Sprintf("Email:    %s", p.Email),
						fmt.Sprintf("Name:     %s %s", p.FirstName, p.LastName),
						fmt.Sprintf("Role:     %s", p.Role),
					}, "\n")
				})
			}

			u := a.store.State().User
			return a.render(u, func() string { return tui.UserCard(a.styles, u) })
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "fetch the profile from the backend")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newProfileUpdateCmd(a))
	return cmd
}

func newProfileUpdateCmd(a *app) *cobra.Command {
	var username, email, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long: `Update your username, email or name on the backend. Only the flags you pass
are sent. Roles cannot be changed here.

Examples:
  retailctl profile update --first-name Mona --last-name Lisa`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.authorize(ctx, guard.AuthGate{}); err != nil {
				return err
			}

			var patch session.ProfilePatch
			set := func(flag string, v string) *string {
				if !cmd.Flags().Changed(flag) {
					return nil
				}
				return session.String(v)
			}
			patch.Username = set("username", username)
			patch.Email = set("email", email)
			patch.FirstName = set("first-name", firstName)
			patch.LastName = set("last-name", lastName)
			if patch.Empty() {
				return fmt.Errorf("nothing to update: pass at least one of --username, --email, --first-name, --last-name")
			}

			if _, err := a.store.UpdateProfile(ctx, "", patch); err != nil {
				return ux.FormatError(ux.EnhanceError(err), "profile update failed")
			}
			u := a.store.State().User
			return a.render(u, func() string {
				return tui.Success(a.styles, "Profile updated") + "\n" + tui.UserCard(a.styles, u)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&username, "username", "", "new username")
	f.StringVar(&email, "email", "", "new email address")
	f.StringVar(&firstName, "first-name", "", "new first name")
	f.StringVar(&lastName, "last-name", "", "new last name")
	return cmd
}
