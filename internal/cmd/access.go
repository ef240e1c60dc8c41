package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/retailctl/internal/errors"
	"github.com/felixgeelhaar/retailctl/internal/guard"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/tui"
)

// canResult is the output of `retailctl can`.
type canResult struct {
	Required rbac.Role `json:"required" yaml:"required"`
	Role     rbac.Role `json:"role" yaml:"role"`
	Allowed  bool      `json:"allowed" yaml:"allowed"`
}

func newCanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "can <ROLE>",
		Short: "Check whether your role satisfies ROLE",
		Long: `Check the signed-in role against ROLE using the role hierarchy
VIEWER < STAFF < MANAGER < ADMIN. Exits with status 3 when it does not.

Examples:
  retailctl can MANAGER && echo "may open reports"`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRoles,
		RunE: func(cmd *cobra.Command, args []string) error {
			required, ok := rbac.ParseRole(args[0])
			if !ok {
				return fmt.Errorf("invalid argument %q: role must be one of %s",
					args[0], strings.Join(rbac.RoleNames(rbac.Roles), ", "))
			}
			if err := a.restore(cmd.Context()); err != nil {
				return err
			}

			res := canResult{Required: required, Allowed: a.store.HasPermission(required)}
			if u := a.store.State().User; u != nil {
				res.Role = u.Role
			}
			if err := a.render(res, func() string {
				if res.Allowed {
					return tui.Success(a.styles, fmt.Sprintf("%s satisfies %s", res.Role, required))
				}
				return a.styles.Error.Render("✗ ") + fmt.Sprintf("%s does not satisfy %s", roleOrNone(res.Role), required)
			}); err != nil {
				return err
			}
			if !res.Allowed {
				return errors.NewAccessDeniedError([]string{string(required)}, string(res.Role))
			}
			return nil
		},
	}
}

func roleOrNone(r rbac.Role) string {
	if r == "" {
		return "none"
	}
	return string(r)
}

func newNavCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the views your role may open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.authorize(cmd.Context(), guard.AuthGate{}); err != nil {
				return err
			}
			role := a.store.State().User.Role
			return a.render(rbac.Visible(role), func() string {
				return tui.Navigation(a.styles, role)
			})
		},
	}
}

// openResult describes a view the session may open.
type openResult struct {
	rbac.Route `yaml:",inline"`
	URL        string `json:"url" yaml:"url"`
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Check access to a console view",
		Long: `Run the console's route guards for PATH against the stored session and
print the console URL when access is granted. Sub-paths such as
/products/edit/42 are gated like their view.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeViews,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/" + strings.Trim(args[0], "/")
			rt, ok := rbac.Lookup(path)
			if !ok {
				return fmt.Errorf("unknown view %s; run 'retailctl nav' to list views", path)
			}

			o, err := a.authorize(cmd.Context(), guard.ForRoute(rt))
			if o.Decision == guard.Deny {
				a.println(tui.AccessDenied(a.styles, o, path))
				return err
			}
			if err != nil {
				return err
			}

			res := openResult{Route: rt, URL: "http://" + a.cfg.Console.Addr + path}
			return a.render(res, func() string {
				return tui.Success(a.styles, fmt.Sprintf("%s: %s", rt.Title, res.URL))
			})
		},
	}
}
