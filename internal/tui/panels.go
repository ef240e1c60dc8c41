package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/retailctl/internal/guard"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
)

// AccessDenied renders the denial panel for a blocked view.
func AccessDenied(s Styles, o guard.Outcome, view string) string {
	actual := string(o.Actual)
	if actual == "" {
		actual = "none"
	}

	lines := []string{
		s.Error.Render("Access Denied"),
		"",
		fmt.Sprintf("%s requires one of: %s", view, strings.Join(rbac.RoleNames(o.Required), ", ")),
		fmt.Sprintf("Your role: %s", actual),
		"",
		s.Muted.Render("Go back: retailctl nav"),
	}
	return s.Denied.Render(strings.Join(lines, "\n"))
}

// UserCard renders the session user.
func UserCard(s Styles, u *session.User) string {
	if u == nil {
		return s.Panel.Render(s.Muted.Render("Not logged in"))
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(label), value)
	}

	caps := make([]string, len(u.Permissions))
	for i, c := range u.Permissions {
		caps[i] = string(c)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(u.FullName())+" "+s.Badge.Render(string(u.Role)),
		"",
		row("Username", u.Username),
		row("ID", u.ID),
		row("Email", u.Email),
		row("Access", strings.Join(caps, ", ")),
	)
	return s.Panel.Render(body)
}

// Navigation renders the views visible to role, grouped by section.
func Navigation(s Styles, role rbac.Role) string {
	routes := rbac.Visible(role)
	if len(routes) == 0 {
		return s.Muted.Render("No views available")
	}

	var b strings.Builder
	section := ""
	for _, r := range routes {
		if r.Section != section {
			if section != "" {
				b.WriteString("\n")
			}
			section = r.Section
			b.WriteString(s.Title.Render(section))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %-18s %s\n", r.Path, s.Muted.Render(r.Title))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Success renders a one-line confirmation.
func Success(s Styles, msg string) string {
	return s.Success.Render("✓ ") + msg
}
