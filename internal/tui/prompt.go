package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
)

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// LoginForm asks for whichever credentials are still empty.
func LoginForm(c *session.Credentials) *huh.Form {
	var fields []huh.Field
	if c.Username == "" {
		fields = append(fields, huh.NewInput().
			Title("Username").
			Value(&c.Username).
			Validate(required("username")))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password).
			Validate(required("password")))
	}
	return huh.NewForm(huh.NewGroup(fields...))
}

// PromptLogin runs LoginForm when anything is missing.
func PromptLogin(c *session.Credentials) error {
	if c.Username != "" && c.Password != "" {
		return nil
	}
	if err := LoginForm(c).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// RegistrationForm collects sign-up fields.
func RegistrationForm(r *session.Registration) *huh.Form {
	roles := make([]huh.Option[string], 0, len(rbac.Roles))
	for _, role := range rbac.Roles {
		roles = append(roles, huh.NewOption(string(role), string(role)))
	}
	if r.Role == "" {
		r.Role = string(rbac.Viewer)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&r.Username).Validate(required("username")),
			huh.NewInput().Title("Email").Value(&r.Email).Validate(required("email")),
			huh.NewInput().Title("First name").Value(&r.FirstName),
			huh.NewInput().Title("Last name").Value(&r.LastName),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Role").Options(roles...).Value(&r.Role),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
				Value(&r.Password).Validate(required("password")),
		),
	)
}

// PasswordForm collects a password change.
func PasswordForm(pc *session.PasswordChange) *huh.Form {
	var confirm string
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).
			Value(&pc.Current).Validate(required("current password")),
		huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).
			Value(&pc.New).Validate(required("new password")),
		huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).
			Value(&confirm).Validate(func(s string) error {
			if s != pc.New {
				return fmt.Errorf("passwords do not match")
			}
			return nil
		}),
	))
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	ciEnvVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"BUILDKITE",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return false
		}
	}

	return IsInteractive()
}
