package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/retailctl/internal/health"
)

// DoctorReport is the output of `retailctl doctor`.
type DoctorReport struct {
	Config    string                    `json:"config" yaml:"config"`
	Checks    map[string]*health.Result `json:"checks" yaml:"checks"`
	NextSteps []string                  `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
	Healthy   bool                      `json:"healthy" yaml:"healthy"`
}

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage, session and backend",
		Long: `Run the console's health checkers from the command line.

Checks:
  storage        the session database can be read
  session-store  the stored session restores
  backend        the API URL answers

Examples:
  retailctl doctor
  retailctl doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.open(); err != nil {
				return err
			}
			if err := a.store.Init(ctx); err != nil {
				a.logger.WithError(err).Warn("restore session")
			}

			m := health.NewManager(
				health.StorageChecker{Storage: a.storage},
				health.SessionChecker{Source: a.store},
				health.BackendChecker{Backend: a.client, URL: a.cfg.APIURL},
			)
			results := m.Check(ctx)

			report := &DoctorReport{
				Config:  a.cfg.Path(),
				Checks:  results,
				Healthy: health.OverallStatus(results) != health.StatusUnhealthy,
			}
			if r := results["backend"]; r != nil && r.Status == health.StatusUnhealthy {
				report.NextSteps = append(report.NextSteps,
					"Start the backend or point --api-url / RETAILCTL_API_URL at it")
			}
			if r := results["session-store"]; r != nil && r.Message == "anonymous" {
				report.NextSteps = append(report.NextSteps, "Run 'retailctl login' to sign in")
			}

			if err := a.render(report, func() string { return a.doctorText(report) }); err != nil {
				return err
			}
			if !report.Healthy {
				return fmt.Errorf("%d check(s) failed", countUnhealthy(results))
			}
			return nil
		},
	}
}

func (a *app) doctorText(r *DoctorReport) string {
	names := make([]string, 0, len(r.Checks))
	for name := range r.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(a.styles.Title.Render("retailctl doctor"))
	fmt.Fprintf(&b, "\n%s\n\n", a.styles.Muted.Render("config: "+r.Config))
	for _, name := range names {
		res := r.Checks[name]
		mark := a.styles.Success.Render("✓")
		switch res.Status {
		case health.StatusDegraded:
			mark = a.styles.Muted.Render("~")
		case health.StatusUnhealthy:
			mark = a.styles.Error.Render("✗")
		}
		fmt.Fprintf(&b, "%s %-14s %s\n", mark, name, res.Message)
	}
	for _, step := range r.NextSteps {
		fmt.Fprintf(&b, "\n→ %s", step)
	}
	return strings.TrimRight(b.String(), "\n")
}

func countUnhealthy(results map[string]*health.Result) int {
	n := 0
	for _, r := range results {
		if r.Status == health.StatusUnhealthy {
			n++
		}
	}
	return n
}
