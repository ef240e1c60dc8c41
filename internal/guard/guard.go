// Package guard decides whether the session may open a view.
//
// A Gate inspects a session.State snapshot and returns an Outcome. AuthGate
// requires a finished, authenticated session; RoleGate requires the user to
// satisfy one of a set of roles. RoleGate never redirects: denial is shown
// in place of the view.
package guard

import (
	"github.com/felixgeelhaar/retailctl/internal/errors"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
)

// Decision is what a gate wants done with a navigation.
type Decision int

const (
	// Allow renders the nested view.
	Allow Decision = iota
	// Pending renders a placeholder while the session initializes.
	Pending
	// RedirectLogin sends the user to the login view.
	RedirectLogin
	// Deny renders the access denied panel in place.
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect-login"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Outcome is the result of a gate check. Required and Actual are set for Deny.
type Outcome struct {
	Decision Decision
	Required []rbac.Role
	Actual   rbac.Role
}

// Allowed reports whether the view may render.
func (o Outcome) Allowed() bool { return o.Decision == Allow }

// Err converts a blocking outcome into an error for non-HTTP callers.
func (o Outcome) Err() error {
	switch o.Decision {
	case RedirectLogin, Pending:
		return errors.NewNotLoggedInError()
	case Deny:
		return errors.NewAccessDeniedError(rbac.RoleNames(o.Required), string(o.Actual))
	default:
		return nil
	}
}

// Gate checks a session snapshot.
type Gate interface {
	Check(session.State) Outcome
}

// GateFunc adapts a function to Gate.
type GateFunc func(session.State) Outcome

// Check calls f(s).
func (f GateFunc) Check(s session.State) Outcome { return f(s) }

// AuthGate admits any authenticated session.
type AuthGate struct{}

// Check implements Gate.
func (AuthGate) Check(s session.State) Outcome {
	switch {
	case s.Loading:
		return Outcome{Decision: Pending}
	case !s.Authenticated():
		return Outcome{Decision: RedirectLogin}
	default:
		return Outcome{Decision: Allow}
	}
}

// RoleGate admits users satisfying any of Allowed.
type RoleGate struct {
	Allowed []rbac.Role
}

// Check implements Gate.
func (g RoleGate) Check(s session.State) Outcome {
	var actual rbac.Role
	if s.User != nil {
		actual = s.User.Role
	}
	if rbac.SatisfiesAny(actual, g.Allowed) {
		return Outcome{Decision: Allow}
	}
	return Outcome{
		Decision: Deny,
		Required: append([]rbac.Role(nil), g.Allowed...),
		Actual:   actual,
	}
}

// Chain runs gates in order and returns the first outcome that is not Allow.
func Chain(gates ...Gate) Gate {
	return GateFunc(func(s session.State) Outcome {
		for _, g := range gates {
			if o := g.Check(s); !o.Allowed() {
				return o
			}
		}
		return Outcome{Decision: Allow}
	})
}

// ForRoute gates a route-table view: authentication, then the roles holding
// the route's capability.
func ForRoute(r rbac.Route) Gate {
	return Chain(AuthGate{}, RoleGate{Allowed: r.AllowedRoles()})
}
