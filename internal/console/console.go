// Package console serves the browser front end of retailctl.
//
// Every page is a shell around the shared session store: sign-in,
// registration, the profile form and one gated placeholder per entry in
// the route table. Route gating and the navigation menu are both derived
// from rbac.Routes.
package console

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/felixgeelhaar/retailctl/internal/guard"
	"github.com/felixgeelhaar/retailctl/internal/log"
	"github.com/felixgeelhaar/retailctl/internal/metrics"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
	"github.com/felixgeelhaar/retailctl/internal/version"
)

// DefaultCookieName names the flash cookie.
const DefaultCookieName = "retailctl_flash"

// Session is the part of *session.Store the console drives.
type Session interface {
	State() session.State
	Login(ctx context.Context, c session.Credentials) (*session.User, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, r session.Registration) ([]byte, error)
	UpdateProfile(ctx context.Context, userID string, patch session.ProfilePatch) ([]byte, error)
	ChangePassword(ctx context.Context, pc session.PasswordChange) error
}

// Console renders the web pages.
type Console struct {
	sess    Session
	flashes flashes
	logger  *log.Logger
	metrics *metrics.Metrics
	version version.Info
	now     func() time.Time
}

// Option configures a Console.
type Option func(*consoleOptions)

type consoleOptions struct {
	logger     *log.Logger
	metrics    *metrics.Metrics
	version    version.Info
	now        func() time.Time
	cookieName string
}

// WithLogger sets the logger for request-scoped warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *consoleOptions) { o.logger = l }
}

// WithMetrics records session operations and guard decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *consoleOptions) { o.metrics = m }
}

// WithVersion sets the build shown in the footer.
func WithVersion(v version.Info) Option {
	return func(o *consoleOptions) { o.version = v }
}

// WithClock overrides the clock used for the footer year.
func WithClock(now func() time.Time) Option {
	return func(o *consoleOptions) { o.now = now }
}

// WithCookieName names the flash cookie. An empty name keeps the default.
func WithCookieName(name string) Option {
	return func(o *consoleOptions) {
		if name != "" {
			o.cookieName = name
		}
	}
}

// New creates a console over sess.
func New(sess Session, opts ...Option) *Console {
	o := consoleOptions{
		logger:     log.Discard(),
		version:    version.GetInfo(),
		now:        time.Now,
		cookieName: DefaultCookieName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Console{
		sess:    sess,
		flashes: newFlashes(o.cookieName),
		logger:  o.logger,
		metrics: o.metrics,
		version: o.version,
		now:     o.now,
	}
}

// Handler returns the console routes.
func (c *Console) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, string(session.ViewDashboard), http.StatusFound)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/", http.StatusFound)
	})

	r.Get("/login", c.showLogin)
	r.Post("/login", c.submitLogin)
	r.Get("/register", c.showRegister)
	r.Post("/register", c.submitRegister)
	r.Post("/logout", c.submitLogout)

	r.Group(func(r chi.Router) {
		r.Use(guard.Middleware(c.sess, c.observe("/profile", guard.AuthGate{}), c))
		r.Get("/profile", c.showProfile)
		r.Post("/profile", c.submitProfile)
		r.Post("/profile/password", c.submitPassword)
	})

	for _, rt := range rbac.Routes {
		gated := r.With(guard.Middleware(c.sess, c.observe(rt.Path, guard.ForRoute(rt)), c))
		gated.Get(rt.Path, c.showView(rt))
		gated.Get(rt.Path+"/*", c.showView(rt))
	}

	return r
}

func (c *Console) showView(rt rbac.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.render(w, r, http.StatusOK, "view", page{Title: rt.Title, Route: rt})
	}
}

// observe counts the outcomes of gate under view.
func (c *Console) observe(view string, gate guard.Gate) guard.Gate {
	if c.metrics == nil {
		return gate
	}
	return guard.GateFunc(func(s session.State) guard.Outcome {
		o := gate.Check(s)
		c.metrics.RecordDecision(view, o.Decision.String())
		return o
	})
}

// notify stores a flash and logs when the cookie session is unavailable.
func (c *Console) notify(w http.ResponseWriter, r *http.Request, kind FlashKind, msg string) {
	if err := c.flashes.put(w, r, kind, msg); err != nil {
		c.logger.WithContext(r.Context()).Warn("store flash", "error", err)
	}
}

// navigation returns a context whose navigator records the requested view
// and a func reporting it, defaulting to fallback.
func navigation(ctx context.Context, fallback session.View) (context.Context, func() string) {
	target := fallback
	nav := session.NavigatorFunc(func(v session.View) { target = v })
	return session.ContextWithNavigator(ctx, nav), func() string { return string(target) }
}
