package guard

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
)

// LoginPath is where RedirectLogin outcomes are sent.
const LoginPath = "/login"

// RetryAfterSeconds is advertised on pending responses.
const RetryAfterSeconds = 1

// StateSource provides the current session snapshot. *session.Store
// satisfies it.
type StateSource interface {
	State() session.State
}

// Renderer draws the responses for outcomes that do not reach the view.
type Renderer interface {
	Pending(w http.ResponseWriter, r *http.Request)
	Denied(w http.ResponseWriter, r *http.Request, o Outcome)
}

// Middleware returns HTTP middleware enforcing gate against the session.
func Middleware(src StateSource, gate Gate, rnd Renderer) func(http.Handler) http.Handler {
	if rnd == nil {
		rnd = DefaultRenderer{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			o := gate.Check(src.State())
			switch o.Decision {
			case Allow:
				next.ServeHTTP(w, r)
			case Pending:
				w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
				rnd.Pending(w, r)
			case RedirectLogin:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			default:
				rnd.Denied(w, r, o)
			}
		})
	}
}

// DefaultRenderer writes minimal standalone HTML pages.
type DefaultRenderer struct{}

var (
	pendingPage = template.Must(template.New("pending").Parse(
		`<!doctype html><html><head><meta http-equiv="refresh" content="{{.}}"><title>Loading</title></head>` +
			`<body><p>Loading session&hellip;</p></body></html>`))

	deniedPage = template.Must(template.New("denied").Parse(
		`<!doctype html><html><head><title>Access Denied</title></head><body>` +
			`<section class="access-denied"><h1>Access Denied</h1>` +
			`<p>This view requires one of: {{range $i, $r := .Required}}{{if $i}}, {{end}}{{$r}}{{end}}.</p>` +
			`<p>Your role: {{.Actual}}</p>` +
			`<a href="{{.Back}}">Go back</a></section></body></html>`))
)

// DeniedView is the data handed to access denied templates.
type DeniedView struct {
	Required []string
	Actual   string
	Back     string
}

// NewDeniedView builds template data for o. Back points at the referring
// page when there is one and the dashboard otherwise.
func NewDeniedView(r *http.Request, o Outcome) DeniedView {
	actual := string(o.Actual)
	if actual == "" {
		actual = "none"
	}
	back := r.Referer()
	if back == "" || back == r.URL.String() {
		back = string(session.ViewDashboard)
	}
	return DeniedView{Required: rbac.RoleNames(o.Required), Actual: actual, Back: back}
}

// Pending implements Renderer.
func (DefaultRenderer) Pending(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = pendingPage.Execute(w, RetryAfterSeconds)
}

// Denied implements Renderer.
func (DefaultRenderer) Denied(w http.ResponseWriter, r *http.Request, o Outcome) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_ = deniedPage.Execute(w, NewDeniedView(r, o))
}
