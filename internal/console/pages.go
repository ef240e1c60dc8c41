package console

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/felixgeelhaar/retailctl/internal/guard"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"login", "register", "profile", "view", "pending", "denied"} {
		pages[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
}

type navSection struct {
	Name   string
	Routes []rbac.Route
}

// page is the data every template receives.
type page struct {
	Title   string
	Current string
	User    *session.User
	Nav     []navSection
	Flash   *Flash
	Footer  string
	Refresh int
	Roles   []rbac.Role
	Route   rbac.Route
	Denied  guard.DeniedView
}

func navFor(u *session.User) []navSection {
	if u == nil {
		return nil
	}
	var out []navSection
	for _, r := range rbac.Visible(u.Role) {
		if len(out) == 0 || out[len(out)-1].Name != r.Section {
			out = append(out, navSection{Name: r.Section})
		}
		last := &out[len(out)-1]
		last.Routes = append(last.Routes, r)
	}
	return out
}

// render executes the named page into a buffer so template errors never
// leave a half written response.
func (c *Console) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	st := c.sess.State()
	p.User = st.User
	p.Nav = navFor(st.User)
	p.Current = r.URL.Path
	p.Flash = c.flashes.pop(w, r)
	p.Footer = c.version.Footer(c.now())

	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		c.logger.WithContext(r.Context()).WithError(err).Error("render page", "page", name)
		http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Pending implements guard.Renderer.
func (c *Console) Pending(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusServiceUnavailable, "pending", page{
		Title:   "Loading",
		Refresh: guard.RetryAfterSeconds,
	})
}

// Denied implements guard.Renderer. The panel replaces the view in place;
// the URL does not change.
func (c *Console) Denied(w http.ResponseWriter, r *http.Request, o guard.Outcome) {
	c.logger.WithContext(r.Context()).Info("access denied",
		"path", r.URL.Path,
		"role", string(o.Actual),
		"required", rbac.RoleNames(o.Required))
	c.render(w, r, http.StatusForbidden, "denied", page{
		Title:  "Access Denied",
		Denied: guard.NewDeniedView(r, o),
	})
}
