package console

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/retailctl/internal/errors"
	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/session"
)

func (c *Console) showLogin(w http.ResponseWriter, r *http.Request) {
	if c.sess.State().Authenticated() {
		http.Redirect(w, r, string(session.ViewDashboard), http.StatusSeeOther)
		return
	}
	c.render(w, r, http.StatusOK, "login", page{Title: "Sign in"})
}

func (c *Console) submitLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.notify(w, r, FlashError, "Could not read the sign-in form.")
		http.Redirect(w, r, string(session.ViewLogin), http.StatusSeeOther)
		return
	}

	ctx, target := navigation(r.Context(), session.ViewDashboard)
	u, err := c.sess.Login(ctx, session.Credentials{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	})
	c.metrics.RecordSessionOp("login", err)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("login failed")
		c.notify(w, r, FlashError, errors.UserMessage(err))
		http.Redirect(w, r, string(session.ViewLogin), http.StatusSeeOther)
		return
	}

	c.notify(w, r, FlashSuccess, fmt.Sprintf("Welcome back, %s.", u.FirstName))
	http.Redirect(w, r, target(), http.StatusSeeOther)
}

func (c *Console) submitLogout(w http.ResponseWriter, r *http.Request) {
	ctx, target := navigation(r.Context(), session.ViewLogin)
	err := c.sess.Logout(ctx)
	c.metrics.RecordSessionOp("logout", err)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("logout incomplete")
	}
	c.notify(w, r, FlashInfo, "You have been signed out.")
	http.Redirect(w, r, target(), http.StatusSeeOther)
}

func (c *Console) showRegister(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, "register", page{Title: "Create account", Roles: rbac.Roles})
}

func (c *Console) submitRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.notify(w, r, FlashError, "Could not read the registration form.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	reg := session.Registration{
		Username:  strings.TrimSpace(r.PostFormValue("username")),
		Email:     strings.TrimSpace(r.PostFormValue("email")),
		Password:  r.PostFormValue("password"),
		FirstName: strings.TrimSpace(r.PostFormValue("firstName")),
		LastName:  strings.TrimSpace(r.PostFormValue("lastName")),
		Role:      r.PostFormValue("role"),
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		c.notify(w, r, FlashError, "Username, email and password are required.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	_, err := c.sess.Register(r.Context(), reg)
	c.metrics.RecordSessionOp("register", err)
	if err != nil {
		c.logger.WithContext(r.Context()).WithError(err).Warn("registration failed")
		c.notify(w, r, FlashError, errors.UserMessage(err))
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	c.notify(w, r, FlashSuccess, "Account created. Sign in to continue.")
	http.Redirect(w, r, string(session.ViewLogin), http.StatusSeeOther)
}

func (c *Console) showProfile(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, "profile", page{Title: "Profile"})
}

// profilePatch keeps only the fields that were filled in and differ from u.
func profilePatch(r *http.Request, u *session.User) session.ProfilePatch {
	field := func(name, current string) *string {
		v := strings.TrimSpace(r.PostFormValue(name))
		if v == "" || v == current {
			return nil
		}
		return session.String(v)
	}
	return session.ProfilePatch{
		Username:  field("username", u.Username),
		Email:     field("email", u.Email),
		FirstName: field("firstName", u.FirstName),
		LastName:  field("lastName", u.LastName),
	}
}

func (c *Console) submitProfile(w http.ResponseWriter, r *http.Request) {
	u := c.sess.State().User
	if err := r.ParseForm(); err != nil || u == nil {
		c.notify(w, r, FlashError, "Could not read the profile form.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	patch := profilePatch(r, u)
	if patch.Empty() {
		c.notify(w, r, FlashInfo, "Nothing to update.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	_, err := c.sess.UpdateProfile(r.Context(), u.ID, patch)
	c.metrics.RecordSessionOp("profile", err)
	if err != nil {
		c.logger.WithContext(r.Context()).WithError(err).Warn("profile update failed")
		c.notify(w, r, FlashError, errors.UserMessage(err))
	} else {
		c.notify(w, r, FlashSuccess, "Profile updated.")
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (c *Console) submitPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		c.notify(w, r, FlashError, "Could not read the password form.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	pc := session.PasswordChange{
		Current: r.PostFormValue("currentPassword"),
		New:     r.PostFormValue("newPassword"),
	}
	switch {
	case pc.Current == "" || pc.New == "":
		c.notify(w, r, FlashError, "Both passwords are required.")
	case pc.New != r.PostFormValue("confirmPassword"):
		c.notify(w, r, FlashError, "New passwords do not match.")
	default:
		err := c.sess.ChangePassword(r.Context(), pc)
		c.metrics.RecordSessionOp("password", err)
		if err != nil {
			c.logger.WithContext(r.Context()).WithError(err).Warn("password change failed")
			c.notify(w, r, FlashError, errors.UserMessage(err))
		} else {
			c.notify(w, r, FlashSuccess, "Password changed.")
		}
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
