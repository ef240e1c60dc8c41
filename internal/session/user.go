package session

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/felixgeelhaar/retailctl/internal/rbac"
	"github.com/felixgeelhaar/retailctl/internal/token"
)

const guestUsername = "guest"

// User is the application level identity derived from a token.
//
// Permissions is always rbac.Permissions(Role); nothing else sets it.
type User struct {
	ID          string            `json:"id" yaml:"id"`
	Username    string            `json:"username" yaml:"username"`
	Email       string            `json:"email" yaml:"email"`
	FirstName   string            `json:"firstName" yaml:"firstName"`
	LastName    string            `json:"lastName" yaml:"lastName"`
	Role        rbac.Role         `json:"role" yaml:"role"`
	Permissions []rbac.Capability `json:"permissions" yaml:"permissions"`
	RawClaims   token.Claims      `json:"rawClaims,omitempty" yaml:"rawClaims,omitempty"`
}

// Clone returns a deep enough copy for callers to mutate freely.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = append([]rbac.Capability(nil), u.Permissions...)
	if u.RawClaims != nil {
		c.RawClaims = make(token.Claims, len(u.RawClaims))
		for k, v := range u.RawClaims {
			c.RawClaims[k] = v
		}
	}
	return &c
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Can reports whether the user's role grants capability c.
func (u *User) Can(c rbac.Capability) bool {
	return u != nil && rbac.Can(u.Role, c)
}

// setRole assigns the role and re-derives permissions.
func (u *User) setRole(r rbac.Role) {
	u.Role = r
	u.Permissions = rbac.Permissions(r)
}

// Project builds a User from decoded claims and the optional login response
// body. The role comes from the response (top level, then data), then the
// token's role claim, and falls back to the lowest privilege role.
func Project(claims token.Claims, response map[string]any) *User {
	subject := claims.Subject()
	username := subject
	if username == "" {
		username = claims.String("username")
	}
	if username == "" {
		username = guestUsername
	}

	id := subject
	if id == "" {
		id = username
	}

	email := claims.String("email")
	if email == "" {
		email = username + "@example.com"
	}

	firstName := claims.String("first_name", "firstName")
	if firstName == "" {
		firstName = capitalize(username)
	}

	u := &User{
		ID:        id,
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  claims.String("last_name", "lastName"),
		RawClaims: claims,
	}
	u.setRole(resolveRole(claims, response))
	return u
}

func resolveRole(claims token.Claims, response map[string]any) rbac.Role {
	name := stringField(response, "role")
	if name == "" {
		if data, ok := response["data"].(map[string]any); ok {
			name = stringField(data, "role")
		}
	}
	if name == "" {
		name = claims.String("role")
	}

	if r, ok := rbac.ParseRole(name); ok {
		return r
	}
	return rbac.Viewer
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
