package backend

import (
	"context"
	"net/http"
	"net/url"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ChangePasswordRequest represents a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Profile is the subset of GET /users/profile the CLI renders.
type Profile struct {
	ID        any    `json:"id" yaml:"id"`
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
	Role      string `json:"role" yaml:"role"`
}

// Login posts credentials. The body is returned untouched because the token
// may sit in any of several places.
func (c *Client) Login(ctx context.Context, req LoginRequest) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, "/auth/login", req)
}

// Register creates an account. No token is issued.
func (c *Client) Register(ctx context.Context, req RegisterRequest) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPost, "/auth/register", req)
}

// UpdateUser sends a partial user update and returns the updated representation.
func (c *Client) UpdateUser(ctx context.Context, id string, fields map[string]any) ([]byte, error) {
	return c.doRequest(ctx, http.MethodPut, "/users/"+url.PathEscape(id), fields)
}

// ChangePassword changes the logged in user's password.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/auth/change-password", req)
	return err
}

// GetProfile retrieves the currently authenticated user
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/users/profile", nil)
	if err != nil {
		return nil, err
	}

	// Some deployments wrap the user in a data envelope.
	var envelope struct {
		Data *Profile `json:"data"`
	}
	if err := decodeInto(data, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var p Profile
	if err := decodeInto(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
