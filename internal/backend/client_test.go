package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

func TestLogin_SendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "admin", req.Username)
		assert.Equal(t, "admin123", req.Password)

		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api/")
	body, err := client.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(body))
}

func TestBearerToken(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":7,"username":"jane","role":"STAFF"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetToken("tok-1")
	assert.Equal(t, "tok-1", client.Token())

	p, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", seen)
	assert.Equal(t, "jane", p.Username)
	assert.Equal(t, "STAFF", p.Role)

	client.ClearToken()
	_, err = client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestGetProfile_DataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"username":"mgr","role":"MANAGER"}}`))
	}))
	defer server.Close()

	p, err := NewClient(server.URL).GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mgr", p.Username)
	assert.Equal(t, "MANAGER", p.Role)
}

func TestUpdateUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/42", r.URL.Path)

		var fields map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, map[string]any{"email": "new@retail.test"}, fields)

		_, _ = w.Write([]byte(`{"id":42,"email":"new@retail.test"}`))
	}))
	defer server.Close()

	body, err := NewClient(server.URL).UpdateUser(context.Background(), "42", map[string]any{"email": "new@retail.test"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "new@retail.test")
}

func TestRegisterAndChangePassword(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Register(context.Background(), RegisterRequest{Username: "u", Email: "u@x", Password: "p"})
	require.NoError(t, err)
	require.NoError(t, client.ChangePassword(context.Background(), ChangePasswordRequest{CurrentPassword: "p", NewPassword: "q"}))

	assert.Equal(t, []string{"/auth/register", "/auth/change-password"}, paths)
}

func TestAPIErrorNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusUnauthorized, `{"message":"Bad credentials"}`, "Bad credentials"},
		{"error field", http.StatusForbidden, `{"error":"forbidden"}`, "forbidden"},
		{"message wins over error", http.StatusBadRequest, `{"error":"x","message":"y"}`, "y"},
		{"plain text body", http.StatusInternalServerError, `boom`, "request failed (500)"},
		{"empty json", http.StatusNotFound, `{}`, "request failed (404)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Login(context.Background(), LoginRequest{})
			require.Error(t, err)
			assert.True(t, errors.IsAPI(err))
			assert.False(t, errors.IsNetwork(err))

			ce, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, ce.Message)
			assert.Equal(t, tt.status, ce.Status)
		})
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).Login(context.Background(), LoginRequest{})
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoResponse))
	assert.False(t, errors.IsAPI(err))
}

func TestCanceledRequest(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL).Login(ctx, LoginRequest{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCanceled))
}

func TestWithTimeoutOption(t *testing.T) {
	client := NewClient("http://localhost", WithTimeout(5*time.Second))
	assert.Equal(t, 5*time.Second, client.HTTPClient.Timeout)

	hc := &http.Client{}
	client = NewClient("http://localhost", WithHTTPClient(hc))
	assert.Same(t, hc, client.HTTPClient)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	c := NewClient(srv.URL)
	assert.NoError(t, c.Ping(context.Background()), "any status means reachable")

	srv.Close()
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}
