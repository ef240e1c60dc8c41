package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/retailctl/internal/config"
	"github.com/felixgeelhaar/retailctl/internal/errors"
	"github.com/felixgeelhaar/retailctl/internal/exitcode"
	"github.com/felixgeelhaar/retailctl/internal/log"
)

type fakeBackend struct {
	t     *testing.T
	mu    sync.Mutex
	calls []string
}

func (f *fakeBackend) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		now := time.Now()
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":  body.Username,
			"role": strings.ToUpper(body.Username),
			"iat":  now.Unix(),
			"exp":  now.Add(time.Hour).Unix(),
		}).SignedString([]byte("cmd-test-secret-0123456789abcdef"))
		require.NoError(f.t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": tok})
	case r.URL.Path == "/users/profile":
		_, _ = w.Write([]byte(`{"data":{"id":7,"username":"staff","email":"staff@retail.test","role":"STAFF"}}`))
	case r.URL.Path == "/auth/register", r.URL.Path == "/auth/change-password", r.Method == http.MethodPut:
		_, _ = w.Write([]byte(`{"ok":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cliEnv struct {
	api     *httptest.Server
	backend *fakeBackend
	db      string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CI", "true")

	b := &fakeBackend{t: t}
	api := httptest.NewServer(b)
	t.Cleanup(api.Close)
	return &cliEnv{api: api, backend: b, db: filepath.Join(home, "session.db")}
}

// run executes one retailctl invocation; every call builds a fresh command
// tree and reopens storage, like a new process would.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--api-url", e.api.URL, "--storage", e.db, "--env-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func TestLoginThenWhoamiInFreshProcess(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "login", "-u", "staff", "-p", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as staff (STAFF)")

	out, err = env.run(t, "whoami", "--format", "json")
	require.NoError(t, err)

	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "staff", user["username"])
	assert.Equal(t, "STAFF", user["role"])
	assert.Equal(t, []any{"dashboard", "products", "inventory", "orders"}, user["permissions"])

	out, err = env.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Staff")
	assert.Contains(t, out, "staff@example.com")
}

func TestLoginErrors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "login", "-u", "staff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"password"`)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))

	_, err = env.run(t, "login", "-u", "staff", "-p", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Equal(t, exitcode.APIError, exitcode.DetermineExitCode(err))

	_, err = env.run(t, "whoami")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotLoggedIn))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))
}

func TestWhoamiRemote(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "login", "-u", "staff", "-p", "secret")
	require.NoError(t, err)

	out, err := env.run(t, "whoami", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "staff@retail.test")
	assert.True(t, env.backend.called("GET /users/profile"))
}

func TestCan(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "login", "-u", "staff", "-p", "secret")
	require.NoError(t, err)

	out, err := env.run(t, "can", "viewer")
	require.NoError(t, err)
	assert.Contains(t, out, "STAFF satisfies VIEWER")

	out, err = env.run(t, "can", "MANAGER")
	require.Error(t, err)
	assert.Contains(t, out, "STAFF does not satisfy MANAGER")
	assert.Equal(t, exitcode.AccessDenied, exitcode.DetermineExitCode(err))

	_, err = env.run(t, "can", "BOSS")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestCanWithoutSession(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "can", "VIEWER", "--format", "json")
	require.Error(t, err)
	assert.JSONEq(t, `{"required":"VIEWER","role":"","allowed":false}`, out)
}

func TestNavFollowsRole(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "login", "-u", "viewer", "-p", "secret")
	require.NoError(t, err)

	out, err := env.run(t, "nav", "--format", "json")
	require.NoError(t, err)

	var routes []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	var paths []string
	for _, r := range routes {
		paths = append(paths, r["path"].(string))
	}
	assert.Equal(t, []string{"/dashboard", "/products", "/inventory", "/warehouses"}, paths)

	out, err = env.run(t, "nav")
	require.NoError(t, err)
	assert.Contains(t, out, "Operations")
	assert.NotContains(t, out, "/users")
}

func TestOpen(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "open", "/products")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotLoggedIn))

	_, err = env.run(t, "login", "-u", "staff", "-p", "secret")
	require.NoError(t, err)

	out, err := env.run(t, "open", "users")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAccessDenied))
	assert.Contains(t, out, "Access Denied")
	assert.Contains(t, out, "/users requires one of: ADMIN")
	assert.Contains(t, out, "Your role: STAFF")

	out, err = env.run(t, "open", "/products/edit/42")
	require.NoError(t, err)
	assert.Contains(t, out, "http://127.0.0.1:8088/products/edit/42")

	_, err = env.run(t, "open", "/nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown view /nowhere")
}

func TestProfileUpdateSurvivesRestart(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "login", "-u", "staff", "-p", "secret")
	require.NoError(t, err)

	_, err = env.run(t, "profile", "update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	out, err := env.run(t, "profile", "update", "--first-name", "Ada", "--last-name", "Lovelace")
	require.NoError(t, err)
	assert.Contains(t, out, "Profile updated")
	assert.True(t, env.backend.called("PUT /users/staff"))

	out, err = env.run(t, "whoami", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "firstName: Ada")
	assert.Contains(t, out, "lastName: Lovelace")
	assert.Contains(t, out, "role: STAFF")
}

func TestLogout(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "login", "-u", "admin", "-p", "secret")
	require.NoError(t, err)

	out, err := env.run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = env.run(t, "logout")
	require.NoError(t, err, "logout is idempotent")

	_, err = env.run(t, "whoami")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotLoggedIn))
}

func TestRegisterAndPassword(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "register", "--username", "newbie", "--email", "n@retail.test", "--password", "pw", "--role", "STAFF")
	require.NoError(t, err)
	assert.Contains(t, out, "Account newbie created")
	assert.True(t, env.backend.called("POST /auth/register"))

	_, err = env.run(t, "password", "--current", "a", "--new", "b")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotLoggedIn))

	_, err = env.run(t, "login", "-u", "staff", "-p", "secret")
	require.NoError(t, err)
	out, err = env.run(t, "password", "--current", "secret", "--new", "n3w")
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed")
	assert.True(t, env.backend.called("POST /auth/change-password"))
}

func TestConfigCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "config", "get", "console.addr")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8088\n", out)

	out, err = env.run(t, "config", "get", "api_url")
	require.NoError(t, err)
	assert.Equal(t, env.api.URL+"\n", out)

	_, err = env.run(t, "config", "get", "console.nope")
	assert.Error(t, err)

	out, err = env.run(t, "config", "init")
	require.NoError(t, err)
	path := filepath.Join(os.Getenv("HOME"), ".retailctl", "config.yaml")
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = env.run(t, "config", "init")
	assert.Error(t, err, "init refuses to overwrite")

	out, err = env.run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	t.Setenv("RETAILCTL_LOG__LEVEL", "debug")
	out, err = env.run(t, "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")
}

func TestInvalidConfig(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "whoami", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, exitcode.ConfigError, exitcode.DetermineExitCode(err))
}

func TestVersionSkipsConfig(t *testing.T) {
	newCLIEnv(t)
	root, _ := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--api-url", "not a url", "version", "--json"})
	require.NoError(t, root.Execute())

	var info map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "goVersion")
}

func TestDoctor(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "doctor", "--format", "json")
	require.NoError(t, err)

	var report struct {
		Checks    map[string]struct{ Status string } `json:"checks"`
		NextSteps []string                           `json:"next_steps"`
		Healthy   bool                               `json:"healthy"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Healthy)
	assert.Equal(t, "healthy", report.Checks["backend"].Status)
	assert.Equal(t, "healthy", report.Checks["storage"].Status)
	assert.Contains(t, report.NextSteps, "Run 'retailctl login' to sign in")

	env.api.Close()
	out, err = env.run(t, "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "unreachable")
}

func TestCompletion(t *testing.T) {
	newCLIEnv(t)
	root, _ := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "retailctl")

	roles, _ := completeRoles(nil, nil, "ma")
	assert.Equal(t, []string{"MANAGER"}, roles)
	views, _ := completeViews(nil, nil, "/sup")
	assert.Equal(t, []string{"/suppliers\tSuppliers"}, views)
}

func TestServe(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "login", "-u", "admin", "-p", "secret")
	require.NoError(t, err)

	_, a := newRootCmd()
	a.opts = globalOptions{apiURL: env.api.URL, storage: env.db}
	require.NoError(t, a.loadConfig())
	require.NoError(t, a.open())
	defer a.close()
	var out bytes.Buffer
	a.out = &out

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health/startup")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(base + "/settings")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "session from the CLI is shared with the console")

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
	assert.Contains(t, out.String(), "Console stopped")
}

func TestLoggerConfig(t *testing.T) {
	var buf bytes.Buffer

	debug := loggerConfig(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	assert.Equal(t, log.LevelDebug, debug.Level)
	assert.Equal(t, log.FormatJSON, debug.Format)
	assert.True(t, debug.AddSource, "debug level logs source locations")

	warn := loggerConfig(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	assert.Equal(t, log.LevelWarn, warn.Level)
	assert.False(t, warn.AddSource)

	log.New(debug).Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
}
