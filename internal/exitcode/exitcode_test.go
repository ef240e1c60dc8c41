package exitcode

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error returns success", nil, Success},
		{"no token", errors.NewNoTokenError(), AuthError},
		{"not logged in wrapped", fmt.Errorf("whoami: %w", errors.NewNotLoggedInError()), AuthError},
		{"access denied", errors.NewAccessDeniedError([]string{"ADMIN"}, "STAFF"), AccessDenied},
		{"network", errors.NewNetworkError(stderrors.New("dial tcp: refused")), NetworkError},
		{"canceled", errors.NewCanceledError(stderrors.New("context canceled")), Interrupted},
		{"api", errors.NewAPIError(500, ""), APIError},
		{"config", errors.NewConfigInvalidError("api_url", "bad"), ConfigError},
		{"storage", errors.New(errors.ErrCodeStorageWrite, "disk full"), GeneralError},
		{"unknown flag", stderrors.New("unknown flag: --nope"), UsageError},
		{"arg count", stderrors.New("accepts 1 arg(s), received 0"), UsageError},
		{"plain error", stderrors.New("something broke"), GeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{Success, "Success"},
		{AccessDenied, "Access denied"},
		{APIError, "Backend API error"},
		{Interrupted, "Interrupted"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		if got := GetExitCodeDescription(tt.code); got != tt.want {
			t.Errorf("GetExitCodeDescription(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
