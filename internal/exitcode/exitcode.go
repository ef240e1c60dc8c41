package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AccessDenied indicates the session role may not perform the action
	AccessDenied = 3

	// ConfigError indicates unusable configuration
	ConfigError = 4

	// AuthError indicates an authentication failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// APIError indicates the backend rejected the request
	APIError = 7

	// Interrupted indicates the user cancelled with Ctrl+C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Coded errors map by
// category; anything else is matched on cobra's usage messages.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if ce, ok := errors.As(err); ok {
		if ce.Code == errors.ErrCodeAccessDenied {
			return AccessDenied
		}
		if ce.Code == errors.ErrCodeCanceled {
			return Interrupted
		}
		switch ce.Code.Category() {
		case errors.CategoryAuth:
			return AuthError
		case errors.CategoryNetwork:
			return NetworkError
		case errors.CategoryAPI:
			return APIError
		case errors.CategoryConfig:
			return ConfigError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "invalid argument") || strings.Contains(errMsg, "required flag") ||
		strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AccessDenied:
		return "Access denied"
	case ConfigError:
		return "Configuration error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case APIError:
		return "Backend API error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
