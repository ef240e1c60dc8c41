package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeNoToken      ErrorCode = "AUTH-001"
	ErrCodeInvalidToken ErrorCode = "AUTH-002"
	ErrCodeNotLoggedIn  ErrorCode = "AUTH-003"
	ErrCodeAccessDenied ErrorCode = "AUTH-004"

	// Network errors (NET-001 to NET-099)
	ErrCodeNoResponse ErrorCode = "NET-001"
	ErrCodeCanceled   ErrorCode = "NET-002"

	// Backend API errors (API-001 to API-099)
	ErrCodeAPIStatus   ErrorCode = "API-001"
	ErrCodeAPIResponse ErrorCode = "API-002"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigLoad    ErrorCode = "CONFIG-002"

	// Storage I/O errors (IO-001 to IO-099)
	ErrCodeStorageOpen  ErrorCode = "IO-001"
	ErrCodeStorageRead  ErrorCode = "IO-002"
	ErrCodeStorageWrite ErrorCode = "IO-003"
	ErrCodeMarshal      ErrorCode = "IO-004"
	ErrCodeUnmarshal    ErrorCode = "IO-005"
)

// Category is the error family encoded in the code prefix.
type Category string

const (
	CategoryAuth    Category = "AUTH"
	CategoryNetwork Category = "NET"
	CategoryAPI     Category = "API"
	CategoryConfig  Category = "CONFIG"
	CategoryIO      Category = "IO"
)

// Category returns the family of the code, e.g. AUTH for AUTH-002.
func (c ErrorCode) Category() Category {
	prefix, _, _ := strings.Cut(string(c), "-")
	return Category(prefix)
}

// ConsoleError represents an enhanced error with code, suggestions, and an optional HTTP status
type ConsoleError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	// Status is the backend HTTP status for API errors, zero otherwise.
	Status int
	Cause  error
}

// Error implements the error interface
func (e *ConsoleError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *ConsoleError) Unwrap() error {
	return e.Cause
}

// New creates a new ConsoleError
func New(code ErrorCode, message string) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new ConsoleError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *ConsoleError {
	return &ConsoleError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *ConsoleError) WithSuggestion(suggestion string) *ConsoleError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *ConsoleError) WithSuggestions(suggestions ...string) *ConsoleError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// As extracts the ConsoleError from an error chain.
func As(err error) (*ConsoleError, bool) {
	var ce *ConsoleError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	ce, ok := As(err)
	return ok && ce.Code == code
}

// CategoryOf returns the category of err, or "" when err is not a ConsoleError.
func CategoryOf(err error) Category {
	if ce, ok := As(err); ok {
		return ce.Code.Category()
	}
	return ""
}

// IsAuth reports whether err is an authentication/authorization failure.
func IsAuth(err error) bool { return CategoryOf(err) == CategoryAuth }

// IsNetwork reports whether err means no response was received.
func IsNetwork(err error) bool { return CategoryOf(err) == CategoryNetwork }

// IsAPI reports whether err is a response the server returned with a failure status.
func IsAPI(err error) bool { return CategoryOf(err) == CategoryAPI }

// UserMessage returns the human readable message without code or suggestions.
// Forms and notifications show this text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := As(err); ok {
		return ce.Message
	}
	return err.Error()
}

// Common error constructors for frequently used errors

// NewNoTokenError is returned when a login response carries no token string.
func NewNoTokenError() *ConsoleError {
	return New(ErrCodeNoToken, "no token found").
		WithSuggestion("Check that the backend /auth/login endpoint returns a token")
}

// NewInvalidTokenError is returned when a token cannot be decoded into claims.
func NewInvalidTokenError() *ConsoleError {
	return New(ErrCodeInvalidToken, "invalid token").
		WithSuggestion("Run 'retailctl login' again to obtain a fresh token")
}

// NewNotLoggedInError is returned by operations that need a session.
func NewNotLoggedInError() *ConsoleError {
	return New(ErrCodeNotLoggedIn, "not logged in").
		WithSuggestion("Run 'retailctl login' to authenticate")
}

// NewAccessDeniedError describes a role gate denial.
func NewAccessDeniedError(required []string, actual string) *ConsoleError {
	if actual == "" {
		actual = "none"
	}
	return New(ErrCodeAccessDenied, fmt.Sprintf("access denied: requires one of %s, current role %s",
		strings.Join(required, ", "), actual)).
		WithSuggestion("Ask an administrator for a role with access to this view")
}

// NewNetworkError is returned when a request produced no response.
func NewNetworkError(cause error) *ConsoleError {
	return Wrap(ErrCodeNoResponse, "network error: no response from backend", cause).
		WithSuggestion("Check your connection and make sure the backend is running").
		WithSuggestion("Verify the API URL with 'retailctl --api-url <url>' or RETAILCTL_API_URL")
}

// NewCanceledError is returned when the caller abandoned a pending request.
func NewCanceledError(cause error) *ConsoleError {
	return Wrap(ErrCodeCanceled, "request canceled", cause)
}

// NewAPIError is returned when the backend answered with a non-success status.
// The server supplied message is used when present.
func NewAPIError(status int, serverMessage string) *ConsoleError {
	msg := strings.TrimSpace(serverMessage)
	if msg == "" {
		msg = fmt.Sprintf("request failed (%d)", status)
	}
	e := New(ErrCodeAPIStatus, msg)
	e.Status = status
	return e
}

// NewConfigInvalidError reports an unusable configuration value.
func NewConfigInvalidError(field, details string) *ConsoleError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration %s: %s", field, details)).
		WithSuggestion("Check ~/.retailctl/config.yaml and RETAILCTL_* environment variables")
}
