package ux

import (
	"fmt"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

// EnhanceError attaches suggestions to errors that arrive without any.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	ce, ok := errors.As(err)
	if !ok || len(ce.Suggestions) > 0 {
		return err
	}

	switch {
	case ce.Status == 401:
		return ce.WithSuggestion("Check your username and password, then run 'retailctl login' again")
	case ce.Status == 403:
		return ce.WithSuggestion("Your role does not allow this action; run 'retailctl whoami' to see it")
	case ce.Status >= 500:
		return ce.WithSuggestion("The backend reported an internal error; try again or check its logs")
	case ce.Code == errors.ErrCodeCanceled:
		return ce.WithSuggestion("The request was interrupted before it completed")
	}
	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
