// Package session gates the application behind an authenticated session.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User-facing messages.
const (
	DisabledWarning     = "Authentication is currently disabled. No authentication provider has been configured for this deployment."
	NotConfiguredError  = "Authentication service is not configured. Please contact support."
	ConfirmationMessage = "Account created! Check your email to confirm your account."

	msgMissingCredentials = "Please enter both email and password."
	msgShortPassword      = "Password must be at least 6 characters."
	msgInvalidEmail       = "Please enter a valid email address."
	msgBadCredentials     = "Invalid email or password. Please try again."
	msgUnconfirmed        = "Please confirm your email address first."
	msgAlreadyRegistered  = "This email is already registered. Please sign in instead."
	msgInvalidSignUpEmail = "Invalid email address. Please check and try again."
	msgSignInFallback     = "Failed to sign in. Please try again."
	msgSignUpFallback     = "Failed to sign up. Please try again."
)

// MinPasswordLength is the shortest password accepted before calling the provider.
const MinPasswordLength = 6

// Session is an authenticated user session. Its contents are opaque to the gate.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Provider is the external authentication service.
type Provider interface {
	// CurrentSession returns the active session or nil.
	CurrentSession(ctx context.Context) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// SignUp may return a nil session when the account awaits confirmation.
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// Subscribe registers fn for session changes and returns its cancel func.
	Subscribe(fn func(*Session)) (unsubscribe func())
}

// ProviderError is a failure reported by the authentication service itself,
// as opposed to a transport problem reaching it.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// AuthError carries a message safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidateCredentials normalizes email and checks both inputs before any
// provider call.
func ValidateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case email == "" || password == "":
		return "", &AuthError{Message: msgMissingCredentials}
	case len(password) < MinPasswordLength:
		return "", &AuthError{Message: msgShortPassword}
	case !strings.Contains(email, "@"):
		return "", &AuthError{Message: msgInvalidEmail}
	}

	return email, nil
}

func signInError(err error) error {
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		return &AuthError{Message: "Sign in failed: " + err.Error(), Err: err}
	}

	switch msg := providerErr.Message; {
	case strings.Contains(msg, "Invalid login credentials"):
		return &AuthError{Message: msgBadCredentials, Err: err}
	case strings.Contains(msg, "Email not confirmed"):
		return &AuthError{Message: msgUnconfirmed, Err: err}
	case msg == "":
		return &AuthError{Message: msgSignInFallback, Err: err}
	default:
		return &AuthError{Message: msg, Err: err}
	}
}

func signUpError(err error) error {
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		return &AuthError{Message: "Sign up failed: " + err.Error(), Err: err}
	}

	switch msg := providerErr.Message; {
	case strings.Contains(msg, "already registered"):
		return &AuthError{Message: msgAlreadyRegistered, Err: err}
	case strings.Contains(msg, "invalid"):
		return &AuthError{Message: msgInvalidSignUpEmail, Err: err}
	case msg == "":
		return &AuthError{Message: msgSignUpFallback, Err: err}
	default:
		return &AuthError{Message: msg, Err: err}
	}
}
