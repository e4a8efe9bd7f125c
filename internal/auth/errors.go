package auth

import (
	"errors"
	"strings"
)

// Provider messages recognised by Humanize.
const (
	msgInvalidCredentials = "Invalid login credentials"
	msgAlreadyRegistered  = "User already registered"
	msgFailedToFetch      = "Failed to fetch"
)

var (
	errInvalidCredentials = errors.New(msgInvalidCredentials)
	errAlreadyRegistered  = errors.New(msgAlreadyRegistered)
)

// Op is the auth call an error came from.
type Op string

const (
	OpSignIn        Op = "sign_in"
	OpSignUp        Op = "sign_up"
	OpResetPassword Op = "reset_password"
)

// FriendlyError carries a user-facing message and keeps the provider error
// for errors.Is.
type FriendlyError struct {
	Message string
	Err     error
}

func (e *FriendlyError) Error() string { return e.Message }
func (e *FriendlyError) Unwrap() error { return e.Err }

// Humanize rewrites known provider messages into user-facing ones. Other
// errors pass through with their message unchanged.
func Humanize(op Op, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	var friendly string
	switch {
	case op == OpSignIn && strings.Contains(msg, msgInvalidCredentials):
		friendly = "Invalid email or password. Please check your credentials and try again."
	case op == OpSignUp && strings.Contains(msg, msgAlreadyRegistered):
		friendly = "An account with this email already exists. Please sign in instead."
	case strings.Contains(msg, msgFailedToFetch) && op == OpResetPassword:
		friendly = "Cannot connect to authentication service. Please check your internet connection."
	case strings.Contains(msg, msgFailedToFetch):
		friendly = "Cannot connect to authentication service. The service may be unavailable or paused. Please try again later."
	default:
		return err
	}
	return &FriendlyError{Message: friendly, Err: err}
}
