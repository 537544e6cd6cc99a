package auth

import (
	"errors"
	"net/http"
)

const (
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeUserDisabled        = "auth/user-disabled"
	CodeTooManyRequests     = "auth/too-many-requests"
	CodeEmailAlreadyInUse   = "auth/email-already-in-use"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeWeakPassword        = "auth/weak-password"
)

const (
	FallbackSignIn        = "Sign in failed. Please try again."
	FallbackRegister      = "Registration failed. Please try again."
	FallbackPasswordReset = "Unable to send reset email. Please try again."
)

// AuthError is a failure reported by the auth capability, identified by code.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return e.Code
}

func IsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Message turns an auth failure into the text shown to the user. Errors
// without a known code get the fallback for the operation.
func Message(err error, fallback string) string {
	ae, ok := IsAuthError(err)
	if !ok {
		return fallback
	}

	switch ae.Code {
	case CodeUserNotFound:
		return "No account found with this email address."
	case CodeWrongPassword:
		return "Incorrect password. Please try again."
	case CodeInvalidEmail:
		return "Invalid email address format."
	case CodeUserDisabled:
		return "This account has been disabled."
	case CodeTooManyRequests:
		return "Too many failed attempts. Please try again later."
	case CodeEmailAlreadyInUse:
		return "An account with this email already exists."
	case CodeOperationNotAllowed:
		return "Email/password accounts are not enabled."
	case CodeWeakPassword:
		return "Password is too weak. Please choose a stronger password."
	default:
		return fallback
	}
}

func statusFor(code string) int {
	switch code {
	case CodeUserNotFound, CodeWrongPassword:
		return http.StatusUnauthorized
	case CodeEmailAlreadyInUse:
		return http.StatusConflict
	case CodeUserDisabled, CodeOperationNotAllowed:
		return http.StatusForbidden
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadRequest
	}
}
