package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{CodeUserNotFound, "No account found with this email address."},
		{CodeWrongPassword, "Incorrect password. Please try again."},
		{CodeInvalidEmail, "Invalid email address format."},
		{CodeUserDisabled, "This account has been disabled."},
		{CodeTooManyRequests, "Too many failed attempts. Please try again later."},
		{CodeEmailAlreadyInUse, "An account with this email already exists."},
		{CodeOperationNotAllowed, "Email/password accounts are not enabled."},
		{CodeWeakPassword, "Password is too weak. Please choose a stronger password."},
		{"auth/network-request-failed", FallbackSignIn},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(&AuthError{Code: tt.code}, FallbackSignIn))
		})
	}
}

func TestMessage_UncodedErrorUsesFallback(t *testing.T) {
	assert.Equal(t, FallbackRegister, Message(errors.New("boom"), FallbackRegister))
	assert.Equal(t, FallbackPasswordReset, Message(nil, FallbackPasswordReset))
}

func TestIsAuthError_Wrapped(t *testing.T) {
	err := fmt.Errorf("sign in: %w", &AuthError{Code: CodeWrongPassword})

	ae, ok := IsAuthError(err)

	assert.True(t, ok)
	assert.Equal(t, CodeWrongPassword, ae.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, statusFor(CodeWrongPassword))
	assert.Equal(t, http.StatusConflict, statusFor(CodeEmailAlreadyInUse))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(CodeTooManyRequests))
	assert.Equal(t, http.StatusBadRequest, statusFor(CodeWeakPassword))
}
