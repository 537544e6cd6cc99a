package auth

import (
	"context"
	"time"

	"quickorder/internal/domain"
)

type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Result is a signed-in user together with the session token to present as a
// bearer credential.
type Result struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// StateListener is called after a client signs in (user set) or signs out
// (user nil).
type StateListener func(ctx context.Context, clientID string, user *domain.User)

type Provider interface {
	SignIn(ctx context.Context, clientID, email, password string) (*Result, error)
	Register(ctx context.Context, clientID string, req RegisterRequest) (*Result, error)
	SendPasswordReset(ctx context.Context, email string) error
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	SignOut(ctx context.Context, clientID, token string) error
	OnAuthStateChanged(listener StateListener)
}
