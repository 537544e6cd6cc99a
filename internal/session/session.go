package session

import (
	"context"

	"quickorder/internal/domain"
)

// Session is the per-request application state: which client is calling and,
// when a valid bearer token was presented, who is signed in.
type Session struct {
	ClientID string
	User     *domain.User
	Token    string
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin()
}

// UserID is empty for anonymous sessions.
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.UID
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
