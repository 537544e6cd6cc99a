package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/httpx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CookieName     = "qo_client"
	HeaderClientID = "X-Client-ID"

	cookieMaxAge = 365 * 24 * time.Hour
)

type TokenVerifier interface {
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

type Middleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewMiddleware(verifier TokenVerifier, logger *zap.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		logger:   logger,
	}
}

// Handler resolves the client id and the signed-in user and stores them in the
// request context. Unknown or malformed client ids are replaced with a new one.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIDFrom(r)
		if clientID == "" {
			clientID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    clientID,
				Path:     "/",
				MaxAge:   int(cookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(HeaderClientID, clientID)

		s := Session{ClientID: clientID}
		if token := bearerToken(r); token != "" {
			user, err := m.verifier.CurrentUser(r.Context(), token)
			if err != nil {
				m.logger.Debug("ignoring invalid session token",
					zap.String("clientId", clientID),
					zap.Error(err),
				)
			} else {
				s.User = user
				s.Token = token
			}
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).Authenticated() {
			httpx.WriteError(w, m.logger, apperrors.NewUnauthorizedError("sign in required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		if !s.Authenticated() {
			httpx.WriteError(w, m.logger, apperrors.NewUnauthorizedError("sign in required"))
			return
		}
		if !s.IsAdmin() {
			httpx.WriteError(w, m.logger, apperrors.NewForbiddenError("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIDFrom(r *http.Request) string {
	candidates := []string{r.Header.Get(HeaderClientID)}
	if c, err := r.Cookie(CookieName); err == nil {
		candidates = append(candidates, c.Value)
	}

	for _, id := range candidates {
		if id == "" {
			continue
		}
		if parsed, err := uuid.Parse(id); err == nil {
			return parsed.String()
		}
	}
	return ""
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
