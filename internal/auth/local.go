package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"quickorder/internal/config"
	"quickorder/internal/domain"
	apperrors "quickorder/internal/errors"
	"quickorder/internal/storage"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// bcrypt only reads the first 72 bytes of a password.
	MaxPasswordLength = 72

	maxFailedSignIns  = 5
	failedSignInReset = 15 * time.Minute
	defaultTokenTTL   = 24 * time.Hour
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// storedUser is the account record kept under authUser:{email}.
type storedUser struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"passwordHash"`
	Disabled     bool      `json:"disabled,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// LocalProvider implements Provider on top of the key-value store with bcrypt
// password hashes and HS256 session tokens.
type LocalProvider struct {
	store   storage.Store
	secret  []byte
	ttl     time.Duration
	admins  map[string]struct{}
	limiter *attemptLimiter
	now     func() time.Time
	logger  *zap.Logger

	registerMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []StateListener
}

func NewLocalProvider(store storage.Store, cfg config.AuthConfig, logger *zap.Logger) *LocalProvider {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = defaultTokenTTL
	}

	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}

	return &LocalProvider{
		store:   store,
		secret:  []byte(cfg.JWTSecret),
		ttl:     ttl,
		admins:  admins,
		limiter: newAttemptLimiter(store, maxFailedSignIns, failedSignInReset),
		now:     time.Now,
		logger:  logger,
	}
}

func (p *LocalProvider) Register(ctx context.Context, clientID string, req RegisterRequest) (*Result, error) {
	email := normalizeEmail(req.Email)
	if !emailPattern.MatchString(email) {
		return nil, &AuthError{Code: CodeInvalidEmail}
	}
	if len(req.Password) < MinPasswordLength || len(req.Password) > MaxPasswordLength {
		return nil, &AuthError{Code: CodeWeakPassword}
	}

	p.registerMu.Lock()
	defer p.registerMu.Unlock()

	var existing storedUser
	found, err := p.loadUser(ctx, email, &existing)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, &AuthError{Code: CodeEmailAlreadyInUse}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError("hashing password", err)
	}

	name := strings.TrimSpace(strings.TrimSpace(req.FirstName) + " " + strings.TrimSpace(req.LastName))
	rec := storedUser{
		UID:          uuid.New().String(),
		Email:        email,
		DisplayName:  domain.DisplayNameFor(name, email),
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := storage.SetJSON(ctx, p.store, storage.AuthUserKey(email), rec); err != nil {
		return nil, apperrors.NewInternalError("saving account", err)
	}

	p.logger.Info("account registered", zap.String("uid", rec.UID), zap.String("clientId", clientID))
	return p.signedIn(ctx, clientID, rec)
}

func (p *LocalProvider) SignIn(ctx context.Context, clientID, email, password string) (*Result, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, &AuthError{Code: CodeInvalidEmail}
	}

	now := p.now()
	blocked, err := p.limiter.Blocked(ctx, email, now)
	if err != nil {
		return nil, apperrors.NewInternalError("checking sign-in attempts", err)
	}
	if blocked {
		return nil, &AuthError{Code: CodeTooManyRequests}
	}

	var rec storedUser
	found, err := p.loadUser(ctx, email, &rec)
	if err != nil {
		return nil, err
	}
	if !found {
		p.recordFailure(ctx, email, now)
		return nil, &AuthError{Code: CodeUserNotFound}
	}
	if rec.Disabled {
		return nil, &AuthError{Code: CodeUserDisabled}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		p.recordFailure(ctx, email, now)
		return nil, &AuthError{Code: CodeWrongPassword}
	}

	if err := p.limiter.Reset(ctx, email); err != nil {
		p.logger.Warn("clearing failed sign-ins", zap.Error(err))
	}
	return p.signedIn(ctx, clientID, rec)
}

func (p *LocalProvider) recordFailure(ctx context.Context, email string, now time.Time) {
	if err := p.limiter.Fail(ctx, email, now); err != nil {
		p.logger.Warn("recording failed sign-in", zap.Error(err))
	}
}

// SendPasswordReset checks that the account exists. There is no mail gateway,
// so the request is only logged.
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return &AuthError{Code: CodeInvalidEmail}
	}

	var rec storedUser
	found, err := p.loadUser(ctx, email, &rec)
	if err != nil {
		return err
	}
	if !found {
		return &AuthError{Code: CodeUserNotFound}
	}

	p.logger.Info("password reset requested",
		zap.String("uid", rec.UID),
		zap.String("resetId", uuid.New().String()),
	)
	return nil
}

func (p *LocalProvider) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid session token")
	}

	_, revoked, err := p.store.Get(ctx, storage.AuthRevokedKey(claims.ID))
	if err != nil {
		return nil, fmt.Errorf("checking token revocation: %w", err)
	}
	if revoked {
		return nil, apperrors.NewUnauthorizedError("session has been signed out")
	}

	return &domain.User{
		UID:         claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		Role:        claims.Role,
	}, nil
}

// SignOut revokes the token, when it is still valid, and tells listeners the
// client is anonymous again. The revocation expires together with the token.
func (p *LocalProvider) SignOut(ctx context.Context, clientID, token string) error {
	if claims, err := p.parse(token); err == nil {
		expires, ttl := "", p.ttl
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.UTC().Format(time.RFC3339)
			ttl = claims.ExpiresAt.Sub(p.now())
		}
		if ttl > 0 {
			if err := p.store.SetTTL(ctx, storage.AuthRevokedKey(claims.ID), expires, ttl); err != nil {
				return fmt.Errorf("revoking token: %w", err)
			}
		}
	}

	p.notify(ctx, clientID, nil)
	return nil
}

func (p *LocalProvider) OnAuthStateChanged(listener StateListener) {
	p.listenersMu.Lock()
	defer p.listenersMu.Unlock()
	p.listeners = append(p.listeners, listener)
}

func (p *LocalProvider) signedIn(ctx context.Context, clientID string, rec storedUser) (*Result, error) {
	user := domain.User{
		UID:         rec.UID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		Role:        p.roleFor(rec.Email),
	}

	token, expiresAt, err := p.issue(user)
	if err != nil {
		return nil, apperrors.NewInternalError("issuing session token", err)
	}

	p.notify(ctx, clientID, &user)
	return &Result{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (p *LocalProvider) issue(user domain.User) (string, time.Time, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)

	claims := Claims{
		Email: user.Email,
		Name:  user.DisplayName,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (p *LocalProvider) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("incomplete token claims")
	}
	return claims, nil
}

func (p *LocalProvider) loadUser(ctx context.Context, email string, out *storedUser) (bool, error) {
	found, err := storage.GetJSON(ctx, p.store, storage.AuthUserKey(email), out)
	if err != nil {
		var corrupted *storage.CorruptedError
		if errors.As(err, &corrupted) {
			p.logger.Warn("discarded corrupted account record", zap.Error(err))
			return false, nil
		}
		return false, apperrors.NewInternalError("loading account", err)
	}
	return found, nil
}

func (p *LocalProvider) roleFor(email string) string {
	if _, ok := p.admins[normalizeEmail(email)]; ok {
		return domain.RoleAdmin
	}
	return domain.RoleCustomer
}

func (p *LocalProvider) notify(ctx context.Context, clientID string, user *domain.User) {
	p.listenersMu.RLock()
	listeners := append([]StateListener(nil), p.listeners...)
	p.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ctx, clientID, user)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
