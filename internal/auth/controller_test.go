package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quickorder/internal/domain"
	"quickorder/internal/metrics"
	"quickorder/internal/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockProvider struct {
	SignInFunc            func(ctx context.Context, clientID, email, password string) (*Result, error)
	RegisterFunc          func(ctx context.Context, clientID string, req RegisterRequest) (*Result, error)
	SendPasswordResetFunc func(ctx context.Context, email string) error
	CurrentUserFunc       func(ctx context.Context, token string) (*domain.User, error)
	SignOutFunc           func(ctx context.Context, clientID, token string) error
}

func (m *mockProvider) SignIn(ctx context.Context, clientID, email, password string) (*Result, error) {
	return m.SignInFunc(ctx, clientID, email, password)
}

func (m *mockProvider) Register(ctx context.Context, clientID string, req RegisterRequest) (*Result, error) {
	return m.RegisterFunc(ctx, clientID, req)
}

func (m *mockProvider) SendPasswordReset(ctx context.Context, email string) error {
	return m.SendPasswordResetFunc(ctx, email)
}

func (m *mockProvider) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return m.CurrentUserFunc(ctx, token)
}

func (m *mockProvider) SignOut(ctx context.Context, clientID, token string) error {
	return m.SignOutFunc(ctx, clientID, token)
}

func (m *mockProvider) OnAuthStateChanged(listener StateListener) {}

func doRequest(handler http.HandlerFunc, body string, s session.Session) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(session.WithSession(req.Context(), s))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestController_SignIn_Success(t *testing.T) {
	ctrl := NewController(&mockProvider{
		SignInFunc: func(ctx context.Context, clientID, email, password string) (*Result, error) {
			assert.Equal(t, "client-1", clientID)
			return &Result{User: domain.User{UID: "u1", Email: email}, Token: "tok"}, nil
		},
	}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.SignIn, `{"email":"ana@example.com","password":"secret1"}`, session.Session{ClientID: "client-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "u1", body["user"].(map[string]interface{})["uid"])
}

func TestController_SignIn_AuthErrorMapped(t *testing.T) {
	m := metrics.New()
	ctrl := NewController(&mockProvider{
		SignInFunc: func(ctx context.Context, clientID, email, password string) (*Result, error) {
			return nil, &AuthError{Code: CodeWrongPassword}
		},
	}, m, zap.NewNop())

	rec := doRequest(ctrl.SignIn, `{"email":"ana@example.com","password":"secret1"}`, session.Session{ClientID: "c"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"auth/wrong-password","message":"Incorrect password. Please try again."}`, rec.Body.String())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues(CodeWrongPassword)))
}

func TestController_SignIn_ValidatesForm(t *testing.T) {
	ctrl := NewController(&mockProvider{}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.SignIn, `{"email":"nope","password":"123"}`, session.Session{ClientID: "c"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter a valid email address")
	assert.Contains(t, rec.Body.String(), "Password must be at least 6 characters")
}

func TestController_Register(t *testing.T) {
	var got RegisterRequest
	ctrl := NewController(&mockProvider{
		RegisterFunc: func(ctx context.Context, clientID string, req RegisterRequest) (*Result, error) {
			got = req
			return &Result{User: domain.User{UID: "u1"}, Token: "tok"}, nil
		},
	}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.Register, `{"firstName":"Ana","lastName":"Reyes","email":"ana@example.com","password":"secret1","confirmPassword":"secret1","agreeTerms":true}`, session.Session{ClientID: "c"})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "secret1", got.Password)
}

func TestController_Register_ValidationDetails(t *testing.T) {
	ctrl := NewController(&mockProvider{}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.Register, `{"firstName":"A","lastName":"","email":"ana@example.com","password":"secret1","confirmPassword":"secret2"}`, session.Session{ClientID: "c"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var fields []string
	for _, d := range body.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"firstName", "lastName", "confirmPassword", "agreeTerms"}, fields)
}

func TestController_Register_RejectsOverlongPassword(t *testing.T) {
	called := false
	ctrl := NewController(&mockProvider{
		RegisterFunc: func(ctx context.Context, clientID string, req RegisterRequest) (*Result, error) {
			called = true
			return nil, nil
		},
	}, metrics.New(), zap.NewNop())

	long := strings.Repeat("a", MaxPasswordLength+1)
	rec := doRequest(ctrl.Register, `{"firstName":"Ana","lastName":"Reyes","email":"ana@example.com","password":"`+long+`","confirmPassword":"`+long+`","agreeTerms":true}`, session.Session{ClientID: "c"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password must be at most 72 bytes")
	assert.False(t, called)
}

func TestController_Register_EmailInUse(t *testing.T) {
	ctrl := NewController(&mockProvider{
		RegisterFunc: func(ctx context.Context, clientID string, req RegisterRequest) (*Result, error) {
			return nil, &AuthError{Code: CodeEmailAlreadyInUse}
		},
	}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.Register, `{"firstName":"Ana","lastName":"Reyes","email":"ana@example.com","password":"secret1","confirmPassword":"secret1","agreeTerms":true}`, session.Session{ClientID: "c"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "An account with this email already exists.")
}

func TestController_PasswordReset(t *testing.T) {
	ctrl := NewController(&mockProvider{
		SendPasswordResetFunc: func(ctx context.Context, email string) error {
			if email == "ghost@example.com" {
				return &AuthError{Code: CodeUserNotFound}
			}
			if email == "down@example.com" {
				return errors.New("mailer offline")
			}
			return nil
		},
	}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.PasswordReset, `{"email":"ana@example.com"}`, session.Session{ClientID: "c"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(ctrl.PasswordReset, `{"email":"ghost@example.com"}`, session.Session{ClientID: "c"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No account found with this email address.")

	rec = doRequest(ctrl.PasswordReset, `{"email":""}`, session.Session{ClientID: "c"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter your registered email to reset your password.")

	rec = doRequest(ctrl.PasswordReset, `{"email":"down@example.com"}`, session.Session{ClientID: "c"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestController_SignOut(t *testing.T) {
	var gotToken string
	ctrl := NewController(&mockProvider{
		SignOutFunc: func(ctx context.Context, clientID, token string) error {
			gotToken = token
			return nil
		},
	}, metrics.New(), zap.NewNop())

	rec := doRequest(ctrl.SignOut, ``, session.Session{ClientID: "c", Token: "tok", User: &domain.User{UID: "u1"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", gotToken)
}
