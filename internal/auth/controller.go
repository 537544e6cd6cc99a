package auth

import (
	"net/http"

	apperrors "quickorder/internal/errors"
	"quickorder/internal/httpx"
	"quickorder/internal/metrics"
	"quickorder/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Controller struct {
	provider Provider
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewController(provider Provider, m *metrics.Metrics, logger *zap.Logger) *Controller {
	return &Controller{
		provider: provider,
		metrics:  m,
		logger:   logger,
	}
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterBody struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeTerms      bool   `json:"agreeTerms"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type authResponse struct {
	Message string `json:"message"`
	*Result
}

type messageResponse struct {
	Message string `json:"message"`
}

type authErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	logger := c.requestLogger(s)

	var body RegisterBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	if err := validateRegister(body); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	result, err := c.provider.Register(r.Context(), s.ClientID, RegisterRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Password:  body.Password,
	})
	if err != nil {
		c.writeAuthError(w, logger, err, FallbackRegister)
		return
	}

	httpx.WriteJSON(w, logger, http.StatusCreated, authResponse{
		Message: "Account created successfully! Welcome aboard!",
		Result:  result,
	})
}

func (c *Controller) SignIn(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	logger := c.requestLogger(s)

	var body SignInRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	if err := validateSignIn(body); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	result, err := c.provider.SignIn(r.Context(), s.ClientID, body.Email, body.Password)
	if err != nil {
		c.writeAuthError(w, logger, err, FallbackSignIn)
		return
	}

	logger.Info("sign in successful", zap.String("uid", result.User.UID))
	httpx.WriteJSON(w, logger, http.StatusOK, authResponse{
		Message: "Sign in successful!",
		Result:  result,
	})
}

func (c *Controller) PasswordReset(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	logger := c.requestLogger(s)

	var body PasswordResetRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}
	if !emailPattern.MatchString(normalizeEmail(body.Email)) {
		httpx.WriteValidationError(w, logger, "Please enter your registered email to reset your password.", apperrors.ValidationDetail{
			Field:   "email",
			Message: "Please enter a valid email address",
		})
		return
	}

	if err := c.provider.SendPasswordReset(r.Context(), body.Email); err != nil {
		c.writeAuthError(w, logger, err, FallbackPasswordReset)
		return
	}

	httpx.WriteJSON(w, logger, http.StatusOK, messageResponse{
		Message: "Password reset email sent! Please check your inbox.",
	})
}

func (c *Controller) SignOut(w http.ResponseWriter, r *http.Request) {
	s := session.FromContext(r.Context())
	logger := c.requestLogger(s)

	if err := c.provider.SignOut(r.Context(), s.ClientID, s.Token); err != nil {
		httpx.WriteError(w, logger, err)
		return
	}

	httpx.WriteJSON(w, logger, http.StatusOK, messageResponse{Message: "Signed out"})
}

// writeAuthError reports coded auth failures with their fixed message and
// falls back to the shared error mapping for everything else.
func (c *Controller) writeAuthError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	ae, ok := IsAuthError(err)
	if !ok {
		httpx.WriteError(w, logger, err)
		return
	}

	c.metrics.AuthFailures.WithLabelValues(ae.Code).Inc()
	logger.Info("auth request rejected", zap.String("code", ae.Code))
	httpx.WriteJSON(w, logger, statusFor(ae.Code), authErrorResponse{
		Error:   ae.Code,
		Message: Message(err, fallback),
	})
}

func (c *Controller) requestLogger(s session.Session) *zap.Logger {
	return c.logger.With(
		zap.String("traceId", uuid.New().String()),
		zap.String("clientId", s.ClientID),
	)
}

func validateSignIn(req SignInRequest) error {
	var details []apperrors.ValidationDetail

	if !emailPattern.MatchString(normalizeEmail(req.Email)) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "email",
			Message: "Please enter a valid email address",
		})
	}

	if len(req.Password) < MinPasswordLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "password",
			Message: "Password must be at least 6 characters",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func validateRegister(req RegisterBody) error {
	var details []apperrors.ValidationDetail

	if len(req.FirstName) < 2 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "firstName",
			Message: "First name must be at least 2 characters",
		})
	}

	if len(req.LastName) < 2 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "lastName",
			Message: "Last name must be at least 2 characters",
		})
	}

	if !emailPattern.MatchString(normalizeEmail(req.Email)) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "email",
			Message: "Please enter a valid email address",
		})
	}

	if len(req.Password) < MinPasswordLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "password",
			Message: "Password must be at least 6 characters",
		})
	} else if len(req.Password) > MaxPasswordLength {
		details = append(details, apperrors.ValidationDetail{
			Field:   "password",
			Message: "Password must be at most 72 bytes",
		})
	}

	if req.Password != req.ConfirmPassword {
		details = append(details, apperrors.ValidationDetail{
			Field:   "confirmPassword",
			Message: "Passwords do not match",
		})
	}

	if !req.AgreeTerms {
		details = append(details, apperrors.ValidationDetail{
			Field:   "agreeTerms",
			Message: "Please agree to the Terms of Service and Privacy Policy",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
