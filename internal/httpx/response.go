package httpx

import (
	"encoding/json"
	"net/http"

	apperrors "quickorder/internal/errors"

	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteValidationError(w http.ResponseWriter, logger *zap.Logger, message string, details ...apperrors.ValidationDetail) {
	if details == nil {
		details = []apperrors.ValidationDetail{}
	}
	WriteJSON(w, logger, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

// WriteError maps the typed errors to status codes. Anything unrecognised is
// logged and reported as an internal error without its cause.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, logger, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		WriteJSON(w, logger, http.StatusNotFound, ErrorResponse{Error: "NOT_FOUND", Message: err.Error()})
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		WriteJSON(w, logger, http.StatusConflict, ErrorResponse{Error: "CONFLICT", Message: err.Error()})
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		WriteJSON(w, logger, http.StatusForbidden, ErrorResponse{Error: "FORBIDDEN", Message: err.Error()})
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		WriteJSON(w, logger, http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED", Message: err.Error()})
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	WriteJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "an unexpected error occurred",
	})
}

// DecodeJSON decodes the request body into dst, reporting a malformed body as
// a validation error on the "body" field.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}
